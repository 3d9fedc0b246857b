package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/socialx-api/internal/config"
	"github.com/socialx-api/internal/infrastructure/awsconf"
	"github.com/socialx-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/socialx-api/internal/infrastructure/jwt"
	"github.com/socialx-api/internal/infrastructure/mail"
	redisinfra "github.com/socialx-api/internal/infrastructure/redis"
	s3infra "github.com/socialx-api/internal/infrastructure/s3"
	"github.com/socialx-api/internal/infrastructure/sns"
	"github.com/socialx-api/internal/observability/logging"
	"github.com/socialx-api/internal/observability/metrics"
	transporthttp "github.com/socialx-api/internal/transport/http"
)

const serviceName = "socialx-api"

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()

	logger := logging.NewLogger(logging.Config{
		ServiceName: serviceName,
		Environment: cfg.AppEnv,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Info("no .env file found, reading from environment")
	}

	metrics.MustRegister(serviceName)

	ctx := context.Background()

	awsCfg, err := awsconf.Load(ctx, cfg)
	if err != nil {
		fatal(logger, "aws config not available", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		fatal(logger, "jwt provider not available", err)
	}

	s3Store := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg), cfg.S3BucketName)
	if cfg.AWSEndpointURL != "" {
		if err := s3Store.EnsureBucket(ctx); err != nil {
			fatal(logger, "could not prepare media bucket", err)
		}
	}

	redisClient, err := redisinfra.NewClient(ctx, cfg)
	if err != nil {
		fatal(logger, "redis not available", err)
	}
	defer redisClient.Close()

	mailer, err := mail.New(cfg)
	if err != nil {
		fatal(logger, "mailer not available", err)
	}

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		SessionRepo:      dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		PostRepo:         dynamo.NewPostRepo(dynamoClient, cfg.DynamoTables.Posts),
		CommentRepo:      dynamo.NewCommentRepo(dynamoClient, cfg.DynamoTables.Comments),
		EdgeRepo:         dynamo.NewEdgeRepo(dynamoClient, cfg.DynamoTables.Edges),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		VerificationRepo: dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.Verifications),
		PendingStore:     redisinfra.NewPendingStore(redisClient),
		S3Store:          s3Store,
		Mailer:           mailer,
		Publisher:        sns.NewPublisher(awsCfg, cfg),
		JWTProvider:      jwtProvider,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.AppPort, "email_backend", cfg.EmailBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal(logger, "server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "err", err)
	}
	logger.Info("server stopped")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}
