package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string
	SNSTopicARN    string // optional; notification events are not published when empty

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTPrivateKeyPath  string
	JWTPublicKeyPath   string
	JWTExpiry          time.Duration
	RefreshTokenExpiry time.Duration

	EmailBackend string // "smtp" | "resend" | "console"
	EmailFrom    string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	ResendAPIKey string

	PendingRegistrationTTL time.Duration
	PendingEmailChangeTTL  time.Duration
	MaxUploadBytes         int64

	SensitiveRateLimitRPS   float64
	SensitiveRateLimitBurst int

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	Sessions      string
	Posts         string
	Comments      string
	Edges         string
	Notifications string
	Verifications string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:      getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Posts:         getEnv("DYNAMO_TABLE_POSTS", "posts"),
			Comments:      getEnv("DYNAMO_TABLE_COMMENTS", "comments"),
			Edges:         getEnv("DYNAMO_TABLE_EDGES", "edges"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			Verifications: getEnv("DYNAMO_TABLE_EMAIL_VERIFICATIONS", "email_verifications"),
		},
		S3BucketName:  getEnv("S3_BUCKET_NAME", "socialx-media"),
		SNSTopicARN:   getEnv("SNS_TOPIC_ARN", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTPrivateKeyPath:  getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:   getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:          time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		RefreshTokenExpiry: time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30)) * 24 * time.Hour,

		EmailBackend: getEnv("EMAIL_BACKEND", "console"),
		EmailFrom:    getEnv("EMAIL_FROM", "SocialX Web <noreply@socialxweb.com>"),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 1025),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		ResendAPIKey: getEnv("RESEND_API_KEY", ""),

		PendingRegistrationTTL: getEnvDuration("PENDING_REGISTRATION_TTL", 30*time.Minute),
		PendingEmailChangeTTL:  getEnvDuration("PENDING_EMAIL_CHANGE_TTL", 30*time.Minute),
		MaxUploadBytes:         int64(getEnvInt("MAX_UPLOAD_MB", 50)) << 20,

		SensitiveRateLimitRPS:   getEnvFloat("SENSITIVE_RATE_LIMIT_RPS", 5),
		SensitiveRateLimitBurst: getEnvInt("SENSITIVE_RATE_LIMIT_BURST", 10),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings such as "30m" or "1h".
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
