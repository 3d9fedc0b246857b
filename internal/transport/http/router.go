package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/socialx-api/internal/application/account"
	"github.com/socialx-api/internal/application/media"
	"github.com/socialx-api/internal/application/notification"
	"github.com/socialx-api/internal/application/otp"
	"github.com/socialx-api/internal/application/post"
	"github.com/socialx-api/internal/application/registration"
	"github.com/socialx-api/internal/application/session"
	"github.com/socialx-api/internal/config"
	"github.com/socialx-api/internal/domain"
	"github.com/socialx-api/internal/transport/http/handler"
	appmiddleware "github.com/socialx-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.WithMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)
	// Applied to the public endpoints that take passwords or send email.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.SensitiveRateLimitRPS), cfg.SensitiveRateLimitBurst)

	sessionSvc := session.NewService(session.ServiceDeps{
		Sessions:        deps.SessionRepo,
		Users:           deps.UserRepo,
		Signer:          deps.JWTProvider,
		RefreshTokenDur: cfg.RefreshTokenExpiry,
	})
	otpSvc := otp.NewService(otp.ServiceDeps{
		Store:  deps.VerificationRepo,
		Mailer: deps.Mailer,
	})
	registrationSvc := registration.NewService(registration.ServiceDeps{
		Users:      deps.UserRepo,
		Pending:    deps.PendingStore,
		OTP:        otpSvc,
		Sessions:   sessionSvc,
		PendingTTL: cfg.PendingRegistrationTTL,
	})
	notifSvc := notification.NewService(notification.ServiceDeps{
		Store:     deps.NotificationRepo,
		Publisher: deps.Publisher,
	})
	mediaSvc := media.NewService(media.ServiceDeps{
		Objects:  deps.S3Store,
		MaxBytes: cfg.MaxUploadBytes,
	})
	postSvc := post.NewService(post.ServiceDeps{
		Posts:         deps.PostRepo,
		Comments:      deps.CommentRepo,
		Edges:         deps.EdgeRepo,
		Users:         deps.UserRepo,
		Notifications: deps.NotificationRepo,
		Notifier:      notifSvc,
		Media:         mediaSvc,
	})
	accountSvc := account.NewService(account.ServiceDeps{
		Users:         deps.UserRepo,
		Edges:         deps.EdgeRepo,
		Comments:      deps.CommentRepo,
		Counters:      deps.PostRepo,
		Notifications: deps.NotificationRepo,
		Sessions:      deps.SessionRepo,
		Pending:       deps.PendingStore,
		Posts:         postSvc,
		Notifier:      notifSvc,
		OTP:           otpSvc,
		Media:         mediaSvc,
		PendingTTL:    cfg.PendingEmailChangeTTL,
	})

	readiness := map[string]handler.Pinger{}
	if deps.PendingStore != nil {
		readiness["redis"] = deps.PendingStore
	}
	healthH := handler.NewHealthHandler(readiness)
	sessionH := handler.NewSessionHandler(sessionSvc)
	registrationH := handler.NewRegistrationHandler(registrationSvc)
	meH := handler.NewMeHandler(accountSvc, cfg.MaxUploadBytes)
	userH := handler.NewUserHandler(accountSvc)
	postH := handler.NewPostHandler(postSvc, cfg.MaxUploadBytes)
	notifH := handler.NewNotificationHandler(notifSvc)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/refresh", sessionH.Refresh)

		r.Route("/registrations", func(r chi.Router) {
			r.With(sensitiveRL.Limit).Post("/", registrationH.Start)
			r.Get("/{ticket}", registrationH.Status)
			r.Delete("/{ticket}", registrationH.Abandon)
			r.With(sensitiveRL.Limit).Post("/{ticket}/resend", registrationH.Resend)
			r.With(sensitiveRL.Limit).Post("/{ticket}/confirm", registrationH.Confirm)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Get("/me", meH.Get)
			r.Delete("/me", meH.Delete)
			r.Put("/me/settings", meH.UpdateSettings)
			r.Put("/me/avatar", meH.SetAvatar)
			r.Put("/me/password", meH.ChangePassword)
			r.With(sensitiveRL.Limit).Post("/me/email-change", meH.RequestEmailChange)
			r.Get("/me/email-change", meH.EmailChangeStatus)
			r.With(sensitiveRL.Limit).Post("/me/email-change/confirm", meH.ConfirmEmailChange)

			r.Get("/users/{username}", userH.Profile)
			r.Post("/users/{username}/follow", userH.ToggleFollow)

			r.Get("/posts", postH.Feed)
			r.Post("/posts", postH.Create)
			r.Get("/posts/{id}", postH.Get)
			r.Put("/posts/{id}", postH.Update)
			r.Delete("/posts/{id}", postH.Delete)
			r.Get("/posts/{id}/media", postH.Media)
			r.Post("/posts/{id}/like", postH.ToggleLike)
			r.Post("/posts/{id}/save", postH.ToggleSave)
			r.Get("/posts/{id}/comments", postH.Comments)
			r.Post("/posts/{id}/comments", postH.AddComment)
			r.Get("/saved", postH.Saved)
			r.Get("/search", postH.Search)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/unread-count", notifH.UnreadCount)
			r.Put("/notifications/{id}", notifH.MarkAsRead)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Delete("/users/{id}", userH.Delete)
			})
		})
	})

	return r
}
