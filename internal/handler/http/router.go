package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/VideoTubeGo/internal/auth"
	"github.com/utafrali/VideoTubeGo/internal/service"
	"github.com/utafrali/VideoTubeGo/pkg/health"
	"github.com/utafrali/VideoTubeGo/pkg/middleware"
)

// ServiceName labels metrics and spans emitted by the HTTP layer.
const ServiceName = "videotube"

// Services groups the application services the routes delegate to.
type Services struct {
	Sessions *service.SessionService
	Accounts *service.AccountService
	Channels *service.ChannelService
}

// RouterConfig holds the HTTP-layer settings derived from configuration.
type RouterConfig struct {
	Cookies CookieConfig
	Uploads UploadConfig
	CORS    middleware.CORSConfig

	// RateLimiter is optional.
	RateLimiter *middleware.RateLimiter
}

// NewRouter creates a chi router with all routes registered.
func NewRouter(
	services Services,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	validate := TokenValidator(jwtManager)
	authHandler := NewAuthHandler(services.Sessions, cfg.Cookies, cfg.Uploads, logger)
	userHandler := NewUserHandler(services.Accounts, services.Sessions, services.Channels, cfg.Uploads, logger)
	channelHandler := NewChannelHandler(services.Channels, logger)

	r.Route("/api/v1/users", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler)
		}

		// Public endpoints
		r.Post("/register", authHandler.Register)
		r.With(ContentTypeJSON).Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh-token", authHandler.RefreshToken)
		r.With(middleware.OptionalAuth(validate)).Get("/channels/{username}", channelHandler.GetChannelProfile)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validate))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/me", userHandler.GetCurrentUser)
			r.Patch("/me/avatar", userHandler.UpdateAvatar)
			r.Patch("/me/cover-image", userHandler.UpdateCoverImage)
			r.Get("/me/watch-history", userHandler.GetWatchHistory)
			r.Post("/channels/{channelId}/subscription", channelHandler.ToggleSubscription)

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)

				r.Patch("/me", userHandler.UpdateAccount)
				r.Patch("/me/password", userHandler.ChangePassword)
				r.Post("/me/watch-history", userHandler.RecordWatch)
			})
		})
	})

	return r
}
