package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/utafrali/VideoTubeGo/internal/auth"
	"github.com/utafrali/VideoTubeGo/internal/config"
	"github.com/utafrali/VideoTubeGo/internal/event"
	handler "github.com/utafrali/VideoTubeGo/internal/handler/http"
	"github.com/utafrali/VideoTubeGo/internal/repository/mongodb"
	"github.com/utafrali/VideoTubeGo/internal/repository/redis"
	"github.com/utafrali/VideoTubeGo/internal/service"
	"github.com/utafrali/VideoTubeGo/internal/storage"
	"github.com/utafrali/VideoTubeGo/internal/storage/cloudinary"
	"github.com/utafrali/VideoTubeGo/internal/storage/memory"
	"github.com/utafrali/VideoTubeGo/pkg/database"
	"github.com/utafrali/VideoTubeGo/pkg/health"
	pkgkafka "github.com/utafrali/VideoTubeGo/pkg/kafka"
	"github.com/utafrali/VideoTubeGo/pkg/middleware"
	"github.com/utafrali/VideoTubeGo/pkg/tracing"
)

// App wires together all dependencies and runs the VideoTube API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	mongoClient    *mongo.Client
	redisClient    *goredis.Client
	producer       *pkgkafka.Producer
	rateLimiter    *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	if err := a.init(ctx); err != nil {
		a.release()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    handler.ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	// Connect to MongoDB.
	mongoCfg := database.DefaultMongoConfig()
	mongoCfg.URI = cfg.MongoURI
	mongoCfg.Database = cfg.MongoDB
	mongoCfg.MaxPoolSize = cfg.MongoMaxPoolSize
	mongoCfg.ConnectTimeout = cfg.MongoConnectTimeout

	observer := database.NewCommandObserver(handler.ServiceName,
		time.Duration(cfg.MongoSlowCommandMs)*time.Millisecond, logger)
	mongoClient, err := database.NewMongoClient(ctx, mongoCfg, observer.Monitor(), logger)
	if err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	a.mongoClient = mongoClient
	logger.Info("connected to MongoDB", slog.String("database", cfg.MongoDB))

	db := mongoClient.Database(cfg.MongoDB)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info("mongodb indexes ensured")

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("mongodb", database.MongoPinger(mongoClient))

	// Redis backs the login attempt limiter only.
	var sessionOpts []service.SessionOption
	sessionOpts = append(sessionOpts, service.WithBcryptCost(cfg.BcryptCost))
	if cfg.RedisEnabled {
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Host = cfg.RedisHost
		redisCfg.Port = cfg.RedisPort
		redisCfg.Password = cfg.RedisPassword
		redisCfg.DB = cfg.RedisDB

		redisClient, err := database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		a.redisClient = redisClient
		healthHandler.RegisterNonCritical("redis", database.RedisPinger(redisClient))
		logger.Info("connected to Redis", slog.String("addr", redisCfg.Addr()))

		if cfg.LoginLimiterEnabled() {
			store := redis.NewLoginAttemptStore(redisClient, cfg.LoginAttemptWindow)
			sessionOpts = append(sessionOpts, service.WithLoginLimiter(store, cfg.LoginMaxAttempts))
		}
	}

	// Kafka is optional; without it events are dropped.
	var publisher event.Publisher = event.NoopPublisher{}
	if cfg.KafkaEnabled {
		producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.producer = producer
		publisher = event.NewProducer(producer, logger)
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	uploader, err := newUploader(cfg)
	if err != nil {
		return err
	}
	logger.Info("media storage initialized", slog.String("provider", cfg.MediaProvider))

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(auth.Config{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessExpiry:  cfg.AccessTokenExpiry,
		RefreshExpiry: cfg.RefreshTokenExpiry,
		Issuer:        cfg.TokenIssuer,
	})
	userRepo := mongodb.NewUserRepository(db)
	channelRepo := mongodb.NewChannelRepository(db)
	videoRepo := mongodb.NewVideoRepository(db)
	subscriptionRepo := mongodb.NewSubscriptionRepository(db)

	services := handler.Services{
		Sessions: service.NewSessionService(userRepo, uploader, jwtManager, publisher, logger, sessionOpts...),
		Accounts: service.NewAccountService(userRepo, videoRepo, uploader, publisher, logger),
		Channels: service.NewChannelService(userRepo, channelRepo, subscriptionRepo, logger),
	}

	if cfg.RateLimitRPS > 0 {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	// HTTP router.
	router := handler.NewRouter(services, jwtManager, healthHandler, logger, handler.RouterConfig{
		Cookies: handler.CookieConfig{
			Secure:        cfg.IsProduction(),
			AccessMaxAge:  cfg.AccessTokenExpiry,
			RefreshMaxAge: cfg.RefreshTokenExpiry,
		},
		Uploads:     handler.UploadConfig{Dir: cfg.UploadDir, MaxBytes: cfg.MaxUploadBytes},
		CORS:        corsCfg,
		RateLimiter: a.rateLimiter,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

func newUploader(cfg *config.Config) (storage.Uploader, error) {
	switch cfg.MediaProvider {
	case config.MediaProviderCloudinary:
		up, err := cloudinary.New(cloudinary.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    "videotube",
		})
		if err != nil {
			return nil, fmt.Errorf("init cloudinary: %w", err)
		}
		return up, nil
	default:
		return memory.New(cfg.MediaBaseURL), nil
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer, rate limiter, Redis and MongoDB
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Release the remaining clients.
	if err := a.release(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// release closes the clients opened by init. It is safe on a partially
// initialized App.
func (a *App) release() error {
	var errs []error

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.rateLimiter != nil {
		a.rateLimiter.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.logger.Error("mongodb disconnect error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
