package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/VideoTubeGo/pkg/config"
)

// Sentinel secrets accepted only in development.
const (
	defaultAccessSecret  = "change-this-access-token-secret"
	defaultRefreshSecret = "change-this-refresh-token-secret"
)

// Media providers.
const (
	MediaProviderMemory     = "memory"
	MediaProviderCloudinary = "cloudinary"
)

// Config holds all configuration for the VideoTube API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8000"`

	// MongoDB
	MongoURI            string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB             string        `env:"MONGO_DB" envDefault:"videotube"`
	MongoMaxPoolSize    uint64        `env:"MONGO_MAX_POOL_SIZE" envDefault:"50"`
	MongoSlowCommandMs  int           `env:"MONGO_SLOW_COMMAND_MS" envDefault:"200"`
	MongoConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"10s"`

	// Redis
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tokens
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET" envDefault:"change-this-access-token-secret"`
	AccessTokenExpiry  time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET" envDefault:"change-this-refresh-token-secret"`
	RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"240h"`
	TokenIssuer        string        `env:"TOKEN_ISSUER" envDefault:"videotube"`
	BcryptCost         int           `env:"BCRYPT_COST" envDefault:"12"`

	// Login attempt limiter, disabled when LoginMaxAttempts is 0 or Redis is off.
	LoginMaxAttempts   int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginAttemptWindow time.Duration `env:"LOGIN_ATTEMPT_WINDOW" envDefault:"15m"`

	// Media
	MediaProvider       string `env:"MEDIA_PROVIDER" envDefault:"memory"`
	MediaBaseURL        string `env:"MEDIA_BASE_URL" envDefault:"http://localhost:8000/media"`
	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`
	UploadDir           string `env:"UPLOAD_DIR" envDefault:"./public/temp"`
	MaxUploadBytes      int64  `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Rate limiting
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from the environment, after applying an optional
// .env file in the working directory.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, ".env"); err != nil {
		return nil, fmt.Errorf("load videotube config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.AccessTokenExpiry <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRY must be positive, got %s", c.AccessTokenExpiry)
	}
	if c.RefreshTokenExpiry <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_EXPIRY must be positive, got %s", c.RefreshTokenExpiry)
	}
	if c.LoginMaxAttempts < 0 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must not be negative, got %d", c.LoginMaxAttempts)
	}
	if c.LoginMaxAttempts > 0 && c.LoginAttemptWindow <= 0 {
		return fmt.Errorf("LOGIN_ATTEMPT_WINDOW must be positive, got %s", c.LoginAttemptWindow)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0 and 1, got %v", c.OTELSampleRate)
	}

	switch c.MediaProvider {
	case MediaProviderMemory:
	case MediaProviderCloudinary:
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			return fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required when MEDIA_PROVIDER=%s", MediaProviderCloudinary)
		}
	default:
		return fmt.Errorf("unknown MEDIA_PROVIDER %q", c.MediaProvider)
	}

	// Outside development both token secrets must be set explicitly, be
	// strong, and differ from each other.
	if c.IsDevelopment() {
		return nil
	}
	if c.AccessTokenSecret == defaultAccessSecret {
		return fmt.Errorf("ACCESS_TOKEN_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
	}
	if c.RefreshTokenSecret == defaultRefreshSecret {
		return fmt.Errorf("REFRESH_TOKEN_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
	}
	if len(c.AccessTokenSecret) < 32 {
		return fmt.Errorf("ACCESS_TOKEN_SECRET must be at least 32 characters long, got %d", len(c.AccessTokenSecret))
	}
	if len(c.RefreshTokenSecret) < 32 {
		return fmt.Errorf("REFRESH_TOKEN_SECRET must be at least 32 characters long, got %d", len(c.RefreshTokenSecret))
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the service runs in production. Cookies are
// marked Secure only there.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoginLimiterEnabled reports whether failed logins are counted in Redis.
func (c *Config) LoginLimiterEnabled() bool {
	return c.RedisEnabled && c.LoginMaxAttempts > 0
}
