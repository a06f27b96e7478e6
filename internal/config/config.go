// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
// A .env file in the working directory, if present, is loaded first.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Request log modes.
const (
	RequestLogSync  = "sync"
	RequestLogAsync = "async"
)

// Password hash algorithms.
const (
	HashBcrypt   = "bcrypt"
	HashArgon2id = "argon2id"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	AppPort    int    `env:"APP_PORT" envDefault:"8080"`
	AppVersion string `env:"APP_VERSION" envDefault:"v1"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	// Cache and request-log stream (Redis)
	RedisURL     string        `env:"REDIS_URL,required"`
	UserCacheTTL time.Duration `env:"USER_CACHE_TTL" envDefault:"5m"`

	// Tokens
	TokenSecretKey           string `env:"TOKEN_SECRET_KEY,required"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"15"`
	LoginCookieEnabled       bool   `env:"LOGIN_COOKIE_ENABLED" envDefault:"false"`

	// Password hashing
	PasswordHashAlgorithm string `env:"PASSWORD_HASH_ALGORITHM" envDefault:"bcrypt"`
	BcryptCost            int    `env:"BCRYPT_COST" envDefault:"10"`

	// Summarization model endpoint
	SummarizerURL       string        `env:"SUMMARIZER_URL,required"`
	SummarizerAPIToken  string        `env:"SUMMARIZER_API_TOKEN"`
	SummarizerMaxLength int           `env:"SUMMARIZER_MAX_LENGTH" envDefault:"1000"`
	SummarizerMinLength int           `env:"SUMMARIZER_MIN_LENGTH" envDefault:"30"`
	SummarizerTimeout   time.Duration `env:"SUMMARIZER_TIMEOUT" envDefault:"60s"`

	// Request log persistence: "sync" writes inline, "async" goes through the Redis stream.
	RequestLogMode      string        `env:"REQUEST_LOG_MODE" envDefault:"sync"`
	RequestLogBatchSize int           `env:"REQUEST_LOG_BATCH_SIZE" envDefault:"100"`
	RequestLogClaimIdle time.Duration `env:"REQUEST_LOG_CLAIM_IDLE" envDefault:"30s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"90s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// ClientConfig holds settings for the terminal client.
type ClientConfig struct {
	APIBaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	Token      string        `env:"SUMMARIZER_TOKEN"`
	Timeout    time.Duration `env:"CLIENT_TIMEOUT" envDefault:"90s"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// TokenTTL returns the access token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// IsAsyncRequestLog reports whether request logs go through the Redis stream.
func (c *Config) IsAsyncRequestLog() bool {
	return c.RequestLogMode == RequestLogAsync
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks value ranges that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.TokenSecretKey) == "" {
		errs = append(errs, errors.New("TOKEN_SECRET_KEY must not be empty"))
	}
	if c.AccessTokenExpireMinutes <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	switch c.RequestLogMode {
	case RequestLogSync, RequestLogAsync:
	default:
		errs = append(errs, fmt.Errorf("REQUEST_LOG_MODE must be %q or %q, got %q", RequestLogSync, RequestLogAsync, c.RequestLogMode))
	}
	switch c.PasswordHashAlgorithm {
	case HashBcrypt, HashArgon2id:
	default:
		errs = append(errs, fmt.Errorf("PASSWORD_HASH_ALGORITHM must be %q or %q, got %q", HashBcrypt, HashArgon2id, c.PasswordHashAlgorithm))
	}
	if c.SummarizerMinLength <= 0 || c.SummarizerMaxLength <= 0 {
		errs = append(errs, errors.New("SUMMARIZER_MIN_LENGTH and SUMMARIZER_MAX_LENGTH must be positive"))
	} else if c.SummarizerMinLength > c.SummarizerMaxLength {
		errs = append(errs, errors.New("SUMMARIZER_MIN_LENGTH must not exceed SUMMARIZER_MAX_LENGTH"))
	}
	if c.RequestLogBatchSize <= 0 {
		errs = append(errs, errors.New("REQUEST_LOG_BATCH_SIZE must be positive"))
	}
	if c.UserCacheTTL < 0 {
		errs = append(errs, errors.New("USER_CACHE_TTL must not be negative"))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
// Returns an error if required variables are missing or values are out of range.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadClient parses the terminal client settings.
func LoadClient() (*ClientConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	return cfg, nil
}

// loadDotEnv loads .env without overriding variables already set.
func loadDotEnv() error {
	path := os.Getenv("DOTENV_PATH")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
