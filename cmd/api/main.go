// Package main is the entrypoint for the text summarization API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/asimzz/text-summarization-system/internal/auth"
	"github.com/asimzz/text-summarization-system/internal/cache"
	"github.com/asimzz/text-summarization-system/internal/config"
	"github.com/asimzz/text-summarization-system/internal/handler"
	"github.com/asimzz/text-summarization-system/internal/metrics"
	"github.com/asimzz/text-summarization-system/internal/repository"
	"github.com/asimzz/text-summarization-system/internal/requestlog"
	"github.com/asimzz/text-summarization-system/internal/server"
	"github.com/asimzz/text-summarization-system/internal/service"
	"github.com/asimzz/text-summarization-system/internal/summarizer"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, cfg.DatabaseURL); err != nil {
			logger.Error("failed to run migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		logger.Info("database migrations applied")
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	cacheClient.SetUserTTL(cfg.UserCacheTTL)
	logger.Info("connected to Redis")

	hasher, err := auth.NewPasswordHasher(cfg.PasswordHashAlgorithm, cfg.BcryptCost)
	if err != nil {
		logger.Error("failed to configure password hasher", "error", err)
		os.Exit(1)
	}
	tokens, err := auth.NewTokenService([]byte(cfg.TokenSecretKey))
	if err != nil {
		logger.Error("failed to configure token service", "error", err)
		os.Exit(1)
	}

	metricsRecorder := metrics.NewInMemory()

	adapter := summarizer.NewHTTPClient(cfg.SummarizerURL, cfg.SummarizerTimeout,
		summarizer.WithAPIToken(cfg.SummarizerAPIToken),
	)

	var (
		logStore   requestlog.Store
		asyncStore *requestlog.AsyncStore
		worker     *requestlog.Worker
	)
	if cfg.IsAsyncRequestLog() {
		worker = requestlog.NewWorker(cacheClient.Client(), repo, logger, metricsRecorder, requestlog.WorkerConfig{
			BatchSize: cfg.RequestLogBatchSize,
			ClaimIdle: cfg.RequestLogClaimIdle,
		})
		go func() {
			if err := worker.Run(ctx); err != nil {
				logger.Error("request log worker stopped", "error", err)
			}
		}()
		asyncStore = requestlog.NewAsyncStore(cacheClient.Client(), logger, metricsRecorder)
		logStore = asyncStore
	} else {
		logStore = requestlog.NewSyncStore(repo, logger)
	}

	authService := service.NewAuthService(repo, hasher, tokens, cfg.TokenTTL(), logger, metricsRecorder)
	summarizeService := service.NewSummarizeService(repo, cacheClient, adapter, logStore, service.SummarizeConfig{
		MaxLength: cfg.SummarizerMaxLength,
		MinLength: cfg.SummarizerMinLength,
	}, logger, metricsRecorder)

	r := setupRouter(routerDeps{
		root:    handler.New(cfg.AppVersion),
		health:  handler.NewHealthHandler(repo, cacheClient, logger),
		metrics: handler.NewMetricsHandler(metricsRecorder),
		auth: handler.NewAuthHandler(authService, handler.AuthHandlerConfig{
			CookieEnabled: cfg.LoginCookieEnabled,
			SecureCookie:  !cfg.IsDevelopment(),
		}, logger),
		summarize: handler.NewSummarizeHandler(summarizeService, logger),
		validator: tokens,
		recorder:  metricsRecorder,
		cfg:       cfg,
		logger:    logger,
	})

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	if worker != nil {
		// Hooks run LIFO: in-flight publishes drain before the worker stops.
		srv.OnShutdown("request-log-worker", worker.Shutdown)
		srv.OnShutdown("request-log-publisher", asyncStore.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"request_log_mode", cfg.RequestLogMode,
		"password_hash", hasher.Algorithm(),
		"summarizer_url", redactURL(cfg.SummarizerURL),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}
	if parsed.RawQuery != "" {
		parsed.RawQuery = "redacted"
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
