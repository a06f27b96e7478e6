package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/asimzz/text-summarization-system/internal/config"
	"github.com/asimzz/text-summarization-system/internal/handler"
	"github.com/asimzz/text-summarization-system/internal/metrics"
	"github.com/asimzz/text-summarization-system/internal/middleware"
)

type routerDeps struct {
	root      *handler.Handler
	health    *handler.HealthHandler
	metrics   *handler.MetricsHandler
	auth      *handler.AuthHandler
	summarize *handler.SummarizeHandler
	validator middleware.TokenValidator
	recorder  metrics.Recorder
	cfg       *config.Config
	logger    *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: d.cfg.IsDevelopment()}))
	r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.cfg.GetCORSAllowedOrigins()
	corsCfg.AllowCredentials = d.cfg.LoginCookieEnabled
	r.Use(middleware.CORS(corsCfg))

	// Health and metrics
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Get("/metrics", d.metrics.Metrics)

	r.Get("/", d.root.Hello)
	r.Post("/register", d.auth.Register)
	r.Post("/login", d.auth.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(middleware.BearerAuthConfig{
			Validator:   d.validator,
			Logger:      d.logger,
			Metrics:     d.recorder,
			AllowCookie: d.cfg.LoginCookieEnabled,
		}))
		r.Post("/summarize", d.summarize.Summarize)
	})

	r.NotFound(d.root.NotFound)
	r.MethodNotAllowed(d.root.MethodNotAllowed)

	return r
}
