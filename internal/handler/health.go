package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// readyTimeout bounds the dependency checks in Readyz.
const readyTimeout = 3 * time.Second

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	db     HealthChecker
	cache  HealthChecker
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler.
// Pass nil for db or cache if they are not configured.
func NewHealthHandler(db, cache HealthChecker, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		db:     db,
		cache:  cache,
		logger: logger.With("component", "handler.health"),
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is the liveness check. It never touches dependencies.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz checks PostgreSQL and Redis and returns 200 only if both answer.
// Failure reasons are logged, not returned.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := map[string]string{
		"postgres": h.check(ctx, "postgres", h.db),
		"redis":    h.check(ctx, "redis", h.cache),
	}

	status, code := "ok", http.StatusOK
	for _, result := range checks {
		if result == "error" {
			status, code = "unhealthy", http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, code, HealthResponse{Status: status, Checks: checks})
}

func (h *HealthHandler) check(ctx context.Context, name string, checker HealthChecker) string {
	if checker == nil {
		return "not configured"
	}
	if err := checker.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", "dependency", name, "error", err)
		return "error"
	}
	return "ok"
}
