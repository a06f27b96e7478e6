package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/asimzz/text-summarization-system/internal/auth"
	"github.com/asimzz/text-summarization-system/internal/metrics"
)

// Auth failure details returned to clients.
const (
	DetailNotAuthenticated   = "Not authenticated"
	DetailInvalidCredentials = "Invalid authentication credentials"
	DetailTokenExpired       = "Token has expired"
	DetailTokenInvalid       = "Invalid token"
)

// AccessTokenCookie is the cookie set by login when cookie delivery is enabled.
const AccessTokenCookie = "access_token"

// TokenValidator resolves a bearer token to its subject.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// BearerAuthConfig holds configuration for the bearer auth middleware.
type BearerAuthConfig struct {
	Validator TokenValidator
	Logger    *slog.Logger
	Metrics   metrics.Recorder
	// AllowCookie accepts the access_token cookie when no Authorization header is sent.
	AllowCookie bool
}

// BearerAuth authenticates requests with a bearer token and stores the
// token subject in the request context.
//
// Missing or non-Bearer credentials get 403; expired or invalid tokens get
// 401 with a WWW-Authenticate: Bearer challenge.
func BearerAuth(cfg BearerAuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, detail := extractBearerToken(r, cfg.AllowCookie)
			if detail != "" {
				recorder.IncTokenValidation("missing")
				logAuthFailure(cfg.Logger, r, "missing_credentials")
				writeDetail(w, http.StatusForbidden, detail)
				return
			}

			subject, err := cfg.Validator.Validate(token)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					recorder.IncTokenValidation("expired")
					logAuthFailure(cfg.Logger, r, "token_expired")
					writeUnauthorized(w, DetailTokenExpired)
					return
				}
				recorder.IncTokenValidation("invalid")
				logAuthFailure(cfg.Logger, r, "token_invalid")
				writeUnauthorized(w, DetailTokenInvalid)
				return
			}

			recorder.IncTokenValidation("valid")
			setLoggedUsername(r.Context(), subject)
			ctx := auth.ContextWithSubject(r.Context(), subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken returns the token, or the 403 detail when there is none.
func extractBearerToken(r *http.Request, allowCookie bool) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if allowCookie {
			if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
				return c.Value, ""
			}
		}
		return "", DetailNotAuthenticated
	}

	scheme, credentials, _ := strings.Cut(strings.TrimSpace(header), " ")
	credentials = strings.TrimSpace(credentials)
	if scheme == "" || credentials == "" {
		return "", DetailNotAuthenticated
	}
	if !strings.EqualFold(scheme, "bearer") {
		return "", DetailInvalidCredentials
	}
	return credentials, ""
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, detail)
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	if logger == nil {
		return
	}
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}
