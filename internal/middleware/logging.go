package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// responseWriter captures the status code and body size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

type accessLogKey struct{}

// accessLogEntry collects values discovered further down the chain.
type accessLogEntry struct {
	username string
}

// setLoggedUsername records the authenticated user for the access log line.
func setLoggedUsername(ctx context.Context, username string) {
	if entry, ok := ctx.Value(accessLogKey{}).(*accessLogEntry); ok {
		entry.username = username
	}
}

// Logger writes one structured access log line per request.
// Headers and bodies are never logged.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := &accessLogEntry{}
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), accessLogKey{}, entry)))

			attrs := []slog.Attr{
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", wrapped.status),
				slog.Int("response_bytes", wrapped.bytes),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			}
			if entry.username != "" {
				attrs = append(attrs, slog.String("username", entry.username))
			}

			level := slog.LevelInfo
			switch {
			case wrapped.status >= 500:
				level = slog.LevelError
			case wrapped.status >= 400:
				level = slog.LevelWarn
			}

			logger.LogAttrs(r.Context(), level, "http request", attrs...)
		})
	}
}
