package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		incoming     string
		wantPreserve bool
	}{
		{"generated when absent", "", false},
		{"propagated when valid", "req-123", true},
		{"replaced when too long", strings.Repeat("a", maxRequestIDLength+1), false},
		{"replaced when it has spaces", "bad id", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ctxID string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxID = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			headerID := rec.Header().Get(RequestIDHeader)
			if headerID != ctxID {
				t.Errorf("header %q != context %q", headerID, ctxID)
			}
			if tt.wantPreserve {
				if ctxID != tt.incoming {
					t.Errorf("request ID = %q, want %q", ctxID, tt.incoming)
				}
				return
			}
			if _, err := uuid.Parse(ctxID); err != nil {
				t.Errorf("generated request ID %q is not a UUID", ctxID)
			}
		})
	}
}

func TestRecoverer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/summarize", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"detail":"Internal Server Error"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Error("panic was not logged")
	}
}
