// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/asimzz/text-summarization-system/internal/handler/dto"
)

// Handler serves the unauthenticated root and fallback routes.
type Handler struct {
	version string
}

// New creates a new Handler reporting version on GET /.
func New(version string) *Handler {
	if version == "" {
		version = "v1"
	}
	return &Handler{version: version}
}

// Hello is a simple hello endpoint for testing.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "Hello, Text Summarizer! " + h.version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeDetail writes the {"detail": ...} error body.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, dto.ErrorResponse{Detail: detail})
}
