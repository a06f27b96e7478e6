package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/asimzz/text-summarization-system/internal/auth"
	"github.com/asimzz/text-summarization-system/internal/handler/dto"
	"github.com/asimzz/text-summarization-system/internal/middleware"
	"github.com/asimzz/text-summarization-system/internal/model"
	"github.com/asimzz/text-summarization-system/internal/requestlog"
	"github.com/asimzz/text-summarization-system/internal/service"
	"github.com/asimzz/text-summarization-system/internal/summarizer"
)

// SummarizeEndpoint is the path recorded in request logs.
const SummarizeEndpoint = "/summarize"

// SummaryService is the subset of service.SummarizeService used by SummarizeHandler.
type SummaryService interface {
	Summarize(ctx context.Context, input service.SummarizeInput) (*service.SummaryResult, error)
}

// SummarizeHandler handles POST /summarize. It must sit behind BearerAuth.
type SummarizeHandler struct {
	svc    SummaryService
	logger *slog.Logger
}

// NewSummarizeHandler creates a new SummarizeHandler.
func NewSummarizeHandler(svc SummaryService, logger *slog.Logger) *SummarizeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummarizeHandler{
		svc:    svc,
		logger: logger.With("component", "handler.summarize"),
	}
}

// Summarize handles POST /summarize.
func (h *SummarizeHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	username := auth.SubjectFromContext(r.Context())
	if username == "" {
		writeDetail(w, http.StatusForbidden, middleware.DetailNotAuthenticated)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeDetail(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req dto.SummarizeRequest
	if len(raw) == 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "request body is required")
		return
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "request body is not valid JSON")
		return
	}
	if err := middleware.ValidateSummaryText(req.Text); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	result, err := h.svc.Summarize(r.Context(), service.SummarizeInput{
		Username:       username,
		Text:           req.Text,
		Endpoint:       SummarizeEndpoint,
		RequestBody:    json.RawMessage(raw),
		RequestHeaders: model.FlattenHeaders(r.Header),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryResponse{SummaryText: result.SummaryText})
}

func (h *SummarizeHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	switch {
	case errors.Is(err, requestlog.ErrStorageWrite):
		h.logger.Warn("request log write failed", "request_id", requestID, "error", err)
		writeDetail(w, http.StatusBadRequest, "Request logging failed")
	case errors.Is(err, service.ErrUserNotFound):
		writeDetail(w, http.StatusNotFound, "User not found")
	case errors.Is(err, summarizer.ErrUpstream):
		h.logger.Warn("summarization upstream failed", "request_id", requestID, "error", err)
		writeDetail(w, http.StatusBadGateway, "Summarization failed")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
		return
	default:
		h.logger.Error("summarize failed", "request_id", requestID, "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

var _ SummaryService = (*service.SummarizeService)(nil)
