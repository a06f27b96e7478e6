package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/asimzz/text-summarization-system/internal/handler/dto"
	"github.com/asimzz/text-summarization-system/internal/middleware"
	"github.com/asimzz/text-summarization-system/internal/service"
)

// AccountService is the subset of service.AuthService used by AuthHandler.
type AccountService interface {
	Register(ctx context.Context, input service.RegisterInput) error
	Login(ctx context.Context, username, password string) (service.Token, error)
}

// AuthHandlerConfig controls the optional login cookie.
type AuthHandlerConfig struct {
	CookieEnabled bool
	// SecureCookie sets the Secure attribute; disable only for plain-HTTP development.
	SecureCookie bool
}

// AuthHandler handles registration and login.
type AuthHandler struct {
	svc    AccountService
	cfg    AuthHandlerConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc AccountService, cfg AuthHandlerConfig, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		svc:    svc,
		cfg:    cfg,
		logger: logger.With("component", "handler.auth"),
		now:    time.Now,
	}
}

// Register handles POST /register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if status, detail, ok := decodeBody(r, &req); !ok {
		writeDetail(w, status, detail)
		return
	}

	if err := validateRegistration(req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	err := h.svc.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
		Email:    req.Email,
		Role:     req.Role,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, dto.RegisterResponse{Result: "User registered successfully"})
	case errors.Is(err, service.ErrInvalidInput):
		writeDetail(w, http.StatusUnprocessableEntity, invalidInputDetail(err))
	case errors.Is(err, service.ErrDuplicateUsername):
		writeDetail(w, http.StatusBadRequest, "Username already registered")
	default:
		h.logger.Error("registration failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		writeDetail(w, http.StatusBadRequest, "User registration failed")
	}
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if status, detail, ok := decodeBody(r, &req); !ok {
		writeDetail(w, status, detail)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		h.logger.Error("login failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if h.cfg.CookieEnabled {
		h.setTokenCookie(w, token)
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
	})
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token service.Token) {
	maxAge := int(token.ExpiresAt.Sub(h.now()).Seconds())
	if maxAge <= 0 {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token.AccessToken,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  token.ExpiresAt.UTC(),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func validateRegistration(req dto.RegisterRequest) error {
	if err := middleware.ValidateUsername(req.Username); err != nil {
		return err
	}
	if err := middleware.ValidatePassword(req.Password); err != nil {
		return err
	}
	if err := middleware.ValidateEmail(req.Email); err != nil {
		return err
	}
	return middleware.ValidateFullName(req.FullName)
}

// invalidInputDetail strips the sentinel prefix from a service validation error.
func invalidInputDetail(err error) string {
	if detail, ok := strings.CutPrefix(err.Error(), service.ErrInvalidInput.Error()+": "); ok {
		return detail
	}
	return err.Error()
}

// decodeBody reads a JSON object into dst. On failure it returns the status
// and detail to send: 413 for an oversized body, 422 otherwise.
func decodeBody(r *http.Request, dst any) (int, string, bool) {
	if r.Body == nil {
		return http.StatusUnprocessableEntity, "request body is required", false
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return 0, "", true
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, "Request body too large", false
	case errors.Is(err, io.EOF):
		return http.StatusUnprocessableEntity, "request body is required", false
	default:
		return http.StatusUnprocessableEntity, "request body is not valid JSON", false
	}
}

var _ AccountService = (*service.AuthService)(nil)
