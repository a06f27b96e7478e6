package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/asimzz/text-summarization-system/internal/middleware"
	"github.com/asimzz/text-summarization-system/internal/service"
)

type fakeAccountService struct {
	registerErr error
	registered  []service.RegisterInput

	token    service.Token
	loginErr error
}

func (f *fakeAccountService) Register(ctx context.Context, input service.RegisterInput) error {
	f.registered = append(f.registered, input)
	return f.registerErr
}

func (f *fakeAccountService) Login(ctx context.Context, username, password string) (service.Token, error) {
	if f.loginErr != nil {
		return service.Token{}, f.loginErr
	}
	return f.token, nil
}

const validRegisterBody = `{"username":"alice","full_name":"Alice A","password":"secret123","email":"alice@example.com"}`

func TestAuthHandler_Register(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantDetail string
		wantCalled bool
	}{
		{"success", validRegisterBody, nil, http.StatusOK, "", true},
		{"created_at is ignored", `{"username":"alice","full_name":"","password":"secret123","email":"alice@example.com","role":"admin","created_at":"2024-01-01T00:00:00Z"}`, nil, http.StatusOK, "", true},
		{"duplicate", validRegisterBody, service.ErrDuplicateUsername, http.StatusBadRequest, "Username already registered", true},
		{"storage failure", validRegisterBody, errors.New("db down"), http.StatusBadRequest, "User registration failed", true},
		{"invalid role", validRegisterBody, fmt.Errorf("%w: role must be admin or user", service.ErrInvalidInput), http.StatusUnprocessableEntity, "role must be admin or user", true},
		{"malformed json", `{"username":`, nil, http.StatusUnprocessableEntity, "request body is not valid JSON", false},
		{"empty body", ``, nil, http.StatusUnprocessableEntity, "request body is required", false},
		{"short username", `{"username":"al","password":"secret123","email":"al@example.com"}`, nil, http.StatusUnprocessableEntity, middleware.ErrUsernameLength.Error(), false},
		{"short password", `{"username":"alice","password":"short","email":"alice@example.com"}`, nil, http.StatusUnprocessableEntity, middleware.ErrPasswordTooShort.Error(), false},
		{"bad email", `{"username":"alice","password":"secret123","email":"not-an-email"}`, nil, http.StatusUnprocessableEntity, middleware.ErrEmailInvalid.Error(), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &fakeAccountService{registerErr: tt.svcErr}
			h := NewAuthHandler(svc, AuthHandlerConfig{}, discardLogger())

			rec := httptest.NewRecorder()
			h.Register(rec, httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if called := len(svc.registered) > 0; called != tt.wantCalled {
				t.Errorf("service called = %v, want %v", called, tt.wantCalled)
			}

			if tt.wantStatus == http.StatusOK {
				var body map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body["result"] != "User registered successfully" {
					t.Errorf("result = %q", body["result"])
				}
				return
			}
			if got := decodeDetail(t, rec); got != tt.wantDetail {
				t.Errorf("detail = %q, want %q", got, tt.wantDetail)
			}
		})
	}
}

func TestAuthHandler_Register_PassesFields(t *testing.T) {
	t.Parallel()

	svc := &fakeAccountService{}
	h := NewAuthHandler(svc, AuthHandlerConfig{}, discardLogger())

	body := `{"username":"bob","full_name":"Bob B","password":"secret123","email":"bob@example.com","role":"admin"}`
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := service.RegisterInput{Username: "bob", FullName: "Bob B", Password: "secret123", Email: "bob@example.com", Role: "admin"}
	if len(svc.registered) != 1 || svc.registered[0] != want {
		t.Errorf("registered = %+v, want %+v", svc.registered, want)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()

	token := service.Token{AccessToken: "tok", TokenType: "bearer", ExpiresAt: time.Now().Add(15 * time.Minute)}

	tests := []struct {
		name          string
		body          string
		loginErr      error
		wantStatus    int
		wantDetail    string
		wantChallenge bool
	}{
		{"success", `{"username":"alice","password":"secret123"}`, nil, http.StatusOK, "", false},
		{"wrong password", `{"username":"alice","password":"nope"}`, service.ErrAuthenticationFailed, http.StatusUnauthorized, "Incorrect username or password", true},
		{"missing password", `{"username":"alice"}`, nil, http.StatusUnprocessableEntity, "username and password are required", false},
		{"internal failure", `{"username":"alice","password":"secret123"}`, errors.New("db down"), http.StatusInternalServerError, "Internal Server Error", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewAuthHandler(&fakeAccountService{token: token, loginErr: tt.loginErr}, AuthHandlerConfig{}, discardLogger())

			rec := httptest.NewRecorder()
			h.Login(rec, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("WWW-Authenticate") == "Bearer"; got != tt.wantChallenge {
				t.Errorf("WWW-Authenticate present = %v, want %v", got, tt.wantChallenge)
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Error("cookie set while disabled")
			}

			if tt.wantStatus != http.StatusOK {
				if got := decodeDetail(t, rec); got != tt.wantDetail {
					t.Errorf("detail = %q, want %q", got, tt.wantDetail)
				}
				return
			}

			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["access_token"] != "tok" || body["token_type"] != "bearer" {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func TestAuthHandler_Login_Cookie(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	token := service.Token{AccessToken: "tok", TokenType: "bearer", ExpiresAt: now.Add(15 * time.Minute)}

	h := NewAuthHandler(&fakeAccountService{token: token}, AuthHandlerConfig{CookieEnabled: true, SecureCookie: true}, discardLogger())
	h.now = func() time.Time { return now }

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"alice","password":"secret123"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != middleware.AccessTokenCookie || c.Value != "tok" {
		t.Errorf("cookie = %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie attributes HttpOnly=%v Secure=%v SameSite=%v", c.HttpOnly, c.Secure, c.SameSite)
	}
	if c.MaxAge != 900 {
		t.Errorf("MaxAge = %d, want 900", c.MaxAge)
	}
}

func TestAuthHandler_Register_BodyTooLarge(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(&fakeAccountService{}, AuthHandlerConfig{}, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(validRegisterBody))
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 8)
	h.Register(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}
