package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/asimzz/text-summarization-system/internal/auth"
	"github.com/asimzz/text-summarization-system/internal/metrics"
	"github.com/asimzz/text-summarization-system/internal/model"
	"github.com/asimzz/text-summarization-system/internal/repository"
)

// dummyPassword is hashed once and verified for unknown usernames so a
// failed login costs the same whether or not the user exists.
const dummyPassword = "not-a-real-password"

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Username string
	FullName string
	Password string
	Email    string
	Role     string
}

// Token is the result of a successful login.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// AuthService handles registration and login.
type AuthService struct {
	users    UserStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	tokenTTL time.Duration
	logger   *slog.Logger
	metrics  metrics.Recorder
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, tokenTTL time.Duration, logger *slog.Logger, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   logger.With("component", "service.auth"),
		metrics:  recorder,
		now:      time.Now,
	}
}

// Register hashes the password and stores a new user.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) error {
	role, err := model.ParseRole(input.Role)
	if err != nil {
		s.metrics.IncRegistration("invalid")
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if strings.TrimSpace(input.Username) == "" || input.Password == "" {
		s.metrics.IncRegistration("invalid")
		return fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.metrics.IncRegistration("error")
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Username:     input.Username,
		FullName:     input.FullName,
		PasswordHash: hash,
		Email:        input.Email,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			s.metrics.IncRegistration("duplicate")
			return ErrDuplicateUsername
		}
		s.metrics.IncRegistration("error")
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncRegistration("success")
	s.logger.Info("user registered", "username", user.Username, "user_id", user.ID, "role", user.Role)
	return nil
}

// Login verifies credentials and issues a bearer token.
// Unknown usernames and wrong passwords both return ErrAuthenticationFailed.
func (s *AuthService) Login(ctx context.Context, username, password string) (Token, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.burnVerify(password)
			s.metrics.IncLogin("failed")
			return Token{}, ErrAuthenticationFailed
		}
		s.metrics.IncLogin("error")
		return Token{}, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		// Unverifiable hashes count as a failed login.
		s.logger.Warn("password verification error", "username", username, "error", err)
		s.metrics.IncLogin("failed")
		return Token{}, ErrAuthenticationFailed
	}
	if !ok {
		s.metrics.IncLogin("failed")
		return Token{}, ErrAuthenticationFailed
	}

	expiresAt := s.now().Add(s.tokenTTL)
	accessToken, err := s.tokens.Issue(user.Username, s.tokenTTL)
	if err != nil {
		s.metrics.IncLogin("error")
		return Token{}, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncLogin("success")
	return Token{
		AccessToken: accessToken,
		TokenType:   auth.TokenType,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Warn("failed to prepare dummy hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}
