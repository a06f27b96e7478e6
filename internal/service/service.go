// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/asimzz/text-summarization-system/internal/model"
)

// Service errors.
var (
	ErrAuthenticationFailed = errors.New("incorrect username or password")
	ErrDuplicateUsername    = errors.New("username already registered")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidInput         = errors.New("invalid input")
)

// UserStore is the persistence the services need for users.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// UserCache caches user profiles. GetUser returns nil, nil on a miss.
type UserCache interface {
	GetUser(ctx context.Context, username string) (*model.User, error)
	SetUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, username string) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, encoded string) (bool, error)
}

// TokenIssuer issues bearer tokens for a subject.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, error)
}
