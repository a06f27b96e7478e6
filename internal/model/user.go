// Package model defines domain entities for the application.
package model

import (
	"errors"
	"strings"
	"time"
)

// Role constants for registered users.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleUser}

// ErrInvalidRole is returned by ParseRole for values outside ValidRoles.
var ErrInvalidRole = errors.New("role must be admin or user")

// User represents a registered account.
// Users are created on registration and never updated or deleted through the API.
type User struct {
	ID           string    `json:"id"` // ULID
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"` // Never serialize
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile returns a copy of the user without the password hash.
func (u *User) Profile() *User {
	profile := *u
	profile.PasswordHash = ""
	return &profile
}

// ParseRole normalizes a requested role. An empty value defaults to RoleUser.
func ParseRole(role string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "":
		return RoleUser, nil
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}
