package middleware

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 64
	MinPasswordLength = 8
	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes   = 72
	MaxFullNameLength  = 128
	MaxEmailLength     = 254
	MaxSummaryTextSize = 100_000
)

// Validation errors.
var (
	ErrUsernameLength   = errors.New("username must be between 3 and 64 characters")
	ErrUsernameInvalid  = errors.New("username may only contain letters, digits, '.', '_' and '-'")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
	ErrFullNameTooLong  = errors.New("full_name must be at most 128 characters")
	ErrEmailInvalid     = errors.New("email is not a valid address")
	ErrTextEmpty        = errors.New("text must not be empty")
	ErrTextTooLong      = errors.New("text exceeds maximum length")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateUsername checks length and allowed characters.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return ErrUsernameLength
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	return nil
}

// ValidatePassword checks length in characters and in bytes.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// ValidateFullName checks the display name length. Empty is allowed.
func ValidateFullName(name string) error {
	if utf8.RuneCountInString(name) > MaxFullNameLength {
		return ErrFullNameTooLong
	}
	return nil
}

// ValidateEmail accepts a bare address such as "alice@example.com".
func ValidateEmail(email string) error {
	if email == "" || len(email) > MaxEmailLength {
		return ErrEmailInvalid
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return ErrEmailInvalid
	}
	if !strings.Contains(email[strings.LastIndexByte(email, '@')+1:], ".") {
		return ErrEmailInvalid
	}
	return nil
}

// ValidateSummaryText rejects blank or oversized input text.
func ValidateSummaryText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrTextEmpty
	}
	if len(text) > MaxSummaryTextSize {
		return ErrTextTooLong
	}
	return nil
}
