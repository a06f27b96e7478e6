// Package auth provides password hashing and bearer token issuance.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// Supported password hash algorithms.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// Argon2id parameters (OWASP 2024 recommended minimum).
var argon2Params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

var (
	// ErrUnknownHashFormat indicates the stored hash was not produced by a supported algorithm.
	ErrUnknownHashFormat = errors.New("unknown password hash format")
	// ErrUnsupportedAlgorithm indicates the hasher was configured with an unknown algorithm.
	ErrUnsupportedAlgorithm = errors.New("unsupported password hash algorithm")
)

// PasswordHasher hashes new passwords with one algorithm and verifies
// hashes produced by any supported algorithm.
type PasswordHasher struct {
	algorithm  string
	bcryptCost int
}

// NewPasswordHasher creates a hasher for the given algorithm.
// A bcryptCost outside bcrypt's accepted range falls back to bcrypt.DefaultCost.
func NewPasswordHasher(algorithm string, bcryptCost int) (*PasswordHasher, error) {
	switch algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &PasswordHasher{algorithm: algorithm, bcryptCost: bcryptCost}, nil
}

// Algorithm returns the algorithm used for new hashes.
func (h *PasswordHasher) Algorithm() string {
	return h.algorithm
}

// Hash returns a salted, self-describing hash of the plaintext.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	switch h.algorithm {
	case AlgorithmArgon2id:
		hash, err := argon2id.CreateHash(plaintext, argon2Params)
		if err != nil {
			return "", fmt.Errorf("argon2id hash: %w", err)
		}
		return hash, nil
	default:
		hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt hash: %w", err)
		}
		return string(hash), nil
	}
}

// Verify reports whether plaintext matches the encoded hash.
// A mismatch is (false, nil); an unparseable hash is an error.
func (h *PasswordHasher) Verify(plaintext, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		match, err := argon2id.ComparePasswordAndHash(plaintext, encoded)
		if err != nil {
			return false, fmt.Errorf("argon2id verify: %w", err)
		}
		return match, nil

	case isBcryptHash(encoded):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("bcrypt verify: %w", err)

	default:
		return false, ErrUnknownHashFormat
	}
}

func isBcryptHash(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}
