package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T, algorithm string) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(algorithm, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordHasher(%q) failed: %v", algorithm, err)
	}
	return h
}

func TestPasswordHasher_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		algorithm string
		prefix    string
	}{
		{AlgorithmBcrypt, "$2a$"},
		{AlgorithmArgon2id, "$argon2id$v=19$m=65536,t=3,p=4$"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.algorithm, func(t *testing.T) {
			t.Parallel()

			h := newTestHasher(t, tt.algorithm)
			hash, err := h.Hash("secret123")
			if err != nil {
				t.Fatalf("Hash failed: %v", err)
			}
			if !strings.HasPrefix(hash, tt.prefix) {
				t.Errorf("Hash = %q, want prefix %q", hash, tt.prefix)
			}
			if strings.Contains(hash, "secret123") {
				t.Error("Hash must not contain the plaintext")
			}
		})
	}
}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, algorithm := range []string{AlgorithmBcrypt, AlgorithmArgon2id} {
		algorithm := algorithm
		t.Run(algorithm, func(t *testing.T) {
			t.Parallel()

			h := newTestHasher(t, algorithm)
			hash, err := h.Hash("secret123")
			if err != nil {
				t.Fatalf("Hash failed: %v", err)
			}

			ok, err := h.Verify("secret123", hash)
			if err != nil || !ok {
				t.Errorf("Verify(correct) = %v, %v; want true, nil", ok, err)
			}

			ok, err = h.Verify("secret124", hash)
			if err != nil || ok {
				t.Errorf("Verify(wrong) = %v, %v; want false, nil", ok, err)
			}
		})
	}
}

func TestPasswordHasher_Uniqueness(t *testing.T) {
	t.Parallel()

	h := newTestHasher(t, AlgorithmBcrypt)

	hash1, err := h.Hash("the_same_password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	hash2, err := h.Hash("the_same_password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if hash1 == hash2 {
		t.Error("Same password should produce different hashes due to random salt")
	}
}

func TestPasswordHasher_VerifiesAcrossAlgorithms(t *testing.T) {
	t.Parallel()

	legacy := newTestHasher(t, AlgorithmBcrypt)
	current := newTestHasher(t, AlgorithmArgon2id)

	hash, err := legacy.Hash("user1password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	ok, err := current.Verify("user1password", hash)
	if err != nil || !ok {
		t.Errorf("argon2id hasher should verify bcrypt hashes, got %v, %v", ok, err)
	}
}

func TestPasswordHasher_UnknownFormat(t *testing.T) {
	t.Parallel()

	h := newTestHasher(t, AlgorithmBcrypt)

	for _, encoded := range []string{"", "plaintext", "$1$md5crypt$abc", "$argon2i$v=19$m=1,t=1,p=1$a$b"} {
		_, err := h.Verify("secret", encoded)
		if !errors.Is(err, ErrUnknownHashFormat) {
			t.Errorf("Verify(%q) error = %v, want ErrUnknownHashFormat", encoded, err)
		}
	}
}

func TestNewPasswordHasher_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewPasswordHasher("md5", 10); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("expected ErrUnsupportedAlgorithm, got %v", err)
	}

	h, err := NewPasswordHasher(AlgorithmBcrypt, 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.bcryptCost != bcrypt.DefaultCost {
		t.Errorf("bcryptCost = %d, want default %d", h.bcryptCost, bcrypt.DefaultCost)
	}
}
