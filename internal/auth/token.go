package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType is the token_type reported to clients on login.
const TokenType = "bearer"

var (
	// ErrTokenExpired indicates a correctly signed token whose exp has passed.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid covers every other validation failure: bad signature,
	// malformed segments, unsupported alg, missing subject or expiry.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrEmptySecret indicates the signing key was not configured.
	ErrEmptySecret = errors.New("token secret key is empty")
)

// Claims is the claim set carried by access tokens.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// TokenService issues and validates HS256 access tokens.
// It is safe for concurrent use; the secret is read-only after construction.
type TokenService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret []byte, opts ...TokenOption) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	s := &TokenService{
		secret: key,
		method: jwt.SigningMethodHS256,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue returns a signed token for subject that expires after ttl.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is empty")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	if ttl%time.Second != 0 {
		return "", fmt.Errorf("token ttl must be whole seconds, got %s", ttl)
	}

	// NumericDate has second precision; exp is exactly iat+ttl.
	issuedAt := s.now().Truncate(time.Second)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies the token signature and expiry and returns its subject.
// The signature is checked first, so a tampered token is ErrTokenInvalid even when expired.
func (s *TokenService) Validate(token string) (string, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}

func (s *TokenService) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return s.secret, nil
}
