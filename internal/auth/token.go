package auth

import (
	"errors"
	"strings"
	"time"

	"inbox-platform/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const mockTokenPrefix = "mock_token_"

// TokenCodec issues and resolves bearer tokens carrying a user id.
// Two implementations exist: MockTokenCodec embeds the id in plain text
// (the scheme the frontend shipped against), SignedTokenCodec signs it.
type TokenCodec interface {
	Issue(now time.Time, userID string) (string, error)
	Resolve(token string, now time.Time) (string, error)
}

// NewCodec picks the codec configured by AUTH_TOKEN_MODE.
func NewCodec(cfg config.AuthConfig) (TokenCodec, error) {
	if cfg.TokenMode == config.TokenModeJWT {
		return NewSignedTokenCodec(cfg)
	}
	return MockTokenCodec{}, nil
}

// MockTokenCodec issues mock_token_<user id> bearer tokens. They carry no
// signature and never expire; do not run this codec in production.
type MockTokenCodec struct{}

func (MockTokenCodec) Issue(now time.Time, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("auth: empty user id")
	}
	return mockTokenPrefix + userID, nil
}

func (MockTokenCodec) Resolve(token string, now time.Time) (string, error) {
	if !strings.HasPrefix(token, mockTokenPrefix) {
		return "", ErrUnauthorized
	}
	userID := strings.TrimPrefix(token, mockTokenPrefix)
	if userID == "" {
		return "", ErrUnauthorized
	}
	return userID, nil
}

// SignedTokenCodec issues HS256-signed tokens with the user id as the
// subject claim. Same identity surface as the mock codec, real integrity.
type SignedTokenCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewSignedTokenCodec(cfg config.AuthConfig) (*SignedTokenCodec, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &SignedTokenCodec{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		ttl:    cfg.TokenTTL,
	}, nil
}

func (c *SignedTokenCodec) Issue(now time.Time, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("auth: empty user id")
	}
	claims := jwt.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		ID:        uuid.NewString(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

func (c *SignedTokenCodec) Resolve(token string, now time.Time) (string, error) {
	var claims jwt.RegisteredClaims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30*time.Second), // clock skew tolerance
	)

	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return "", ErrUnauthorized
	}

	if c.issuer != "" && claims.Issuer != c.issuer {
		return "", ErrUnauthorized
	}
	if claims.Subject == "" {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}
