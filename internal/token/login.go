package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// LoginIssuer signs opaque bearer tokens for authenticated users. A token is
// only honoured while its session mapping exists in the backing store; the
// signature and expiry checks here are the first gate.
type LoginIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewLoginIssuer(key []byte, ttl time.Duration) *LoginIssuer {
	return &LoginIssuer{key: key, ttl: ttl, now: time.Now}
}

func (i *LoginIssuer) TTL() time.Duration { return i.ttl }

// Issue returns a fresh token for email. Every call yields a distinct token,
// so one user may hold several concurrent sessions.
func (i *LoginIssuer) Issue(email string) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign login token: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns the email it was issued for.
func (i *LoginIssuer) Parse(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, i.keyFunc,
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || claims.Subject == "" {
		return "", domain.ErrInvalidLoginToken
	}
	return claims.Subject, nil
}

func (i *LoginIssuer) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return i.key, nil
}
