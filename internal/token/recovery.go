package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type recoveryClaims struct {
	Email     string `json:"user_email"`
	Timestamp string `json:"timestamp"`
	jwt.RegisteredClaims
}

// RecoveryIssuer mints password-recovery tokens. Tokens embed the issuance
// timestamp and a random id, so two requests for the same email never
// produce the same token string.
type RecoveryIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewRecoveryIssuer(key []byte, ttl time.Duration) *RecoveryIssuer {
	return &RecoveryIssuer{key: key, ttl: ttl, now: time.Now}
}

func (i *RecoveryIssuer) Issue(email string) (*domain.RecoveryToken, error) {
	now := i.now()
	claims := recoveryClaims{
		Email:     email,
		Timestamp: now.Format(time.RFC3339Nano),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return nil, fmt.Errorf("sign recovery token: %w", err)
	}
	return &domain.RecoveryToken{Email: email, Token: signed, IssuedAt: now}, nil
}

// Verify checks that raw is a well-formed, unexpired recovery token for email.
// It does not replace the exact-match comparison against the stored token.
func (i *RecoveryIssuer) Verify(raw, email string) error {
	var claims recoveryClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.key, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(i.now))
	if err != nil || claims.Email != email {
		return domain.ErrInvalidRecoveryToken
	}
	return nil
}
