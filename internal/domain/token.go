package domain

import (
	"crypto/subtle"
	"time"
)

// RecoveryToken authorizes a password reset for Email.
// At most one live token exists per email; a newer one replaces it.
type RecoveryToken struct {
	Email    string
	Token    string
	IssuedAt time.Time
}

// Matches compares the stored token with the one supplied by the user.
func (t *RecoveryToken) Matches(candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(t.Token), []byte(candidate)) == 1
}
