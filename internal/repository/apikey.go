package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/auth-server/internal/domain"
)

type APIKeyRepository interface {
	// SaveAPIKey upserts by alias.
	SaveAPIKey(ctx context.Context, key *domain.APIKey) error

	// CheckAPIKey reports whether hash belongs to an issued key.
	CheckAPIKey(ctx context.Context, hash string) (bool, error)

	// RecordAPICall appends a call for the key identified by hash.
	// Returns domain.ErrAPIKeyNotFound for an unknown hash; callers are
	// expected to have checked the key first.
	RecordAPICall(ctx context.Context, hash string, call domain.APICall) error

	// CallStatistics aggregates every recorded call as of now.
	CallStatistics(ctx context.Context, now time.Time) (*domain.CallStatistics, error)
}

// SessionStore maps opaque login tokens to emails. It backs the
// SessionRepository of backends that issue their own login tokens.
type SessionStore interface {
	SaveSession(ctx context.Context, token, email string, ttl time.Duration) error

	// LookupSession returns domain.ErrInvalidLoginToken for unknown tokens.
	LookupSession(ctx context.Context, token string) (string, error)

	// DeleteSessions drops every session held by email.
	DeleteSessions(ctx context.Context, email string) error
}
