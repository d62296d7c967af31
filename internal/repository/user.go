package repository

import (
	"context"

	"github.com/ErlanBelekov/auth-server/internal/domain"
)

// UserRepository is the user half of the persistence contract.
// Usecases depend on these interfaces, not on a concrete backend, so the
// in-memory and the durable dual backend are interchangeable.
type UserRepository interface {
	// SaveUser upserts by email; there is no separate create/update error path.
	SaveUser(ctx context.Context, user *domain.User) error

	// CreateUser inserts user only if its email is free, atomically with
	// respect to other writers. Returns domain.ErrUserAlreadyExists otherwise.
	CreateUser(ctx context.Context, user *domain.User) error

	// SearchUser returns domain.ErrUserNotFound when email is unknown.
	SearchUser(ctx context.Context, email string) (*domain.User, error)

	// DeleteUser removes the user together with its recovery token and
	// login sessions. A missing recovery token is not an error.
	DeleteUser(ctx context.Context, email string) error

	// ListUsers returns page (zero-indexed) of users ordered by email
	// ascending, and the total number of pages. Returns domain.ErrNoMoreUsers
	// when page >= total pages, which includes every page of an empty store.
	ListUsers(ctx context.Context, page, perPage int) ([]*domain.User, int, error)
}

type RecoveryTokenRepository interface {
	// SaveRecoveryToken replaces any live token for the same email.
	SaveRecoveryToken(ctx context.Context, token *domain.RecoveryToken) error

	// SearchRecoveryToken returns domain.ErrRecoveryTokenNotFound when none exists.
	SearchRecoveryToken(ctx context.Context, email string) (*domain.RecoveryToken, error)

	// DeleteRecoveryToken is a no-op when no token exists.
	DeleteRecoveryToken(ctx context.Context, email string) error

	// ConsumeRecoveryToken deletes the live token for email if it equals
	// candidate, so at most one caller can consume a given token. Returns
	// domain.ErrRecoveryTokenNotFound when none exists and
	// domain.ErrInvalidRecoveryToken on a mismatch, which leaves the token live.
	ConsumeRecoveryToken(ctx context.Context, email, candidate string) error
}

type SessionRepository interface {
	// Login exchanges the user's secured password for a login token.
	// Returns domain.ErrWrongPassword when the credential does not match.
	Login(ctx context.Context, user *domain.User, password domain.SecuredPassword) (string, error)

	// ResolveToken returns the user a login token was issued for, or
	// domain.ErrInvalidLoginToken.
	ResolveToken(ctx context.Context, token string) (*domain.User, error)
}

// Store is the full capability set a backend must provide.
type Store interface {
	UserRepository
	RecoveryTokenRepository
	SessionRepository
	APIKeyRepository
}
