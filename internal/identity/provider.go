// Package identity talks to the external identity provider that owns user
// credentials in the durable deployment. The provider speaks an Identity
// Toolkit style REST API (accounts:signUp, accounts:signInWithPassword, ...)
// and issues RS256 ID tokens verifiable against its JWKS endpoint.
package identity

import (
	"context"
	"errors"
)

var (
	ErrCredentialNotFound   = errors.New("identity provider: credential not found")
	ErrCredentialExists     = errors.New("identity provider: credential already exists")
	ErrInvalidCredential    = errors.New("identity provider: invalid credential")
	ErrInvalidProviderToken = errors.New("identity provider: invalid token")
)

// Provider is the subset of identity-provider operations the storage layer needs.
type Provider interface {
	// CreateCredential registers email with password and returns the provider id.
	CreateCredential(ctx context.Context, email, password string) (string, error)
	// UpdateCredential returns ErrCredentialNotFound for an unknown id.
	UpdateCredential(ctx context.Context, id, password string) error
	// LookupCredential returns the provider id for email or ErrCredentialNotFound.
	LookupCredential(ctx context.Context, email string) (string, error)
	DeleteCredential(ctx context.Context, id string) error
	// VerifyCredential exchanges email and password for a provider token.
	VerifyCredential(ctx context.Context, email, password string) (string, error)
	// ResolveProviderToken validates a provider token and returns its email.
	ResolveProviderToken(ctx context.Context, token string) (string, error)
}
