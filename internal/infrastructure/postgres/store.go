package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/ErlanBelekov/auth-server/internal/identity"
	"github.com/ErlanBelekov/auth-server/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ repository.Store = (*Store)(nil)

var errMissingPassword = errors.New("password required to create provider credential")

// userRows is the relational profile table. *UserRepository implements it.
type userRows interface {
	Insert(ctx context.Context, user *domain.User, providerID string) error
	Upsert(ctx context.Context, user *domain.User, providerID string) error
	FindByEmail(ctx context.Context, email string) (*domain.User, string, error)
	Delete(ctx context.Context, email string) error
	List(ctx context.Context, page, perPage int) ([]*domain.User, int, error)
}

// Store is the durable backend: profiles, recovery tokens and API keys live
// in Postgres while credentials and login tokens belong to the identity
// provider. Writes go to the provider first; a credential created for a
// write whose relational half then fails is deleted again.
type Store struct {
	repository.RecoveryTokenRepository
	repository.APIKeyRepository

	users    userRows
	provider identity.Provider
	logger   *slog.Logger
}

func NewStore(pool *pgxpool.Pool, provider identity.Provider, logger *slog.Logger) *Store {
	return newStore(
		NewUserRepository(pool),
		NewRecoveryTokenRepository(pool),
		NewAPIKeyRepository(pool),
		provider,
		logger,
	)
}

func newStore(
	users userRows,
	tokens repository.RecoveryTokenRepository,
	keys repository.APIKeyRepository,
	provider identity.Provider,
	logger *slog.Logger,
) *Store {
	return &Store{
		RecoveryTokenRepository: tokens,
		APIKeyRepository:        keys,
		users:                   users,
		provider:                provider,
		logger:                  logger.With("component", "postgres_store"),
	}
}

// CreateUser registers a new user. An existing profile or an existing
// provider credential for the email both mean the address is taken; when the
// profile insert loses a race, the credential this call created is removed.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if _, _, err := s.users.FindByEmail(ctx, user.Email); err == nil {
		return domain.ErrUserAlreadyExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	providerID, _, err := s.createCredential(ctx, user)
	if errors.Is(err, identity.ErrCredentialExists) {
		return domain.ErrUserAlreadyExists
	}
	if err != nil {
		return err
	}

	if err := s.users.Insert(ctx, user, providerID); err != nil {
		s.compensate(ctx, user.Email, providerID)
		return err
	}
	return nil
}

// SaveUser leaves the provider credential untouched when user.Password is
// empty, which is what SearchUser returns.
func (s *Store) SaveUser(ctx context.Context, user *domain.User) error {
	_, providerID, err := s.users.FindByEmail(ctx, user.Email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	providerID, created, err := s.syncCredential(ctx, user, providerID)
	if err != nil {
		return err
	}

	if err := s.users.Upsert(ctx, user, providerID); err != nil {
		if created {
			s.compensate(ctx, user.Email, providerID)
		}
		return err
	}
	return nil
}

// syncCredential makes sure the provider holds a credential for user and
// reports whether this call created it.
func (s *Store) syncCredential(ctx context.Context, user *domain.User, providerID string) (string, bool, error) {
	if providerID == "" {
		id, err := s.provider.LookupCredential(ctx, user.Email)
		switch {
		case errors.Is(err, identity.ErrCredentialNotFound):
			return s.createCredential(ctx, user)
		case err != nil:
			return "", false, err
		}
		providerID = id
	}

	if user.Password == "" {
		return providerID, false, nil
	}

	err := s.provider.UpdateCredential(ctx, providerID, string(user.Password))
	if errors.Is(err, identity.ErrCredentialNotFound) {
		s.logger.WarnContext(ctx, "credential missing at provider, recreating", "email", user.Email)
		return s.createCredential(ctx, user)
	}
	if err != nil {
		return "", false, err
	}
	return providerID, false, nil
}

func (s *Store) createCredential(ctx context.Context, user *domain.User) (string, bool, error) {
	if user.Password == "" {
		return "", false, fmt.Errorf("create credential for %s: %w", user.Email, errMissingPassword)
	}
	id, err := s.provider.CreateCredential(ctx, user.Email, string(user.Password))
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s *Store) compensate(ctx context.Context, email, providerID string) {
	if err := s.provider.DeleteCredential(ctx, providerID); err != nil {
		s.logger.ErrorContext(ctx, "failed to roll back provider credential",
			"email", email,
			"provider_id", providerID,
			"error", err,
		)
		return
	}
	s.logger.WarnContext(ctx, "rolled back provider credential after failed profile write", "email", email)
}

func (s *Store) SearchUser(ctx context.Context, email string) (*domain.User, error) {
	u, _, err := s.users.FindByEmail(ctx, email)
	return u, err
}

func (s *Store) DeleteUser(ctx context.Context, email string) error {
	_, providerID, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	if providerID != "" {
		err := s.provider.DeleteCredential(ctx, providerID)
		if err != nil && !errors.Is(err, identity.ErrCredentialNotFound) {
			return err
		}
	}
	return s.users.Delete(ctx, email)
}

func (s *Store) ListUsers(ctx context.Context, page, perPage int) ([]*domain.User, int, error) {
	return s.users.List(ctx, page, perPage)
}

func (s *Store) Login(ctx context.Context, user *domain.User, password domain.SecuredPassword) (string, error) {
	tok, err := s.provider.VerifyCredential(ctx, user.Email, string(password))
	switch {
	case errors.Is(err, identity.ErrInvalidCredential):
		return "", domain.ErrWrongPassword
	case errors.Is(err, identity.ErrCredentialNotFound):
		return "", domain.ErrUserNotFound
	case err != nil:
		return "", err
	}
	return tok, nil
}

func (s *Store) ResolveToken(ctx context.Context, tok string) (*domain.User, error) {
	email, err := s.provider.ResolveProviderToken(ctx, tok)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidProviderToken) {
			return nil, domain.ErrInvalidLoginToken
		}
		return nil, err
	}

	u, err := s.SearchUser(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidLoginToken
		}
		return nil, err
	}
	return u, nil
}
