// Package memory is the volatile storage backend. All state lives in maps
// guarded by a single lock and is lost when the process exits.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/ErlanBelekov/auth-server/internal/repository"
	"github.com/ErlanBelekov/auth-server/internal/token"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	mu             sync.RWMutex
	users          map[string]domain.User
	recoveryTokens map[string]domain.RecoveryToken
	apiKeys        map[string]domain.APIKey // by alias
	aliasByHash    map[string]string
	calls          []domain.APICall

	sessions repository.SessionStore
	issuer   *token.LoginIssuer
	logger   *slog.Logger
}

func NewStore(issuer *token.LoginIssuer, sessions repository.SessionStore, logger *slog.Logger) *Store {
	return &Store{
		users:          make(map[string]domain.User),
		recoveryTokens: make(map[string]domain.RecoveryToken),
		apiKeys:        make(map[string]domain.APIKey),
		aliasByHash:    make(map[string]string),
		sessions:       sessions,
		issuer:         issuer,
		logger:         logger.With("component", "memory_store"),
	}
}

func (s *Store) SaveUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Debug("saving user", "email", user.Email)
	s.users[user.Email] = *user
	return nil
}

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return domain.ErrUserAlreadyExists
	}
	s.users[user.Email] = *user
	return nil
}

func (s *Store) SearchUser(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) DeleteUser(ctx context.Context, email string) error {
	s.mu.Lock()
	if _, ok := s.users[email]; !ok {
		s.mu.Unlock()
		return domain.ErrUserNotFound
	}
	delete(s.users, email)
	delete(s.recoveryTokens, email)
	s.mu.Unlock()

	if err := s.sessions.DeleteSessions(ctx, email); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

func (s *Store) ListUsers(_ context.Context, page, perPage int) ([]*domain.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emails := make([]string, 0, len(s.users))
	for email := range s.users {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	start, end, err := domain.PageBounds(len(emails), page, perPage)
	if err != nil {
		return nil, domain.TotalPages(len(emails), perPage), err
	}
	users := make([]*domain.User, 0, end-start)
	for _, email := range emails[start:end] {
		u := s.users[email]
		users = append(users, &u)
	}
	return users, domain.TotalPages(len(emails), perPage), nil
}

func (s *Store) SaveRecoveryToken(_ context.Context, t *domain.RecoveryToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recoveryTokens[t.Email] = *t
	return nil
}

func (s *Store) SearchRecoveryToken(_ context.Context, email string) (*domain.RecoveryToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.recoveryTokens[email]
	if !ok {
		return nil, domain.ErrRecoveryTokenNotFound
	}
	return &t, nil
}

func (s *Store) DeleteRecoveryToken(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recoveryTokens, email)
	return nil
}

func (s *Store) ConsumeRecoveryToken(_ context.Context, email, candidate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.recoveryTokens[email]
	if !ok {
		return domain.ErrRecoveryTokenNotFound
	}
	if !t.Matches(candidate) {
		return domain.ErrInvalidRecoveryToken
	}
	delete(s.recoveryTokens, email)
	return nil
}

func (s *Store) Login(ctx context.Context, user *domain.User, password domain.SecuredPassword) (string, error) {
	stored, err := s.SearchUser(ctx, user.Email)
	if err != nil {
		return "", err
	}
	if !stored.PasswordMatch(password) {
		return "", domain.ErrWrongPassword
	}

	tok, err := s.issuer.Issue(stored.Email)
	if err != nil {
		return "", err
	}
	if err := s.sessions.SaveSession(ctx, tok, stored.Email, s.issuer.TTL()); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return tok, nil
}

func (s *Store) ResolveToken(ctx context.Context, tok string) (*domain.User, error) {
	email, err := s.issuer.Parse(tok)
	if err != nil {
		return nil, err
	}
	sessionEmail, err := s.sessions.LookupSession(ctx, tok)
	if err != nil {
		return nil, err
	}
	if sessionEmail != email {
		return nil, domain.ErrInvalidLoginToken
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

func (s *Store) SaveAPIKey(_ context.Context, key *domain.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.apiKeys[key.Alias]; ok {
		delete(s.aliasByHash, prev.Hash)
	}
	s.apiKeys[key.Alias] = *key
	s.aliasByHash[key.Hash] = key.Alias
	return nil
}

func (s *Store) CheckAPIKey(_ context.Context, hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.aliasByHash[hash]
	return ok, nil
}

func (s *Store) RecordAPICall(_ context.Context, hash string, call domain.APICall) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	alias, ok := s.aliasByHash[hash]
	if !ok {
		return domain.ErrAPIKeyNotFound
	}
	call.Alias = alias
	s.calls = append(s.calls, call)
	return nil
}

func (s *Store) CallStatistics(_ context.Context, now time.Time) (*domain.CallStatistics, error) {
	s.mu.RLock()
	calls := append([]domain.APICall(nil), s.calls...)
	s.mu.RUnlock()
	return domain.NewCallStatistics(calls, now), nil
}
