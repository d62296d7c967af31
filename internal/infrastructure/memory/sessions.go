package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/ErlanBelekov/auth-server/internal/repository"
)

var _ repository.SessionStore = (*Sessions)(nil)

type session struct {
	email     string
	expiresAt time.Time
}

// pruneInterval bounds how often SaveSession sweeps expired sessions.
const pruneInterval = time.Minute

// Sessions keeps login tokens in process memory. Expired sessions are
// dropped when looked up and swept periodically on save, so tokens that are
// never presented again do not accumulate.
type Sessions struct {
	mu        sync.Mutex
	byToken   map[string]session
	byEmail   map[string]map[string]struct{}
	now       func() time.Time
	nextPrune time.Time
}

func NewSessions() *Sessions {
	return &Sessions{
		byToken: make(map[string]session),
		byEmail: make(map[string]map[string]struct{}),
		now:     time.Now,
	}
}

func (s *Sessions) SaveSession(_ context.Context, tok, email string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if !now.Before(s.nextPrune) {
		s.pruneLocked(now)
		s.nextPrune = now.Add(pruneInterval)
	}
	s.byToken[tok] = session{email: email, expiresAt: now.Add(ttl)}
	if _, ok := s.byEmail[email]; !ok {
		s.byEmail[email] = make(map[string]struct{})
	}
	s.byEmail[email][tok] = struct{}{}
	return nil
}

func (s *Sessions) LookupSession(_ context.Context, tok string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byToken[tok]
	if !ok {
		return "", domain.ErrInvalidLoginToken
	}
	if !s.now().Before(sess.expiresAt) {
		s.dropLocked(tok, sess.email)
		return "", domain.ErrInvalidLoginToken
	}
	return sess.email, nil
}

func (s *Sessions) DeleteSessions(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok := range s.byEmail[email] {
		delete(s.byToken, tok)
	}
	delete(s.byEmail, email)
	return nil
}

func (s *Sessions) pruneLocked(now time.Time) {
	for tok, sess := range s.byToken {
		if !now.Before(sess.expiresAt) {
			s.dropLocked(tok, sess.email)
		}
	}
}

func (s *Sessions) dropLocked(tok, email string) {
	delete(s.byToken, tok)
	delete(s.byEmail[email], tok)
	if len(s.byEmail[email]) == 0 {
		delete(s.byEmail, email)
	}
}
