// Package redisstore keeps login sessions in Redis so that they survive
// restarts and are shared between API replicas.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/ErlanBelekov/auth-server/internal/repository"
	"github.com/redis/go-redis/v9"
)

var _ repository.SessionStore = (*Sessions)(nil)

const defaultPrefix = "auth:sess"

type Sessions struct {
	client redis.UniversalClient
	prefix string
}

func NewSessions(client redis.UniversalClient, prefix string) *Sessions {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Sessions{client: client, prefix: prefix}
}

// NewClient parses redisURL and pings the server before returning.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *Sessions) tokenKey(tok string) string { return s.prefix + ":token:" + tok }

func (s *Sessions) userKey(email string) string { return s.prefix + ":user:" + email }

func (s *Sessions) SaveSession(ctx context.Context, tok, email string, ttl time.Duration) error {
	userKey := s.userKey(email)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey(tok), email, ttl)
		pipe.SAdd(ctx, userKey, tok)
		// the index lives as long as the newest session
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Sessions) LookupSession(ctx context.Context, tok string) (string, error) {
	email, err := s.client.Get(ctx, s.tokenKey(tok)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrInvalidLoginToken
		}
		return "", fmt.Errorf("lookup session: %w", err)
	}
	return email, nil
}

func (s *Sessions) DeleteSessions(ctx context.Context, email string) error {
	userKey := s.userKey(email)
	tokens, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, tok := range tokens {
		keys = append(keys, s.tokenKey(tok))
	}
	keys = append(keys, userKey)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}
