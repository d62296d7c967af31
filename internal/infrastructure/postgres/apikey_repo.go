package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/ErlanBelekov/auth-server/internal/repository"
)

var _ repository.APIKeyRepository = (*APIKeyRepository)(nil)

type APIKeyRepository struct {
	db DB
}

func NewAPIKeyRepository(db DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) SaveAPIKey(ctx context.Context, key *domain.APIKey) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO api_keys (alias, hash, health_endpoint)
		VALUES ($1, $2, $3)
		ON CONFLICT (alias) DO UPDATE
		SET hash = EXCLUDED.hash, health_endpoint = EXCLUDED.health_endpoint`,
		key.Alias, key.Hash, key.HealthEndpoint,
	)
	if err != nil {
		return fmt.Errorf("save api key: %w", err)
	}
	return nil
}

func (r *APIKeyRepository) CheckAPIKey(ctx context.Context, hash string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM api_keys WHERE hash = $1)`, hash).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check api key: %w", err)
	}
	return ok, nil
}

func (r *APIKeyRepository) RecordAPICall(ctx context.Context, hash string, call domain.APICall) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO api_calls (alias, path, method, status, elapsed_seconds, called_at)
		SELECT alias, $2, $3, $4, $5, $6 FROM api_keys WHERE hash = $1`,
		hash, call.Path, call.Method, call.Status, call.Elapsed, call.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("record api call: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAPIKeyNotFound
	}
	return nil
}

// CallStatistics loads every call and aggregates in process.
func (r *APIKeyRepository) CallStatistics(ctx context.Context, now time.Time) (*domain.CallStatistics, error) {
	rows, err := r.db.Query(ctx, `
		SELECT alias, path, method, status, elapsed_seconds, called_at
		FROM api_calls
		ORDER BY called_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query api calls: %w", err)
	}
	defer rows.Close()

	var calls []domain.APICall
	for rows.Next() {
		var c domain.APICall
		if err := rows.Scan(&c.Alias, &c.Path, &c.Method, &c.Status, &c.Elapsed, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("scan api call: %w", err)
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api calls: %w", err)
	}
	return domain.NewCallStatistics(calls, now), nil
}
