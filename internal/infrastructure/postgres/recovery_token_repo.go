package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/ErlanBelekov/auth-server/internal/repository"
	"github.com/jackc/pgx/v5"
)

var _ repository.RecoveryTokenRepository = (*RecoveryTokenRepository)(nil)

type RecoveryTokenRepository struct {
	db DB
}

func NewRecoveryTokenRepository(db DB) *RecoveryTokenRepository {
	return &RecoveryTokenRepository{db: db}
}

func (r *RecoveryTokenRepository) SaveRecoveryToken(ctx context.Context, t *domain.RecoveryToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO recovery_tokens (email, token, issued_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE
		SET token = EXCLUDED.token, issued_at = EXCLUDED.issued_at`,
		t.Email, t.Token, t.IssuedAt,
	)
	if err != nil {
		return fmt.Errorf("save recovery token: %w", err)
	}
	return nil
}

func (r *RecoveryTokenRepository) SearchRecoveryToken(ctx context.Context, email string) (*domain.RecoveryToken, error) {
	var t domain.RecoveryToken
	err := r.db.QueryRow(ctx,
		`SELECT email, token, issued_at FROM recovery_tokens WHERE email = $1`, email,
	).Scan(&t.Email, &t.Token, &t.IssuedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecoveryTokenNotFound
		}
		return nil, fmt.Errorf("scan recovery token: %w", err)
	}
	return &t, nil
}

func (r *RecoveryTokenRepository) DeleteRecoveryToken(ctx context.Context, email string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM recovery_tokens WHERE email = $1`, email); err != nil {
		return fmt.Errorf("delete recovery token: %w", err)
	}
	return nil
}

// ConsumeRecoveryToken locks the email's token row so concurrent resets
// serialize on it; only the first matching caller sees the row.
func (r *RecoveryTokenRepository) ConsumeRecoveryToken(ctx context.Context, email, candidate string) error {
	return withTx(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var stored domain.RecoveryToken
		err := tx.QueryRow(ctx,
			`SELECT email, token, issued_at FROM recovery_tokens WHERE email = $1 FOR UPDATE`, email,
		).Scan(&stored.Email, &stored.Token, &stored.IssuedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecoveryTokenNotFound
			}
			return fmt.Errorf("lock recovery token: %w", err)
		}
		if !stored.Matches(candidate) {
			return domain.ErrInvalidRecoveryToken
		}
		if _, err := tx.Exec(ctx, `DELETE FROM recovery_tokens WHERE email = $1`, email); err != nil {
			return fmt.Errorf("consume recovery token: %w", err)
		}
		return nil
	})
}
