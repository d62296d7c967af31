package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/jackc/pgx/v5"
)

// UserRepository holds the profile half of a user. Credentials never touch
// this table; the identity provider owns them and provider_id links the two.
type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Upsert(ctx context.Context, user *domain.User, providerID string) error {
	return withTx(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (email, fullname, phone_number, photo, admin, provider_id)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
			ON CONFLICT (email) DO UPDATE
			SET    fullname     = EXCLUDED.fullname,
			       phone_number = EXCLUDED.phone_number,
			       photo        = EXCLUDED.photo,
			       admin        = EXCLUDED.admin,
			       provider_id  = COALESCE(EXCLUDED.provider_id, users.provider_id),
			       updated_at   = NOW()`,
			user.Email, user.Fullname, user.PhoneNumber, user.Photo, user.Admin, providerID,
		)
		if err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
		return nil
	})
}

// Insert writes a new profile row. The unique email index decides between
// concurrent inserts; the loser gets domain.ErrUserAlreadyExists.
func (r *UserRepository) Insert(ctx context.Context, user *domain.User, providerID string) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO users (email, fullname, phone_number, photo, admin, provider_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		ON CONFLICT (email) DO NOTHING`,
		user.Email, user.Fullname, user.PhoneNumber, user.Photo, user.Admin, providerID,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserAlreadyExists
	}
	return nil
}

// FindByEmail returns the profile and its provider id. The returned user
// carries no password.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, string, error) {
	row := r.db.QueryRow(ctx, `
		SELECT email, fullname, phone_number, photo, admin, COALESCE(provider_id, '')
		FROM users
		WHERE email = $1`, email)

	var (
		u          domain.User
		providerID string
	)
	err := row.Scan(&u.Email, &u.Fullname, &u.PhoneNumber, &u.Photo, &u.Admin, &providerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", domain.ErrUserNotFound
		}
		return nil, "", fmt.Errorf("scan user: %w", err)
	}
	return &u, providerID, nil
}

func (r *UserRepository) Delete(ctx context.Context, email string) error {
	return withTx(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM recovery_tokens WHERE email = $1`, email); err != nil {
			return fmt.Errorf("delete recovery token: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
}

// List counts and pages inside one repeatable-read transaction so the page
// count and the page contents agree.
func (r *UserRepository) List(ctx context.Context, page, perPage int) ([]*domain.User, int, error) {
	var (
		users []*domain.User
		pages int
	)
	err := withTx(ctx, r.db, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		var total int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		pages = domain.TotalPages(total, perPage)

		start, end, err := domain.PageBounds(total, page, perPage)
		if err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `
			SELECT email, fullname, phone_number, photo, admin
			FROM users
			ORDER BY email ASC
			LIMIT $1 OFFSET $2`, end-start, start)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var u domain.User
			if err := rows.Scan(&u.Email, &u.Fullname, &u.PhoneNumber, &u.Photo, &u.Admin); err != nil {
				return fmt.Errorf("scan user: %w", err)
			}
			users = append(users, &u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, pages, err
	}
	return users, pages, nil
}
