package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		mock.Close()
	})
	return mock
}

func lit(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

var userCols = []string{"email", "fullname", "phone_number", "photo", "admin"}

// ---- users ----

func TestUserRepository_Insert(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"new email", 1, nil},
		{"taken email", 0, domain.ErrUserAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectExec(lit("ON CONFLICT (email) DO NOTHING")).
				WithArgs("jenny@example.com", "Jenny", "+1 555 0100", "", false, "pid-1").
				WillReturnResult(pgxmock.NewResult("INSERT", tt.affected))

			err := NewUserRepository(mock).Insert(context.Background(), jenny(), "pid-1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Insert() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserRepository_Upsert_CommitsOnSuccess(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec(lit("ON CONFLICT (email) DO UPDATE")).
		WithArgs("jenny@example.com", "Jenny", "+1 555 0100", "", false, "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := NewUserRepository(mock).Upsert(context.Background(), jenny(), ""); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func TestUserRepository_Upsert_RollsBackOnError(t *testing.T) {
	mock := newMock(t)
	boom := errors.New("connection reset")
	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec(lit("INSERT INTO users")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(boom)
	mock.ExpectRollback()

	if err := NewUserRepository(mock).Upsert(context.Background(), jenny(), ""); !errors.Is(err, boom) {
		t.Errorf("expected wrapped %v, got %v", boom, err)
	}
}

func TestUserRepository_FindByEmail(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(lit("FROM users WHERE email = $1")).
		WithArgs("jenny@example.com").
		WillReturnRows(pgxmock.NewRows(append(userCols, "provider_id")).
			AddRow("jenny@example.com", "Jenny", "+1 555 0100", "", true, "pid-1"))
	mock.ExpectQuery(lit("FROM users WHERE email = $1")).
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	repo := NewUserRepository(mock)
	u, providerID, err := repo.FindByEmail(context.Background(), "jenny@example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if u.Fullname != "Jenny" || !u.Admin || providerID != "pid-1" {
		t.Errorf("got %+v / %q", u, providerID)
	}
	if u.Password != "" {
		t.Error("profile rows carry no password")
	}

	if _, _, err := repo.FindByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_Delete_CascadesRecoveryToken(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec(lit("DELETE FROM recovery_tokens WHERE email = $1")).
		WithArgs("jenny@example.com").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(lit("DELETE FROM users WHERE email = $1")).
		WithArgs("jenny@example.com").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	if err := NewUserRepository(mock).Delete(context.Background(), "jenny@example.com"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestUserRepository_Delete_UnknownRollsBack(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec(lit("DELETE FROM recovery_tokens")).
		WithArgs("nobody@example.com").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(lit("DELETE FROM users")).
		WithArgs("nobody@example.com").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	if err := NewUserRepository(mock).Delete(context.Background(), "nobody@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_List(t *testing.T) {
	snapshot := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

	tests := []struct {
		name       string
		page       int
		wantLimit  int
		wantOffset int
		rows       []string
	}{
		{"first page", 0, 2, 0, []string{"a@example.com", "b@example.com"}},
		{"short last page", 1, 1, 2, []string{"c@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectBeginTx(snapshot)
			mock.ExpectQuery(lit("SELECT COUNT(*) FROM users")).
				WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
			rows := pgxmock.NewRows(userCols)
			for _, e := range tt.rows {
				rows.AddRow(e, "", "", "", false)
			}
			mock.ExpectQuery(lit("ORDER BY email ASC LIMIT $1 OFFSET $2")).
				WithArgs(tt.wantLimit, tt.wantOffset).
				WillReturnRows(rows)
			mock.ExpectCommit()

			got, pages, err := NewUserRepository(mock).List(context.Background(), tt.page, 2)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if pages != 2 {
				t.Errorf("pages = %d, want 2", pages)
			}
			if len(got) != len(tt.rows) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.rows))
			}
			for i, u := range got {
				if u.Email != tt.rows[i] {
					t.Errorf("got[%d] = %s, want %s", i, u.Email, tt.rows[i])
				}
			}
		})
	}
}

func TestUserRepository_List_PastLastPage(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectQuery(lit("SELECT COUNT(*) FROM users")).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	_, pages, err := NewUserRepository(mock).List(context.Background(), 2, 2)
	if !errors.Is(err, domain.ErrNoMoreUsers) {
		t.Fatalf("expected ErrNoMoreUsers, got %v", err)
	}
	if pages != 2 {
		t.Errorf("pages = %d, want 2 even on an empty page", pages)
	}
}

// ---- recovery tokens ----

func TestRecoveryTokenRepository_Consume(t *testing.T) {
	issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	lock := lit("FROM recovery_tokens WHERE email = $1 FOR UPDATE")

	t.Run("match deletes", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBeginTx(pgx.TxOptions{})
		mock.ExpectQuery(lock).WithArgs("jenny@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"email", "token", "issued_at"}).
				AddRow("jenny@example.com", "tok-1", issued))
		mock.ExpectExec(lit("DELETE FROM recovery_tokens WHERE email = $1")).
			WithArgs("jenny@example.com").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectCommit()

		if err := NewRecoveryTokenRepository(mock).ConsumeRecoveryToken(context.Background(), "jenny@example.com", "tok-1"); err != nil {
			t.Fatalf("Consume: %v", err)
		}
	})

	t.Run("mismatch keeps token", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBeginTx(pgx.TxOptions{})
		mock.ExpectQuery(lock).WithArgs("jenny@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"email", "token", "issued_at"}).
				AddRow("jenny@example.com", "tok-1", issued))
		mock.ExpectRollback()

		err := NewRecoveryTokenRepository(mock).ConsumeRecoveryToken(context.Background(), "jenny@example.com", "asd")
		if !errors.Is(err, domain.ErrInvalidRecoveryToken) {
			t.Errorf("expected ErrInvalidRecoveryToken, got %v", err)
		}
	})

	t.Run("none issued", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBeginTx(pgx.TxOptions{})
		mock.ExpectQuery(lock).WithArgs("jenny@example.com").WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		err := NewRecoveryTokenRepository(mock).ConsumeRecoveryToken(context.Background(), "jenny@example.com", "tok-1")
		if !errors.Is(err, domain.ErrRecoveryTokenNotFound) {
			t.Errorf("expected ErrRecoveryTokenNotFound, got %v", err)
		}
	})
}

func TestRecoveryTokenRepository_SaveReplacesByEmail(t *testing.T) {
	mock := newMock(t)
	issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectExec(lit("ON CONFLICT (email) DO UPDATE")).
		WithArgs("jenny@example.com", "tok-2", issued).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tok := &domain.RecoveryToken{Email: "jenny@example.com", Token: "tok-2", IssuedAt: issued}
	if err := NewRecoveryTokenRepository(mock).SaveRecoveryToken(context.Background(), tok); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

// ---- api keys ----

func TestAPIKeyRepository_SaveUpsertsByAlias(t *testing.T) {
	mock := newMock(t)
	health := "https://svc.example.com/health"
	key := &domain.APIKey{Alias: "svc", Hash: "hash-2", HealthEndpoint: &health}
	mock.ExpectExec(lit("ON CONFLICT (alias) DO UPDATE")).
		WithArgs("svc", "hash-2", key.HealthEndpoint).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := NewAPIKeyRepository(mock).SaveAPIKey(context.Background(), key); err != nil {
		t.Fatalf("SaveAPIKey: %v", err)
	}
}

func TestAPIKeyRepository_CheckAPIKey(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(lit("SELECT EXISTS")).WithArgs("hash-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(lit("SELECT EXISTS")).WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	repo := NewAPIKeyRepository(mock)
	if ok, err := repo.CheckAPIKey(context.Background(), "hash-1"); err != nil || !ok {
		t.Errorf("known hash: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.CheckAPIKey(context.Background(), "nope"); err != nil || ok {
		t.Errorf("unknown hash: ok=%v err=%v", ok, err)
	}
}

func TestAPIKeyRepository_RecordAPICall(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	call := domain.APICall{Path: "/user", Method: "GET", Status: 200, Elapsed: 0.25, Timestamp: at}

	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{"known hash", 1, nil},
		{"unknown hash", 0, domain.ErrAPIKeyNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectExec(lit("INSERT INTO api_calls")).
				WithArgs("hash-1", "/user", "GET", 200, 0.25, at).
				WillReturnResult(pgxmock.NewResult("INSERT", tt.affected))

			err := NewAPIKeyRepository(mock).RecordAPICall(context.Background(), "hash-1", call)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordAPICall() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAPIKeyRepository_CallStatistics(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	mock := newMock(t)
	mock.ExpectQuery(lit("FROM api_calls ORDER BY called_at ASC")).
		WillReturnRows(pgxmock.NewRows([]string{"alias", "path", "method", "status", "elapsed_seconds", "called_at"}).
			AddRow("svc", "/user", "GET", 200, 0.25, now.Add(-time.Hour)).
			AddRow("svc", "/user", "POST", 400, 0.75, now.Add(-2*time.Hour)).
			AddRow("svc", "/users", "GET", 200, 0.2, now.Add(-25*time.Hour)))

	stats, err := NewAPIKeyRepository(mock).CallStatistics(context.Background(), now)
	if err != nil {
		t.Fatalf("CallStatistics: %v", err)
	}
	if got := stats.CallsByPath["svc"]["/user"]; got != 2 {
		t.Errorf("calls to /user = %d, want 2", got)
	}
	if got := stats.CallsByStatus["svc"][400]; got != 1 {
		t.Errorf("400s = %d, want 1", got)
	}
	if got := stats.MedianResponseTime["svc"][0]; got != 0.5 {
		t.Errorf("today's median = %v, want 0.5", got)
	}
	if got := stats.MedianResponseTime["svc"][1]; got != 0.2 {
		t.Errorf("yesterday's median = %v, want 0.2", got)
	}
}
