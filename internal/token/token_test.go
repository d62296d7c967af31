package token

import (
	"errors"
	"testing"
	"time"

	"github.com/ErlanBelekov/auth-server/internal/domain"
)

const (
	testLoginKey    = "login-test-secret-at-least-32-chars!"
	testRecoveryKey = "recovery-test-secret-at-least-32-ch!"
)

func TestLoginIssuer_IssueAndParse(t *testing.T) {
	i := NewLoginIssuer([]byte(testLoginKey), time.Hour)

	tok, err := i.Issue("a@b.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	email, err := i.Parse(tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email != "a@b.com" {
		t.Errorf("email = %q, want a@b.com", email)
	}
}

func TestLoginIssuer_TokensAreDistinct(t *testing.T) {
	i := NewLoginIssuer([]byte(testLoginKey), time.Hour)
	a, _ := i.Issue("a@b.com")
	b, _ := i.Issue("a@b.com")
	if a == b {
		t.Fatal("two logins for the same user returned the same token")
	}
}

func TestLoginIssuer_Expired(t *testing.T) {
	i := NewLoginIssuer([]byte(testLoginKey), time.Minute)
	issuedAt := time.Now()
	i.now = func() time.Time { return issuedAt }
	tok, err := i.Issue("a@b.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	i.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	if _, err := i.Parse(tok); !errors.Is(err, domain.ErrInvalidLoginToken) {
		t.Errorf("want ErrInvalidLoginToken, got %v", err)
	}
}

func TestLoginIssuer_WrongKey(t *testing.T) {
	tok, _ := NewLoginIssuer([]byte(testLoginKey), time.Hour).Issue("a@b.com")
	other := NewLoginIssuer([]byte("a-completely-different-key-32chars!"), time.Hour)
	if _, err := other.Parse(tok); !errors.Is(err, domain.ErrInvalidLoginToken) {
		t.Errorf("want ErrInvalidLoginToken, got %v", err)
	}
}

func TestLoginIssuer_Garbage(t *testing.T) {
	i := NewLoginIssuer([]byte(testLoginKey), time.Hour)
	if _, err := i.Parse("not.a.jwt"); !errors.Is(err, domain.ErrInvalidLoginToken) {
		t.Errorf("want ErrInvalidLoginToken, got %v", err)
	}
}

func TestRecoveryIssuer_TokensDifferAcrossCalls(t *testing.T) {
	i := NewRecoveryIssuer([]byte(testRecoveryKey), time.Hour)
	a, err := i.Issue("a@b.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := i.Issue("a@b.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Token == b.Token {
		t.Fatal("consecutive recovery tokens must differ")
	}
	if a.Email != "a@b.com" || a.IssuedAt.IsZero() {
		t.Errorf("unexpected token %+v", a)
	}
}

func TestRecoveryIssuer_Verify(t *testing.T) {
	i := NewRecoveryIssuer([]byte(testRecoveryKey), time.Hour)
	tok, _ := i.Issue("a@b.com")

	if err := i.Verify(tok.Token, "a@b.com"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := i.Verify(tok.Token, "c@d.com"); !errors.Is(err, domain.ErrInvalidRecoveryToken) {
		t.Errorf("token for another email: want ErrInvalidRecoveryToken, got %v", err)
	}
	if err := i.Verify("asd", "a@b.com"); !errors.Is(err, domain.ErrInvalidRecoveryToken) {
		t.Errorf("garbage token: want ErrInvalidRecoveryToken, got %v", err)
	}
}

func TestRecoveryIssuer_Expired(t *testing.T) {
	i := NewRecoveryIssuer([]byte(testRecoveryKey), time.Minute)
	issuedAt := time.Now()
	i.now = func() time.Time { return issuedAt }
	tok, _ := i.Issue("a@b.com")

	i.now = func() time.Time { return issuedAt.Add(time.Hour) }
	if err := i.Verify(tok.Token, "a@b.com"); !errors.Is(err, domain.ErrInvalidRecoveryToken) {
		t.Errorf("want ErrInvalidRecoveryToken, got %v", err)
	}
}
