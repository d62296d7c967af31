package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ErlanBelekov/auth-server/internal/credential"
	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/ErlanBelekov/auth-server/internal/metrics"
	"github.com/ErlanBelekov/auth-server/internal/repository"
	"github.com/ErlanBelekov/auth-server/internal/token"
)

// RecoveryMailer delivers recovery tokens. Delivery is best-effort.
type RecoveryMailer interface {
	SendRecoveryEmail(ctx context.Context, user *domain.User, t *domain.RecoveryToken) error
}

// userStore is the slice of repository.Store the user flows touch.
type userStore interface {
	repository.UserRepository
	repository.RecoveryTokenRepository
	repository.SessionRepository
}

type UserUsecase struct {
	store    userStore
	codec    *credential.Codec
	recovery *token.RecoveryIssuer
	mailer   RecoveryMailer
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewUserUsecase(
	store userStore,
	codec *credential.Codec,
	recovery *token.RecoveryIssuer,
	mailer RecoveryMailer,
	m *metrics.Metrics,
	logger *slog.Logger,
) *UserUsecase {
	return &UserUsecase{
		store:    store,
		codec:    codec,
		recovery: recovery,
		mailer:   mailer,
		metrics:  m,
		logger:   logger.With("component", "user_usecase"),
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	PhoneNumber string
	Fullname    string
	Photo       string
}

// Register creates a non-admin user. Returns domain.ErrUserAlreadyExists
// when the email is taken and the validation errors of domain.NewUser.
// Of several concurrent registrations for one email exactly one succeeds.
func (u *UserUsecase) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	user, err := domain.NewUser(in.Email, in.Fullname, in.PhoneNumber, in.Photo, u.codec.Secure(in.Password), false)
	if err != nil {
		return nil, err
	}
	if err := u.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	u.logger.InfoContext(ctx, "user registered", "email", user.Email)
	return user, nil
}

// Login returns a login token and the caller's profile.
func (u *UserUsecase) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := u.store.SearchUser(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			u.metrics.LoginAttempt(metrics.OutcomeNotFound)
		}
		return "", nil, err
	}

	tok, err := u.store.Login(ctx, user, u.codec.Secure(password))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrWrongPassword):
			u.metrics.LoginAttempt(metrics.OutcomeWrongPassword)
		case errors.Is(err, domain.ErrUserNotFound):
			u.metrics.LoginAttempt(metrics.OutcomeNotFound)
		default:
			u.metrics.LoginAttempt(metrics.OutcomeFailed)
		}
		return "", nil, err
	}

	u.metrics.LoginAttempt(metrics.OutcomeSuccess)
	return tok, user, nil
}

func (u *UserUsecase) ResolveLogin(ctx context.Context, loginToken string) (*domain.User, error) {
	return u.store.ResolveToken(ctx, loginToken)
}

// RecoverPassword issues a recovery token, replacing any earlier one, and
// mails it. Mail failures are logged, never returned.
func (u *UserUsecase) RecoverPassword(ctx context.Context, email string) error {
	user, err := u.store.SearchUser(ctx, email)
	if err != nil {
		return err
	}

	t, err := u.recovery.Issue(user.Email)
	if err != nil {
		return fmt.Errorf("issue recovery token: %w", err)
	}
	if err := u.store.SaveRecoveryToken(ctx, t); err != nil {
		return fmt.Errorf("save recovery token: %w", err)
	}

	if err := u.mailer.SendRecoveryEmail(ctx, user, t); err != nil {
		u.metrics.RecoveryEmail(metrics.OutcomeFailed)
		u.logger.ErrorContext(ctx, "send recovery email", "email", user.Email, "error", err)
		return nil
	}
	u.metrics.RecoveryEmail(metrics.OutcomeSuccess)
	return nil
}

// ResetPassword consumes the live recovery token for email and stores the
// new password. The token is deleted before the password is written, so a
// token is accepted at most once even under concurrent resets.
func (u *UserUsecase) ResetPassword(ctx context.Context, email, recoveryToken, newPassword string) error {
	user, err := u.store.SearchUser(ctx, email)
	if err != nil {
		return err
	}
	if err := u.store.ConsumeRecoveryToken(ctx, email, recoveryToken); err != nil {
		return err
	}
	if err := u.recovery.Verify(recoveryToken, email); err != nil {
		return err
	}

	user.SetPassword(u.codec.Secure(newPassword))
	if err := u.store.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	u.logger.InfoContext(ctx, "password reset", "email", email)
	return nil
}

// Query returns the profile for email when caller owns it or is an admin.
func (u *UserUsecase) Query(ctx context.Context, caller *domain.User, email string) (*domain.User, error) {
	if !caller.CanAccess(email) {
		return nil, domain.ErrForbidden
	}
	return u.store.SearchUser(ctx, email)
}

// UpdateInput carries the fields to change; nil fields are left as they are.
type UpdateInput struct {
	Fullname    *string
	PhoneNumber *string
	Photo       *string
	Password    *string
}

func (u *UserUsecase) Update(ctx context.Context, caller *domain.User, email string, in UpdateInput) (*domain.User, error) {
	if !caller.CanAccess(email) {
		return nil, domain.ErrForbidden
	}
	user, err := u.store.SearchUser(ctx, email)
	if err != nil {
		return nil, err
	}

	if in.PhoneNumber != nil {
		if err := user.SetPhoneNumber(*in.PhoneNumber); err != nil {
			return nil, err
		}
	}
	if in.Fullname != nil {
		user.SetFullname(*in.Fullname)
	}
	if in.Photo != nil {
		user.SetPhoto(*in.Photo)
	}
	if in.Password != nil {
		user.SetPassword(u.codec.Secure(*in.Password))
	}

	if err := u.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

func (u *UserUsecase) Delete(ctx context.Context, caller *domain.User, email string) error {
	if !caller.CanAccess(email) {
		return domain.ErrForbidden
	}
	if err := u.store.DeleteUser(ctx, email); err != nil {
		return err
	}
	u.logger.InfoContext(ctx, "user deleted", "email", email, "by", caller.Email)
	return nil
}

// List returns page of all users ordered by email and the total page count.
// Only admins may list.
func (u *UserUsecase) List(ctx context.Context, caller *domain.User, page, perPage int) ([]*domain.User, int, error) {
	if !caller.Admin {
		return nil, 0, domain.ErrForbidden
	}
	return u.store.ListUsers(ctx, page, perPage)
}

// BootstrapAdmin makes sure an admin account exists for email with password.
// An existing account is promoted and its password replaced.
func (u *UserUsecase) BootstrapAdmin(ctx context.Context, email, password string) error {
	secured := u.codec.Secure(password)

	user, err := u.store.SearchUser(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		user, err = domain.NewUser(email, "Administrator", "0", "", secured, true)
		if err != nil {
			return fmt.Errorf("build admin: %w", err)
		}
	case err != nil:
		return fmt.Errorf("search admin: %w", err)
	default:
		user.Admin = true
		user.SetPassword(secured)
	}

	if err := u.store.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("save admin: %w", err)
	}
	u.logger.InfoContext(ctx, "admin account ready", "email", email)
	return nil
}
