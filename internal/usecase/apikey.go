package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/ErlanBelekov/auth-server/internal/metrics"
	"github.com/ErlanBelekov/auth-server/internal/repository"
)

type APIKeyUsecase struct {
	keys    repository.APIKeyRepository
	secret  []byte
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewAPIKeyUsecase(keys repository.APIKeyRepository, secret string, m *metrics.Metrics, logger *slog.Logger) *APIKeyUsecase {
	return &APIKeyUsecase{
		keys:    keys,
		secret:  []byte(secret),
		metrics: m,
		logger:  logger.With("component", "api_key_usecase"),
		now:     time.Now,
	}
}

// Issue derives the key for alias and stores it, replacing an earlier key
// for the same alias. secret must equal the shared issuance secret.
func (u *APIKeyUsecase) Issue(ctx context.Context, alias, secret string, healthEndpoint *string) (*domain.APIKey, error) {
	if subtle.ConstantTimeCompare([]byte(secret), u.secret) != 1 {
		return nil, domain.ErrInvalidAPISecret
	}

	key := &domain.APIKey{
		Alias:          alias,
		Hash:           u.hash(alias),
		HealthEndpoint: healthEndpoint,
	}
	if err := u.keys.SaveAPIKey(ctx, key); err != nil {
		return nil, fmt.Errorf("save api key: %w", err)
	}

	u.metrics.APIKeyIssued()
	u.logger.InfoContext(ctx, "api key issued", "alias", alias)
	return key, nil
}

func (u *APIKeyUsecase) hash(alias string) string {
	mac := hmac.New(sha256.New, u.secret)
	mac.Write([]byte(alias))
	return hex.EncodeToString(mac.Sum(nil))
}

func (u *APIKeyUsecase) Check(ctx context.Context, key string) (bool, error) {
	return u.keys.CheckAPIKey(ctx, key)
}

func (u *APIKeyUsecase) Record(ctx context.Context, key string, call domain.APICall) error {
	if err := u.keys.RecordAPICall(ctx, key, call); err != nil {
		u.metrics.APICallRecorded(metrics.OutcomeFailed)
		return err
	}
	u.metrics.APICallRecorded(metrics.OutcomeSuccess)
	return nil
}

func (u *APIKeyUsecase) Statistics(ctx context.Context) (*domain.CallStatistics, error) {
	return u.keys.CallStatistics(ctx, u.now())
}
