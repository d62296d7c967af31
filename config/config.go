package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

const minSecretLen = 32

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	// Storage selects the persistence backend. "postgres" is the durable
	// dual backend (relational profile rows + external identity provider).
	Storage      string `env:"STORAGE" envDefault:"memory" validate:"oneof=memory postgres"`
	SessionStore string `env:"SESSION_STORE" envDefault:"memory" validate:"oneof=memory redis"`
	DatabaseURL  string `env:"DATABASE_URL" validate:"required_if=Storage postgres"`
	RedisURL     string `env:"REDIS_URL" validate:"required_if=SessionStore redis"`

	IdentityProviderURL     string `env:"IDENTITY_PROVIDER_URL"      validate:"required_if=Storage postgres"`
	IdentityProviderAPIKey  string `env:"IDENTITY_PROVIDER_API_KEY"`
	IdentityProviderJWKSURL string `env:"IDENTITY_PROVIDER_JWKS_URL" validate:"required_if=Storage postgres"`

	// LoginTokenSecret signs login tokens for the memory backend only; the
	// postgres backend hands out identity-provider tokens and ignores it.
	LoginTokenSecret    string        `env:"LOGIN_TOKEN_SECRET"             validate:"required_if=Storage memory"`
	LoginTokenTTL       time.Duration `env:"LOGIN_TOKEN_TTL"    envDefault:"24h"`
	RecoveryTokenSecret string        `env:"RECOVERY_TOKEN_SECRET,required" validate:"required,min=32"`
	RecoveryTokenTTL    time.Duration `env:"RECOVERY_TOKEN_TTL" envDefault:"1h"`
	PasswordPepper      string        `env:"PASSWORD_PEPPER"    envDefault:"auth-server-pepper"  validate:"min=8"`

	APIGeneratorSecret string `env:"API_GENERATOR_SECRET,required" validate:"required"`
	APIKeyGate         bool   `env:"API_KEY_GATE" envDefault:"true"`
	StatsRefreshSpec   string `env:"STATS_REFRESH_SPEC" envDefault:"@every 1m"`

	ResendAPIKey     string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom       string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`
	// RecoveryLinkBase is the front end that serves /reset-password.
	RecoveryLinkBase string `env:"RECOVERY_LINK_BASE_URL" envDefault:"http://localhost:3000" validate:"url"`

	AdminEmail    string `env:"ADMIN_EMAIL"    validate:"required_with=AdminPassword"`
	AdminPassword string `env:"ADMIN_PASSWORD" validate:"required_with=AdminEmail"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.LoginTokenSecret != "" && len(cfg.LoginTokenSecret) < minSecretLen {
		return nil, fmt.Errorf("invalid config: LOGIN_TOKEN_SECRET must be at least %d characters", minSecretLen)
	}

	return cfg, nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
