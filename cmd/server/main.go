package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/auth-server/config"
	"github.com/ErlanBelekov/auth-server/internal/credential"
	"github.com/ErlanBelekov/auth-server/internal/email"
	"github.com/ErlanBelekov/auth-server/internal/health"
	httptransport "github.com/ErlanBelekov/auth-server/internal/http"
	"github.com/ErlanBelekov/auth-server/internal/identity"
	"github.com/ErlanBelekov/auth-server/internal/infrastructure/memory"
	"github.com/ErlanBelekov/auth-server/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/auth-server/internal/infrastructure/redisstore"
	applog "github.com/ErlanBelekov/auth-server/internal/log"
	"github.com/ErlanBelekov/auth-server/internal/metrics"
	"github.com/ErlanBelekov/auth-server/internal/repository"
	"github.com/ErlanBelekov/auth-server/internal/stats"
	"github.com/ErlanBelekov/auth-server/internal/token"
	"github.com/ErlanBelekov/auth-server/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := applog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	deps := map[string]health.Pinger{}

	var store repository.Store
	switch cfg.Storage {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()
		deps["postgres"] = pool

		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatalf("migrate: %v", err)
		}

		provider, err := identity.NewClient(ctx, cfg.IdentityProviderURL, cfg.IdentityProviderAPIKey, cfg.IdentityProviderJWKSURL, logger)
		if err != nil {
			log.Fatalf("identity provider: %v", err)
		}
		store = postgres.NewStore(pool, provider, logger)
	default:
		var sessions repository.SessionStore = memory.NewSessions()
		if cfg.SessionStore == "redis" {
			client, err := redisstore.NewClient(ctx, cfg.RedisURL)
			if err != nil {
				log.Fatalf("redis: %v", err)
			}
			defer client.Close()
			deps["redis"] = health.PingFunc(func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			})
			sessions = redisstore.NewSessions(client, "")
		}
		loginIssuer := token.NewLoginIssuer([]byte(cfg.LoginTokenSecret), cfg.LoginTokenTTL)
		store = memory.NewStore(loginIssuer, sessions, logger)
	}

	mailer := email.NewRecoveryMailer(
		email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger),
		cfg.RecoveryLinkBase,
	)

	userUsecase := usecase.NewUserUsecase(
		store,
		credential.NewCodec(cfg.PasswordPepper),
		token.NewRecoveryIssuer([]byte(cfg.RecoveryTokenSecret), cfg.RecoveryTokenTTL),
		mailer,
		m,
		logger,
	)
	apiKeyUsecase := usecase.NewAPIKeyUsecase(store, cfg.APIGeneratorSecret, m, logger)

	if cfg.AdminEmail != "" {
		if err := userUsecase.BootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
	}

	refresher, err := stats.NewRefresher(apiKeyUsecase, cfg.StatsRefreshSpec, logger, reg)
	if err != nil {
		log.Fatalf("stats: %v", err)
	}
	go refresher.Start(ctx)

	checker := health.NewChecker(deps, logger, reg)

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(
			httptransport.RouterConfig{APIKeyGate: cfg.APIKeyGate},
			logger, m, userUsecase, apiKeyUsecase,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, reg, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "storage", cfg.Storage, "api_key_gate", cfg.APIKeyGate)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}
