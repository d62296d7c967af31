// seed creates an admin, a handful of demo users and an API key in the
// durable backend (Postgres + identity provider).
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/ErlanBelekov/auth-server/config"
	"github.com/ErlanBelekov/auth-server/internal/credential"
	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/ErlanBelekov/auth-server/internal/email"
	"github.com/ErlanBelekov/auth-server/internal/identity"
	"github.com/ErlanBelekov/auth-server/internal/infrastructure/postgres"
	applog "github.com/ErlanBelekov/auth-server/internal/log"
	"github.com/ErlanBelekov/auth-server/internal/token"
	"github.com/ErlanBelekov/auth-server/internal/usecase"
)

const (
	seedAdminEmail    = "admin@seed.local"
	seedAdminPassword = "admin-password"
	seedUserPassword  = "demo-password"
	seedAlias         = "seed-client"
)

var demoUsers = []usecase.RegisterInput{
	{Email: "ana@seed.local", Fullname: "Ana Lima", PhoneNumber: "11 4002-8922"},
	{Email: "bruno@seed.local", Fullname: "Bruno Costa", PhoneNumber: "21 3333-1010"},
	{Email: "carla@seed.local", Fullname: "Carla Souza", PhoneNumber: "31 98888-7777"},
	{Email: "diego@seed.local", Fullname: "Diego Alves", PhoneNumber: "41 2020-3030"},
	{Email: "elena@seed.local", Fullname: "Elena Rocha", PhoneNumber: "51 5050-6060"},
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.Storage != "postgres" {
		log.Fatal("seed writes to the durable backend; set STORAGE=postgres")
	}

	logger := applog.New(os.Stderr, cfg.Env, cfg.SlogLevel())

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	provider, err := identity.NewClient(ctx, cfg.IdentityProviderURL, cfg.IdentityProviderAPIKey, cfg.IdentityProviderJWKSURL, logger)
	if err != nil {
		log.Fatalf("identity provider: %v", err)
	}
	store := postgres.NewStore(pool, provider, logger)

	users := usecase.NewUserUsecase(
		store,
		credential.NewCodec(cfg.PasswordPepper),
		token.NewRecoveryIssuer([]byte(cfg.RecoveryTokenSecret), cfg.RecoveryTokenTTL),
		email.NewRecoveryMailer(email.NewLogSender(logger), cfg.RecoveryLinkBase),
		nil,
		logger,
	)
	keys := usecase.NewAPIKeyUsecase(store, cfg.APIGeneratorSecret, nil, logger)

	if err := users.BootstrapAdmin(ctx, seedAdminEmail, seedAdminPassword); err != nil {
		log.Fatalf("admin: %v", err)
	}

	var created, skipped int
	for _, in := range demoUsers {
		in.Password = seedUserPassword
		_, err := users.Register(ctx, in)
		switch {
		case errors.Is(err, domain.ErrUserAlreadyExists):
			skipped++
		case err != nil:
			log.Fatalf("register %s: %v", in.Email, err)
		default:
			created++
		}
	}

	key, err := keys.Issue(ctx, seedAlias, cfg.APIGeneratorSecret, nil)
	if err != nil {
		log.Fatalf("api key: %v", err)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Admin:      %s / %s\n", seedAdminEmail, seedAdminPassword)
	fmt.Printf("  Demo users: %d created (skipped %d already existing), password %q\n", created, skipped, seedUserPassword)
	fmt.Printf("  API key:    %s (alias %s)\n", key.Hash, seedAlias)
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Printf("    curl -s -X POST 'http://localhost:%s/user/login?api_key=%s' \\\n", cfg.Port, key.Hash)
	fmt.Printf("      -H 'Content-Type: application/json' \\\n")
	fmt.Printf("      -d '{\"email\":\"%s\",\"password\":\"%s\"}'\n", seedAdminEmail, seedAdminPassword)
	fmt.Println()
	fmt.Println("    export TOKEN=<login_token from the response>")
	fmt.Printf("    curl -s 'http://localhost:%s/registered_users?page=0&users_per_page=3&api_key=%s' \\\n", cfg.Port, key.Hash)
	fmt.Println("      -H \"Authorization: Bearer $TOKEN\"")
}
