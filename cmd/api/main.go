package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/swiftride/users-backend/api/routes"
	"github.com/swiftride/users-backend/internal/auth"
	"github.com/swiftride/users-backend/internal/identity"
	"github.com/swiftride/users-backend/internal/users"
	"github.com/swiftride/users-backend/pkg/config"
	"github.com/swiftride/users-backend/pkg/db"
	"github.com/swiftride/users-backend/pkg/docstore"
	"github.com/swiftride/users-backend/pkg/logger"
	"github.com/swiftride/users-backend/pkg/metrics"
	"github.com/swiftride/users-backend/pkg/migrate"
	"github.com/swiftride/users-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	var dbClient *db.Client
	needsDB := cfg.Docstore.Backend == "sql" || cfg.Identity.Backend == "local"
	if needsDB {
		dbClient, err = db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing database", err)
			}
		}()

		if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
			logg.Error(context.Background(), "failed to run dev migrations", err)
			os.Exit(1)
		}
	}

	store, err := newDocstore(context.Background(), cfg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap document store", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error(context.Background(), "error closing document store", err)
		}
	}()

	assembler, err := users.NewAssembler(store)
	if err != nil {
		logg.Error(context.Background(), "failed to create assembler", err)
		os.Exit(1)
	}
	writer, err := users.NewWriter(store, assembler)
	if err != nil {
		logg.Error(context.Background(), "failed to create writer", err)
		os.Exit(1)
	}

	provider, verifier, err := newIdentityProvider(context.Background(), cfg, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap identity provider", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Provider:  provider,
		Writer:    writer,
		Assembler: assembler,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"docstore": cfg.Docstore.Backend,
		"identity": cfg.Identity.Backend,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:    cfg,
			Logger:    logg,
			Assembler: assembler,
			Writer:    writer,
			Auth:      authService,
			Verifier:  verifier,
			Redis:     redisClient,
			Metrics:   metrics.NewHTTPMetrics(),
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func newDocstore(ctx context.Context, cfg *config.Config, dbClient *db.Client) (docstore.Store, error) {
	switch cfg.Docstore.Backend {
	case "firestore":
		return docstore.NewFirestoreStore(ctx, cfg.Google.ProjectID, cfg.Docstore.FirestoreDatabase)
	case "memory":
		return docstore.NewMemoryStore(), nil
	default:
		return docstore.NewSQLStore(dbClient), nil
	}
}

// newIdentityProvider returns the account backend plus an optional token
// verifier. The firebase backend has no local verifier; callers are
// identified by the X-User-Id header set by the gateway.
func newIdentityProvider(ctx context.Context, cfg *config.Config, dbClient *db.Client, logg *logger.Logger) (identity.Provider, identity.TokenVerifier, error) {
	if cfg.Identity.Backend == "firebase" {
		provider, err := identity.NewFirebaseProvider(ctx, cfg.Google, logg)
		if err != nil {
			return nil, nil, err
		}
		return provider, nil, nil
	}

	provider, err := identity.NewLocalProvider(dbClient, cfg.JWT, cfg.Password, logg)
	if err != nil {
		return nil, nil, err
	}
	return provider, provider, nil
}
