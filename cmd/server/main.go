package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/replaybrowser/replaybrowser/internal/api"
	"github.com/replaybrowser/replaybrowser/internal/factory"
	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/storage/postgres"
	redisstorage "github.com/replaybrowser/replaybrowser/internal/storage/redis"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build factory config from environment
	cfg := factory.Config{
		Logger:         logger,
		StorageType:    os.Getenv("STORAGE_TYPE"),
		IdentityAPIURL: os.Getenv("IDENTITY_API_URL"),
	}

	if cfg.IdentityAPIURL == "" {
		logger.Error("IDENTITY_API_URL is required")
		os.Exit(1)
	}

	// Configure the selected storage backend
	switch cfg.StorageType {
	case factory.StorageTypeRedis:
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	case factory.StorageTypePostgres:
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			logger.Error("DATABASE_URL required when STORAGE_TYPE=postgres")
			os.Exit(1)
		}
		pgCfg := postgres.DefaultConfig()
		pgCfg.DSN = dsn
		cfg.PostgresConfig = &pgCfg
	}

	// Create application factory
	app, err := factory.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Grant admin to bootstrap identifiers
	if err := bootstrapAdmins(ctx, app, os.Getenv("ADMIN_IDENTIFIERS")); err != nil {
		logger.Error("failed to bootstrap admins", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Clock:          app.Clock,
		AuthService:    app.AuthService,
		AccountService: app.AccountService,
		ReplayService:  app.ReplayService,
		ExportService:  app.ExportService,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// bootstrapAdmins marks the comma-separated identifiers as administrators.
// Accounts that do not exist yet are skipped; they gain admin on a later
// restart after their first login.
func bootstrapAdmins(ctx context.Context, app *factory.App, raw string) error {
	if raw == "" {
		return nil
	}

	for _, part := range strings.Split(raw, ",") {
		id, err := model.ParseIdentifier(strings.TrimSpace(part))
		if err != nil {
			return err
		}

		account, err := app.Storage.GetAccount(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrAccountNotFound) {
				continue
			}
			return err
		}
		if account.IsAdmin {
			continue
		}

		account.IsAdmin = true
		if err := app.Storage.SaveAccount(ctx, account); err != nil {
			return err
		}
		slog.Info("granted admin", slog.String("identifier", string(id)))
	}
	return nil
}
