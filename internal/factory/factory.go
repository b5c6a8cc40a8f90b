package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/replaybrowser/replaybrowser/internal/dependencies/clock"
	"github.com/replaybrowser/replaybrowser/internal/identity"
	"github.com/replaybrowser/replaybrowser/internal/services/account"
	"github.com/replaybrowser/replaybrowser/internal/services/auth"
	"github.com/replaybrowser/replaybrowser/internal/services/export"
	"github.com/replaybrowser/replaybrowser/internal/services/redaction"
	"github.com/replaybrowser/replaybrowser/internal/services/replay"
	"github.com/replaybrowser/replaybrowser/internal/storage"
	"github.com/replaybrowser/replaybrowser/internal/storage/memory"
	"github.com/replaybrowser/replaybrowser/internal/storage/postgres"
	redisstorage "github.com/replaybrowser/replaybrowser/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock    clock.Clock
	Resolver identity.Resolver

	// Services
	AuthService      *auth.Service
	RedactionService *redaction.Service
	AccountService   *account.Service
	ReplayService    *replay.Service
	ExportService    *export.Service
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PostgresConfig holds Postgres connection settings (required if StorageType is "postgres")
	PostgresConfig *postgres.Config
	// IdentityAPIURL is the base URL of the external identity provider
	IdentityAPIURL string
	// IdentityTimeout bounds identity lookups (optional, defaults to 10s)
	IdentityTimeout time.Duration
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		pgStore, err := postgres.New(ctx, *cfg.PostgresConfig)
		if err != nil {
			return nil, err
		}
		if err := pgStore.Migrate(ctx); err != nil {
			return nil, err
		}
		store = pgStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'postgres'")
	}

	// Create external dependencies
	clk := clock.New()

	identityTimeout := cfg.IdentityTimeout
	if identityTimeout == 0 {
		identityTimeout = 10 * time.Second
	}
	resolver := identity.NewHTTPResolver(cfg.IdentityAPIURL, identityTimeout)

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	return newWithDependencies(store, clk, resolver, authCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, resolver identity.Resolver, authCfg auth.Config, logger *slog.Logger) *App {
	// Create services
	authService := auth.New(clk, authCfg)
	redactionService := redaction.New(store, logger)
	accountService := account.New(store, resolver, redactionService, clk, logger)
	replayService := replay.New(store, clk, logger)
	exportService := export.New(store, logger)

	return &App{
		Storage:          store,
		Clock:            clk,
		Resolver:         resolver,
		AuthService:      authService,
		RedactionService: redactionService,
		AccountService:   accountService,
		ReplayService:    replayService,
		ExportService:    exportService,
	}
}
