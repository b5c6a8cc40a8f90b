package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/replaybrowser/replaybrowser/internal/storage"
)

// Config holds Postgres connection settings
type Config struct {
	// DSN is the Postgres connection string
	DSN string

	MaxConns int
	MinConns int
}

// DefaultConfig returns sensible defaults for Postgres configuration
func DefaultConfig() Config {
	return Config{
		MaxConns: 20,
		MinConns: 2,
	}
}

// Storage is a Postgres-backed implementation of the storage interface
type Storage struct {
	pool *pgxpool.Pool
}

// New creates a new Postgres storage instance
func New(ctx context.Context, cfg Config) (*Storage, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}

	// prefer prepared statements via pgx automatic statement cache
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Storage{pool: pool}, nil
}

// NewWithPool creates a Postgres storage with an existing pool (for testing)
func NewWithPool(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

// Close closes the connection pool
func (s *Storage) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)
