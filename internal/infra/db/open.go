// Package db opens the shared Postgres connection pool and owns the feed/item
// schema migration. Both processes go through Open; the pool is sized for a
// workload of at most CONCURRENCY feed processors plus the API handlers, so
// the defaults are deliberately modest.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"feedlode/pkg/config"
)

// PoolConfig sizes the connection pool shared by the scheduler's feed
// processors and the API handlers.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Pool lifetime bounds: short enough that a Postgres failover is picked up,
// long enough that connections are not churned under steady polling load.
const (
	minConnLifetime = time.Minute
	maxConnLifetime = 24 * time.Hour
)

// DefaultPoolConfig returns the production pool sizing: 5 concurrent feed
// processors each holding at most a couple of statements, plus API traffic,
// fit comfortably inside 25 connections.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// LoadPoolConfig reads pool sizing from DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS,
// DB_CONN_MAX_LIFETIME, and DB_CONN_MAX_IDLE_TIME, falling back to the
// defaults for any value that is missing, malformed, or out of range; only
// malformed and out-of-range values log a warning.
func LoadPoolConfig() PoolConfig {
	cfg := DefaultPoolConfig()

	if v := config.GetEnvInt("DB_MAX_OPEN_CONNS", cfg.MaxOpenConns); v > 0 {
		cfg.MaxOpenConns = v
	} else {
		slog.Warn("DB_MAX_OPEN_CONNS must be positive, using default",
			slog.Int("default", cfg.MaxOpenConns))
	}
	if v := config.GetEnvInt("DB_MAX_IDLE_CONNS", cfg.MaxIdleConns); v > 0 {
		cfg.MaxIdleConns = v
	} else {
		slog.Warn("DB_MAX_IDLE_CONNS must be positive, using default",
			slog.Int("default", cfg.MaxIdleConns))
	}

	lifetime := config.GetEnvDuration("DB_CONN_MAX_LIFETIME", cfg.ConnMaxLifetime)
	if err := config.ValidateDurationRange(lifetime, minConnLifetime, maxConnLifetime); err != nil {
		slog.Warn("DB_CONN_MAX_LIFETIME out of range, using default",
			slog.Duration("default", cfg.ConnMaxLifetime), slog.Any("error", err))
	} else {
		cfg.ConnMaxLifetime = lifetime
	}

	idle := config.GetEnvDuration("DB_CONN_MAX_IDLE_TIME", cfg.ConnMaxIdleTime)
	if err := config.ValidatePositiveDuration(idle); err != nil {
		slog.Warn("DB_CONN_MAX_IDLE_TIME must be positive, using default",
			slog.Duration("default", cfg.ConnMaxIdleTime), slog.Any("error", err))
	} else {
		cfg.ConnMaxIdleTime = idle
	}

	return cfg
}

// Open connects to the database named by DATABASE_URL, applies the pool
// sizing from LoadPoolConfig, and verifies the connection with a bounded
// ping. It returns an error rather than exiting so each process can decide
// how a missing database is handled (the API fails startup, the worker could
// retry).
func Open() (*sql.DB, error) {
	dsn, err := config.MustGetEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}

	pool, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg := LoadPoolConfig()
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database pool ready",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	return pool, nil
}
