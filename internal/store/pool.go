// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Pool defaults.
const (
	DefaultMaxConns        = 10
	DefaultConnectAttempts = 5
	DefaultRetryBase       = 500 * time.Millisecond
	maxRetryDelay          = 5 * time.Second
)

// PoolConfig configures the PostgreSQL connection pool.
type PoolConfig struct {
	URL             string
	MaxConns        int32
	ConnectAttempts int
	RetryBase       time.Duration
}

func (c *PoolConfig) applyDefaults() {
	if c.MaxConns <= 0 {
		c.MaxConns = DefaultMaxConns
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = DefaultConnectAttempts
	}
	if c.RetryBase <= 0 {
		c.RetryBase = DefaultRetryBase
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Connect opens a pool and waits until the database answers a ping, retrying
// with exponential backoff up to cfg.ConnectAttempts times.
func Connect(ctx context.Context, cfg PoolConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, oops.Code("DATABASE_URL_REQUIRED").Errorf("database url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		// The parse error can echo the URL, password included.
		return nil, oops.Code("DATABASE_URL_INVALID").Errorf("database url could not be parsed")
	}
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code("DATABASE_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	if err := waitReady(ctx, pool, cfg.ConnectAttempts, cfg.RetryBase, logger); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("database pool ready", "max_conns", cfg.MaxConns)
	return pool, nil
}

func waitReady(ctx context.Context, p pinger, attempts int, base time.Duration, logger *slog.Logger) error {
	backoff := retry.WithCappedDuration(maxRetryDelay, retry.NewExponential(base))
	backoff = retry.WithMaxRetries(uint64(attempts-1), backoff) //nolint:gosec // attempts >= 1

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := p.Ping(ctx); err != nil {
			logger.Warn("database not ready", "attempt", attempt, "max_attempts", attempts, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DATABASE_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}
	return nil
}
