// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

// Package store manages the PostgreSQL connection pool and schema
// migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection retry policy. The database frequently comes up a few seconds
// after the server in containerized deployments, so the first pings are
// expected to fail.
const (
	connectRetryBase = 500 * time.Millisecond
	connectRetryMax  = 6
)

// Connect opens a pgx pool and verifies connectivity, retrying with
// exponential backoff while the database comes up.
func Connect(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.In("store").Code("DSN_INVALID").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.In("store").Code("POOL_CREATE_FAILED").Wrap(err)
	}

	backoff := retry.WithMaxRetries(connectRetryMax, retry.NewExponential(connectRetryBase))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := pool.Ping(ctx); err != nil {
			logger.DebugContext(ctx, "database not ready, retrying",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.In("store").Code("POOL_PING_FAILED").With("attempts", attempt).Wrap(err)
	}

	return pool, nil
}
