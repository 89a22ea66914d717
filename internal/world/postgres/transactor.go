// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GoMOO Contributors

// Package postgres implements the world and access repositories on
// PostgreSQL via pgx.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// txKey is the context key for an active transaction.
type txKey struct{}

// querier abstracts query execution over *pgxpool.Pool and pgx.Tx so
// repository methods participate in an active transaction when one is in
// context.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querierFromCtx returns the active transaction from ctx, or fallback.
func querierFromCtx(ctx context.Context, fallback querier) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return fallback
}

// txBeginner is the slice of *pgxpool.Pool the Transactor needs.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Transactor implements world.Transactor using a pgxpool connection pool.
// It stores the active pgx.Tx in context so that repository methods join
// the same transaction.
type Transactor struct {
	pool txBeginner
}

// NewTransactor creates a Transactor backed by the given connection pool.
func NewTransactor(pool txBeginner) *Transactor {
	return &Transactor{pool: pool}
}

// InTransaction begins a transaction, stores it in context, and calls fn.
// If fn returns nil, the transaction is committed. Otherwise it is rolled
// back, leaving no half-propagated state.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		// Already inside a transaction: join it.
		return fn(ctx)
	}
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}
