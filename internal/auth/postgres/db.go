// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

// Package postgres implements the auth repositories on PostgreSQL.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// DB is the subset of *pgxpool.Pool the repositories use. pgx.Tx and
// pgxmock pools satisfy it as well.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type txKey struct{}

// conn returns the transaction stored in ctx by Transactor, or db.
func conn(ctx context.Context, db DB) DB {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}

// Transactor implements auth.Transactor. It stores the active pgx.Tx in the
// context so repository calls made inside fn share the transaction.
type Transactor struct {
	db DB
}

// NewTransactor creates a Transactor over db.
func NewTransactor(db DB) *Transactor {
	return &Transactor{db: db}
}

// InTransaction begins a transaction, stores it in context, and calls fn.
// If fn returns nil, the transaction is committed. Otherwise it is rolled back.
// Nested calls join the outer transaction.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.db.Begin(ctx)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx)) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// BoundedDB applies a deadline to every statement and to Begin, so a
// saturated pool fails fast instead of queueing the caller indefinitely.
type BoundedDB struct {
	db      DB
	timeout time.Duration
}

// Bounded wraps db. A non-positive timeout returns db unchanged.
func Bounded(db DB, timeout time.Duration) DB {
	if timeout <= 0 {
		return db
	}
	return &BoundedDB{db: db, timeout: timeout}
}

// Exec runs sql with the deadline applied.
func (b *BoundedDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.db.Exec(ctx, sql, args...) //nolint:wrapcheck // transparent decorator
}

// QueryRow runs sql with the deadline applied. The deadline is released
// when the row is scanned.
func (b *BoundedDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return &boundedRow{row: b.db.QueryRow(ctx, sql, args...), cancel: cancel}
}

// Begin starts a transaction; only acquiring the connection and BEGIN are bounded.
func (b *BoundedDB) Begin(ctx context.Context) (pgx.Tx, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.db.Begin(ctx) //nolint:wrapcheck // transparent decorator
}

type boundedRow struct {
	row    pgx.Row
	cancel context.CancelFunc
}

func (r *boundedRow) Scan(dest ...any) error {
	defer r.cancel()
	if err := r.row.Scan(dest...); err != nil {
		return err //nolint:wrapcheck // pgx.ErrNoRows must stay matchable
	}
	return nil
}

var _ DB = (*BoundedDB)(nil)

// errNilDB is returned by constructors given no database.
var errNilDB = oops.Errorf("database is required")
