// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/scylla/scylla/internal/auth"
)

// classify wraps err with the operation name. Failures caused by the
// database being unreachable, overloaded or too slow also match
// auth.ErrStorageUnavailable.
func classify(op string, err error) error {
	if isUnavailable(err) {
		err = fmt.Errorf("%w: %w", auth.ErrStorageUnavailable, err)
	}
	return oops.With("operation", op).Wrap(err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgerrcode.IsInsufficientResources(pgErr.Code) ||
			pgerrcode.IsOperatorIntervention(pgErr.Code)
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
