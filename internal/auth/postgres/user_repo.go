// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/scylla/scylla/internal/auth"
)

const userColumns = `id, name, email, image, phone, role, verified, created_at, updated_at, deleted_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DB) (*UserRepository, error) {
	if db == nil {
		return nil, errNilDB
	}
	return &UserRepository{db: db}, nil
}

// Create stores a new user. The partial unique index on live emails turns a
// concurrent duplicate into auth.ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO users (id, name, email, image, phone, role, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		user.ID.String(),
		user.Name,
		user.Email,
		user.Image,
		user.Phone,
		user.Role,
		user.Verified,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return oops.With("operation", "insert user").Wrap(fmt.Errorf("%w: %w", auth.ErrDuplicateEmail, err))
	}
	if err != nil {
		return classify("insert user", err)
	}
	return nil
}

// GetByID retrieves a live user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, classify("get user by id", err)
	}
	return user, nil
}

// GetByEmail retrieves a live user by exact email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := conn(ctx, r.db).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND deleted_at IS NULL`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, classify("get user by email", err)
	}
	return user, nil
}

// MarkVerified sets verified on a live user.
func (r *UserRepository) MarkVerified(ctx context.Context, id ulid.ULID, at time.Time) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE users SET verified = TRUE, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`, id.String(), at)
	if err != nil {
		return classify("mark user verified", err)
	}
	if tag.RowsAffected() == 0 {
		return oops.With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		user  auth.User
		idStr string
	)
	if err := row.Scan(
		&idStr,
		&user.Name,
		&user.Email,
		&user.Image,
		&user.Phone,
		&user.Role,
		&user.Verified,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.DeletedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck // pgx.ErrNoRows must stay matchable
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse user id").With("id", idStr).Wrap(err)
	}
	user.ID = id
	return &user, nil
}

var _ auth.UserRepository = (*UserRepository)(nil)
