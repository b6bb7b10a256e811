// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Directory owns User records. It is read by every flow and written only by
// registration and email verification.
type Directory struct {
	users UserRepository
}

// NewDirectory creates a Directory over the given repository.
func NewDirectory(users UserRepository) (*Directory, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	return &Directory{users: users}, nil
}

// FindByID returns the live user with id, or ErrNotFound.
func (d *Directory) FindByID(ctx context.Context, id ulid.ULID) (*User, error) {
	return d.users.GetByID(ctx, id) //nolint:wrapcheck // repository errors already carry context
}

// FindByEmail returns the live user with the exact email, or ErrNotFound.
func (d *Directory) FindByEmail(ctx context.Context, email string) (*User, error) {
	return d.users.GetByEmail(ctx, email) //nolint:wrapcheck // repository errors already carry context
}

// Create inserts a new user. Uniqueness of the email is left to the store, so
// concurrent registrations with the same email fail with ErrDuplicateEmail.
func (d *Directory) Create(ctx context.Context, name, email string) (*User, error) {
	user, err := NewUser(name, email)
	if err != nil {
		return nil, err
	}
	if err := d.users.Create(ctx, user); err != nil {
		return nil, err //nolint:wrapcheck // ErrDuplicateEmail must stay matchable
	}
	return user, nil
}

// MarkVerified flags the user's email as verified. It is idempotent.
func (d *Directory) MarkVerified(ctx context.Context, id ulid.ULID) error {
	return d.users.MarkVerified(ctx, id, time.Now().UTC()) //nolint:wrapcheck // repository errors already carry context
}
