// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultRole is assigned to every registered user.
const DefaultRole = "user"

// User is a registered person. Users are soft-deleted only.
type User struct {
	ID        ulid.ULID
	Name      string
	Email     string
	Image     *string
	Phone     *string
	Role      string
	Verified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// NewUser creates a validated, unverified User with a fresh ID.
// The email is kept exactly as given.
func NewUser(name, email string) (*User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, oops.Code(CodeValidationFailed).With("field", "name").Errorf("name cannot be empty")
	}
	if strings.TrimSpace(email) == "" {
		return nil, oops.Code(CodeValidationFailed).With("field", "email").Errorf("email cannot be empty")
	}

	now := time.Now().UTC()
	return &User{
		ID:        ulid.Make(),
		Name:      name,
		Email:     email,
		Role:      DefaultRole,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsDeleted reports whether the user has been soft-deleted.
func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

// UserRepository manages user persistence. Every read excludes soft-deleted rows.
type UserRepository interface {
	// Create stores a new user.
	// Returns ErrDuplicateEmail if a live user already has the email.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a live user by ID.
	// Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a live user by exact email.
	// Returns ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// MarkVerified sets verified=true. Already-verified users are left as is.
	// Returns ErrNotFound if no live user has the ID.
	MarkVerified(ctx context.Context, id ulid.ULID, at time.Time) error
}
