// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// AccountType discriminates authentication methods.
type AccountType string

// Account types. Only credentials accounts are created today; oauth is
// reserved for federated providers.
const (
	AccountTypeCredentials AccountType = "credentials"
	AccountTypeOAuth       AccountType = "oauth"
)

// Account is one way of authenticating as a user.
// PasswordHash is set only for credentials accounts.
type Account struct {
	ID                ulid.ULID
	UserID            ulid.ULID
	Type              AccountType
	PasswordHash      *string
	Provider          *string
	ProviderAccountID *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

// NewCredentialsAccount creates a password-based Account for userID.
func NewCredentialsAccount(userID ulid.ULID, passwordHash string) (*Account, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("ACCOUNT_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now().UTC()
	return &Account{
		ID:           ulid.Make(),
		UserID:       userID,
		Type:         AccountTypeCredentials,
		PasswordHash: &passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// AccountRepository manages account persistence. Reads exclude soft-deleted rows.
type AccountRepository interface {
	// Create stores a new account.
	Create(ctx context.Context, account *Account) error

	// GetCredentials retrieves the live credentials account of a user.
	// Returns ErrNotFound if the user has none.
	GetCredentials(ctx context.Context, userID ulid.ULID) (*Account, error)

	// UpdatePassword overwrites the password hash of a live account.
	// Returns ErrNotFound if no live account has the ID.
	UpdatePassword(ctx context.Context, accountID ulid.ULID, passwordHash string, at time.Time) error
}
