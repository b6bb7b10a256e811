// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/scylla/scylla/internal/auth"
)

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db DB) (*AccountRepository, error) {
	if db == nil {
		return nil, errNilDB
	}
	return &AccountRepository{db: db}, nil
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO accounts (
			id, user_id, type, password_hash, provider, provider_account_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		account.ID.String(),
		account.UserID.String(),
		string(account.Type),
		account.PasswordHash,
		account.Provider,
		account.ProviderAccountID,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return classify("insert account", err)
	}
	return nil
}

// GetCredentials retrieves the live credentials account of a user.
func (r *AccountRepository) GetCredentials(ctx context.Context, userID ulid.ULID) (*auth.Account, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
		SELECT id, user_id, type, password_hash, provider, provider_account_id,
		       created_at, updated_at, deleted_at
		FROM accounts
		WHERE user_id = $1 AND type = $2 AND deleted_at IS NULL
	`, userID.String(), string(auth.AccountTypeCredentials))

	var (
		account     auth.Account
		idStr, uStr string
		typ         string
	)
	err := row.Scan(
		&idStr,
		&uStr,
		&typ,
		&account.PasswordHash,
		&account.Provider,
		&account.ProviderAccountID,
		&account.CreatedAt,
		&account.UpdatedAt,
		&account.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("user_id", userID.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, classify("get credentials account", err)
	}

	if account.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.With("operation", "parse account id").With("id", idStr).Wrap(err)
	}
	if account.UserID, err = ulid.Parse(uStr); err != nil {
		return nil, oops.With("operation", "parse account user id").With("user_id", uStr).Wrap(err)
	}
	account.Type = auth.AccountType(typ)
	return &account, nil
}

// UpdatePassword overwrites the password hash of a live account.
func (r *AccountRepository) UpdatePassword(ctx context.Context, accountID ulid.ULID, passwordHash string, at time.Time) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE accounts SET password_hash = $2, updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
	`, accountID.String(), passwordHash, at)
	if err != nil {
		return classify("update account password", err)
	}
	if tag.RowsAffected() == 0 {
		return oops.With("id", accountID.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

var _ auth.AccountRepository = (*AccountRepository)(nil)
