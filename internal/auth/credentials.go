// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// dummyPasswordHash is verified against when a user or account doesn't exist,
// so the response time matches a real verification.
// It is not a credential and never matches any password.
//
//nolint:gosec // G101: intentionally fake hash for timing equalisation, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Credentials is the credential store: it owns Account rows and password hashing.
type Credentials struct {
	accounts AccountRepository
	hasher   PasswordHasher
}

// NewCredentials creates a Credentials store.
func NewCredentials(accounts AccountRepository, hasher PasswordHasher) (*Credentials, error) {
	if accounts == nil {
		return nil, oops.Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &Credentials{accounts: accounts, hasher: hasher}, nil
}

// Hash hashes a plaintext password.
func (c *Credentials) Hash(plaintext string) (string, error) {
	return c.hasher.Hash(plaintext) //nolint:wrapcheck // hasher errors are already coded
}

// Verify checks plaintext against hash. A mismatch is (false, nil).
func (c *Credentials) Verify(plaintext, hash string) (bool, error) {
	return c.hasher.Verify(plaintext, hash) //nolint:wrapcheck // hasher errors are already coded
}

// VerifyDummy burns the same work as Verify without a real hash. It always
// reports a mismatch.
func (c *Credentials) VerifyDummy(plaintext string) {
	_, _ = c.hasher.Verify(plaintext, dummyPasswordHash) //nolint:errcheck // result is irrelevant
}

// NeedsUpgrade reports whether hash should be re-hashed with the current algorithm.
func (c *Credentials) NeedsUpgrade(hash string) bool {
	return c.hasher.NeedsUpgrade(hash)
}

// CreateCredentialsAccount hashes plaintext and inserts a credentials Account
// for userID. Call it inside the transaction that created the user.
func (c *Credentials) CreateCredentialsAccount(ctx context.Context, userID ulid.ULID, plaintext string) (*Account, error) {
	hash, err := c.hasher.Hash(plaintext)
	if err != nil {
		return nil, err //nolint:wrapcheck // hasher errors are already coded
	}
	return c.InsertCredentialsAccount(ctx, userID, hash)
}

// InsertCredentialsAccount inserts a credentials Account carrying a hash the
// caller already computed, so the hash cost stays outside the transaction.
func (c *Credentials) InsertCredentialsAccount(ctx context.Context, userID ulid.ULID, hash string) (*Account, error) {
	account, err := NewCredentialsAccount(userID, hash)
	if err != nil {
		return nil, err
	}

	if err := c.accounts.Create(ctx, account); err != nil {
		return nil, oops.With("operation", "create credentials account").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return account, nil
}

// CredentialsFor returns the live credentials account of userID, or ErrNotFound.
func (c *Credentials) CredentialsFor(ctx context.Context, userID ulid.ULID) (*Account, error) {
	return c.accounts.GetCredentials(ctx, userID) //nolint:wrapcheck // ErrNotFound must stay matchable
}

// SetPasswordHash stores an already computed hash on the account.
func (c *Credentials) SetPasswordHash(ctx context.Context, account *Account, hash string) error {
	at := time.Now().UTC()
	if err := c.accounts.UpdatePassword(ctx, account.ID, hash, at); err != nil {
		return err //nolint:wrapcheck // ErrNotFound must stay matchable
	}
	account.PasswordHash = &hash
	account.UpdatedAt = at
	return nil
}
