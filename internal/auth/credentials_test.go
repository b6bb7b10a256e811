// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/scylla/scylla/internal/auth"
	"github.com/scylla/scylla/internal/auth/mocks"
	"github.com/scylla/scylla/pkg/errutil"
)

func TestNewCredentials_RequiresDependencies(t *testing.T) {
	_, err := auth.NewCredentials(nil, auth.NewArgon2idHasher())
	require.Error(t, err)

	_, err = auth.NewCredentials(mocks.NewMockAccountRepository(t), nil)
	require.Error(t, err)
}

func TestCredentials_CreateCredentialsAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a real hash, never the plaintext", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		creds, err := auth.NewCredentials(accounts, auth.NewArgon2idHasher())
		require.NoError(t, err)
		userID := ulid.Make()

		accounts.On("Create", ctx, mock.AnythingOfType("*auth.Account")).Return(nil)

		account, err := creds.CreateCredentialsAccount(ctx, userID, "password123")
		require.NoError(t, err)
		require.NotNil(t, account.PasswordHash)
		assert.NotEqual(t, "password123", *account.PasswordHash)
		assert.Equal(t, auth.AccountTypeCredentials, account.Type)
		assert.Equal(t, userID, account.UserID)

		ok, err := creds.Verify("password123", *account.PasswordHash)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = creds.Verify("password124", *account.PasswordHash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty password is refused", func(t *testing.T) {
		creds, err := auth.NewCredentials(mocks.NewMockAccountRepository(t), auth.NewArgon2idHasher())
		require.NoError(t, err)

		_, err = creds.CreateCredentialsAccount(ctx, ulid.Make(), "")
		errutil.AssertErrorCode(t, err, auth.CodeEmptyPassword)
	})

	t.Run("zero user is refused", func(t *testing.T) {
		creds, err := auth.NewCredentials(mocks.NewMockAccountRepository(t), auth.NewArgon2idHasher())
		require.NoError(t, err)

		_, err = creds.CreateCredentialsAccount(ctx, ulid.ULID{}, "password123")
		errutil.AssertErrorCode(t, err, "ACCOUNT_INVALID_USER")
	})
}

func TestCredentials_InsertCredentialsAccount(t *testing.T) {
	ctx := context.Background()
	accounts := mocks.NewMockAccountRepository(t)
	hasher := mocks.NewMockPasswordHasher(t)
	creds, err := auth.NewCredentials(accounts, hasher)
	require.NoError(t, err)
	userID := ulid.Make()

	accounts.On("Create", ctx, mock.MatchedBy(func(a *auth.Account) bool {
		return a.UserID == userID && a.PasswordHash != nil && *a.PasswordHash == "precomputed"
	})).Return(nil)

	account, err := creds.InsertCredentialsAccount(ctx, userID, "precomputed")
	require.NoError(t, err)
	assert.Equal(t, "precomputed", *account.PasswordHash)
	hasher.AssertNotCalled(t, "Hash", mock.Anything)
}

func TestCredentials_SetPasswordHash(t *testing.T) {
	ctx := context.Background()
	accounts := mocks.NewMockAccountRepository(t)
	creds, err := auth.NewCredentials(accounts, auth.NewArgon2idHasher())
	require.NoError(t, err)

	account := &auth.Account{ID: ulid.Make(), UserID: ulid.Make(), Type: auth.AccountTypeCredentials}
	accounts.On("UpdatePassword", ctx, account.ID, "new-hash", mock.AnythingOfType("time.Time")).Return(nil).Once()
	accounts.On("UpdatePassword", ctx, account.ID, "other", mock.Anything).Return(auth.ErrNotFound).Once()

	before := time.Now().UTC()
	require.NoError(t, creds.SetPasswordHash(ctx, account, "new-hash"))
	assert.Equal(t, "new-hash", *account.PasswordHash)
	assert.False(t, account.UpdatedAt.Before(before))

	assert.ErrorIs(t, creds.SetPasswordHash(ctx, account, "other"), auth.ErrNotFound)
	assert.Equal(t, "new-hash", *account.PasswordHash)
}

func TestCredentials_VerifyDummy(t *testing.T) {
	hasher := mocks.NewMockPasswordHasher(t)
	creds, err := auth.NewCredentials(mocks.NewMockAccountRepository(t), hasher)
	require.NoError(t, err)

	hasher.On("Verify", "password123", mock.MatchedBy(func(h string) bool {
		return len(h) > 0 && h[:9] == "$argon2id"
	})).Return(false, nil).Once()

	creds.VerifyDummy("password123")
}
