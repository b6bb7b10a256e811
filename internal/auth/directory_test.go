// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package auth_test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/scylla/scylla/internal/auth"
	"github.com/scylla/scylla/internal/auth/mocks"
	"github.com/scylla/scylla/pkg/errutil"
)

func TestDirectory(t *testing.T) {
	ctx := context.Background()

	t.Run("nil repository", func(t *testing.T) {
		_, err := auth.NewDirectory(nil)
		require.Error(t, err)
	})

	t.Run("create keeps email exactly", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		dir, err := auth.NewDirectory(users)
		require.NoError(t, err)
		users.On("Create", ctx, mock.AnythingOfType("*auth.User")).Return(nil)

		u, err := dir.Create(ctx, "Ada", "Ada@Example.com")
		require.NoError(t, err)
		assert.Equal(t, "Ada@Example.com", u.Email)
		assert.False(t, u.Verified)
		assert.False(t, u.IsDeleted())
	})

	t.Run("create rejects blank name", func(t *testing.T) {
		dir, err := auth.NewDirectory(mocks.NewMockUserRepository(t))
		require.NoError(t, err)

		_, err = dir.Create(ctx, "  ", "ada@example.com")
		errutil.AssertErrorCode(t, err, auth.CodeValidationFailed)
	})

	t.Run("duplicate stays matchable", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		dir, err := auth.NewDirectory(users)
		require.NoError(t, err)
		users.On("Create", ctx, mock.Anything).Return(auth.ErrDuplicateEmail)

		_, err = dir.Create(ctx, "Ada", "ada@example.com")
		assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
	})

	t.Run("lookups and verification delegate", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		dir, err := auth.NewDirectory(users)
		require.NoError(t, err)
		id := ulid.Make()

		users.On("GetByID", ctx, id).Return(nil, auth.ErrNotFound)
		users.On("GetByEmail", ctx, "ada@example.com").Return(&auth.User{ID: id}, nil)
		users.On("MarkVerified", ctx, id, mock.AnythingOfType("time.Time")).Return(nil)

		_, err = dir.FindByID(ctx, id)
		assert.ErrorIs(t, err, auth.ErrNotFound)

		u, err := dir.FindByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)

		require.NoError(t, dir.MarkVerified(ctx, id))
	})
}
