// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package auth_test

import (
	"context"
	"errors"
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

func fixedClock(at time.Time) auth.LedgerOption {
	return auth.WithClock(func() time.Time { return at })
}

func TestNewTokenLedger_NilRepository(t *testing.T) {
	l, err := auth.NewTokenLedger(nil)
	require.Error(t, err)
	assert.Nil(t, l)
}

func TestTokenLedger_Issue(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("stores only the hash", func(t *testing.T) {
		repo := mocks.NewMockTokenRepository(t)
		l, err := auth.NewTokenLedger(repo, fixedClock(now))
		require.NoError(t, err)
		userID := ulid.Make()

		repo.On("Create", ctx, mock.AnythingOfType("*auth.Token")).Return(nil)

		raw, tok, err := l.Issue(ctx, auth.TokenKindVerification, userID, 30*time.Minute)
		require.NoError(t, err)
		assert.Len(t, raw, auth.TokenBytes*2)
		assert.Equal(t, auth.HashToken(raw), tok.TokenHash)
		assert.NotEqual(t, raw, tok.TokenHash)
		assert.Equal(t, userID, tok.UserID)
		assert.Equal(t, now, tok.CreatedAt)
		assert.Equal(t, now.Add(30*time.Minute), tok.ExpiresAt)
		assert.Nil(t, tok.UsedAt)
	})

	t.Run("zero ttl is expired immediately", func(t *testing.T) {
		repo := mocks.NewMockTokenRepository(t)
		l, err := auth.NewTokenLedger(repo, fixedClock(now))
		require.NoError(t, err)
		repo.On("Create", ctx, mock.Anything).Return(nil)

		_, tok, err := l.Issue(ctx, auth.TokenKindPasswordReset, ulid.Make(), 0)
		require.NoError(t, err)
		assert.Equal(t, auth.TokenStateExpired, tok.StateAt(now))
	})

	t.Run("negative ttl is clamped", func(t *testing.T) {
		repo := mocks.NewMockTokenRepository(t)
		l, err := auth.NewTokenLedger(repo, fixedClock(now))
		require.NoError(t, err)
		repo.On("Create", ctx, mock.Anything).Return(nil)

		_, tok, err := l.Issue(ctx, auth.TokenKindPasswordReset, ulid.Make(), -time.Hour)
		require.NoError(t, err)
		assert.Equal(t, tok.CreatedAt, tok.ExpiresAt)
	})

	t.Run("rejects bad kind and zero user", func(t *testing.T) {
		l, err := auth.NewTokenLedger(mocks.NewMockTokenRepository(t))
		require.NoError(t, err)

		_, _, err = l.Issue(ctx, auth.TokenKind("magic"), ulid.Make(), time.Minute)
		errutil.AssertErrorCode(t, err, "TOKEN_INVALID_KIND")

		_, _, err = l.Issue(ctx, auth.TokenKindVerification, ulid.ULID{}, time.Minute)
		errutil.AssertErrorCode(t, err, "TOKEN_INVALID_USER")
	})

	t.Run("repository error keeps sentinel", func(t *testing.T) {
		repo := mocks.NewMockTokenRepository(t)
		l, err := auth.NewTokenLedger(repo)
		require.NoError(t, err)
		repo.On("Create", ctx, mock.Anything).Return(auth.ErrStorageUnavailable)

		_, _, err = l.Issue(ctx, auth.TokenKindVerification, ulid.Make(), time.Minute)
		assert.ErrorIs(t, err, auth.ErrStorageUnavailable)
	})
}

func TestTokenLedger_Consume(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	raw := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	hash := auth.HashToken(raw)

	t.Run("returns the owner on success", func(t *testing.T) {
		repo := mocks.NewMockTokenRepository(t)
		l, err := auth.NewTokenLedger(repo, fixedClock(now))
		require.NoError(t, err)
		owner := ulid.Make()
		repo.On("Consume", ctx, auth.TokenKindVerification, hash, now).Return(owner, nil)

		got, err := l.Consume(ctx, auth.TokenKindVerification, raw)
		require.NoError(t, err)
		assert.Equal(t, owner, got)
	})

	used := now.Add(-time.Minute)
	tests := []struct {
		name  string
		token *auth.Token
		err   error
		want  string
	}{
		{"missing", nil, auth.ErrNotFound, auth.CodeTokenNotFound},
		{"used", &auth.Token{UsedAt: &used, ExpiresAt: now.Add(time.Hour)}, nil, auth.CodeTokenAlreadyUsed},
		{"used beats expired", &auth.Token{UsedAt: &used, ExpiresAt: now.Add(-time.Hour)}, nil, auth.CodeTokenAlreadyUsed},
		{"expired at the boundary", &auth.Token{ExpiresAt: now}, nil, auth.CodeTokenExpired},
		{"live but not matched", &auth.Token{ExpiresAt: now.Add(time.Hour)}, nil, auth.CodeTokenAlreadyUsed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockTokenRepository(t)
			l, err := auth.NewTokenLedger(repo, fixedClock(now))
			require.NoError(t, err)
			repo.On("Consume", ctx, auth.TokenKindPasswordReset, hash, now).Return(ulid.ULID{}, auth.ErrNotFound)
			repo.On("GetByHash", ctx, auth.TokenKindPasswordReset, hash).Return(tt.token, tt.err)

			_, err = l.Consume(ctx, auth.TokenKindPasswordReset, raw)
			errutil.AssertErrorCode(t, err, tt.want)
		})
	}

	t.Run("empty token never reaches storage", func(t *testing.T) {
		l, err := auth.NewTokenLedger(mocks.NewMockTokenRepository(t))
		require.NoError(t, err)
		_, err = l.Consume(ctx, auth.TokenKindVerification, "")
		errutil.AssertErrorCode(t, err, auth.CodeTokenNotFound)
	})

	t.Run("storage error is not classified", func(t *testing.T) {
		repo := mocks.NewMockTokenRepository(t)
		l, err := auth.NewTokenLedger(repo, fixedClock(now))
		require.NoError(t, err)
		cause := errors.New("deadlock detected")
		repo.On("Consume", ctx, auth.TokenKindVerification, hash, now).Return(ulid.ULID{}, cause)

		_, err = l.Consume(ctx, auth.TokenKindVerification, raw)
		assert.ErrorIs(t, err, cause)
		assert.Empty(t, auth.ErrorCode(err))
	})
}

func TestTokenLedger_Inspect(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockTokenRepository(t)
	l, err := auth.NewTokenLedger(repo)
	require.NoError(t, err)

	tok := &auth.Token{ID: ulid.Make(), Kind: auth.TokenKindVerification}
	repo.On("GetByHash", ctx, auth.TokenKindVerification, auth.HashToken("present")).Return(tok, nil)
	repo.On("GetByHash", ctx, auth.TokenKindVerification, auth.HashToken("absent")).Return(nil, auth.ErrNotFound)

	got, err := l.Inspect(ctx, auth.TokenKindVerification, "present")
	require.NoError(t, err)
	assert.Equal(t, tok, got)

	_, err = l.Inspect(ctx, auth.TokenKindVerification, "absent")
	errutil.AssertErrorCode(t, err, auth.CodeTokenNotFound)
}

func TestToken_StateAt(t *testing.T) {
	now := time.Now()
	used := now.Add(-time.Second)

	assert.Equal(t, auth.TokenStateIssued, (&auth.Token{ExpiresAt: now.Add(time.Second)}).StateAt(now))
	assert.Equal(t, auth.TokenStateExpired, (&auth.Token{ExpiresAt: now}).StateAt(now))
	assert.Equal(t, auth.TokenStateConsumed, (&auth.Token{ExpiresAt: now.Add(-time.Hour), UsedAt: &used}).StateAt(now))
}

func TestGenerateToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		raw, hash, err := auth.GenerateToken()
		require.NoError(t, err)
		assert.Equal(t, auth.HashToken(raw), hash)
		assert.False(t, seen[raw])
		seen[raw] = true
	}
}

func TestTokenKind_Valid(t *testing.T) {
	assert.True(t, auth.TokenKindVerification.Valid())
	assert.True(t, auth.TokenKindPasswordReset.Valid())
	assert.False(t, auth.TokenKind("").Valid())
}
