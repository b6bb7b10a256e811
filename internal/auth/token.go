// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// TokenBytes is the entropy of a single-use token: 32 bytes = 64 hex chars.
const TokenBytes = 32

// TokenKind selects which ledger a single-use token belongs to.
type TokenKind string

// Token kinds.
const (
	TokenKindVerification  TokenKind = "verification"
	TokenKindPasswordReset TokenKind = "password_reset"
)

// Valid reports whether k is a known kind.
func (k TokenKind) Valid() bool {
	return k == TokenKindVerification || k == TokenKindPasswordReset
}

// TokenState is the lifecycle state of a token at a point in time.
type TokenState string

// Token states. Expired is derived from ExpiresAt and never stored.
const (
	TokenStateIssued   TokenState = "issued"
	TokenStateConsumed TokenState = "consumed"
	TokenStateExpired  TokenState = "expired"
)

// Token is a single-use, time-bounded token. Only the SHA-256 of the
// plaintext is kept.
type Token struct {
	ID        ulid.ULID
	UserID    ulid.ULID
	Kind      TokenKind
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// StateAt returns the token state at now. A consumed token stays consumed
// after it expires.
func (t *Token) StateAt(now time.Time) TokenState {
	if t.UsedAt != nil {
		return TokenStateConsumed
	}
	if !now.Before(t.ExpiresAt) {
		return TokenStateExpired
	}
	return TokenStateIssued
}

// GenerateToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error).
// The plaintext goes into the outbound link; the hash is stored.
func GenerateToken() (token, hash string, err error) {
	tokenBytes := make([]byte, TokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("TOKEN_GENERATE_FAILED").Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, HashToken(token), nil
}

// HashToken computes the hex SHA-256 of a plaintext token.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// TokenRepository persists tokens of both kinds.
type TokenRepository interface {
	// Create stores a newly issued token.
	Create(ctx context.Context, token *Token) error

	// Consume marks the token used in a single conditional update that only
	// matches unused, unexpired rows, and returns the owning user ID.
	// Returns ErrNotFound when no row matched the predicate.
	Consume(ctx context.Context, kind TokenKind, tokenHash string, now time.Time) (ulid.ULID, error)

	// GetByHash retrieves a token by its hash regardless of state.
	// Returns ErrNotFound if absent.
	GetByHash(ctx context.Context, kind TokenKind, tokenHash string) (*Token, error)
}
