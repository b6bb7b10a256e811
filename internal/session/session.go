// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Error codes.
const (
	CodeNotAuthenticated     = "SESSION_NOT_AUTHENTICATED"
	CodeAlreadyAuthenticated = "SESSION_ALREADY_AUTHENTICATED"
)

// Session token configuration.
const (
	TokenBytes = 32             // 32 bytes = 64 hex chars
	DefaultTTL = 24 * time.Hour // 24 hour expiry
)

// ErrNotFound is returned by a Store when no live session matches.
var ErrNotFound = errors.New("session not found")

// ErrStoreUnavailable marks Store failures caused by the backend being unreachable.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Carrier is the per-request transport of a session token, typically a cookie.
type Carrier interface {
	// SessionToken returns the presented token, or "" if none.
	SessionToken() string

	// SetSessionToken hands a new token back to the client.
	SetSessionToken(token string, ttl time.Duration)

	// ClearSessionToken tells the client to forget its token.
	ClearSessionToken()
}

// Store keeps server-side session state.
type Store interface {
	// Save binds tokenHash to userID for ttl.
	Save(ctx context.Context, tokenHash string, userID ulid.ULID, ttl time.Duration) error

	// Lookup returns the user bound to tokenHash, or ErrNotFound.
	Lookup(ctx context.Context, tokenHash string) (ulid.ULID, error)

	// Delete removes tokenHash. Deleting a missing session is not an error.
	Delete(ctx context.Context, tokenHash string) error
}

// GenerateToken creates a secure random session token and its hash.
func GenerateToken() (token, hash string, err error) {
	tokenBytes := make([]byte, TokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").Wrap(err)
	}
	token = hex.EncodeToString(tokenBytes)
	return token, HashToken(token), nil
}

// HashToken computes the SHA256 hash of a session token.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
