// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// TokenLedger issues and consumes single-use tokens.
//
// A token moves from issued to consumed exactly once. Consumption is a single
// conditional update in the repository, so concurrent attempts on the same
// token cannot both succeed.
type TokenLedger struct {
	tokens TokenRepository
	now    func() time.Time
}

// LedgerOption configures a TokenLedger.
type LedgerOption func(*TokenLedger)

// WithClock overrides the ledger's time source.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *TokenLedger) {
		l.now = now
	}
}

// NewTokenLedger creates a TokenLedger.
func NewTokenLedger(tokens TokenRepository, opts ...LedgerOption) (*TokenLedger, error) {
	if tokens == nil {
		return nil, oops.Errorf("token repository is required")
	}
	l := &TokenLedger{tokens: tokens, now: nowUTC}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Issue generates a token of kind for userID, valid for ttl. It returns the
// plaintext, which must only ever leave through the notification.
// A ttl of zero or less yields a token that is already expired.
func (l *TokenLedger) Issue(ctx context.Context, kind TokenKind, userID ulid.ULID, ttl time.Duration) (string, *Token, error) {
	if !kind.Valid() {
		return "", nil, oops.Code("TOKEN_INVALID_KIND").With("kind", string(kind)).Errorf("unknown token kind")
	}
	if userID.Compare(ulid.ULID{}) == 0 {
		return "", nil, oops.Code("TOKEN_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if ttl < 0 {
		ttl = 0
	}

	raw, hash, err := GenerateToken()
	if err != nil {
		return "", nil, err
	}

	now := l.now()
	token := &Token{
		ID:        ulid.Make(),
		UserID:    userID,
		Kind:      kind,
		TokenHash: hash,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := l.tokens.Create(ctx, token); err != nil {
		return "", nil, oops.With("operation", "issue token").
			With("kind", string(kind)).
			With("user_id", userID.String()).
			Wrap(err)
	}
	return raw, token, nil
}

// Consume marks the token used and returns its owner. When nothing matched it
// reports TOKEN_NOT_FOUND, TOKEN_ALREADY_USED or TOKEN_EXPIRED, in that
// order of precedence.
func (l *TokenLedger) Consume(ctx context.Context, kind TokenKind, raw string) (ulid.ULID, error) {
	if raw == "" {
		return ulid.ULID{}, oops.Code(CodeTokenNotFound).With("kind", string(kind)).Errorf("token not found")
	}

	hash := HashToken(raw)
	now := l.now()

	userID, err := l.tokens.Consume(ctx, kind, hash, now)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return ulid.ULID{}, oops.With("operation", "consume token").With("kind", string(kind)).Wrap(err)
	}

	// The update is already decided; this read only explains why it missed.
	token, err := l.tokens.GetByHash(ctx, kind, hash)
	if errors.Is(err, ErrNotFound) {
		return ulid.ULID{}, oops.Code(CodeTokenNotFound).With("kind", string(kind)).Errorf("token not found")
	}
	if err != nil {
		return ulid.ULID{}, oops.With("operation", "inspect token").With("kind", string(kind)).Wrap(err)
	}

	switch token.StateAt(now) {
	case TokenStateConsumed:
		return ulid.ULID{}, oops.Code(CodeTokenAlreadyUsed).
			With("kind", string(kind)).
			With("token_id", token.ID.String()).
			Errorf("token has already been used")
	case TokenStateExpired:
		return ulid.ULID{}, oops.Code(CodeTokenExpired).
			With("kind", string(kind)).
			With("token_id", token.ID.String()).
			Errorf("token has expired")
	default:
		// Live row that the conditional update did not match: the clock moved
		// between the two statements or the row changed underneath us.
		return ulid.ULID{}, oops.Code(CodeTokenAlreadyUsed).
			With("kind", string(kind)).
			With("token_id", token.ID.String()).
			Errorf("token could not be consumed")
	}
}

// Inspect returns the stored token for raw without changing it.
func (l *TokenLedger) Inspect(ctx context.Context, kind TokenKind, raw string) (*Token, error) {
	token, err := l.tokens.GetByHash(ctx, kind, HashToken(raw))
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code(CodeTokenNotFound).With("kind", string(kind)).Errorf("token not found")
	}
	if err != nil {
		return nil, oops.With("operation", "inspect token").With("kind", string(kind)).Wrap(err)
	}
	return token, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
