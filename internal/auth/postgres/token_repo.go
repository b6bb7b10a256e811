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

// Per-kind statements. Table names cannot be bound as parameters.
type tokenQueries struct {
	insert  string
	consume string
	get     string
}

func newTokenQueries(table string) tokenQueries {
	return tokenQueries{
		insert: `INSERT INTO ` + table + ` (id, user_id, token, created_at, expires_at)
			VALUES ($1, $2, $3, $4, $5)`,
		consume: `UPDATE ` + table + ` SET used_at = $2
			WHERE token = $1 AND used_at IS NULL AND expires_at > $2 AND deleted_at IS NULL
			RETURNING user_id`,
		get: `SELECT id, user_id, token, created_at, expires_at, used_at FROM ` + table + `
			WHERE token = $1 AND deleted_at IS NULL`,
	}
}

var tokenTables = map[auth.TokenKind]tokenQueries{
	auth.TokenKindVerification:  newTokenQueries("verification_tokens"),
	auth.TokenKindPasswordReset: newTokenQueries("reset_password_tokens"),
}

// TokenRepository implements auth.TokenRepository over the
// verification_tokens and reset_password_tokens tables.
type TokenRepository struct {
	db DB
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db DB) (*TokenRepository, error) {
	if db == nil {
		return nil, errNilDB
	}
	return &TokenRepository{db: db}, nil
}

func queriesFor(kind auth.TokenKind) (tokenQueries, error) {
	q, ok := tokenTables[kind]
	if !ok {
		return tokenQueries{}, oops.Code("TOKEN_INVALID_KIND").With("kind", string(kind)).Errorf("unknown token kind")
	}
	return q, nil
}

// Create stores a new token.
func (r *TokenRepository) Create(ctx context.Context, token *auth.Token) error {
	q, err := queriesFor(token.Kind)
	if err != nil {
		return err
	}
	_, err = conn(ctx, r.db).Exec(ctx, q.insert,
		token.ID.String(),
		token.UserID.String(),
		token.TokenHash,
		token.CreatedAt,
		token.ExpiresAt,
	)
	if err != nil {
		return classify("insert token", err)
	}
	return nil
}

// Consume sets used_at on the live, unexpired token in one conditional
// update and returns its owner. Returns auth.ErrNotFound when no row matched.
func (r *TokenRepository) Consume(ctx context.Context, kind auth.TokenKind, tokenHash string, now time.Time) (ulid.ULID, error) {
	q, err := queriesFor(kind)
	if err != nil {
		return ulid.ULID{}, err
	}

	var userStr string
	err = conn(ctx, r.db).QueryRow(ctx, q.consume, tokenHash, now).Scan(&userStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return ulid.ULID{}, oops.With("kind", string(kind)).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return ulid.ULID{}, classify("consume token", err)
	}

	userID, err := ulid.Parse(userStr)
	if err != nil {
		return ulid.ULID{}, oops.With("operation", "parse token user id").With("user_id", userStr).Wrap(err)
	}
	return userID, nil
}

// GetByHash retrieves a token by hash, whatever its state.
func (r *TokenRepository) GetByHash(ctx context.Context, kind auth.TokenKind, tokenHash string) (*auth.Token, error) {
	q, err := queriesFor(kind)
	if err != nil {
		return nil, err
	}

	var (
		token         auth.Token
		idStr, uidStr string
	)
	err = conn(ctx, r.db).QueryRow(ctx, q.get, tokenHash).Scan(
		&idStr,
		&uidStr,
		&token.TokenHash,
		&token.CreatedAt,
		&token.ExpiresAt,
		&token.UsedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("kind", string(kind)).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, classify("get token", err)
	}

	if token.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.With("operation", "parse token id").With("id", idStr).Wrap(err)
	}
	if token.UserID, err = ulid.Parse(uidStr); err != nil {
		return nil, oops.With("operation", "parse token user id").With("user_id", uidStr).Wrap(err)
	}
	token.Kind = kind
	return &token, nil
}

var _ auth.TokenRepository = (*TokenRepository)(nil)
