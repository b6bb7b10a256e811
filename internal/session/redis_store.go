// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// DefaultKeyPrefix namespaces session keys in Redis.
const DefaultKeyPrefix = "scylla:session:"

// RedisStore implements Store on Redis with native key expiry.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a RedisStore. An empty prefix uses DefaultKeyPrefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Save binds tokenHash to userID for ttl.
func (s *RedisStore) Save(ctx context.Context, tokenHash string, userID ulid.ULID, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(tokenHash), userID.String(), ttl).Err(); err != nil {
		return oops.Code("SESSION_SAVE_FAILED").Wrap(unavailable(err))
	}
	return nil
}

// Lookup returns the user bound to tokenHash.
func (s *RedisStore) Lookup(ctx context.Context, tokenHash string) (ulid.ULID, error) {
	val, err := s.client.Get(ctx, s.key(tokenHash)).Result()
	if errors.Is(err, redis.Nil) {
		return ulid.ULID{}, ErrNotFound
	}
	if err != nil {
		return ulid.ULID{}, oops.Code("SESSION_LOOKUP_FAILED").Wrap(unavailable(err))
	}

	userID, err := ulid.Parse(val)
	if err != nil {
		return ulid.ULID{}, oops.Code("SESSION_CORRUPT").
			With("operation", "parse user id").
			Wrap(err)
	}
	return userID, nil
}

// Delete removes tokenHash.
func (s *RedisStore) Delete(ctx context.Context, tokenHash string) error {
	if err := s.client.Del(ctx, s.key(tokenHash)).Err(); err != nil {
		return oops.Code("SESSION_DELETE_FAILED").Wrap(unavailable(err))
	}
	return nil
}

// Ping checks that Redis answers.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return oops.Code("SESSION_STORE_PING_FAILED").Wrap(unavailable(err))
	}
	return nil
}

func (s *RedisStore) key(tokenHash string) string {
	return s.prefix + tokenHash
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// Compile-time interface check.
var _ Store = (*RedisStore)(nil)
