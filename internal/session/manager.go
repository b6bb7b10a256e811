// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Policy controls session lifetime and re-login behaviour.
type Policy struct {
	// TTL is how long a session lives after login.
	TTL time.Duration

	// AllowRelogin replaces a live session on login instead of rejecting it.
	AllowRelogin bool
}

// Manager binds user identities to carriers.
type Manager struct {
	store  Store
	policy Policy
	logger *slog.Logger
}

// NewManager creates a Manager. A zero TTL falls back to DefaultTTL.
func NewManager(store Store, policy Policy) (*Manager, error) {
	return NewManagerWithLogger(store, policy, slog.Default())
}

// NewManagerWithLogger creates a Manager with a custom logger.
func NewManagerWithLogger(store Store, policy Policy, logger *slog.Logger) (*Manager, error) {
	if store == nil {
		return nil, oops.Errorf("session store is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if policy.TTL <= 0 {
		policy.TTL = DefaultTTL
	}
	return &Manager{store: store, policy: policy, logger: logger}, nil
}

// Login binds userID to a new session on the carrier.
// Fails with SESSION_ALREADY_AUTHENTICATED if the carrier holds a live
// session and the policy does not allow re-login.
func (m *Manager) Login(ctx context.Context, c Carrier, userID ulid.ULID) error {
	if userID.Compare(ulid.ULID{}) == 0 {
		return oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}

	if existing := c.SessionToken(); existing != "" {
		existingHash := HashToken(existing)
		_, err := m.store.Lookup(ctx, existingHash)
		switch {
		case err == nil:
			if !m.policy.AllowRelogin {
				return oops.Code(CodeAlreadyAuthenticated).Errorf("a session is already active")
			}
			if err := m.store.Delete(ctx, existingHash); err != nil {
				return oops.With("operation", "revoke previous session").Wrap(err)
			}
		case errors.Is(err, ErrNotFound):
			// stale cookie
		default:
			return oops.With("operation", "lookup existing session").Wrap(err)
		}
	}

	token, hash, err := GenerateToken()
	if err != nil {
		return err
	}
	if err := m.store.Save(ctx, hash, userID, m.policy.TTL); err != nil {
		return oops.With("operation", "save session").With("user_id", userID.String()).Wrap(err)
	}

	c.SetSessionToken(token, m.policy.TTL)
	m.logger.DebugContext(ctx, "session bound", "user_id", userID.String())
	return nil
}

// Logout unbinds whatever session the carrier holds. It is idempotent: a
// carrier without a session is simply cleared.
func (m *Manager) Logout(ctx context.Context, c Carrier) error {
	token := c.SessionToken()
	if token != "" {
		if err := m.store.Delete(ctx, HashToken(token)); err != nil {
			return oops.With("operation", "delete session").Wrap(err)
		}
	}
	c.ClearSessionToken()
	return nil
}

// CurrentIdentity returns the user bound to the carrier's session, if any.
// It never modifies the carrier or the store.
func (m *Manager) CurrentIdentity(ctx context.Context, c Carrier) (ulid.ULID, bool, error) {
	token := c.SessionToken()
	if token == "" {
		return ulid.ULID{}, false, nil
	}

	userID, err := m.store.Lookup(ctx, HashToken(token))
	if errors.Is(err, ErrNotFound) {
		return ulid.ULID{}, false, nil
	}
	if err != nil {
		return ulid.ULID{}, false, oops.With("operation", "lookup session").Wrap(err)
	}
	return userID, true, nil
}
