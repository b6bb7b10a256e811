// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

// Package session binds authenticated user identities to transport sessions.
//
// The per-request Carrier is passed explicitly to the Manager; there is no
// ambient "current user". Server-side state lives in a Store keyed by the
// SHA-256 of the session token, so a leaked store never yields usable tokens.
package session
