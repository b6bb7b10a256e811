// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

// Package auth implements the credential and token lifecycle of Scylla.
//
// # Components
//
//   - Directory - user records (create, lookup, mark verified)
//   - Credentials - credentials accounts and password hashing
//   - TokenLedger - single-use verification and password reset tokens
//   - Service - register, login/logout, email verification, password reset
//
// Domain types (User, Account, Token) should be created with their
// constructors; direct struct initialization bypasses validation.
//
// # Errors
//
// Every error returned by Service carries an oops code (see errors.go).
// Storage and internal failures are logged with their cause and returned as
// fresh STORAGE_UNAVAILABLE or INTERNAL_ERROR errors that do not wrap it.
//
// Repositories live in the postgres subpackage and report ErrNotFound,
// ErrDuplicateEmail and ErrStorageUnavailable, matched with errors.Is.
package auth
