// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package auth

import (
	"errors"

	"github.com/scylla/scylla/pkg/errutil"
)

// Error codes surfaced to callers of the Auth Service.
const (
	CodeValidationFailed   = "AUTH_VALIDATION_FAILED"
	CodeEmailTaken         = "AUTH_EMAIL_TAKEN"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodePasswordMismatch   = "AUTH_PASSWORD_MISMATCH"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeTokenNotFound      = "TOKEN_NOT_FOUND"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenAlreadyUsed   = "TOKEN_ALREADY_USED"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeDispatchFailed     = "NOTIFY_DISPATCH_FAILED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Credential store codes.
const (
	CodeEmptyPassword = "AUTH_EMPTY_PASSWORD"
	CodeHashFailed    = "AUTH_HASH_FAILED"
	CodeInvalidHash   = "AUTH_INVALID_HASH"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned by UserRepository.Create when a live user
// already holds the email.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrStorageUnavailable marks failures caused by the store being unreachable,
// exhausted or too slow, as opposed to bad queries or corrupt rows.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrorCode returns the code carried by err, or "" for uncoded errors.
func ErrorCode(err error) string {
	return errutil.Code(err)
}
