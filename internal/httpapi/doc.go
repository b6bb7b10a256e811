// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

// Package httpapi exposes the auth service over HTTP with gin.
//
// Every response uses the envelope
//
//	{"status": 200, "message": "...", "code": "...", "data": {...}}
//
// where code carries the service error code on failures. The session token
// travels in an HttpOnly cookie.
package httpapi
