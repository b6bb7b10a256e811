// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package auth

import "time"

// Outcome recorded for operations that returned no error.
const OutcomeOK = "ok"

// Token events recorded by the service.
const (
	TokenEventIssued   = "issued"
	TokenEventConsumed = "consumed"
	TokenEventRejected = "rejected"
	// TokenEventDropped marks a reset request shed before any token was issued.
	TokenEventDropped = "dropped"
)

// Metrics receives counters from the Auth Service.
type Metrics interface {
	// RecordOperation is called once per operation with OutcomeOK or the error code.
	RecordOperation(op, outcome string, elapsed time.Duration)

	// RecordToken is called on each TokenEvent.
	RecordToken(kind TokenKind, event string)
}

type noopMetrics struct{}

func (noopMetrics) RecordOperation(string, string, time.Duration) {}
func (noopMetrics) RecordToken(TokenKind, string)                 {}
