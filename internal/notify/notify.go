// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

// Package notify delivers outbound messages (verification and reset emails).
//
// Every transport implements Dispatcher. The transport is picked once, from
// configuration, when the dispatcher is built; callers only ever Send.
package notify

import (
	"context"
	"strings"

	"github.com/samber/oops"
)

// Message is a plain-text notification.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Validate checks that the message can be addressed.
func (m Message) Validate() error {
	if strings.TrimSpace(m.From) == "" {
		return oops.Code("NOTIFY_INVALID_MESSAGE").Errorf("from address is required")
	}
	if strings.TrimSpace(m.To) == "" {
		return oops.Code("NOTIFY_INVALID_MESSAGE").Errorf("to address is required")
	}
	return nil
}

// Dispatcher sends a message synchronously and reports transport failures.
// Implementations do not retry.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}
