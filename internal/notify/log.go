// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package notify

import (
	"context"
	"log/slog"
)

// LogDispatcher records that a message would have been sent, without its
// body. Bodies carry single-use tokens and must not reach the logs.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a LogDispatcher. A nil logger uses slog.Default().
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

// Send logs the envelope of msg.
func (l *LogDispatcher) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "notification suppressed",
		"transport", "log",
		"subject", msg.Subject,
		"body_bytes", len(msg.Body),
	)
	return nil
}

// Compile-time interface check.
var _ Dispatcher = (*LogDispatcher)(nil)
