// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package notify

import (
	"context"
	"time"
)

// Observer is told about every dispatch attempt.
type Observer interface {
	ObserveDispatch(transport string, err error, elapsed time.Duration)
}

type instrumented struct {
	next      Dispatcher
	transport string
	observer  Observer
}

// Instrument wraps d so each Send is reported to obs.
func Instrument(d Dispatcher, transport string, obs Observer) Dispatcher {
	if obs == nil {
		return d
	}
	return &instrumented{next: d, transport: transport, observer: obs}
}

func (i *instrumented) Send(ctx context.Context, msg Message) error {
	start := time.Now()
	err := i.next.Send(ctx, msg)
	i.observer.ObserveDispatch(i.transport, err, time.Since(start))
	return err //nolint:wrapcheck // transparent decorator
}
