// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !windows

package fence

import (
	"context"
	"time"

	"github.com/gogpu/framecore"
)

// Event is an auto-reset event: Set wakes at most one Wait, and a Set with
// no waiter is remembered until the next Wait.
type Event struct {
	ch chan struct{}
}

// NewEvent creates an unset event.
func NewEvent() (*Event, error) {
	return &Event{ch: make(chan struct{}, 1)}, nil
}

// Set signals the event. It never blocks and is safe to call from any
// goroutine.
func (e *Event) Set() error {
	select {
	case e.ch <- struct{}{}:
	default:
	}
	return nil
}

// Wait blocks until the event is set, timeout elapses (framecore.ErrTimeout),
// or ctx is done (ctx.Err()). A zero timeout waits forever.
func (e *Event) Wait(ctx context.Context, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case <-e.ch:
		return nil
	case <-expired:
		return framecore.ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the event.
func (e *Event) Close() error { return nil }
