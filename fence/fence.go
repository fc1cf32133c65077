// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package fence implements the GPU timeline fence used to keep the CPU from
// reusing resources the GPU may still be reading.
//
// A Timeline pairs a device fence with an OS event. The CPU-side target value
// starts at 0, the fence's initial value, and every Signal increments it, so
// the first signaled value is 1 and the first wait can never be satisfied
// vacuously.
package fence

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/driver"
)

// Stats counts timeline activity.
type Stats struct {
	// Signals is the number of values signaled on a queue.
	Signals uint64

	// Waits is the number of WaitUntil calls.
	Waits uint64

	// OSWaits is the number of times WaitUntil blocked on the OS event.
	// Waits that found the GPU already caught up do not count.
	OSWaits uint64
}

// Timeline is a monotonically increasing GPU fence plus the event used to
// block on it. A Timeline is owned by a single goroutine.
type Timeline struct {
	fence   driver.Fence
	event   *Event
	target  uint64
	timeout time.Duration
	stats   Stats
}

// Option configures a Timeline.
type Option func(*Timeline)

// WithTimeout bounds every wait. Zero, the default, waits forever.
func WithTimeout(d time.Duration) Option {
	return func(t *Timeline) {
		t.timeout = d
	}
}

// New creates a timeline on dev. The device fence starts at 0.
func New(dev driver.Device, opts ...Option) (*Timeline, error) {
	f, err := dev.CreateFence(0)
	if err != nil {
		return nil, framecore.E("fence.create", framecore.KindFatal, err)
	}
	ev, err := NewEvent()
	if err != nil {
		return nil, framecore.E("fence.create", framecore.KindFatal, fmt.Errorf("create event: %w", err))
	}
	t := &Timeline{fence: f, event: ev}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Signal increments the target value and enqueues its GPU-side write on q,
// ordered after all work previously submitted to q. It returns the new
// target value.
func (t *Timeline) Signal(q driver.Queue) (uint64, error) {
	v := t.target + 1
	if err := t.SignalValue(q, v); err != nil {
		return 0, err
	}
	return v, nil
}

// SignalValue enqueues a GPU-side write of value on q. value must exceed
// the last signaled value.
func (t *Timeline) SignalValue(q driver.Queue, value uint64) error {
	if value <= t.target {
		return framecore.E("fence.signal", framecore.KindUsage,
			fmt.Errorf("%w: %d after %d", framecore.ErrNonMonotonic, value, t.target))
	}
	if err := q.Signal(t.fence, value); err != nil {
		return framecore.Classify("fence.signal", framecore.KindDeviceLost, err)
	}
	t.target = value
	t.stats.Signals++
	return nil
}

// WaitUntil blocks until the fence's completed value reaches value.
//
// If the GPU is already caught up, WaitUntil returns without touching the OS
// event. Otherwise it registers the event for value and blocks on it. A
// configured timeout yields framecore.ErrTimeout and a cancelled ctx yields
// ctx.Err(), both as KindSync errors.
func (t *Timeline) WaitUntil(ctx context.Context, value uint64) error {
	t.stats.Waits++
	if t.fence.CompletedValue() >= value {
		return nil
	}

	var deadline time.Time
	if t.timeout > 0 {
		deadline = time.Now().Add(t.timeout)
	}
	for {
		if err := t.fence.SetEventOnCompletion(value, t.event); err != nil {
			return framecore.Classify("fence.wait", framecore.KindSync, err)
		}

		var remaining time.Duration
		if !deadline.IsZero() {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				return t.timeoutError(value)
			}
		}

		t.stats.OSWaits++
		framecore.Logger().Debug("fence: blocking", "value", value, "completed", t.fence.CompletedValue())
		if err := t.event.Wait(ctx, remaining); err != nil {
			if err == framecore.ErrTimeout { //nolint:errorlint // sentinel returned unwrapped by Event.Wait
				return t.timeoutError(value)
			}
			return framecore.E("fence.wait", framecore.KindSync, err)
		}

		// The event auto-resets and may carry a wake-up from an earlier
		// registration, so the completed value decides.
		if t.fence.CompletedValue() >= value {
			return nil
		}
	}
}

func (t *Timeline) timeoutError(value uint64) error {
	return framecore.E("fence.wait", framecore.KindSync,
		fmt.Errorf("%w: value %d after %v (completed %d)", framecore.ErrTimeout, value, t.timeout, t.fence.CompletedValue()))
}

// Wait blocks until the last signaled value has completed.
func (t *Timeline) Wait(ctx context.Context) error {
	return t.WaitUntil(ctx, t.target)
}

// Target returns the last value signaled by the CPU.
func (t *Timeline) Target() uint64 { return t.target }

// Completed returns the last value the GPU is known to have written.
func (t *Timeline) Completed() uint64 { return t.fence.CompletedValue() }

// Fence returns the underlying device fence.
func (t *Timeline) Fence() driver.Fence { return t.fence }

// Stats returns the activity counters.
func (t *Timeline) Stats() Stats { return t.stats }

// Close releases the OS event. The timeline must not be used afterwards.
func (t *Timeline) Close() error {
	return t.event.Close()
}
