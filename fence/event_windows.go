// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build windows

package fence

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sys/windows"

	"github.com/gogpu/framecore"
)

// pollInterval bounds a single WaitForSingleObject call while a context or
// timeout must be observed.
const pollInterval = 50 * time.Millisecond

// Event is an auto-reset Win32 event, the primitive D3D12-style fences
// signal through SetEventOnCompletion.
type Event struct {
	h windows.Handle
}

// NewEvent creates an unset auto-reset event.
func NewEvent() (*Event, error) {
	h, err := windows.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateEvent: %w", err)
	}
	return &Event{h: h}, nil
}

// Set signals the event.
func (e *Event) Set() error {
	return windows.SetEvent(e.h)
}

// Handle returns the Win32 handle, for backends that let the driver set the
// event directly.
func (e *Event) Handle() windows.Handle { return e.h }

// Wait blocks until the event is set, timeout elapses (framecore.ErrTimeout),
// or ctx is done (ctx.Err()). A zero timeout waits forever.
func (e *Event) Wait(ctx context.Context, timeout time.Duration) error {
	if ctx.Done() == nil && timeout <= 0 {
		return e.wait(windows.INFINITE)
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		slice := pollInterval
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return framecore.ErrTimeout
			}
			slice = min(slice, remaining)
		}
		err := e.wait(uint32(slice / time.Millisecond)) //nolint:gosec // slice <= pollInterval
		if err != errSliceExpired { //nolint:errorlint // package-local sentinel
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// errSliceExpired reports a WaitForSingleObject timeout inside Wait's loop.
var errSliceExpired = fmt.Errorf("fence: wait slice expired")

func (e *Event) wait(ms uint32) error {
	ev, err := windows.WaitForSingleObject(e.h, ms)
	if err != nil {
		return fmt.Errorf("WaitForSingleObject: %w", err)
	}
	switch ev {
	case windows.WAIT_OBJECT_0:
		return nil
	case uint32(windows.WAIT_TIMEOUT):
		return errSliceExpired
	default:
		return fmt.Errorf("WaitForSingleObject: unexpected result %#x", ev)
	}
}

// Close releases the handle.
func (e *Event) Close() error {
	return windows.CloseHandle(e.h)
}
