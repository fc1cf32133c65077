// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framecore

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the frame loop must react to it.
type Kind int

const (
	// KindFatal marks initialization failures: no capable adapter, device or
	// swap chain creation failed. They are reported and never retried.
	KindFatal Kind = iota + 1

	// KindDeviceLost marks a GPU or driver that became unavailable mid-loop,
	// surfaced by submission or presentation.
	KindDeviceLost

	// KindSync marks fence wait failures, including timeouts. The frame loop
	// halts instead of reusing resources without synchronization.
	KindSync

	// KindUsage marks programmer errors such as recording into a closed
	// command list or resetting an allocator whose work has not retired.
	KindUsage
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindDeviceLost:
		return "device lost"
	case KindSync:
		return "sync"
	case KindUsage:
		return "usage"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinel errors. Backends wrap these so that callers can match them with
// errors.Is regardless of the backend in use.
var (
	// ErrNoAdapter is returned when adapter enumeration yields no
	// hardware-capable adapter.
	ErrNoAdapter = errors.New("framecore: no capable adapter found")

	// ErrDeviceLost is returned when the device was removed or reset.
	ErrDeviceLost = errors.New("framecore: device lost")

	// ErrSurfaceLost is returned when the presentation surface can no longer
	// be presented to.
	ErrSurfaceLost = errors.New("framecore: surface lost")

	// ErrTimeout is returned when a fence wait exceeds the configured timeout.
	ErrTimeout = errors.New("framecore: fence wait timed out")

	// ErrListClosed is returned when commands are recorded into a closed
	// command list.
	ErrListClosed = errors.New("framecore: command list is closed")

	// ErrListOpen is returned when an open command list is reset or
	// submitted.
	ErrListOpen = errors.New("framecore: command list is open")

	// ErrAllocatorBusy is returned when a command allocator is reset while
	// GPU work recorded from it has not retired.
	ErrAllocatorBusy = errors.New("framecore: command allocator in use by the GPU")

	// ErrNonMonotonic is returned when a fence is signaled with a value that
	// does not exceed the last signaled value.
	ErrNonMonotonic = errors.New("framecore: fence value must increase")

	// ErrInvalidConfig is returned for out-of-range configuration values.
	ErrInvalidConfig = errors.New("framecore: invalid configuration")
)

// Error is the error type returned by framecore operations.
// Op names the failed operation, e.g. "surface.present".
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error. A nil err yields nil, so E can wrap results directly:
//
//	return framecore.E("queue.signal", framecore.KindDeviceLost, q.Signal(f, v))
func E(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or 0 if
// there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsFatal reports whether err requires the process to stop rendering:
// initialization failures and device loss.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindFatal, KindDeviceLost:
		return true
	}
	return errors.Is(err, ErrDeviceLost) || errors.Is(err, ErrNoAdapter)
}

// Classify wraps a driver error for op. Device and surface loss become
// KindDeviceLost regardless of the fallback kind; errors that already carry
// a Kind are returned unchanged.
func Classify(op string, fallback Kind, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, ErrDeviceLost) || errors.Is(err, ErrSurfaceLost) {
		return &Error{Op: op, Kind: KindDeviceLost, Err: err}
	}
	return &Error{Op: op, Kind: fallback, Err: err}
}
