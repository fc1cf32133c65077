// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package window defines the gate the frame loop polls between frames, and a
// headless implementation of it.
package window

import "sync/atomic"

// Gate is the window collaborator of the frame loop. The loop calls
// PollEvents once per iteration and stops when ShouldClose reports true.
type Gate interface {
	ShouldClose() bool
	PollEvents()
}

// Headless is a Gate without a window. It closes after a frame budget, or
// when Close is called from any goroutine.
type Headless struct {
	budget uint64
	polls  atomic.Uint64
	closed atomic.Bool
}

// NewHeadless returns a gate that closes after frames polls. Zero means no
// budget: the gate stays open until Close.
func NewHeadless(frames uint64) *Headless {
	return &Headless{budget: frames}
}

// ShouldClose reports whether Close was called or the budget is spent.
func (h *Headless) ShouldClose() bool {
	if h.closed.Load() {
		return true
	}
	return h.budget > 0 && h.polls.Load() >= h.budget
}

// PollEvents counts one frame against the budget.
func (h *Headless) PollEvents() { h.polls.Add(1) }

// Close requests the loop to stop.
func (h *Headless) Close() { h.closed.Store(true) }

// Polls returns the number of PollEvents calls.
func (h *Headless) Polls() uint64 { return h.polls.Load() }
