// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package recorder provides the per-frame command recorder: one reusable
// command allocator paired with one command list.
//
// The recorder enforces the list state machine itself:
//
//	Closed --BeginFrame--> Open --EndFrame--> Closed
//
// Recording while Closed, or beginning a frame while Open, fails with a
// KindUsage error instead of reaching the driver.
package recorder

import (
	"fmt"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/driver"
	"github.com/gogpu/gputypes"
)

// State is the command list state.
type State int

// Command list states.
const (
	Closed State = iota
	Open
)

// String returns "closed" or "open".
func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Recorder records the clear-and-present command sequence of one frame.
type Recorder struct {
	alloc driver.CommandAllocator
	list  driver.CommandList
	state State
	clear gputypes.Color
	label string

	frames uint64
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClearColor sets the color RecordFrame clears to.
func WithClearColor(c gputypes.Color) Option {
	return func(r *Recorder) {
		r.clear = c
	}
}

// WithLabel sets the label used in errors and logs.
func WithLabel(label string) Option {
	return func(r *Recorder) {
		r.label = label
	}
}

// New creates the allocator and the command list. The list starts Closed.
func New(dev driver.Device, opts ...Option) (*Recorder, error) {
	r := &Recorder{
		clear: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		label: "frame",
	}
	for _, opt := range opts {
		opt(r)
	}

	alloc, err := dev.CreateCommandAllocator()
	if err != nil {
		return nil, framecore.Classify("recorder.create", framecore.KindFatal, fmt.Errorf("%s: allocator: %w", r.label, err))
	}
	list, err := dev.CreateCommandList(alloc)
	if err != nil {
		return nil, framecore.Classify("recorder.create", framecore.KindFatal, fmt.Errorf("%s: list: %w", r.label, err))
	}
	r.alloc = alloc
	r.list = list
	return r, nil
}

// BeginFrame resets the allocator, then reopens the list into it.
//
// The caller guarantees the GPU retired the previous frame; a backend that
// detects otherwise reports framecore.ErrAllocatorBusy, returned here as a
// KindUsage error.
func (r *Recorder) BeginFrame() error {
	if r.state == Open {
		return r.usage("recorder.begin", framecore.ErrListOpen)
	}
	if err := r.alloc.Reset(); err != nil {
		return framecore.Classify("recorder.begin", framecore.KindUsage, fmt.Errorf("%s: allocator reset: %w", r.label, err))
	}
	if err := r.list.Reset(r.alloc); err != nil {
		return framecore.Classify("recorder.begin", framecore.KindUsage, fmt.Errorf("%s: list reset: %w", r.label, err))
	}
	r.state = Open
	return nil
}

// RecordFrame records, in order: img Present->RenderTarget, bind h, clear h
// to the clear color, img RenderTarget->Present.
func (r *Recorder) RecordFrame(img driver.Image, h driver.DescriptorHandle) error {
	if r.state != Open {
		return r.usage("recorder.record", framecore.ErrListClosed)
	}
	r.list.ResourceBarrier(driver.Transition(img, driver.StatePresent, driver.StateRenderTarget))
	r.list.SetRenderTarget(h)
	r.list.ClearRenderTarget(h, r.clear)
	r.list.ResourceBarrier(driver.Transition(img, driver.StateRenderTarget, driver.StatePresent))
	return nil
}

// EndFrame closes the list, making it submittable.
func (r *Recorder) EndFrame() error {
	if r.state != Open {
		return r.usage("recorder.end", framecore.ErrListClosed)
	}
	r.state = Closed
	if err := r.list.Close(); err != nil {
		return framecore.Classify("recorder.end", framecore.KindUsage, fmt.Errorf("%s: close: %w", r.label, err))
	}
	r.frames++
	return nil
}

func (r *Recorder) usage(op string, err error) error {
	return framecore.E(op, framecore.KindUsage, fmt.Errorf("%s: %w", r.label, err))
}

// List returns the command list to submit after EndFrame.
func (r *Recorder) List() driver.CommandList { return r.list }

// State returns the list state.
func (r *Recorder) State() State { return r.state }

// ClearColor returns the clear color.
func (r *Recorder) ClearColor() gputypes.Color { return r.clear }

// SetClearColor changes the clear color for subsequent frames.
func (r *Recorder) SetClearColor(c gputypes.Color) { r.clear = c }

// Frames returns the number of frames closed successfully.
func (r *Recorder) Frames() uint64 { return r.frames }
