// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package frame implements the steady-state frame loop: acquire the back
// buffer, record a clear into it, submit, present, and wait for the GPU.
//
// The loop waits for every frame before starting the next one, so the
// allocator and the list are never reset while the GPU still reads them.
// The fence value of each buffer slot is tracked anyway (see SlotFence), which
// is what a deeper pipeline would wait on instead.
package frame

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/bootstrap"
	"github.com/gogpu/framecore/driver"
	"github.com/gogpu/framecore/fence"
	"github.com/gogpu/framecore/recorder"
	"github.com/gogpu/framecore/rtv"
	"github.com/gogpu/framecore/surface"
	"github.com/gogpu/framecore/window"
)

// FrameInfo describes a completed frame.
type FrameInfo struct {
	// Frame is the 1-based frame number; it equals Fence.
	Frame uint64

	// Index is the back buffer the frame was rendered into.
	Index int

	// Fence is the timeline value signaled after the frame's present.
	Fence uint64

	// Record is the CPU time spent from BeginFrame to Present.
	Record time.Duration

	// Wait is the time spent blocked on the fence.
	Wait time.Duration
}

// Stats aggregates loop activity.
type Stats struct {
	Frames   uint64
	Presents uint64
	Fence    fence.Stats

	// WaitTime is the total time spent blocked on the fence.
	WaitTime time.Duration
}

// Loop owns the per-frame components built on a bootstrap context. The
// context itself stays owned by the caller.
type Loop struct {
	queue driver.Queue
	sync  uint32

	surface  *surface.Surface
	table    *rtv.Table
	recorder *recorder.Recorder
	timeline *fence.Timeline

	slots     []uint64
	frames    uint64
	maxFrames uint64
	hook      func(FrameInfo)
	waitTime  time.Duration
}

// Option configures a Loop.
type Option func(*Loop)

// WithMaxFrames stops Run after n frames. Zero, the default, runs until the
// gate closes.
func WithMaxFrames(n uint64) Option {
	return func(l *Loop) {
		l.maxFrames = n
	}
}

// WithFrameHook calls fn after every completed frame, on the loop goroutine.
func WithFrameHook(fn func(FrameInfo)) Option {
	return func(l *Loop) {
		l.hook = fn
	}
}

// New builds the surface, the render target view table, the recorder and the
// timeline from c.
func New(c *bootstrap.Context, cfg framecore.Config, opts ...Option) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, framecore.E("frame.create", framecore.KindFatal, err)
	}
	s, err := surface.New(c.SwapChain, cfg.BufferCount)
	if err != nil {
		return nil, err
	}
	t, err := rtv.Build(c.Device, s)
	if err != nil {
		return nil, err
	}
	rec, err := recorder.New(c.Device, recorder.WithClearColor(cfg.ClearColor))
	if err != nil {
		return nil, err
	}
	tl, err := fence.New(c.Device, fence.WithTimeout(cfg.WaitTimeout))
	if err != nil {
		return nil, err
	}

	l := &Loop{
		queue:    c.Queue,
		sync:     cfg.SyncInterval,
		surface:  s,
		table:    t,
		recorder: rec,
		timeline: tl,
		slots:    make([]uint64, s.Len()),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Step renders one frame:
//
//	BeginFrame, CurrentIndex, RecordFrame, EndFrame,
//	ExecuteCommandLists, Present, Signal, WaitUntil
//
// in that order. It returns once the GPU has completed the frame.
func (l *Loop) Step(ctx context.Context) error {
	start := time.Now()

	if err := l.recorder.BeginFrame(); err != nil {
		return err
	}
	i := l.surface.CurrentIndex()
	if err := l.recorder.RecordFrame(l.surface.Image(i), l.table.HandleFor(i)); err != nil {
		return err
	}
	if err := l.recorder.EndFrame(); err != nil {
		return err
	}
	if err := l.queue.ExecuteCommandLists(l.recorder.List()); err != nil {
		return framecore.Classify("frame.submit", framecore.KindDeviceLost, err)
	}
	if err := l.surface.Present(l.sync); err != nil {
		return err
	}
	record := time.Since(start)

	v, err := l.timeline.Signal(l.queue)
	if err != nil {
		return err
	}
	l.slots[i] = v

	waitStart := time.Now()
	if err := l.timeline.WaitUntil(ctx, v); err != nil {
		return err
	}
	wait := time.Since(waitStart)
	l.waitTime += wait
	l.frames++

	framecore.Logger().Debug("frame: done", "frame", l.frames, "index", i, "fence", v, "record", record, "wait", wait)
	if l.hook != nil {
		l.hook(FrameInfo{Frame: l.frames, Index: i, Fence: v, Record: record, Wait: wait})
	}
	return nil
}

// Run steps frames until gate reports a close request, the frame budget is
// spent, or ctx is cancelled, polling gate events before every frame.
//
// Cancellation is a shutdown request and returns nil. Any Step error halts
// the loop and is returned; the GPU state is not touched afterwards.
func (l *Loop) Run(ctx context.Context, gate window.Gate) error {
	framecore.Logger().Info("frame: loop started", "buffers", l.surface.Len(), "sync", l.sync)
	for !gate.ShouldClose() {
		if ctx.Err() != nil {
			break
		}
		if l.maxFrames > 0 && l.frames >= l.maxFrames {
			break
		}
		gate.PollEvents()
		if err := l.Step(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				break
			}
			return fmt.Errorf("frame %d: %w", l.frames+1, err)
		}
	}
	framecore.Logger().Info("frame: loop stopped", "frames", l.frames)
	return nil
}

// Close releases the timeline's OS event. Call it after the last Step and
// after the device is destroyed, since a backend may still set the event
// until then.
func (l *Loop) Close() error {
	return l.timeline.Close()
}

// SlotFence returns the fence value that retires the last frame rendered into
// back buffer i, or 0 if none was.
func (l *Loop) SlotFence(i int) uint64 { return l.slots[i] }

// Frames returns the number of completed frames.
func (l *Loop) Frames() uint64 { return l.frames }

// Target returns the last signaled fence value.
func (l *Loop) Target() uint64 { return l.timeline.Target() }

// Completed returns the fence value the GPU has reached.
func (l *Loop) Completed() uint64 { return l.timeline.Completed() }

// Stats returns the loop counters.
func (l *Loop) Stats() Stats {
	return Stats{
		Frames:   l.frames,
		Presents: l.surface.Presents(),
		Fence:    l.timeline.Stats(),
		WaitTime: l.waitTime,
	}
}

// Surface returns the presentation surface.
func (l *Loop) Surface() *surface.Surface { return l.surface }

// Table returns the render target view table.
func (l *Loop) Table() *rtv.Table { return l.table }

// Recorder returns the command recorder.
func (l *Loop) Recorder() *recorder.Recorder { return l.recorder }
