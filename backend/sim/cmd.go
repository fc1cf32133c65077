// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/driver"
	"github.com/gogpu/gputypes"
)

type cmdKind int

const (
	cmdBarrier cmdKind = iota
	cmdSetRenderTarget
	cmdClear
)

type command struct {
	kind     cmdKind
	barriers []driver.Barrier
	handle   driver.DescriptorHandle
	color    gputypes.Color
}

// CommandAllocator tracks how many submitted lists recorded into it are
// still executing.
type CommandAllocator struct {
	trace    *Trace
	inflight atomic.Int64
}

// Reset fails with framecore.ErrAllocatorBusy while the GPU has not retired
// every list recorded into the allocator.
func (a *CommandAllocator) Reset() error {
	a.trace.add("allocator.reset")
	if n := a.inflight.Load(); n > 0 {
		return fmt.Errorf("sim: %w: %d submissions in flight", framecore.ErrAllocatorBusy, n)
	}
	return nil
}

// InFlight returns the number of submissions not yet retired.
func (a *CommandAllocator) InFlight() int64 { return a.inflight.Load() }

// CommandList records commands for the simulated queue. Recording into a
// closed list poisons it: the next Close reports the error.
type CommandList struct {
	dev   *Device
	alloc *CommandAllocator
	trace *Trace

	open bool
	cmds []command
	err  error
}

// Reset reopens the list for recording into alloc.
func (l *CommandList) Reset(alloc driver.CommandAllocator) error {
	l.trace.add("list.reset")
	if l.open {
		return fmt.Errorf("sim: list reset: %w", framecore.ErrListOpen)
	}
	a, ok := alloc.(*CommandAllocator)
	if !ok {
		return fmt.Errorf("sim: foreign allocator %T", alloc)
	}
	l.alloc = a
	l.open = true
	l.cmds = l.cmds[:0]
	l.err = nil
	return nil
}

func (l *CommandList) record(c command, what string) {
	if !l.open {
		if l.err == nil {
			l.err = fmt.Errorf("%s: %w", what, framecore.ErrListClosed)
		}
		return
	}
	l.cmds = append(l.cmds, c)
}

// ResourceBarrier records state transitions.
func (l *CommandList) ResourceBarrier(barriers ...driver.Barrier) {
	for _, b := range barriers {
		l.trace.add("barrier %s", b)
	}
	l.record(command{kind: cmdBarrier, barriers: append([]driver.Barrier(nil), barriers...)}, "barrier")
}

// SetRenderTarget records a render target binding.
func (l *CommandList) SetRenderTarget(h driver.DescriptorHandle) {
	l.trace.add("set_render_target %#x", uint64(h))
	l.record(command{kind: cmdSetRenderTarget, handle: h}, "set render target")
}

// ClearRenderTarget records a clear.
func (l *CommandList) ClearRenderTarget(h driver.DescriptorHandle, color gputypes.Color) {
	l.trace.add("clear %#x", uint64(h))
	l.record(command{kind: cmdClear, handle: h, color: color}, "clear")
}

// Close ends recording and returns the first recording error, if any.
func (l *CommandList) Close() error {
	l.trace.add("list.close")
	if !l.open {
		return fmt.Errorf("sim: list close: %w", framecore.ErrListClosed)
	}
	l.open = false
	return l.err
}

// Len returns the number of recorded commands.
func (l *CommandList) Len() int { return len(l.cmds) }
