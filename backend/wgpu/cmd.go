// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/driver"
)

type submitted struct {
	cb    hal.CommandBuffer
	index uint64
}

// CommandAllocator owns a HAL command encoder and the command buffers
// submitted from it.
type CommandAllocator struct {
	dev *Device
	enc hal.CommandEncoder

	mu        sync.Mutex
	recording bool
	buffers   []submitted
}

func (a *CommandAllocator) track(cb hal.CommandBuffer, index uint64) {
	a.mu.Lock()
	a.buffers = append(a.buffers, submitted{cb: cb, index: index})
	a.mu.Unlock()
}

// Reset frees the allocator's command buffers. It fails with
// framecore.ErrAllocatorBusy while any of their submissions is pending.
func (a *CommandAllocator) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.recording {
		return framecore.ErrListOpen
	}
	if !a.dev.lost.Load() {
		done := a.dev.queue.hal.PollCompleted()
		for _, s := range a.buffers {
			if s.index > done {
				return fmt.Errorf("%w: submission %d pending, %d completed", framecore.ErrAllocatorBusy, s.index, done)
			}
		}
	}
	for _, s := range a.buffers {
		a.dev.hal.FreeCommandBuffer(s.cb)
	}
	a.buffers = a.buffers[:0]
	return nil
}

// retire frees the command buffers whose submission has completed.
func (a *CommandAllocator) retire() {
	a.mu.Lock()
	defer a.mu.Unlock()
	lost := a.dev.lost.Load()
	done := a.dev.queue.hal.PollCompleted()
	n := 0
	for _, s := range a.buffers {
		if lost || s.index <= done {
			a.dev.hal.FreeCommandBuffer(s.cb)
			continue
		}
		a.buffers[n] = s
		n++
	}
	clear(a.buffers[n:])
	a.buffers = a.buffers[:n]
}

// InFlight returns the number of submitted command buffers not yet freed.
func (a *CommandAllocator) InFlight() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buffers)
}

// CommandList records into its allocator's HAL encoder.
type CommandList struct {
	dev   *Device
	alloc *CommandAllocator

	open      bool
	err       error
	cb        hal.CommandBuffer
	submitted bool
	commands  int
}

// Reset begins encoding into alloc.
func (l *CommandList) Reset(alloc driver.CommandAllocator) error {
	if l.open {
		return framecore.ErrListOpen
	}
	a, ok := alloc.(*CommandAllocator)
	if !ok {
		return fmt.Errorf("wgpu: foreign allocator %T", alloc)
	}
	if err := l.dev.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.recording {
		return fmt.Errorf("%w: allocator is recording another list", framecore.ErrListOpen)
	}
	if l.cb != nil && !l.submitted {
		l.dev.hal.FreeCommandBuffer(l.cb)
	}
	l.cb = nil
	if err := a.enc.BeginEncoding("frame"); err != nil {
		return l.dev.check("begin encoding", err)
	}
	a.recording = true
	l.alloc = a
	l.open = true
	l.err = nil
	l.submitted = false
	l.commands = 0
	return nil
}

func (l *CommandList) recording() bool {
	if !l.open {
		if l.err == nil {
			l.err = framecore.ErrListClosed
		}
		return false
	}
	return l.err == nil
}

func textureUsage(s driver.ResourceState) gputypes.TextureUsage {
	switch s {
	case driver.StateRenderTarget:
		return gputypes.TextureUsageRenderAttachment
	default:
		return gputypes.TextureUsageCopySrc
	}
}

// ResourceBarrier records texture usage transitions.
func (l *CommandList) ResourceBarrier(barriers ...driver.Barrier) {
	if !l.recording() {
		return
	}
	out := make([]hal.TextureBarrier, 0, len(barriers))
	for _, b := range barriers {
		img, ok := b.Image.(*Image)
		if !ok {
			l.err = fmt.Errorf("wgpu: barrier on foreign image %T", b.Image)
			return
		}
		out = append(out, hal.TextureBarrier{
			Texture: img.tex,
			Range: hal.TextureRange{
				Aspect:          gputypes.TextureAspectAll,
				MipLevelCount:   1,
				ArrayLayerCount: 1,
			},
			Usage: hal.TextureUsageTransition{
				OldUsage: textureUsage(b.Before),
				NewUsage: textureUsage(b.After),
			},
		})
	}
	l.alloc.enc.TransitionTextures(out)
	l.commands++
}

// SetRenderTarget checks that h holds a view. The HAL binds targets per
// render pass, so nothing is encoded.
func (l *CommandList) SetRenderTarget(h driver.DescriptorHandle) {
	if !l.recording() {
		return
	}
	if _, ok := l.dev.view(h); !ok {
		l.err = fmt.Errorf("wgpu: no render target view at %#x", uint64(h))
		return
	}
	l.commands++
}

// ClearRenderTarget encodes a render pass that clears the view at h.
func (l *CommandList) ClearRenderTarget(h driver.DescriptorHandle, color gputypes.Color) {
	if !l.recording() {
		return
	}
	view, ok := l.dev.view(h)
	if !ok {
		l.err = fmt.Errorf("wgpu: no render target view at %#x", uint64(h))
		return
	}
	rp := l.alloc.enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "clear",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: color,
		}},
	})
	rp.End()
	l.commands++
}

// Close ends encoding. A list with a recording error is discarded and the
// error returned.
func (l *CommandList) Close() error {
	if !l.open {
		return framecore.ErrListClosed
	}
	a := l.alloc
	a.mu.Lock()
	defer a.mu.Unlock()
	l.open = false
	a.recording = false
	if l.err != nil {
		a.enc.DiscardEncoding()
		return l.err
	}
	cb, err := a.enc.EndEncoding()
	if err != nil {
		return l.dev.check("end encoding", err)
	}
	l.cb = cb
	return nil
}

// Len returns the number of commands recorded since the last Reset.
func (l *CommandList) Len() int { return l.commands }
