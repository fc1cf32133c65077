// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/framecore/driver"
	"github.com/gogpu/gputypes"
)

// SwapChain is a headless presentation ring.
//
// The back buffer index advances on the CPU as soon as Present returns. The
// flip itself, which checks that the image was handed back in the present
// state, runs on the queue after all previously submitted work.
type SwapChain struct {
	dev    *Device
	images []*Image

	current  int
	presents uint64

	front     atomic.Int64
	presented atomic.Uint64
}

func newSwapChain(d *Device, desc *driver.SwapChainDesc) *SwapChain {
	sc := &SwapChain{dev: d, images: make([]*Image, desc.BufferCount)}
	for i := range sc.images {
		sc.images[i] = newImage(fmt.Sprintf("back%d", i), desc.Width, desc.Height, desc.Format)
	}
	sc.front.Store(-1)
	return sc
}

// BufferCount returns the number of images.
func (s *SwapChain) BufferCount() int { return len(s.images) }

// Buffer returns image i.
func (s *SwapChain) Buffer(i int) (driver.Image, error) {
	if i < 0 || i >= len(s.images) {
		return nil, fmt.Errorf("sim: buffer %d out of range [0,%d)", i, len(s.images))
	}
	return s.images[i], nil
}

// CurrentBackBufferIndex returns the index of the image to render into.
func (s *SwapChain) CurrentBackBufferIndex() int { return s.current }

// Present queues the current back buffer for display and picks the next one
// with the instance's present order.
func (s *SwapChain) Present(syncInterval uint32) error {
	inst := s.dev.inst
	inst.trace.add("swapchain.present %d", syncInterval)
	if err := s.dev.Err(); err != nil {
		return err
	}
	if syncInterval > 1 {
		return fmt.Errorf("sim: sync interval %d not supported", syncInterval)
	}
	if inst.lostAfter > 0 && s.presents >= inst.lostAfter {
		s.dev.Lose(ErrInjected)
		return s.dev.Err()
	}

	if err := s.dev.queue.enqueue(op{kind: opPresent, sc: s, index: s.current}); err != nil {
		return err
	}
	s.presents++

	n := len(s.images)
	next := inst.order(s.current, n) % n
	if next < 0 {
		next += n
	}
	s.current = next

	if syncInterval == 1 && inst.refresh > 0 {
		time.Sleep(inst.refresh)
	}
	return nil
}

// flip runs on the queue goroutine.
func (s *SwapChain) flip(index int) error {
	img := s.images[index]
	if st := img.State(); st != driver.StatePresent {
		return fmt.Errorf("present %s in state %s", img.label, st)
	}
	s.front.Store(int64(index))
	s.presented.Add(1)
	return nil
}

// Presented returns the number of flips executed by the queue.
func (s *SwapChain) Presented() uint64 { return s.presented.Load() }

// Front returns the index of the image on screen, or -1 before the first
// flip.
func (s *SwapChain) Front() int { return int(s.front.Load()) }

// Image returns image i with its simulation accessors.
func (s *SwapChain) Image(i int) *Image { return s.images[i] }

// Destroy is a no-op.
func (s *SwapChain) Destroy() {
	s.dev.inst.trace.add("swapchain.destroy")
}

// Image is a simulated presentable image. Its state and pixels are owned by
// the queue goroutine.
type Image struct {
	label  string
	width  uint32
	height uint32
	format gputypes.TextureFormat

	mu     sync.Mutex
	state  driver.ResourceState
	pix    []byte
	clears uint64
}

func newImage(label string, w, h uint32, format gputypes.TextureFormat) *Image {
	return &Image{
		label:  label,
		width:  w,
		height: h,
		format: format,
		state:  driver.StatePresent,
		pix:    make([]byte, int(w)*int(h)*4),
	}
}

func (m *Image) Label() string                  { return m.label }
func (m *Image) Width() uint32                  { return m.width }
func (m *Image) Height() uint32                 { return m.height }
func (m *Image) Format() gputypes.TextureFormat { return m.format }

// State returns the GPU-side state as of the last executed command.
func (m *Image) State() driver.ResourceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Clears returns how many clears the queue executed on the image.
func (m *Image) Clears() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}

func (m *Image) transition(before, after driver.ResourceState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != before {
		return fmt.Errorf("barrier %s: state is %s, barrier expects %s", m.label, m.state, before)
	}
	m.state = after
	return nil
}

func (m *Image) clear(c gputypes.Color) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != driver.StateRenderTarget {
		return fmt.Errorf("clear %s in state %s", m.label, m.state)
	}
	px := [4]byte{unorm(c.R), unorm(c.G), unorm(c.B), unorm(c.A)}
	if m.format == gputypes.TextureFormatBGRA8Unorm {
		px[0], px[2] = px[2], px[0]
	}
	for i := 0; i < len(m.pix); i += 4 {
		copy(m.pix[i:i+4], px[:])
	}
	m.clears++
	return nil
}

// Snapshot copies the image into an RGBA image.
func (m *Image) Snapshot() *image.RGBA {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := image.NewRGBA(image.Rect(0, 0, int(m.width), int(m.height)))
	copy(out.Pix, m.pix)
	if m.format == gputypes.TextureFormatBGRA8Unorm {
		for i := 0; i < len(out.Pix); i += 4 {
			out.Pix[i], out.Pix[i+2] = out.Pix[i+2], out.Pix[i]
		}
	}
	return out
}

func unorm(v float64) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return byte(v*255 + 0.5)
	}
}
