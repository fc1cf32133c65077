// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/driver"
)

// DescriptorSize is the distance in bytes between two render target
// descriptors.
const DescriptorSize = 8

// heapSpacing separates the address ranges of two heaps.
const heapSpacing = 0x10000

// Device wraps a hal.Device and its queue.
type Device struct {
	hal      hal.Device
	queue    *Queue
	borrowed bool

	mu    sync.Mutex
	heaps []*DescriptorHeap
	views map[driver.DescriptorHandle]hal.TextureView

	// done is closed by Destroy; pollers are the fence goroutines it waits
	// for.
	done    chan struct{}
	doneMu  sync.Mutex
	pollers sync.WaitGroup

	lost    atomic.Bool
	lostErr atomic.Pointer[error]
}

// NewDevice wraps an opened HAL device and queue. Destroy destroys the HAL
// device unless it came from FromProvider.
func NewDevice(hd hal.Device, hq hal.Queue) (*Device, *Queue) {
	d := &Device{
		hal:   hd,
		views: make(map[driver.DescriptorHandle]hal.TextureView),
		done:  make(chan struct{}),
	}
	d.queue = &Queue{dev: d, hal: hq}
	return d, d.queue
}

// Queue returns the device queue.
func (d *Device) Queue() *Queue { return d.queue }

// Err returns the device removal error, or nil.
func (d *Device) Err() error {
	if p := d.lostErr.Load(); p != nil {
		return *p
	}
	return nil
}

// check converts a HAL error. A lost device is remembered and reported as
// framecore.ErrDeviceLost from then on. A lost or outdated surface becomes
// framecore.ErrSurfaceLost.
func (d *Device) check(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, hal.ErrDeviceLost):
		d.lose(err)
		return d.Err()
	case errors.Is(err, hal.ErrSurfaceLost), errors.Is(err, hal.ErrSurfaceOutdated):
		return fmt.Errorf("wgpu: %s: %w: %w", op, framecore.ErrSurfaceLost, err)
	}
	return fmt.Errorf("wgpu: %s: %w", op, err)
}

func (d *Device) lose(reason error) {
	if !d.lost.CompareAndSwap(false, true) {
		return
	}
	err := fmt.Errorf("%w: %w", framecore.ErrDeviceLost, reason)
	d.lostErr.Store(&err)
	framecore.Logger().Warn("wgpu: device lost", "err", reason)
}

// spawn runs fn on a goroutine that Destroy waits for. It reports false,
// without running fn, once the device is destroyed.
func (d *Device) spawn(fn func(done <-chan struct{})) bool {
	d.doneMu.Lock()
	defer d.doneMu.Unlock()
	select {
	case <-d.done:
		return false
	default:
	}
	d.pollers.Add(1)
	go func() {
		defer d.pollers.Done()
		fn(d.done)
	}()
	return true
}

// CreateCommandAllocator creates an allocator owning a HAL command encoder.
func (d *Device) CreateCommandAllocator() (driver.CommandAllocator, error) {
	if err := d.Err(); err != nil {
		return nil, err
	}
	enc, err := d.hal.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "frame"})
	if err != nil {
		return nil, d.check("create command encoder", err)
	}
	return &CommandAllocator{dev: d, enc: enc}, nil
}

// CreateCommandList creates a closed command list bound to alloc.
func (d *Device) CreateCommandList(alloc driver.CommandAllocator) (driver.CommandList, error) {
	if err := d.Err(); err != nil {
		return nil, err
	}
	a, ok := alloc.(*CommandAllocator)
	if !ok {
		return nil, fmt.Errorf("wgpu: foreign allocator %T", alloc)
	}
	return &CommandList{dev: d, alloc: a}, nil
}

// CreateFence creates a fence starting at initial.
func (d *Device) CreateFence(initial uint64) (driver.Fence, error) {
	if err := d.Err(); err != nil {
		return nil, err
	}
	return &Fence{queue: d.queue, completed: initial, signaled: initial}, nil
}

// CreateDescriptorHeap creates a table of count render target views.
// Heaps occupy disjoint, non-zero address ranges.
func (d *Device) CreateDescriptorHeap(count int) (driver.DescriptorHeap, error) {
	if count <= 0 || count*DescriptorSize > heapSpacing {
		return nil, fmt.Errorf("wgpu: invalid descriptor heap size %d", count)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	h := &DescriptorHeap{
		start: driver.DescriptorHandle(uint64(len(d.heaps)+1) * heapSpacing), //nolint:gosec // heap count is small
		count: count,
	}
	d.heaps = append(d.heaps, h)
	return h, nil
}

// DescriptorIncrement returns DescriptorSize.
func (d *Device) DescriptorIncrement() uint64 { return DescriptorSize }

// CreateRenderTargetView creates a 2D view of img and stores it at h,
// replacing any view already there.
func (d *Device) CreateRenderTargetView(img driver.Image, h driver.DescriptorHandle) error {
	if err := d.Err(); err != nil {
		return err
	}
	im, ok := img.(*Image)
	if !ok {
		return fmt.Errorf("wgpu: foreign image %T", img)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.inHeap(h) {
		return fmt.Errorf("wgpu: handle %#x is not a descriptor slot", uint64(h))
	}
	view, err := d.hal.CreateTextureView(im.tex, &hal.TextureViewDescriptor{
		Label:           im.label,
		Format:          im.format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return d.check("create texture view", err)
	}
	if old, ok := d.views[h]; ok {
		d.hal.DestroyTextureView(old)
	}
	d.views[h] = view
	return nil
}

func (d *Device) inHeap(h driver.DescriptorHandle) bool {
	for _, heap := range d.heaps {
		off := uint64(h) - uint64(heap.start)
		if h >= heap.start && off%DescriptorSize == 0 && off/DescriptorSize < uint64(heap.count) { //nolint:gosec // count > 0
			return true
		}
	}
	return false
}

func (d *Device) view(h driver.DescriptorHandle) (hal.TextureView, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.views[h]
	return v, ok
}

// Destroy stops the fence pollers, waits for the GPU, releases the views and,
// unless borrowed, destroys the HAL device. Pending fence events are never
// set afterwards.
func (d *Device) Destroy() {
	d.doneMu.Lock()
	select {
	case <-d.done:
		d.doneMu.Unlock()
		return
	default:
		close(d.done)
	}
	d.doneMu.Unlock()
	d.pollers.Wait()
	if !d.lost.Load() {
		if err := d.hal.WaitIdle(); err != nil {
			framecore.Logger().Warn("wgpu: wait idle", "err", err)
		}
	}
	d.mu.Lock()
	for h, v := range d.views {
		d.hal.DestroyTextureView(v)
		delete(d.views, h)
	}
	d.mu.Unlock()
	if !d.borrowed {
		d.hal.Destroy()
	}
}

// DescriptorHeap is a CPU-side range of render target view slots.
type DescriptorHeap struct {
	start driver.DescriptorHandle
	count int
}

// CPUStart returns the handle of slot 0.
func (h *DescriptorHeap) CPUStart() driver.DescriptorHandle { return h.start }

// Len returns the number of slots.
func (h *DescriptorHeap) Len() int { return h.count }
