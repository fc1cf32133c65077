// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/driver"
)

// DescriptorSize is the distance in bytes between two render target
// descriptors.
const DescriptorSize = 32

// heapSpacing separates the address ranges of two heaps.
const heapSpacing = 0x10000

// Device is a simulated device. Its queue executes on a dedicated goroutine.
type Device struct {
	inst  *Instance
	queue *Queue

	mu     sync.Mutex
	heaps  []*DescriptorHeap
	views  map[driver.DescriptorHandle]*Image
	fences []*Fence

	lost    atomic.Bool
	lostErr atomic.Pointer[error]
}

func newDevice(inst *Instance) *Device {
	d := &Device{
		inst:  inst,
		views: make(map[driver.DescriptorHandle]*Image),
	}
	d.queue = newQueue(d, inst.maxInFlight)
	return d
}

// CreateCommandAllocator creates an allocator.
func (d *Device) CreateCommandAllocator() (driver.CommandAllocator, error) {
	if err := d.Err(); err != nil {
		return nil, err
	}
	return &CommandAllocator{trace: d.inst.trace}, nil
}

// CreateCommandList creates a closed command list bound to alloc.
func (d *Device) CreateCommandList(alloc driver.CommandAllocator) (driver.CommandList, error) {
	if err := d.Err(); err != nil {
		return nil, err
	}
	a, ok := alloc.(*CommandAllocator)
	if !ok {
		return nil, fmt.Errorf("sim: foreign allocator %T", alloc)
	}
	return &CommandList{dev: d, alloc: a, trace: d.inst.trace}, nil
}

// CreateFence creates a fence starting at initial.
func (d *Device) CreateFence(initial uint64) (driver.Fence, error) {
	if err := d.Err(); err != nil {
		return nil, err
	}
	f := &Fence{}
	f.completed.Store(initial)
	d.mu.Lock()
	d.fences = append(d.fences, f)
	d.mu.Unlock()
	return f, nil
}

// CreateDescriptorHeap creates a heap of count render target descriptors.
// Heaps occupy disjoint, non-zero address ranges.
func (d *Device) CreateDescriptorHeap(count int) (driver.DescriptorHeap, error) {
	if count <= 0 || count*DescriptorSize > heapSpacing {
		return nil, fmt.Errorf("sim: invalid descriptor heap size %d", count)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	h := &DescriptorHeap{
		start: driver.DescriptorHandle(uint64(len(d.heaps)+1) * heapSpacing),
		count: count,
	}
	d.heaps = append(d.heaps, h)
	return h, nil
}

// DescriptorIncrement returns DescriptorSize.
func (d *Device) DescriptorIncrement() uint64 { return DescriptorSize }

// CreateRenderTargetView binds img to the descriptor at h. h must be a slot
// of a heap created by this device.
func (d *Device) CreateRenderTargetView(img driver.Image, h driver.DescriptorHandle) error {
	im, ok := img.(*Image)
	if !ok {
		return fmt.Errorf("sim: foreign image %T", img)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.validHandleLocked(h) {
		return fmt.Errorf("sim: descriptor %#x is not a heap slot", uint64(h))
	}
	d.views[h] = im
	d.inst.trace.add("device.create_rtv %s %#x", im.label, uint64(h))
	return nil
}

func (d *Device) validHandleLocked(h driver.DescriptorHandle) bool {
	for _, heap := range d.heaps {
		off := uint64(h) - uint64(heap.start)
		if h >= heap.start && off%DescriptorSize == 0 && off/DescriptorSize < uint64(heap.count) {
			return true
		}
	}
	return false
}

// View returns the image bound at h, or nil.
func (d *Device) View(h driver.DescriptorHandle) *Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.views[h]
}

// Queue returns the device's queue.
func (d *Device) Queue() *Queue { return d.queue }

// Err returns nil, or an error wrapping framecore.ErrDeviceLost once the
// device has been removed.
func (d *Device) Err() error {
	if !d.lost.Load() {
		return nil
	}
	if p := d.lostErr.Load(); p != nil {
		return *p
	}
	return framecore.ErrDeviceLost
}

// Lose removes the device: every later call fails with ErrDeviceLost and
// every fence completes to the maximum value, releasing all waiters.
func (d *Device) Lose(reason error) {
	err := fmt.Errorf("%w: %w", framecore.ErrDeviceLost, reason)
	if errors.Is(reason, framecore.ErrDeviceLost) {
		err = reason
	}
	if !d.lostErr.CompareAndSwap(nil, &err) {
		return
	}
	d.lost.Store(true)
	framecore.Logger().Warn("sim: device removed", "reason", reason)

	d.mu.Lock()
	fences := append([]*Fence(nil), d.fences...)
	d.mu.Unlock()
	for _, f := range fences {
		f.complete(math.MaxUint64)
	}
}

// Destroy stops the queue goroutine after it drains pending work.
func (d *Device) Destroy() {
	d.queue.stop()
	d.inst.trace.add("device.destroy")
}

// DescriptorHeap is a range of descriptor addresses.
type DescriptorHeap struct {
	start driver.DescriptorHandle
	count int
}

// CPUStart returns the handle of slot 0.
func (h *DescriptorHeap) CPUStart() driver.DescriptorHandle { return h.start }

// Len returns the number of slots.
func (h *DescriptorHeap) Len() int { return h.count }
