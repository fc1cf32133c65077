// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sim provides a deterministic software GPU implementing the driver
// interfaces.
//
// The simulated queue executes submitted work on its own goroutine, so the
// CPU/GPU relationship of a real device is preserved: command lists run
// asynchronously, fences complete later than they are signaled, and
// allocators stay busy until their work retires. Resource states are tracked
// on the GPU timeline; a barrier whose "before" state does not match, or a
// clear of an image that is not a render target, removes the device the way a
// real driver would.
//
// The backend also records a Trace of every CPU-side API call, which tests use
// to check call ordering.
package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/framecore/driver"
)

// Name is the backend name reported by Instance.Name.
const Name = "sim"

// ErrInjected is the error produced by injected failures.
var ErrInjected = errors.New("sim: injected failure")

// Instance is the simulated backend entry point.
type Instance struct {
	adapters []driver.AdapterInfo
	latency  time.Duration
	refresh  time.Duration
	order    func(current, n int) int
	trace    *Trace

	lostAfter   uint64
	openErr     error
	swapErr     error
	maxInFlight int

	mu    sync.Mutex
	opens int
}

// Option configures an Instance.
type Option func(*Instance)

// WithAdapters replaces the default single hardware adapter.
func WithAdapters(infos ...driver.AdapterInfo) Option {
	return func(i *Instance) {
		i.adapters = append([]driver.AdapterInfo(nil), infos...)
	}
}

// WithLatency delays the execution of every queue operation on the GPU
// goroutine, so CPU waits actually block.
func WithLatency(d time.Duration) Option {
	return func(i *Instance) {
		i.latency = d
	}
}

// WithRefresh sets the display refresh period that Present(1) waits for.
// The default is 0: vsync'd presents do not sleep.
func WithRefresh(d time.Duration) Option {
	return func(i *Instance) {
		i.refresh = d
	}
}

// WithPresentOrder sets the function choosing the next back buffer after a
// present. The default is round-robin.
func WithPresentOrder(next func(current, n int) int) Option {
	return func(i *Instance) {
		i.order = next
	}
}

// WithTrace records every CPU-side API call into t.
func WithTrace(t *Trace) Option {
	return func(i *Instance) {
		i.trace = t
	}
}

// WithDeviceLostAfter removes the device on the present following the n-th
// successful one.
func WithDeviceLostAfter(n uint64) Option {
	return func(i *Instance) {
		i.lostAfter = n
	}
}

// WithOpenError makes Adapter.Open fail with err.
func WithOpenError(err error) Option {
	return func(i *Instance) {
		i.openErr = err
	}
}

// WithSwapChainError makes CreateSwapChain fail with err.
func WithSwapChainError(err error) Option {
	return func(i *Instance) {
		i.swapErr = err
	}
}

// WithQueueDepth bounds the number of queue operations buffered ahead of the
// GPU goroutine. Submission blocks when the queue is full. Default 16.
func WithQueueDepth(n int) Option {
	return func(i *Instance) {
		i.maxInFlight = n
	}
}

// NewInstance creates a simulated backend exposing one hardware adapter
// unless WithAdapters says otherwise.
func NewInstance(opts ...Option) *Instance {
	i := &Instance{
		adapters:    []driver.AdapterInfo{{Name: "sim GPU"}},
		order:       RoundRobin,
		maxInFlight: 16,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// RoundRobin is the default present order.
func RoundRobin(current, n int) int { return (current + 1) % n }

// Name returns "sim".
func (i *Instance) Name() string { return Name }

// Adapters returns the configured adapters.
func (i *Instance) Adapters() ([]driver.Adapter, error) {
	i.trace.add("instance.adapters")
	out := make([]driver.Adapter, len(i.adapters))
	for k, info := range i.adapters {
		out[k] = &Adapter{inst: i, info: info}
	}
	return out, nil
}

// Opens returns the number of devices created through this instance.
func (i *Instance) Opens() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.opens
}

// CreateSwapChain creates a headless presentation ring of desc.BufferCount
// images, all starting in the present state.
func (i *Instance) CreateSwapChain(dev driver.Device, q driver.Queue, desc *driver.SwapChainDesc) (driver.SwapChain, error) {
	i.trace.add("instance.create_swapchain %d", desc.BufferCount)
	if i.swapErr != nil {
		return nil, i.swapErr
	}
	d, ok := dev.(*Device)
	if !ok {
		return nil, fmt.Errorf("sim: foreign device %T", dev)
	}
	if _, ok := q.(*Queue); !ok {
		return nil, fmt.Errorf("sim: foreign queue %T", q)
	}
	if desc.BufferCount < 2 || desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("sim: invalid swap chain %dx%d with %d buffers", desc.Width, desc.Height, desc.BufferCount)
	}
	return newSwapChain(d, desc), nil
}

// Destroy is a no-op.
func (i *Instance) Destroy() {
	i.trace.add("instance.destroy")
}

// Adapter is a simulated adapter.
type Adapter struct {
	inst *Instance
	info driver.AdapterInfo
}

// Info returns the adapter description.
func (a *Adapter) Info() driver.AdapterInfo { return a.info }

// Open creates the device and its queue. The queue's GPU goroutine runs until
// Device.Destroy.
func (a *Adapter) Open() (driver.Device, driver.Queue, error) {
	a.inst.trace.add("adapter.open %s", a.info.Name)
	if a.inst.openErr != nil {
		return nil, nil, a.inst.openErr
	}
	a.inst.mu.Lock()
	a.inst.opens++
	a.inst.mu.Unlock()

	d := newDevice(a.inst)
	return d, d.queue, nil
}

var (
	_ driver.Instance         = (*Instance)(nil)
	_ driver.Adapter          = (*Adapter)(nil)
	_ driver.Device           = (*Device)(nil)
	_ driver.Queue            = (*Queue)(nil)
	_ driver.Fence            = (*Fence)(nil)
	_ driver.SwapChain        = (*SwapChain)(nil)
	_ driver.Image            = (*Image)(nil)
	_ driver.DescriptorHeap   = (*DescriptorHeap)(nil)
	_ driver.CommandAllocator = (*CommandAllocator)(nil)
	_ driver.CommandList      = (*CommandList)(nil)
)
