// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package driver defines the backend-neutral GPU interfaces the frame
// presentation core is written against.
//
// The interfaces follow an explicit-API model: command lists are recorded
// against a reusable allocator, submitted to a queue, and completion is
// observed through a monotonically increasing fence. Backends (see
// backend/sim and backend/wgpu) implement them on top of a concrete GPU API.
//
// Driver methods never panic on API failures; they return errors that wrap
// the framecore sentinels (framecore.ErrDeviceLost, framecore.ErrAllocatorBusy,
// ...) so callers can classify them with errors.Is.
package driver

import (
	"github.com/gogpu/gputypes"
)

// Instance is the entry point of a backend. It enumerates adapters and
// creates swap chains, like a DXGI factory or a WebGPU instance.
type Instance interface {
	// Name returns the backend name, e.g. "sim" or "vulkan".
	Name() string

	// Adapters enumerates the adapters exposed by the backend, in the
	// backend's preference order.
	Adapters() ([]Adapter, error)

	// CreateSwapChain creates the presentation ring for a device and the
	// queue that will present it.
	CreateSwapChain(dev Device, q Queue, desc *SwapChainDesc) (SwapChain, error)

	// Destroy releases the instance. It must be called after every object
	// created through it has been released.
	Destroy()
}

// AdapterInfo describes an adapter.
type AdapterInfo struct {
	Name string

	// Software is set for adapters that rasterize on the CPU (WARP,
	// llvmpipe, the noop adapter, ...).
	Software bool
}

// Adapter is a physical (or software) GPU.
type Adapter interface {
	Info() AdapterInfo

	// Open creates the logical device and its direct command queue.
	Open() (Device, Queue, error)
}

// SwapChainDesc describes a presentation ring.
type SwapChainDesc struct {
	Width       uint32
	Height      uint32
	Format      gputypes.TextureFormat
	BufferCount int

	// Window is the native window handle, or 0 for headless rings.
	Window uintptr

	// Display is the native display connection the window belongs to
	// (X11 Display*, wl_display*), or 0 where the platform has none.
	Display uintptr
}

// Device creates the objects used by the frame loop.
type Device interface {
	// CreateCommandAllocator creates the backing storage for recorded
	// commands.
	CreateCommandAllocator() (CommandAllocator, error)

	// CreateCommandList creates a command list recording into alloc.
	// The list is returned in the closed state.
	CreateCommandList(alloc CommandAllocator) (CommandList, error)

	// CreateFence creates a fence whose completed value starts at initial.
	CreateFence(initial uint64) (Fence, error)

	// CreateDescriptorHeap creates a CPU-visible heap of render target
	// descriptors with count slots.
	CreateDescriptorHeap(count int) (DescriptorHeap, error)

	// DescriptorIncrement returns the distance in bytes between two
	// consecutive render target descriptors.
	DescriptorIncrement() uint64

	// CreateRenderTargetView writes a descriptor for img at h.
	CreateRenderTargetView(img Image, h DescriptorHandle) error

	// Destroy releases the device.
	Destroy()
}

// Queue is the ordered submission channel to the GPU.
type Queue interface {
	// ExecuteCommandLists submits closed command lists for execution, in
	// order, after all previously submitted work.
	ExecuteCommandLists(lists ...CommandList) error

	// Signal enqueues a GPU-side write of value into f, ordered after all
	// previously enqueued work on the queue.
	Signal(f Fence, value uint64) error
}

// SwapChain owns the N presentable images of a surface.
type SwapChain interface {
	// BufferCount returns the number of images in the ring.
	BufferCount() int

	// Buffer returns image i of the ring, 0 <= i < BufferCount().
	Buffer(i int) (Image, error)

	// CurrentBackBufferIndex returns the index of the image to render into
	// next. It only changes when Present is called, and the new value is
	// chosen by the presentation backend.
	CurrentBackBufferIndex() int

	// Present queues the current back buffer for display.
	// syncInterval 0 presents immediately, 1 waits for vertical refresh.
	Present(syncInterval uint32) error

	// Destroy releases the swap chain and its images.
	Destroy()
}

// Image is one slot of a presentation ring.
type Image interface {
	// Label returns a debug label, unique within a swap chain.
	Label() string

	Width() uint32
	Height() uint32
	Format() gputypes.TextureFormat
}

// DescriptorHandle is the CPU address of a descriptor inside a heap.
type DescriptorHandle uint64

// DescriptorHeap is a contiguous array of render target descriptors.
type DescriptorHeap interface {
	// CPUStart returns the handle of slot 0.
	CPUStart() DescriptorHandle

	// Len returns the number of slots.
	Len() int
}

// CommandAllocator is the backing storage of recorded commands.
type CommandAllocator interface {
	// Reset reclaims the storage of every command list recorded into the
	// allocator. It fails with framecore.ErrAllocatorBusy while the GPU
	// may still execute those commands.
	Reset() error
}

// CommandList records GPU commands.
//
// Recording methods do not return errors, mirroring explicit GPU APIs;
// invalid use is reported by Close.
type CommandList interface {
	// Reset reopens the list for recording into alloc.
	// The list must be closed.
	Reset(alloc CommandAllocator) error

	// ResourceBarrier records resource state transitions.
	ResourceBarrier(barriers ...Barrier)

	// SetRenderTarget binds the render target described by h.
	SetRenderTarget(h DescriptorHandle)

	// ClearRenderTarget clears the render target described by h.
	ClearRenderTarget(h DescriptorHandle, color gputypes.Color)

	// Close ends recording and makes the list submittable.
	Close() error
}

// Fence is a GPU timeline: a 64-bit value written by the GPU.
type Fence interface {
	// CompletedValue returns the last value written by the GPU.
	// It may lag behind the true value but never exceeds it.
	CompletedValue() uint64

	// SetEventOnCompletion arranges for ev to be set once the completed
	// value reaches value. If it already has, ev is set immediately.
	SetEventOnCompletion(value uint64, ev Event) error
}

// Event is the OS wait primitive a fence sets on completion.
type Event interface {
	Set() error
}
