// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements the driver interfaces on the gogpu/wgpu HAL.
//
// The HAL exposes command encoders, submission indices and texture usage
// transitions. This package maps them onto the explicit-API model of the
// driver package:
//
//   - A CommandAllocator owns a hal.CommandEncoder and every command buffer
//     encoded through it. Reset frees those buffers once the queue reports
//     their submission index completed.
//   - A CommandList records into its allocator's encoder. Barriers become
//     TextureBarrier transitions, clears become a render pass with
//     LoadOpClear.
//   - A Fence binds each signaled value to the last submission index of its
//     queue; the value completes when PollCompleted passes that index.
//   - Descriptor heaps are CPU-side tables of texture views.
//
// The swap chain is a ring of render attachment textures. Given a window
// handle it also configures a hal.Surface, and Present copies the current
// image into the acquired surface texture before presenting it. HAL backends
// register themselves on import, e.g.
//
//	import _ "github.com/gogpu/wgpu/hal/allbackends"
//
// Importing this package registers the "dx12", "metal", "vulkan", "gl" and
// "noop" factories with the backend registry; a factory fails when its HAL
// backend was not compiled in.
package wgpu
