// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend is the registry of GPU backends.
//
// A backend is a driver.Instance factory. Backends register themselves from
// init() functions and are selected at runtime:
//
//	import _ "github.com/gogpu/framecore/backend/sim"
//	import _ "github.com/gogpu/framecore/backend/wgpu"
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	// Get the default (best available) backend
//	inst, err := backend.Default()
//
//	// Or request a specific backend
//	inst, err := backend.Get("vulkan")
//
// Default prefers the native GPU APIs (dx12, metal, vulkan, gl) and falls
// back to the simulator. A backend that enumerates only software adapters is
// passed over unless WithSoftwareAdapters is given. WithDebug asks the
// backend for its debug and validation layers.
package backend
