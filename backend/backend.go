// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"

	"github.com/gogpu/framecore/driver"
)

// Backend names.
const (
	BackendDX12   = "dx12"
	BackendMetal  = "metal"
	BackendVulkan = "vulkan"
	BackendGL     = "gl"
	BackendNoop   = "noop"
	BackendSim    = "sim"
)

// ErrBackendNotAvailable is returned when a requested backend is not
// registered, or its factory failed.
var ErrBackendNotAvailable = errors.New("backend: not available")

// Options configures backend creation.
type Options struct {
	// Debug enables the GPU API's debug and validation layers.
	Debug bool

	// AllowSoftware lets Default settle on a backend whose only adapters
	// are software.
	AllowSoftware bool
}

// Option configures Get and Default.
type Option func(*Options)

// WithDebug enables debug and validation layers on backends that have them.
func WithDebug(on bool) Option {
	return func(o *Options) {
		o.Debug = on
	}
}

// WithSoftwareAdapters makes backends with only software adapters eligible
// for Default.
func WithSoftwareAdapters(allow bool) Option {
	return func(o *Options) {
		o.AllowSoftware = allow
	}
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Factory creates a backend instance. A factory may fail when the GPU API it
// wraps is missing on the host.
type Factory func(Options) (driver.Instance, error)
