// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framecore

import (
	"time"

	"github.com/gogpu/gputypes"
)

// Option configures a Config during creation.
// Use functional options to customize DefaultConfig.
//
// Example:
//
//	// Triple-buffered, uncapped presentation
//	cfg := framecore.DefaultConfig(
//		framecore.WithBufferCount(3),
//		framecore.WithSyncInterval(0),
//	)
type Option func(*Config)

// WithSize sets the surface size in pixels.
func WithSize(width, height uint32) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithFormat sets the surface pixel format.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(c *Config) {
		c.Format = f
	}
}

// WithBufferCount sets the number of images in the presentation ring.
func WithBufferCount(n int) Option {
	return func(c *Config) {
		c.BufferCount = n
	}
}

// WithSyncInterval sets the present sync interval (0 immediate, 1 vsync).
func WithSyncInterval(interval uint32) Option {
	return func(c *Config) {
		c.SyncInterval = interval
	}
}

// WithClearColor sets the per-frame clear color.
func WithClearColor(col gputypes.Color) Option {
	return func(c *Config) {
		c.ClearColor = col
	}
}

// WithWaitTimeout bounds every fence wait. A zero duration waits forever.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.WaitTimeout = d
	}
}

// WithSoftwareAdapter allows falling back to a software adapter.
func WithSoftwareAdapter(allow bool) Option {
	return func(c *Config) {
		c.AllowSoftwareAdapter = allow
	}
}

// WithDebug enables the GPU debug and validation layers.
func WithDebug(on bool) Option {
	return func(c *Config) {
		c.Debug = on
	}
}

// WithTitle sets the window title.
func WithTitle(title string) Option {
	return func(c *Config) {
		c.Title = title
	}
}
