// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framecore

import (
	"testing"
	"time"

	"github.com/gogpu/gputypes"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	if c.Width != 1280 || c.Height != 720 {
		t.Errorf("size = %dx%d, want 1280x720", c.Width, c.Height)
	}
	if c.BufferCount != 2 {
		t.Errorf("BufferCount = %d, want 2", c.BufferCount)
	}
	if c.SyncInterval != 1 {
		t.Errorf("SyncInterval = %d, want 1", c.SyncInterval)
	}
	if c.Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("Format = %v, want BGRA8Unorm", c.Format)
	}
	if c.ClearColor.A != 1 {
		t.Errorf("ClearColor.A = %v, want 1", c.ClearColor.A)
	}
	if c.WaitTimeout != 0 {
		t.Errorf("WaitTimeout = %v, want 0 (infinite)", c.WaitTimeout)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestOptions(t *testing.T) {
	c := DefaultConfig(
		WithSize(640, 480),
		WithFormat(gputypes.TextureFormatRGBA8Unorm),
		WithBufferCount(3),
		WithSyncInterval(0),
		WithClearColor(gputypes.Color{R: 1, A: 1}),
		WithWaitTimeout(time.Second),
		WithSoftwareAdapter(true),
		WithTitle("demo"),
		WithDebug(true),
	)

	if c.Width != 640 || c.Height != 480 {
		t.Errorf("size = %dx%d, want 640x480", c.Width, c.Height)
	}
	if c.Format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Format = %v, want RGBA8Unorm", c.Format)
	}
	if c.BufferCount != 3 {
		t.Errorf("BufferCount = %d, want 3", c.BufferCount)
	}
	if c.SyncInterval != 0 {
		t.Errorf("SyncInterval = %d, want 0", c.SyncInterval)
	}
	if c.ClearColor.R != 1 {
		t.Errorf("ClearColor.R = %v, want 1", c.ClearColor.R)
	}
	if c.WaitTimeout != time.Second {
		t.Errorf("WaitTimeout = %v, want 1s", c.WaitTimeout)
	}
	if !c.AllowSoftwareAdapter {
		t.Error("AllowSoftwareAdapter = false, want true")
	}
	if c.Title != "demo" {
		t.Errorf("Title = %q, want demo", c.Title)
	}
	if !c.Debug {
		t.Error("Debug = false, want true")
	}
}
