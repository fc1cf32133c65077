// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package glfw provides a window.Gate backed by a GLFW window.
//
// The window is created without a client API, so the GPU backend owns
// presentation. GLFW must be driven from the main OS thread: call
// runtime.LockOSThread in an init function of package main.
package glfw

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/window"
)

// Window is a GLFW window used as a frame loop gate.
type Window struct {
	w *glfw.Window
}

var _ window.Gate = (*Window)(nil)

// Open initializes GLFW and creates a non-resizable window of cfg's size and
// title.
func Open(cfg framecore.Config) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, framecore.E("window.open", framecore.KindFatal, fmt.Errorf("glfw init: %w", err))
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	w, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, framecore.E("window.open", framecore.KindFatal, fmt.Errorf("create window: %w", err))
	}
	framecore.Logger().Info("window: opened", "title", cfg.Title, "width", cfg.Width, "height", cfg.Height)
	return &Window{w: w}, nil
}

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool { return w.w.ShouldClose() }

// PollEvents pumps the GLFW event queue.
func (w *Window) PollEvents() { glfw.PollEvents() }

// RequestClose flags the window for closing; the loop stops at its next
// check.
func (w *Window) RequestClose() { w.w.SetShouldClose(true) }

// Size returns the framebuffer size in pixels.
func (w *Window) Size() (width, height int) { return w.w.GetFramebufferSize() }

// Handle returns the native window handle for the swap chain: an HWND, an
// X11 Window or a wl_surface. It is 0 on macOS, where the swap chain then
// renders offscreen.
func (w *Window) Handle() uintptr { return nativeHandle(w.w) }

// Display returns the native display connection (X11 Display* or
// wl_display*), or 0 on platforms without one.
func (w *Window) Display() uintptr { return nativeDisplay() }

// Close destroys the window and terminates GLFW.
func (w *Window) Close() {
	w.w.Destroy()
	glfw.Terminate()
}
