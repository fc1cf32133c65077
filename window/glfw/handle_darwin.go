// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package glfw

import "github.com/go-gl/glfw/v3.3/glfw"

// GLFW exposes the NSWindow, but Metal surfaces are created from a
// CAMetalLayer, which GLFW does not provide.
func nativeHandle(*glfw.Window) uintptr { return 0 }

func nativeDisplay() uintptr { return 0 }
