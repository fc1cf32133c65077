// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build (linux && !wayland) || (freebsd && !wayland) || (netbsd && !wayland) || (openbsd && !wayland)

package glfw

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func nativeHandle(w *glfw.Window) uintptr {
	return uintptr(w.GetX11Window())
}

func nativeDisplay() uintptr {
	return uintptr(unsafe.Pointer(glfw.GetX11Display()))
}
