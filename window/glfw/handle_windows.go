// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package glfw

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func nativeHandle(w *glfw.Window) uintptr {
	return uintptr(unsafe.Pointer(w.GetWin32Window()))
}

func nativeDisplay() uintptr { return 0 }
