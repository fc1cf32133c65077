// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !windows && !darwin && !linux && !freebsd && !netbsd && !openbsd

package glfw

import "github.com/go-gl/glfw/v3.3/glfw"

func nativeHandle(*glfw.Window) uintptr { return 0 }

func nativeDisplay() uintptr { return 0 }
