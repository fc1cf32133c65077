// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package framecore provides the steady-state frame presentation core of a
// GPU renderer.
//
// # Overview
//
// framecore owns the N-buffered presentation surface, the command
// recording/submission pipeline and the CPU/GPU timeline fence that keeps the
// CPU from reusing resources the GPU may still be reading. Window creation,
// adapter enumeration and device construction are collaborators: the core
// receives an already initialized device, queue and swap chain.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/framecore"
//		"github.com/gogpu/framecore/backend/sim"
//		"github.com/gogpu/framecore/bootstrap"
//		"github.com/gogpu/framecore/frame"
//		"github.com/gogpu/framecore/window"
//	)
//
//	cfg := framecore.DefaultConfig()
//	ctx, err := bootstrap.New(sim.NewInstance(), cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	loop, err := frame.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer loop.Close()
//	defer ctx.Close()
//	err = loop.Run(context.Background(), window.NewHeadless(3))
//
// # Architecture
//
// The module is organized into:
//   - driver: backend-neutral GPU interfaces (device, queue, swap chain, fence)
//   - surface: the ring of presentable images
//   - rtv: the render target view table (one descriptor per image)
//   - recorder: the reusable allocator + command list pair
//   - fence: the monotonically increasing GPU timeline
//   - frame: the per-frame loop orchestrating all of the above
//   - bootstrap: adapter selection and the context owning every GPU handle
//   - backend/sim, backend/wgpu: driver implementations
//
// # Errors
//
// Every failure is reported as an [*Error] carrying a [Kind]. Initialization
// failures and device loss are fatal; synchronization failures halt the frame
// loop; usage errors flag programmer mistakes such as recording into a closed
// command list.
//
// # Logging
//
// framecore is silent by default. Call [SetLogger] to route diagnostics to a
// [log/slog] logger.
package framecore
