// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import "fmt"

// ResourceState is the usage state of an image.
type ResourceState int

// Image states.
const (
	// StatePresent is the state of an image owned by the presentation
	// engine: displayed, or queued for display.
	StatePresent ResourceState = iota

	// StateRenderTarget is the state of an image being drawn or cleared.
	StateRenderTarget
)

// String returns the state name.
func (s ResourceState) String() string {
	switch s {
	case StatePresent:
		return "present"
	case StateRenderTarget:
		return "render_target"
	default:
		return fmt.Sprintf("ResourceState(%d)", int(s))
	}
}

// Barrier declares that Image moves from Before to After.
// The barrier covers every subresource of the image.
type Barrier struct {
	Image  Image
	Before ResourceState
	After  ResourceState
}

// String returns a compact description, e.g. "back0 present->render_target".
func (b Barrier) String() string {
	label := "<nil>"
	if b.Image != nil {
		label = b.Image.Label()
	}
	return fmt.Sprintf("%s %s->%s", label, b.Before, b.After)
}

// Transition returns the barrier moving img from before to after.
func Transition(img Image, before, after ResourceState) Barrier {
	return Barrier{Image: img, Before: before, After: after}
}

// Offset returns the handle of slot index in a heap starting at base whose
// slots are stride bytes apart.
func Offset(base DescriptorHandle, index int, stride uint64) DescriptorHandle {
	return DescriptorHandle(uint64(base) + uint64(index)*stride) //nolint:gosec // index is a non-negative slot number
}
