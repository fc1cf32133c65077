// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package rtv builds the render target view table: one precomputed descriptor
// handle per presentation surface image.
package rtv

import (
	"fmt"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/driver"
	"github.com/gogpu/framecore/surface"
)

// Table maps surface image indices to render target descriptors.
// It is immutable after Build.
type Table struct {
	heap    driver.DescriptorHeap
	handles []driver.DescriptorHandle
	images  []driver.Image
}

// Build creates a descriptor heap with one slot per image of s and writes a
// render target view for every image 0..N into slot i at base + i*stride.
func Build(dev driver.Device, s *surface.Surface) (*Table, error) {
	n := s.Len()
	heap, err := dev.CreateDescriptorHeap(n)
	if err != nil {
		return nil, framecore.Classify("rtv.build", framecore.KindFatal, fmt.Errorf("create heap: %w", err))
	}
	base := heap.CPUStart()
	stride := dev.DescriptorIncrement()

	t := &Table{
		heap:    heap,
		handles: make([]driver.DescriptorHandle, n),
		images:  make([]driver.Image, n),
	}
	for i := 0; i < n; i++ {
		img := s.Image(i)
		h := driver.Offset(base, i, stride)
		if err := dev.CreateRenderTargetView(img, h); err != nil {
			return nil, framecore.Classify("rtv.build", framecore.KindFatal, fmt.Errorf("view %d: %w", i, err))
		}
		t.handles[i] = h
		t.images[i] = img
	}
	framecore.Logger().Debug("rtv: table built", "images", n, "base", uint64(base), "stride", stride)
	return t, nil
}

// HandleFor returns the descriptor bound to image i.
// It panics if i is out of range.
func (t *Table) HandleFor(i int) driver.DescriptorHandle { return t.handles[i] }

// Image returns the image bound at slot i.
func (t *Table) Image(i int) driver.Image { return t.images[i] }

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.handles) }

// Heap returns the backing descriptor heap.
func (t *Table) Heap() driver.DescriptorHeap { return t.heap }
