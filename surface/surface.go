// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides the presentation surface: the fixed ring of N
// presentable images and the query for the one currently safe to render into.
package surface

import (
	"fmt"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/driver"
)

// Surface wraps a swap chain whose images were fetched once at creation.
//
// The back buffer index is chosen by the presentation backend. Callers must
// re-query CurrentIndex after every Present; the ring is not guaranteed to
// advance round-robin.
type Surface struct {
	sc       driver.SwapChain
	images   []driver.Image
	presents uint64
}

// New fetches every image 0..count of sc. count must be at least 2 and match
// the swap chain's buffer count.
func New(sc driver.SwapChain, count int) (*Surface, error) {
	if count < 2 {
		return nil, framecore.E("surface.create", framecore.KindFatal,
			fmt.Errorf("%w: buffer count %d", framecore.ErrInvalidConfig, count))
	}
	if n := sc.BufferCount(); n != count {
		return nil, framecore.E("surface.create", framecore.KindFatal,
			fmt.Errorf("%w: swap chain has %d buffers, want %d", framecore.ErrInvalidConfig, n, count))
	}

	images := make([]driver.Image, count)
	for i := range images {
		img, err := sc.Buffer(i)
		if err != nil {
			return nil, framecore.Classify("surface.create", framecore.KindFatal, fmt.Errorf("buffer %d: %w", i, err))
		}
		images[i] = img
	}
	return &Surface{sc: sc, images: images}, nil
}

// CurrentIndex returns the index of the image to render into. It does not
// block and returns the same value until the next Present.
func (s *Surface) CurrentIndex() int {
	return s.sc.CurrentBackBufferIndex()
}

// Present submits the current back buffer for display. syncInterval 0
// presents immediately and 1 paces presentation to the display refresh.
//
// Device or surface loss is returned as a KindDeviceLost error.
func (s *Surface) Present(syncInterval uint32) error {
	if err := s.sc.Present(syncInterval); err != nil {
		return framecore.Classify("surface.present", framecore.KindDeviceLost, err)
	}
	s.presents++
	return nil
}

// Image returns image i of the ring.
func (s *Surface) Image(i int) driver.Image { return s.images[i] }

// Len returns the number of images in the ring.
func (s *Surface) Len() int { return len(s.images) }

// Presents returns the number of successful presents.
func (s *Surface) Presents() uint64 { return s.presents }

// SwapChain returns the underlying swap chain.
func (s *Surface) SwapChain() driver.SwapChain { return s.sc }
