// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/driver"
)

// SwapChain is a ring of render attachment textures presented in round-robin
// order. Without a window the ring is offscreen. With one, Present copies the
// current image into a texture acquired from the window surface and presents
// that.
type SwapChain struct {
	dev    *Device
	images []*Image

	surface    hal.Surface
	configured bool
	config     hal.SurfaceConfiguration
	copier     *CommandAllocator

	current  int
	presents uint64
}

func newSwapChain(d *Device, desc *driver.SwapChainDesc) (*SwapChain, error) {
	if desc.BufferCount < 2 || desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("wgpu: invalid swap chain %dx%d with %d buffers", desc.Width, desc.Height, desc.BufferCount)
	}
	sc := &SwapChain{dev: d, images: make([]*Image, 0, desc.BufferCount)}
	for i := 0; i < desc.BufferCount; i++ {
		label := fmt.Sprintf("back%d", i)
		tex, err := d.hal.CreateTexture(&hal.TextureDescriptor{
			Label:         label,
			Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        desc.Format,
			Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
		})
		if err != nil {
			sc.Destroy()
			return nil, d.check("create texture", err)
		}
		sc.images = append(sc.images, &Image{
			tex:    tex,
			label:  label,
			width:  desc.Width,
			height: desc.Height,
			format: desc.Format,
		})
	}
	return sc, nil
}

// attach configures surface for presenting the ring. The surface is owned
// by s from then on, even on error.
func (s *SwapChain) attach(surface hal.Surface) error {
	s.surface = surface
	enc, err := s.dev.hal.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "present"})
	if err != nil {
		return s.dev.check("create command encoder", err)
	}
	s.copier = &CommandAllocator{dev: s.dev, enc: enc}

	img := s.images[0]
	s.config = hal.SurfaceConfiguration{
		Width:       img.width,
		Height:      img.height,
		Format:      img.format,
		Usage:       gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopyDst,
		PresentMode: gputypes.PresentModeFifo,
		AlphaMode:   gputypes.CompositeAlphaModeOpaque,
	}
	if err := surface.Configure(s.dev.hal, &s.config); err != nil {
		return s.dev.check("configure surface", err)
	}
	s.configured = true
	return nil
}

func presentMode(syncInterval uint32) gputypes.PresentMode {
	if syncInterval == 0 {
		return gputypes.PresentModeImmediate
	}
	return gputypes.PresentModeFifo
}

// BufferCount returns the number of images.
func (s *SwapChain) BufferCount() int { return len(s.images) }

// Buffer returns image i.
func (s *SwapChain) Buffer(i int) (driver.Image, error) {
	if i < 0 || i >= len(s.images) {
		return nil, fmt.Errorf("wgpu: buffer %d out of range [0,%d)", i, len(s.images))
	}
	return s.images[i], nil
}

// CurrentBackBufferIndex returns the index of the image to render into.
func (s *SwapChain) CurrentBackBufferIndex() int { return s.current }

// Present hands the current image back and advances the ring. With a window
// the image is shown with vsync (FIFO) for syncInterval 1 and immediately
// for 0; the surface is reconfigured when the interval changes. A lost or
// outdated surface yields framecore.ErrSurfaceLost and the ring does not
// advance.
func (s *SwapChain) Present(syncInterval uint32) error {
	if err := s.dev.Err(); err != nil {
		return err
	}
	if syncInterval > 1 {
		return fmt.Errorf("wgpu: sync interval %d not supported", syncInterval)
	}
	if s.surface != nil {
		if err := s.present(syncInterval); err != nil {
			return err
		}
	}
	s.presents++
	s.current = (s.current + 1) % len(s.images)
	return nil
}

func (s *SwapChain) present(syncInterval uint32) error {
	if mode := presentMode(syncInterval); mode != s.config.PresentMode {
		config := s.config
		config.PresentMode = mode
		if err := s.surface.Configure(s.dev.hal, &config); err != nil {
			return s.dev.check("configure surface", err)
		}
		s.config = config
		framecore.Logger().Debug("wgpu: surface reconfigured", "sync_interval", syncInterval)
	}
	s.copier.retire()

	acquired, err := s.surface.AcquireTexture(nil)
	if err != nil {
		return s.dev.check("acquire surface texture", err)
	}
	if acquired.Suboptimal {
		framecore.Logger().Debug("wgpu: surface texture suboptimal")
	}
	if err := s.copy(acquired.Texture); err != nil {
		s.surface.DiscardTexture(acquired.Texture)
		return err
	}
	return s.dev.check("present", s.dev.queue.hal.Present(s.surface, acquired.Texture, nil))
}

// copy submits a copy of the current image into dst. The image is in the
// present state, which maps to a copy source.
func (s *SwapChain) copy(dst hal.SurfaceTexture) error {
	img := s.images[s.current]
	enc := s.copier.enc
	if err := enc.BeginEncoding("present"); err != nil {
		return s.dev.check("begin encoding", err)
	}
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: dst,
		Range: hal.TextureRange{
			Aspect:          gputypes.TextureAspectAll,
			MipLevelCount:   1,
			ArrayLayerCount: 1,
		},
		Usage: hal.TextureUsageTransition{NewUsage: gputypes.TextureUsageCopyDst},
	}})
	enc.CopyTextureToTexture(img.tex, dst, []hal.TextureCopy{{
		SrcBase: hal.ImageCopyTexture{Texture: img.tex, Aspect: gputypes.TextureAspectAll},
		DstBase: hal.ImageCopyTexture{Texture: dst, Aspect: gputypes.TextureAspectAll},
		Size:    hal.Extent3D{Width: img.width, Height: img.height, DepthOrArrayLayers: 1},
	}})
	cb, err := enc.EndEncoding()
	if err != nil {
		return s.dev.check("end encoding", err)
	}
	return s.dev.queue.submit(s.copier, cb)
}

// Presents returns the number of successful presents.
func (s *SwapChain) Presents() uint64 { return s.presents }

// Image returns image i, or nil.
func (s *SwapChain) Image(i int) *Image {
	if i < 0 || i >= len(s.images) {
		return nil
	}
	return s.images[i]
}

// Windowed reports whether the swap chain presents to a window surface.
func (s *SwapChain) Windowed() bool { return s.surface != nil }

// Destroy releases the window surface and destroys the ring textures.
func (s *SwapChain) Destroy() {
	if s.surface != nil {
		if !s.dev.lost.Load() {
			if err := s.dev.hal.WaitIdle(); err != nil {
				framecore.Logger().Warn("wgpu: wait idle", "err", err)
			}
		}
		if s.configured {
			s.surface.Unconfigure(s.dev.hal)
		}
		s.surface.Destroy()
		s.surface = nil
	}
	if s.copier != nil {
		s.copier.mu.Lock()
		for _, b := range s.copier.buffers {
			s.dev.hal.FreeCommandBuffer(b.cb)
		}
		s.copier.buffers = nil
		s.copier.mu.Unlock()
		s.copier.enc.Destroy()
		s.copier = nil
	}
	for _, img := range s.images {
		s.dev.hal.DestroyTexture(img.tex)
	}
	s.images = nil
}

// Image is one texture of the ring.
type Image struct {
	tex    hal.Texture
	label  string
	width  uint32
	height uint32
	format gputypes.TextureFormat
}

// Label returns "back<i>".
func (i *Image) Label() string { return i.label }

// Width returns the texture width.
func (i *Image) Width() uint32 { return i.width }

// Height returns the texture height.
func (i *Image) Height() uint32 { return i.height }

// Format returns the texture format.
func (i *Image) Format() gputypes.TextureFormat { return i.format }

// Texture returns the HAL texture.
func (i *Image) Texture() hal.Texture { return i.tex }
