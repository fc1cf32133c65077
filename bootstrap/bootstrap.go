// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package bootstrap performs the one-time GPU setup the frame loop runs on:
// adapter selection, device and queue creation, and swap chain creation.
//
// Everything it creates is owned by an explicit Context; nothing is kept in
// package-level state.
package bootstrap

import (
	"fmt"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/driver"
)

// Context owns the GPU objects shared by the frame loop components.
type Context struct {
	Instance  driver.Instance
	Adapter   driver.Adapter
	Device    driver.Device
	Queue     driver.Queue
	SwapChain driver.SwapChain

	// Config is the validated configuration the context was created with.
	Config framecore.Config
}

// SelectAdapter returns the first hardware adapter. Software adapters are
// only eligible when allowSoftware is set, and then only if no hardware
// adapter exists. No adapter is opened.
func SelectAdapter(adapters []driver.Adapter, allowSoftware bool) (driver.Adapter, error) {
	var fallback driver.Adapter
	for _, a := range adapters {
		info := a.Info()
		if !info.Software {
			return a, nil
		}
		framecore.Logger().Debug("bootstrap: skipping software adapter", "name", info.Name)
		if fallback == nil {
			fallback = a
		}
	}
	if allowSoftware && fallback != nil {
		framecore.Logger().Warn("bootstrap: no hardware adapter, using software adapter", "name", fallback.Info().Name)
		return fallback, nil
	}
	return nil, framecore.E("bootstrap.adapter", framecore.KindFatal,
		fmt.Errorf("%w: %d adapters enumerated", framecore.ErrNoAdapter, len(adapters)))
}

type options struct {
	window  uintptr
	display uintptr
}

// Option configures New.
type Option func(*options)

// WithWindow presents into the native window h instead of a headless ring.
func WithWindow(h uintptr) Option {
	return func(o *options) {
		o.window = h
	}
}

// WithDisplay sets the native display connection of the window, on
// platforms where a window handle alone does not identify it.
func WithDisplay(d uintptr) Option {
	return func(o *options) {
		o.display = d
	}
}

// New validates cfg, selects an adapter of inst, opens its device and queue,
// and creates the swap chain. Every failure is a KindFatal error and releases
// what was already created; inst itself is only released by Context.Close.
func New(inst driver.Instance, cfg framecore.Config, opts ...Option) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, framecore.E("bootstrap.config", framecore.KindFatal, err)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	adapters, err := inst.Adapters()
	if err != nil {
		return nil, framecore.E("bootstrap.adapter", framecore.KindFatal, fmt.Errorf("enumerate: %w", err))
	}
	adapter, err := SelectAdapter(adapters, cfg.AllowSoftwareAdapter)
	if err != nil {
		return nil, err
	}
	framecore.Logger().Info("bootstrap: adapter selected", "backend", inst.Name(), "name", adapter.Info().Name)

	dev, q, err := adapter.Open()
	if err != nil {
		return nil, framecore.E("bootstrap.device", framecore.KindFatal, fmt.Errorf("open %q: %w", adapter.Info().Name, err))
	}

	sc, err := inst.CreateSwapChain(dev, q, &driver.SwapChainDesc{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      cfg.Format,
		BufferCount: cfg.BufferCount,
		Window:      o.window,
		Display:     o.display,
	})
	if err != nil {
		dev.Destroy()
		return nil, framecore.E("bootstrap.swapchain", framecore.KindFatal, err)
	}
	framecore.Logger().Info("bootstrap: swap chain created",
		"width", cfg.Width, "height", cfg.Height, "format", framecore.FormatName(cfg.Format), "buffers", cfg.BufferCount)

	return &Context{
		Instance:  inst,
		Adapter:   adapter,
		Device:    dev,
		Queue:     q,
		SwapChain: sc,
		Config:    cfg,
	}, nil
}

// Close releases the swap chain, the device and the instance, in that order.
// The GPU must be idle.
func (c *Context) Close() {
	if c.SwapChain != nil {
		c.SwapChain.Destroy()
		c.SwapChain = nil
	}
	if c.Device != nil {
		c.Device.Destroy()
		c.Device = nil
	}
	if c.Instance != nil {
		c.Instance.Destroy()
		c.Instance = nil
	}
}
