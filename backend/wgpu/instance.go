// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/backend"
	"github.com/gogpu/framecore/driver"
)

func init() {
	for name, variant := range map[string]gputypes.Backend{
		backend.BackendDX12:   gputypes.BackendDX12,
		backend.BackendMetal:  gputypes.BackendMetal,
		backend.BackendVulkan: gputypes.BackendVulkan,
		backend.BackendGL:     gputypes.BackendGL,
	} {
		backend.Register(name, func(o backend.Options) (driver.Instance, error) {
			return NewInstance(variant, instanceFlags(o))
		})
	}
	backend.Register(backend.BackendNoop, func(backend.Options) (driver.Instance, error) {
		return NewNoopInstance()
	})
}

// instanceFlags maps backend options to HAL instance flags.
func instanceFlags(o backend.Options) gputypes.InstanceFlags {
	if o.Debug {
		return gputypes.InstanceFlagsDebug | gputypes.InstanceFlagsValidation
	}
	return gputypes.InstanceFlagsNone
}

// Instance wraps a hal.Instance.
type Instance struct {
	hal     hal.Instance
	variant gputypes.Backend
}

// NewInstance creates an instance of the registered HAL backend variant.
// flags selects debug and validation layers.
func NewInstance(variant gputypes.Backend, flags gputypes.InstanceFlags) (*Instance, error) {
	b, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("wgpu: %s: %w", variant, hal.ErrBackendNotFound)
	}
	return newInstance(b, flags)
}

// NewNoopInstance creates an instance of the noop HAL backend. Its single
// adapter is reported as software.
func NewNoopInstance() (*Instance, error) {
	return newInstance(noop.API{}, gputypes.InstanceFlagsNone)
}

func newInstance(b hal.Backend, flags gputypes.InstanceFlags) (*Instance, error) {
	variant := b.Variant()
	inst, err := b.CreateInstance(&hal.InstanceDescriptor{
		Backends: gputypes.Backends(1) << variant,
		Flags:    flags,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s instance: %w", variant, err)
	}
	if flags&gputypes.InstanceFlagsValidation != 0 {
		framecore.Logger().Info("wgpu: debug and validation layers requested", "backend", variant.String())
	}
	framecore.Logger().Debug("wgpu: instance created", "backend", variant.String())
	return &Instance{hal: inst, variant: variant}, nil
}

// Name returns the HAL backend name, or "noop" for the empty backend.
func (i *Instance) Name() string {
	if i.variant == gputypes.BackendEmpty {
		return backend.BackendNoop
	}
	return i.variant.String()
}

// Adapters enumerates the HAL adapters.
func (i *Instance) Adapters() ([]driver.Adapter, error) {
	exposed := i.hal.EnumerateAdapters(nil)
	out := make([]driver.Adapter, len(exposed))
	for k := range exposed {
		out[k] = &Adapter{exposed: exposed[k]}
	}
	return out, nil
}

// CreateSwapChain creates a ring of desc.BufferCount textures. With a window
// handle in desc, it also creates and configures a surface for the window
// and Present shows the ring through it.
func (i *Instance) CreateSwapChain(dev driver.Device, q driver.Queue, desc *driver.SwapChainDesc) (driver.SwapChain, error) {
	d, ok := dev.(*Device)
	if !ok {
		return nil, fmt.Errorf("wgpu: foreign device %T", dev)
	}
	if _, ok := q.(*Queue); !ok {
		return nil, fmt.Errorf("wgpu: foreign queue %T", q)
	}
	sc, err := newSwapChain(d, desc)
	if err != nil {
		return nil, err
	}
	if desc.Window == 0 {
		return sc, nil
	}

	surface, err := i.hal.CreateSurface(desc.Display, desc.Window)
	if err != nil {
		sc.Destroy()
		return nil, d.check("create surface", err)
	}
	if err := sc.attach(surface); err != nil {
		sc.Destroy()
		return nil, err
	}
	framecore.Logger().Debug("wgpu: window surface configured", "width", desc.Width, "height", desc.Height)
	return sc, nil
}

// Destroy releases the HAL instance.
func (i *Instance) Destroy() { i.hal.Destroy() }

// Adapter wraps a hal.ExposedAdapter.
type Adapter struct {
	exposed hal.ExposedAdapter
}

// Info reports the adapter name. Adapters that are neither discrete nor
// integrated GPUs count as software.
func (a *Adapter) Info() driver.AdapterInfo {
	t := a.exposed.Info.DeviceType
	return driver.AdapterInfo{
		Name:     a.exposed.Info.Name,
		Software: t != gputypes.DeviceTypeDiscreteGPU && t != gputypes.DeviceTypeIntegratedGPU,
	}
}

// Open opens the HAL device with default limits.
func (a *Adapter) Open() (driver.Device, driver.Queue, error) {
	od, err := a.exposed.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return nil, nil, fmt.Errorf("wgpu: open %s: %w", a.exposed.Info.Name, err)
	}
	d, q := NewDevice(od.Device, od.Queue)
	return d, q, nil
}

type halDeviceProvider interface {
	HalDevice() any
}

type halQueueProvider interface {
	HalQueue() any
}

// FromProvider wraps the HAL device and queue of a host application's
// gpucontext.DeviceProvider. The provider keeps ownership: the returned
// Device's Destroy does not destroy the HAL device.
func FromProvider(p gpucontext.DeviceProvider) (*Device, *Queue, driver.AdapterInfo, error) {
	dp, ok := p.Device().(halDeviceProvider)
	if !ok {
		return nil, nil, driver.AdapterInfo{}, fmt.Errorf("wgpu: device %T does not expose a HAL device", p.Device())
	}
	qp, ok := p.Queue().(halQueueProvider)
	if !ok {
		return nil, nil, driver.AdapterInfo{}, fmt.Errorf("wgpu: queue %T does not expose a HAL queue", p.Queue())
	}
	hd, ok := dp.HalDevice().(hal.Device)
	if !ok {
		return nil, nil, driver.AdapterInfo{}, fmt.Errorf("wgpu: HalDevice returned %T", dp.HalDevice())
	}
	hq, ok := qp.HalQueue().(hal.Queue)
	if !ok {
		return nil, nil, driver.AdapterInfo{}, fmt.Errorf("wgpu: HalQueue returned %T", qp.HalQueue())
	}

	d, q := NewDevice(hd, hq)
	d.borrowed = true
	ai := p.AdapterInfo()
	info := driver.AdapterInfo{Name: ai.Name, Software: ai.Type == gpucontext.AdapterTypeSoftware}
	return d, q, info, nil
}

var (
	_ driver.Instance         = (*Instance)(nil)
	_ driver.Adapter          = (*Adapter)(nil)
	_ driver.Device           = (*Device)(nil)
	_ driver.Queue            = (*Queue)(nil)
	_ driver.Fence            = (*Fence)(nil)
	_ driver.SwapChain        = (*SwapChain)(nil)
	_ driver.Image            = (*Image)(nil)
	_ driver.DescriptorHeap   = (*DescriptorHeap)(nil)
	_ driver.CommandAllocator = (*CommandAllocator)(nil)
	_ driver.CommandList      = (*CommandList)(nil)
)
