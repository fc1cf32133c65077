// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/driver"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// Native GPU APIs first, the simulator last.
	backendPriority = []string{BackendDX12, BackendMetal, BackendVulkan, BackendGL, BackendSim}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the sorted names of registered backends.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get creates the backend registered under name.
func Get(name string, opts ...Option) (driver.Instance, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	inst, err := factory(buildOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrBackendNotAvailable, name, err)
	}
	return inst, nil
}

// Default creates the best available backend based on priority. A backend
// is skipped when its factory fails or when it enumerates no hardware
// adapter; software adapters count only with WithSoftwareAdapters. Backends
// outside the priority list are tried last, in name order.
func Default(opts ...Option) (driver.Instance, error) {
	o := buildOptions(opts)
	var errs []error
	tried := make(map[string]bool)
	for _, name := range append(append([]string(nil), backendPriority...), Available()...) {
		if tried[name] || !IsRegistered(name) {
			continue
		}
		tried[name] = true
		inst, err := Get(name, opts...)
		if err == nil {
			if err = usable(inst, o.AllowSoftware); err == nil {
				framecore.Logger().Debug("backend: selected", "name", name)
				return inst, nil
			}
			inst.Destroy()
			err = fmt.Errorf("%w: %q: %w", ErrBackendNotAvailable, name, err)
		}
		framecore.Logger().Debug("backend: unavailable", "name", name, "err", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotAvailable
	}
	return nil, errors.Join(errs...)
}

// usable reports an error unless inst has a hardware adapter, or any adapter
// when allowSoftware is set.
func usable(inst driver.Instance, allowSoftware bool) error {
	adapters, err := inst.Adapters()
	if err != nil {
		return fmt.Errorf("enumerate adapters: %w", err)
	}
	for _, a := range adapters {
		if !a.Info().Software {
			return nil
		}
	}
	if allowSoftware && len(adapters) > 0 {
		return nil
	}
	return fmt.Errorf("%w: %d software adapters", framecore.ErrNoAdapter, len(adapters))
}
