// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"testing"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/driver"
)

type fakeAdapter struct{ software bool }

func (a fakeAdapter) Info() driver.AdapterInfo {
	return driver.AdapterInfo{Name: "fake", Software: a.software}
}

func (a fakeAdapter) Open() (driver.Device, driver.Queue, error) { return nil, nil, nil }

type fakeInstance struct {
	name      string
	adapters  []driver.Adapter
	destroyed *bool
}

func (f *fakeInstance) Name() string                       { return f.name }
func (f *fakeInstance) Adapters() ([]driver.Adapter, error) { return f.adapters, nil }

func (f *fakeInstance) Destroy() {
	if f.destroyed != nil {
		*f.destroyed = true
	}
}

func (f *fakeInstance) CreateSwapChain(driver.Device, driver.Queue, *driver.SwapChainDesc) (driver.SwapChain, error) {
	return nil, nil
}

func fake(name string) Factory {
	return func(Options) (driver.Instance, error) {
		return &fakeInstance{name: name, adapters: []driver.Adapter{fakeAdapter{}}}, nil
	}
}

// softwareOnly creates instances whose single adapter is software.
func softwareOnly(name string, destroyed *bool) Factory {
	return func(Options) (driver.Instance, error) {
		return &fakeInstance{name: name, adapters: []driver.Adapter{fakeAdapter{software: true}}, destroyed: destroyed}, nil
	}
}

func failing(err error) Factory {
	return func(Options) (driver.Instance, error) { return nil, err }
}

// isolate swaps the registry for the duration of a test.
func isolate(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := factories
	factories = make(map[string]Factory)
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		factories = saved
		registryMu.Unlock()
	})
}

func TestRegistryRegisterAndGet(t *testing.T) {
	isolate(t)
	Register("test", fake("test"))

	inst, err := Get("test")
	if err != nil {
		t.Fatalf("Get(test) error = %v", err)
	}
	if inst.Name() != "test" {
		t.Errorf("Get(test).Name() = %q, want %q", inst.Name(), "test")
	}
}

func TestRegistryGetUnregistered(t *testing.T) {
	isolate(t)
	_, err := Get("nonexistent")
	if !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Get(nonexistent) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestRegistryGetFactoryError(t *testing.T) {
	isolate(t)
	cause := errors.New("no vulkan loader")
	Register(BackendVulkan, failing(cause))

	_, err := Get(BackendVulkan)
	if !errors.Is(err, ErrBackendNotAvailable) || !errors.Is(err, cause) {
		t.Errorf("Get(vulkan) error = %v, want both sentinel and cause", err)
	}
}

func TestRegistryAvailableSorted(t *testing.T) {
	isolate(t)
	Register(BackendVulkan, fake(BackendVulkan))
	Register(BackendSim, fake(BackendSim))
	Register(BackendGL, fake(BackendGL))

	got := Available()
	want := []string{BackendGL, BackendSim, BackendVulkan}
	if len(got) != len(want) {
		t.Fatalf("Available() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Available()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistryGetOptions(t *testing.T) {
	isolate(t)
	var got Options
	Register("test", func(o Options) (driver.Instance, error) {
		got = o
		return &fakeInstance{name: "test"}, nil
	})

	if _, err := Get("test", WithDebug(true)); err != nil {
		t.Fatalf("Get(test) error = %v", err)
	}
	if !got.Debug || got.AllowSoftware {
		t.Errorf("factory options = %+v, want Debug only", got)
	}
}

func TestRegistryDefault(t *testing.T) {
	tests := []struct {
		name     string
		register map[string]Factory
		opts     []Option
		want     string
		wantErr  bool
	}{
		{
			name:     "priority",
			register: map[string]Factory{BackendSim: fake(BackendSim), BackendVulkan: fake(BackendVulkan)},
			want:     BackendVulkan,
		},
		{
			name:     "skips failing",
			register: map[string]Factory{BackendVulkan: failing(errors.New("x")), BackendSim: fake(BackendSim)},
			want:     BackendSim,
		},
		{
			name:     "skips software only",
			register: map[string]Factory{BackendVulkan: softwareOnly(BackendVulkan, nil), BackendSim: fake(BackendSim)},
			want:     BackendSim,
		},
		{
			name:     "software allowed",
			register: map[string]Factory{BackendVulkan: softwareOnly(BackendVulkan, nil), BackendSim: fake(BackendSim)},
			opts:     []Option{WithSoftwareAdapters(true)},
			want:     BackendVulkan,
		},
		{
			name:     "no adapters",
			register: map[string]Factory{BackendGL: fake(BackendGL), BackendVulkan: func(Options) (driver.Instance, error) { return &fakeInstance{name: BackendVulkan}, nil }},
			opts:     []Option{WithSoftwareAdapters(true)},
			want:     BackendGL,
		},
		{
			name:     "unlisted backend",
			register: map[string]Factory{"custom": fake("custom")},
			want:     "custom",
		},
		{
			name:     "all failing",
			register: map[string]Factory{BackendGL: failing(errors.New("x"))},
			wantErr:  true,
		},
		{
			name:    "empty",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for name, f := range tt.register {
				Register(name, f)
			}
			inst, err := Default(tt.opts...)
			if tt.wantErr {
				if !errors.Is(err, ErrBackendNotAvailable) {
					t.Errorf("Default() error = %v, want ErrBackendNotAvailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Default() error = %v", err)
			}
			if inst.Name() != tt.want {
				t.Errorf("Default().Name() = %q, want %q", inst.Name(), tt.want)
			}
		})
	}
}

func TestRegistryDefaultReleasesSkipped(t *testing.T) {
	isolate(t)
	var destroyed bool
	Register(BackendVulkan, softwareOnly(BackendVulkan, &destroyed))

	_, err := Default()
	if !errors.Is(err, ErrBackendNotAvailable) || !errors.Is(err, framecore.ErrNoAdapter) {
		t.Errorf("Default() error = %v, want ErrBackendNotAvailable and ErrNoAdapter", err)
	}
	if !destroyed {
		t.Error("skipped instance was not destroyed")
	}
}

func TestRegistryUnregister(t *testing.T) {
	isolate(t)
	Register("test-backend", fake("test-backend"))

	if !IsRegistered("test-backend") {
		t.Error("test-backend should be registered")
	}

	Unregister("test-backend")

	if IsRegistered("test-backend") {
		t.Error("test-backend should be unregistered")
	}
}
