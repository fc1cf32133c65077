// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/backend/sim"
	"github.com/gogpu/framecore/driver"
)

func testConfig() framecore.Config {
	return framecore.DefaultConfig(framecore.WithSize(16, 8))
}

func TestSelectAdapter(t *testing.T) {
	hw := driver.AdapterInfo{Name: "hw"}
	sw := driver.AdapterInfo{Name: "sw", Software: true}

	tests := []struct {
		name          string
		infos         []driver.AdapterInfo
		allowSoftware bool
		want          string
		wantErr       bool
	}{
		{"hardware only", []driver.AdapterInfo{hw}, false, "hw", false},
		{"software first", []driver.AdapterInfo{sw, hw}, false, "hw", false},
		{"software only", []driver.AdapterInfo{sw}, false, "", true},
		{"software only allowed", []driver.AdapterInfo{sw}, true, "sw", false},
		{"hardware preferred when software allowed", []driver.AdapterInfo{sw, hw}, true, "hw", false},
		{"none", nil, true, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := sim.NewInstance(sim.WithAdapters(tt.infos...))
			adapters, err := inst.Adapters()
			require.NoError(t, err)

			got, err := SelectAdapter(adapters, tt.allowSoftware)
			if tt.wantErr {
				require.ErrorIs(t, err, framecore.ErrNoAdapter)
				assert.Equal(t, framecore.KindFatal, framecore.KindOf(err))
				assert.True(t, framecore.IsFatal(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Info().Name)
			assert.Zero(t, inst.Opens(), "SelectAdapter must not open a device")
		})
	}
}

func TestNewSoftwareOnlyIsFatalWithoutDevice(t *testing.T) {
	inst := sim.NewInstance(sim.WithAdapters(
		driver.AdapterInfo{Name: "WARP", Software: true},
		driver.AdapterInfo{Name: "llvmpipe", Software: true},
	))

	ctx, err := New(inst, testConfig())
	require.Error(t, err)
	assert.Nil(t, ctx)
	assert.ErrorIs(t, err, framecore.ErrNoAdapter)
	assert.Equal(t, framecore.KindFatal, framecore.KindOf(err))
	assert.Zero(t, inst.Opens(), "device creation attempted after adapter selection failed")
}

func TestNew(t *testing.T) {
	tr := &sim.Trace{}
	inst := sim.NewInstance(sim.WithTrace(tr))
	cfg := testConfig()
	cfg.BufferCount = 3

	c, err := New(inst, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, inst.Opens())
	assert.Equal(t, 3, c.SwapChain.BufferCount())
	assert.Equal(t, "sim GPU", c.Adapter.Info().Name)
	assert.Equal(t, cfg, c.Config)

	img, err := c.SwapChain.Buffer(0)
	require.NoError(t, err)
	assert.Equal(t, cfg.Width, img.Width())
	assert.Equal(t, cfg.Format, img.Format())

	c.Close()
	assert.Nil(t, c.Device)
	assert.Equal(t, []string{"swapchain.destroy", "device.destroy", "instance.destroy"},
		tr.Events()[len(tr.Events())-3:])

	// Close is idempotent.
	c.Close()
}

func TestNewFailures(t *testing.T) {
	tests := []struct {
		name    string
		inst    *sim.Instance
		cfg     framecore.Config
		wantErr error
		opens   int
	}{
		{
			name:    "invalid config",
			inst:    sim.NewInstance(),
			cfg:     framecore.DefaultConfig(framecore.WithBufferCount(1)),
			wantErr: framecore.ErrInvalidConfig,
		},
		{
			name:    "device creation",
			inst:    sim.NewInstance(sim.WithOpenError(sim.ErrInjected)),
			cfg:     testConfig(),
			wantErr: sim.ErrInjected,
		},
		{
			name:    "swap chain creation",
			inst:    sim.NewInstance(sim.WithSwapChainError(sim.ErrInjected)),
			cfg:     testConfig(),
			wantErr: sim.ErrInjected,
			opens:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.inst, tt.cfg)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, c)
			assert.Equal(t, framecore.KindFatal, framecore.KindOf(err))
			assert.Equal(t, tt.opens, tt.inst.Opens())
		})
	}
}

func TestWithWindow(t *testing.T) {
	var got driver.SwapChainDesc
	inst := &descCapture{Instance: sim.NewInstance(), desc: &got}
	c, err := New(inst, testConfig(), WithWindow(0xbeef), WithDisplay(0xd15))
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, uintptr(0xbeef), got.Window)
	assert.Equal(t, uintptr(0xd15), got.Display)
	assert.Equal(t, 2, got.BufferCount)
}

type descCapture struct {
	*sim.Instance
	desc *driver.SwapChainDesc
}

func (d *descCapture) CreateSwapChain(dev driver.Device, q driver.Queue, desc *driver.SwapChainDesc) (driver.SwapChain, error) {
	*d.desc = *desc
	return d.Instance.CreateSwapChain(dev, q, desc)
}
