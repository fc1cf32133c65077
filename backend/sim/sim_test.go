// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/driver"
	"github.com/gogpu/gputypes"
)

type rig struct {
	inst *Instance
	dev  *Device
	q    *Queue
	sc   *SwapChain
	heap driver.DescriptorHeap
}

func newRig(t *testing.T, n int, opts ...Option) *rig {
	t.Helper()
	inst := NewInstance(opts...)
	adapters, err := inst.Adapters()
	if err != nil || len(adapters) == 0 {
		t.Fatalf("Adapters() = %v, %v", adapters, err)
	}
	dev, q, err := adapters[0].Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	sc, err := inst.CreateSwapChain(dev, q, &driver.SwapChainDesc{
		Width: 4, Height: 2, Format: gputypes.TextureFormatBGRA8Unorm, BufferCount: n,
	})
	if err != nil {
		t.Fatalf("CreateSwapChain() error = %v", err)
	}
	heap, err := dev.CreateDescriptorHeap(n)
	if err != nil {
		t.Fatalf("CreateDescriptorHeap() error = %v", err)
	}
	r := &rig{inst: inst, dev: dev.(*Device), q: q.(*Queue), sc: sc.(*SwapChain), heap: heap}
	for i := 0; i < n; i++ {
		if err := dev.CreateRenderTargetView(r.sc.Image(i), r.handle(i)); err != nil {
			t.Fatalf("CreateRenderTargetView(%d) error = %v", i, err)
		}
	}
	t.Cleanup(dev.Destroy)
	return r
}

func (r *rig) handle(i int) driver.DescriptorHandle {
	return driver.Offset(r.heap.CPUStart(), i, r.dev.DescriptorIncrement())
}

// recordClear records the canonical frame for image i.
func (r *rig) recordClear(t *testing.T, alloc driver.CommandAllocator, l driver.CommandList, i int, c gputypes.Color) {
	t.Helper()
	img := r.sc.Image(i)
	if err := l.Reset(alloc); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	l.ResourceBarrier(driver.Transition(img, driver.StatePresent, driver.StateRenderTarget))
	l.SetRenderTarget(r.handle(i))
	l.ClearRenderTarget(r.handle(i), c)
	l.ResourceBarrier(driver.Transition(img, driver.StateRenderTarget, driver.StatePresent))
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func (r *rig) list(t *testing.T) (driver.CommandAllocator, driver.CommandList) {
	t.Helper()
	alloc, err := r.dev.CreateCommandAllocator()
	if err != nil {
		t.Fatal(err)
	}
	l, err := r.dev.CreateCommandList(alloc)
	if err != nil {
		t.Fatal(err)
	}
	return alloc, l
}

func hex(h driver.DescriptorHandle) string { return fmt.Sprintf("%#x", uint64(h)) }

type countingEvent struct{ n atomic.Int32 }

func (e *countingEvent) Set() error {
	e.n.Add(1)
	return nil
}

func TestAdapterOpenCountsDevices(t *testing.T) {
	inst := NewInstance(WithAdapters(
		driver.AdapterInfo{Name: "a"},
		driver.AdapterInfo{Name: "b", Software: true},
	))
	adapters, _ := inst.Adapters()
	if len(adapters) != 2 {
		t.Fatalf("len(Adapters()) = %d, want 2", len(adapters))
	}
	if !adapters[1].Info().Software {
		t.Error("adapter b should be software")
	}
	if inst.Opens() != 0 {
		t.Fatalf("Opens() before Open = %d", inst.Opens())
	}
	dev, _, err := adapters[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Destroy()
	if inst.Opens() != 1 {
		t.Errorf("Opens() = %d, want 1", inst.Opens())
	}
}

func TestOpenError(t *testing.T) {
	inst := NewInstance(WithOpenError(ErrInjected))
	adapters, _ := inst.Adapters()
	if _, _, err := adapters[0].Open(); !errors.Is(err, ErrInjected) {
		t.Errorf("Open() error = %v, want ErrInjected", err)
	}
	if inst.Opens() != 0 {
		t.Errorf("Opens() = %d, want 0", inst.Opens())
	}
}

func TestDescriptorHandlesDistinct(t *testing.T) {
	r := newRig(t, 3)
	seen := map[driver.DescriptorHandle]*Image{}
	for i := 0; i < 3; i++ {
		h := r.handle(i)
		if h == 0 {
			t.Fatalf("handle(%d) = 0", i)
		}
		seen[h] = r.dev.View(h)
	}
	if len(seen) != 3 {
		t.Fatalf("got %d distinct handles, want 3", len(seen))
	}
	for h, img := range seen {
		if img == nil {
			t.Errorf("no view bound at %#x", uint64(h))
		}
	}
}

func TestCreateRenderTargetViewRejectsStrayHandle(t *testing.T) {
	r := newRig(t, 2)
	stray := r.heap.CPUStart() + 1
	if err := r.dev.CreateRenderTargetView(r.sc.Image(0), stray); err == nil {
		t.Error("CreateRenderTargetView() on a misaligned handle succeeded")
	}
}

func TestClearReachesImage(t *testing.T) {
	r := newRig(t, 2)
	alloc, l := r.list(t)
	r.recordClear(t, alloc, l, 0, gputypes.Color{R: 1, G: 0.5, B: 0, A: 1})

	if err := r.q.ExecuteCommandLists(l); err != nil {
		t.Fatalf("ExecuteCommandLists() error = %v", err)
	}
	if err := r.q.Flush(); err != nil {
		t.Fatal(err)
	}

	img := r.sc.Image(0)
	if got := img.State(); got != driver.StatePresent {
		t.Errorf("State() = %v, want present", got)
	}
	if got := img.Clears(); got != 1 {
		t.Errorf("Clears() = %d, want 1", got)
	}
	px := img.Snapshot().RGBAAt(1, 1)
	if px.R != 255 || px.G != 128 || px.B != 0 || px.A != 255 {
		t.Errorf("pixel = %+v, want {255 128 0 255}", px)
	}
	if err := r.dev.Err(); err != nil {
		t.Errorf("device error = %v", err)
	}
}

func TestMismatchedBarrierRemovesDevice(t *testing.T) {
	r := newRig(t, 2)
	alloc, l := r.list(t)
	if err := l.Reset(alloc); err != nil {
		t.Fatal(err)
	}
	// Image 0 starts in the present state.
	l.ResourceBarrier(driver.Transition(r.sc.Image(0), driver.StateRenderTarget, driver.StatePresent))
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	if err := r.q.ExecuteCommandLists(l); err != nil {
		t.Fatal(err)
	}
	_ = r.q.Flush()

	if err := r.dev.Err(); !errors.Is(err, framecore.ErrDeviceLost) {
		t.Fatalf("device error = %v, want ErrDeviceLost", err)
	}
	if err := r.q.ExecuteCommandLists(l); !errors.Is(err, framecore.ErrDeviceLost) {
		t.Errorf("ExecuteCommandLists() after loss = %v, want ErrDeviceLost", err)
	}
}

func TestClearOutsideRenderTargetRemovesDevice(t *testing.T) {
	r := newRig(t, 2)
	alloc, l := r.list(t)
	_ = l.Reset(alloc)
	l.ClearRenderTarget(r.handle(1), gputypes.Color{A: 1})
	_ = l.Close()
	_ = r.q.ExecuteCommandLists(l)
	_ = r.q.Flush()

	if err := r.dev.Err(); !errors.Is(err, framecore.ErrDeviceLost) {
		t.Errorf("device error = %v, want ErrDeviceLost", err)
	}
}

func TestCommandListStateMachine(t *testing.T) {
	r := newRig(t, 2)
	alloc, l := r.list(t)

	// Lists are created closed.
	if err := l.Close(); !errors.Is(err, framecore.ErrListClosed) {
		t.Errorf("Close() on new list = %v, want ErrListClosed", err)
	}
	l.ClearRenderTarget(r.handle(0), gputypes.Color{})
	if err := r.q.ExecuteCommandLists(l); !errors.Is(err, framecore.ErrListClosed) {
		t.Errorf("ExecuteCommandLists() of poisoned list = %v, want ErrListClosed", err)
	}

	if err := l.Reset(alloc); err != nil {
		t.Fatal(err)
	}
	if err := l.Reset(alloc); !errors.Is(err, framecore.ErrListOpen) {
		t.Errorf("second Reset() = %v, want ErrListOpen", err)
	}
	if err := r.q.ExecuteCommandLists(l); !errors.Is(err, framecore.ErrListOpen) {
		t.Errorf("ExecuteCommandLists() of open list = %v, want ErrListOpen", err)
	}
}

func TestAllocatorBusyUntilRetired(t *testing.T) {
	r := newRig(t, 2, WithLatency(30*time.Millisecond))
	alloc, l := r.list(t)
	r.recordClear(t, alloc, l, 0, gputypes.Color{A: 1})
	if err := r.q.ExecuteCommandLists(l); err != nil {
		t.Fatal(err)
	}

	if err := alloc.Reset(); !errors.Is(err, framecore.ErrAllocatorBusy) {
		t.Errorf("Reset() while in flight = %v, want ErrAllocatorBusy", err)
	}
	_ = r.q.Flush()
	if err := alloc.Reset(); err != nil {
		t.Errorf("Reset() after retire = %v, want nil", err)
	}
}

func TestFenceCompletesInQueueOrder(t *testing.T) {
	r := newRig(t, 2, WithLatency(10*time.Millisecond))
	f, err := r.dev.CreateFence(0)
	if err != nil {
		t.Fatal(err)
	}
	ev := &countingEvent{}
	if err := f.SetEventOnCompletion(2, ev); err != nil {
		t.Fatal(err)
	}
	_ = r.q.Signal(f, 1)
	_ = r.q.Signal(f, 2)
	if f.CompletedValue() >= 2 {
		t.Fatal("fence completed before the queue ran")
	}
	_ = r.q.Flush()

	if got := f.CompletedValue(); got != 2 {
		t.Errorf("CompletedValue() = %d, want 2", got)
	}
	if got := ev.n.Load(); got != 1 {
		t.Errorf("event set %d times, want 1", got)
	}
	if w := f.(*Fence).Waiters(); w != 0 {
		t.Errorf("Waiters() = %d, want 0", w)
	}
}

func TestSetEventOnCompletionAlreadyReached(t *testing.T) {
	r := newRig(t, 2)
	f, _ := r.dev.CreateFence(5)
	ev := &countingEvent{}
	if err := f.SetEventOnCompletion(3, ev); err != nil {
		t.Fatal(err)
	}
	if ev.n.Load() != 1 {
		t.Error("event not set for a reached value")
	}
}

func TestPresentOrder(t *testing.T) {
	tests := []struct {
		name  string
		order func(current, n int) int
		want  []int
	}{
		{"round robin", RoundRobin, []int{0, 1, 2, 0, 1}},
		{"reverse", func(c, n int) int { return (c + n - 1) % n }, []int{0, 2, 1, 0, 2}},
		{"sticky pair", func(c, _ int) int { return 1 - c }, []int{0, 1, 0, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t, 3, WithPresentOrder(tt.order))
			var got []int
			for range tt.want {
				got = append(got, r.sc.CurrentBackBufferIndex())
				if err := r.sc.Present(0); err != nil {
					t.Fatal(err)
				}
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("indices = %v, want %v", got, tt.want)
				}
			}
			_ = r.q.Flush()
			if r.sc.Presented() != uint64(len(tt.want)) {
				t.Errorf("Presented() = %d", r.sc.Presented())
			}
			if r.sc.Front() != got[len(got)-1] {
				t.Errorf("Front() = %d, want %d", r.sc.Front(), got[len(got)-1])
			}
		})
	}
}

func TestDeviceLostAfter(t *testing.T) {
	r := newRig(t, 2, WithDeviceLostAfter(2))
	f, _ := r.dev.CreateFence(0)
	ev := &countingEvent{}
	_ = f.SetEventOnCompletion(100, ev)

	for i := 0; i < 2; i++ {
		if err := r.sc.Present(1); err != nil {
			t.Fatalf("Present() #%d error = %v", i+1, err)
		}
	}
	err := r.sc.Present(1)
	if !errors.Is(err, framecore.ErrDeviceLost) || !errors.Is(err, ErrInjected) {
		t.Fatalf("third Present() = %v, want ErrDeviceLost wrapping ErrInjected", err)
	}
	if ev.n.Load() != 1 {
		t.Error("device loss did not release fence waiters")
	}
	if _, err := r.dev.CreateCommandAllocator(); !errors.Is(err, framecore.ErrDeviceLost) {
		t.Errorf("CreateCommandAllocator() after loss = %v", err)
	}
}

func TestTraceRecordsCalls(t *testing.T) {
	tr := &Trace{}
	r := newRig(t, 2, WithTrace(tr))
	tr.Reset()

	alloc, l := r.list(t)
	_ = alloc.Reset()
	r.recordClear(t, alloc, l, 1, gputypes.Color{A: 1})

	want := []string{
		"allocator.reset",
		"list.reset",
		"barrier back1 present->render_target",
		"set_render_target " + hex(r.handle(1)),
		"clear " + hex(r.handle(1)),
		"barrier back1 render_target->present",
		"list.close",
	}
	got := tr.Events()
	if len(got) != len(want) {
		t.Fatalf("events = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
	if n := len(tr.Filter("barrier")); n != 2 {
		t.Errorf("Filter(barrier) = %d events, want 2", n)
	}
}

func TestQueueStopsOnDestroy(t *testing.T) {
	inst := NewInstance()
	adapters, _ := inst.Adapters()
	dev, q, _ := adapters[0].Open()
	f, _ := dev.CreateFence(0)
	_ = q.Signal(f, 1)
	dev.Destroy()

	if f.CompletedValue() != 1 {
		t.Errorf("pending signal not drained, CompletedValue() = %d", f.CompletedValue())
	}
	if err := q.Signal(f, 2); !errors.Is(err, errQueueStopped) {
		t.Errorf("Signal() after Destroy = %v, want errQueueStopped", err)
	}
}
