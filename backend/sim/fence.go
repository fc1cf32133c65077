// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/framecore/driver"
)

// Fence is a simulated GPU timeline. Its value only grows.
type Fence struct {
	completed atomic.Uint64

	mu      sync.Mutex
	waiters []waiter
}

type waiter struct {
	value uint64
	ev    driver.Event
}

// CompletedValue returns the last value written by the queue.
func (f *Fence) CompletedValue() uint64 { return f.completed.Load() }

// SetEventOnCompletion sets ev once the completed value reaches value.
func (f *Fence) SetEventOnCompletion(value uint64, ev driver.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed.Load() >= value {
		return ev.Set()
	}
	f.waiters = append(f.waiters, waiter{value: value, ev: ev})
	return nil
}

// Waiters returns the number of pending event registrations.
func (f *Fence) Waiters() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

func (f *Fence) complete(v uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v > f.completed.Load() {
		f.completed.Store(v)
	}
	cur := f.completed.Load()
	kept := f.waiters[:0]
	for _, w := range f.waiters {
		if w.value <= cur {
			_ = w.ev.Set()
			continue
		}
		kept = append(kept, w)
	}
	f.waiters = kept
}
