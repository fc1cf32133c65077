// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/driver"
)

// pollInterval is how often a pending fence event re-polls the queue.
const pollInterval = 250 * time.Microsecond

var errDestroyed = errors.New("wgpu: device destroyed")

// Queue wraps a hal.Queue.
type Queue struct {
	dev *Device
	hal hal.Queue

	mu   sync.Mutex
	last uint64
}

// ExecuteCommandLists submits the command buffers of closed lists in one
// HAL submission.
func (q *Queue) ExecuteCommandLists(lists ...driver.CommandList) error {
	if err := q.dev.Err(); err != nil {
		return err
	}
	cls := make([]*CommandList, len(lists))
	cbs := make([]hal.CommandBuffer, len(lists))
	for i, l := range lists {
		cl, ok := l.(*CommandList)
		if !ok {
			return fmt.Errorf("wgpu: foreign command list %T", l)
		}
		if cl.open {
			return framecore.ErrListOpen
		}
		if cl.cb == nil || cl.submitted {
			return fmt.Errorf("wgpu: command list has nothing to submit")
		}
		cls[i], cbs[i] = cl, cl.cb
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	idx, err := q.hal.Submit(cbs)
	if err != nil {
		return q.dev.check("submit", err)
	}
	q.last = idx
	for _, cl := range cls {
		cl.submitted = true
		cl.alloc.track(cl.cb, idx)
	}
	return nil
}

// submit submits one internally recorded command buffer of a.
func (q *Queue) submit(a *CommandAllocator, cb hal.CommandBuffer) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx, err := q.hal.Submit([]hal.CommandBuffer{cb})
	if err != nil {
		return q.dev.check("submit", err)
	}
	q.last = idx
	a.track(cb, idx)
	return nil
}

// Signal binds value to the last submission, so f reaches value once the
// queue completes that submission. With nothing submitted the value is
// reached immediately.
func (q *Queue) Signal(f driver.Fence, value uint64) error {
	if err := q.dev.Err(); err != nil {
		return err
	}
	fc, ok := f.(*Fence)
	if !ok {
		return fmt.Errorf("wgpu: foreign fence %T", f)
	}
	q.mu.Lock()
	idx := q.last
	q.mu.Unlock()
	return fc.mark(idx, value)
}

// Completed returns the last submission index the HAL reports complete.
func (q *Queue) Completed() uint64 { return q.hal.PollCompleted() }

// Submitted returns the last submission index.
func (q *Queue) Submitted() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.last
}

type mark struct {
	index uint64
	value uint64
}

type waiter struct {
	value uint64
	ev    driver.Event
}

// Fence is a timeline emulated on submission indices. Pending events are
// served by at most one polling goroutine per fence.
type Fence struct {
	queue *Queue

	mu        sync.Mutex
	completed uint64
	signaled  uint64
	pending   []mark
	waiters   []waiter
	polling   bool
}

func (f *Fence) mark(index, value uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if value <= f.signaled {
		return fmt.Errorf("%w: signal %d after %d", framecore.ErrNonMonotonic, value, f.signaled)
	}
	f.signaled = value
	f.pending = append(f.pending, mark{index: index, value: value})
	return nil
}

// CompletedValue polls the queue and returns the highest value whose
// submission has completed. A lost device completes every value.
func (f *Fence) CompletedValue() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completedLocked()
}

func (f *Fence) completedLocked() uint64 {
	if f.queue.dev.lost.Load() {
		f.pending = nil
		f.completed = ^uint64(0)
		return f.completed
	}
	done := f.queue.hal.PollCompleted()
	n := 0
	for _, m := range f.pending {
		if m.index > done {
			break
		}
		f.completed = max(f.completed, m.value)
		n++
	}
	f.pending = f.pending[n:]
	return f.completed
}

// SetEventOnCompletion sets ev once value is reached. Registering the same
// value and event again while it is pending is a no-op. Pending events are
// dropped when the device is destroyed.
func (f *Fence) SetEventOnCompletion(value uint64, ev driver.Event) error {
	f.mu.Lock()
	if f.completedLocked() >= value {
		f.mu.Unlock()
		return ev.Set()
	}
	select {
	case <-f.queue.dev.done:
		f.mu.Unlock()
		return errDestroyed
	default:
	}
	for _, w := range f.waiters {
		if w.value == value && w.ev == ev {
			f.mu.Unlock()
			return nil
		}
	}
	f.waiters = append(f.waiters, waiter{value: value, ev: ev})
	start := !f.polling
	f.polling = true
	f.mu.Unlock()

	if start && !f.queue.dev.spawn(f.poll) {
		return errDestroyed
	}
	return nil
}

// Waiters returns the number of registered events not yet set.
func (f *Fence) Waiters() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

func (f *Fence) poll(done <-chan struct{}) {
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if !f.fire() {
				return
			}
		}
	}
}

// fire sets the events whose value is reached and reports whether any are
// still pending. Polling stops once none are.
func (f *Fence) fire() bool {
	f.mu.Lock()
	v := f.completedLocked()
	var ready []driver.Event
	n := 0
	for _, w := range f.waiters {
		if w.value <= v {
			ready = append(ready, w.ev)
			continue
		}
		f.waiters[n] = w
		n++
	}
	clear(f.waiters[n:])
	f.waiters = f.waiters[:n]
	more := n > 0
	f.polling = more
	f.mu.Unlock()

	for _, ev := range ready {
		if err := ev.Set(); err != nil {
			framecore.Logger().Warn("wgpu: set fence event", "err", err)
		}
	}
	return more
}
