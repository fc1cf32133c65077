// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/framecore"
	"github.com/gogpu/framecore/driver"
)

var errQueueStopped = errors.New("sim: queue stopped")

type opKind int

const (
	opExecute opKind = iota
	opSignal
	opPresent
	opFlush
)

// op is one unit of GPU work. The fields used depend on kind.
type op struct {
	kind opKind

	cmds  []command
	alloc *CommandAllocator

	fence *Fence
	value uint64

	sc    *SwapChain
	index int

	done chan struct{}
}

// Queue is the simulated direct queue. Submitted operations are executed in
// order by a single goroutine.
type Queue struct {
	dev     *Device
	latency time.Duration

	mu      sync.Mutex
	stopped bool
	ops     chan op
	exited  chan struct{}
}

func newQueue(d *Device, depth int) *Queue {
	if depth < 1 {
		depth = 1
	}
	q := &Queue{
		dev:     d,
		latency: d.inst.latency,
		ops:     make(chan op, depth),
		exited:  make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.exited)
	for o := range q.ops {
		if q.latency > 0 && o.kind != opFlush {
			time.Sleep(q.latency)
		}
		q.exec(o)
	}
}

func (q *Queue) exec(o op) {
	lost := q.dev.Err() != nil
	switch o.kind {
	case opExecute:
		if !lost {
			if err := q.replay(o.cmds); err != nil {
				q.dev.Lose(err)
			}
		}
		o.alloc.inflight.Add(-1)
	case opSignal:
		if !lost {
			o.fence.complete(o.value)
		}
	case opPresent:
		if !lost {
			if err := o.sc.flip(o.index); err != nil {
				q.dev.Lose(err)
			}
		}
	case opFlush:
		close(o.done)
	}
}

// replay executes recorded commands against the GPU-side image states.
func (q *Queue) replay(cmds []command) error {
	var target *Image
	for _, c := range cmds {
		switch c.kind {
		case cmdBarrier:
			for _, b := range c.barriers {
				img, ok := b.Image.(*Image)
				if !ok {
					return fmt.Errorf("barrier on foreign image %T", b.Image)
				}
				if err := img.transition(b.Before, b.After); err != nil {
					return err
				}
			}
		case cmdSetRenderTarget:
			target = q.dev.View(c.handle)
			if target == nil {
				return fmt.Errorf("set render target: no view at %#x", uint64(c.handle))
			}
		case cmdClear:
			img := q.dev.View(c.handle)
			if img == nil {
				return fmt.Errorf("clear: no view at %#x", uint64(c.handle))
			}
			if img != target {
				framecore.Logger().Debug("sim: clearing an unbound render target", "image", img.label)
			}
			if err := img.clear(c.color); err != nil {
				return err
			}
		}
	}
	return nil
}

func (q *Queue) enqueue(o op) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return errQueueStopped
	}
	q.ops <- o
	return nil
}

// ExecuteCommandLists submits closed lists. Every list must have been
// recorded without errors.
func (q *Queue) ExecuteCommandLists(lists ...driver.CommandList) error {
	q.dev.inst.trace.add("queue.execute %d", len(lists))
	if err := q.dev.Err(); err != nil {
		return err
	}
	subs := make([]op, 0, len(lists))
	for _, l := range lists {
		cl, ok := l.(*CommandList)
		if !ok {
			return fmt.Errorf("sim: foreign command list %T", l)
		}
		if cl.open {
			return fmt.Errorf("sim: execute: %w", framecore.ErrListOpen)
		}
		if cl.err != nil {
			return fmt.Errorf("sim: execute: %w", cl.err)
		}
		subs = append(subs, op{
			kind:  opExecute,
			cmds:  append([]command(nil), cl.cmds...),
			alloc: cl.alloc,
		})
	}
	for _, o := range subs {
		o.alloc.inflight.Add(1)
		if err := q.enqueue(o); err != nil {
			o.alloc.inflight.Add(-1)
			return err
		}
	}
	return nil
}

// Signal enqueues a write of value into f.
func (q *Queue) Signal(f driver.Fence, value uint64) error {
	q.dev.inst.trace.add("queue.signal %d", value)
	if err := q.dev.Err(); err != nil {
		return err
	}
	sf, ok := f.(*Fence)
	if !ok {
		return fmt.Errorf("sim: foreign fence %T", f)
	}
	return q.enqueue(op{kind: opSignal, fence: sf, value: value})
}

// Flush blocks until every operation submitted so far has executed.
func (q *Queue) Flush() error {
	done := make(chan struct{})
	if err := q.enqueue(op{kind: opFlush, done: done}); err != nil {
		return err
	}
	<-done
	return nil
}

func (q *Queue) stop() {
	q.mu.Lock()
	if !q.stopped {
		q.stopped = true
		close(q.ops)
	}
	q.mu.Unlock()
	<-q.exited
}
