// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package window

import "testing"

func TestHeadlessBudget(t *testing.T) {
	h := NewHeadless(3)
	frames := 0
	for !h.ShouldClose() {
		h.PollEvents()
		frames++
		if frames > 10 {
			t.Fatal("budget not enforced")
		}
	}
	if frames != 3 {
		t.Errorf("ran %d frames, want 3", frames)
	}
	if h.Polls() != 3 {
		t.Errorf("Polls() = %d, want 3", h.Polls())
	}
}

func TestHeadlessClose(t *testing.T) {
	h := NewHeadless(0)
	for i := 0; i < 100; i++ {
		h.PollEvents()
	}
	if h.ShouldClose() {
		t.Fatal("unbounded gate closed on its own")
	}
	h.Close()
	if !h.ShouldClose() {
		t.Error("ShouldClose() = false after Close()")
	}
}

var _ Gate = (*Headless)(nil)
