// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framecore

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorWrapping(t *testing.T) {
	err := E("queue.signal", KindDeviceLost, ErrDeviceLost)

	if !errors.Is(err, ErrDeviceLost) {
		t.Error("errors.Is(err, ErrDeviceLost) = false")
	}
	if KindOf(err) != KindDeviceLost {
		t.Errorf("KindOf() = %v, want device lost", KindOf(err))
	}
	if want := "queue.signal: framecore: device lost"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if E("noop", KindFatal, nil) != nil {
		t.Error("E(nil) should return nil")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"fatal kind", E("bootstrap.adapter", KindFatal, ErrNoAdapter), true},
		{"device lost kind", E("surface.present", KindDeviceLost, errors.New("hung")), true},
		{"bare device lost", fmt.Errorf("present: %w", ErrDeviceLost), true},
		{"sync", E("fence.wait", KindSync, ErrTimeout), false},
		{"usage", E("recorder.record", KindUsage, ErrListClosed), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback Kind
		want     Kind
	}{
		{"device lost wins", fmt.Errorf("execute: %w", ErrDeviceLost), KindUsage, KindDeviceLost},
		{"surface lost", ErrSurfaceLost, KindSync, KindDeviceLost},
		{"fallback", context.DeadlineExceeded, KindSync, KindSync},
		{"already classified", E("inner", KindUsage, ErrListOpen), KindSync, KindUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(Classify("op", tt.fallback, tt.err)); got != tt.want {
				t.Errorf("KindOf(Classify()) = %v, want %v", got, tt.want)
			}
		})
	}

	if Classify("op", KindSync, nil) != nil {
		t.Error("Classify(nil) should return nil")
	}
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{
		KindFatal:      "fatal",
		KindDeviceLost: "device lost",
		KindSync:       "sync",
		KindUsage:      "usage",
		Kind(42):       "Kind(42)",
	} {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}
