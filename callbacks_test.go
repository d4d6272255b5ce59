// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framesync

import (
	"errors"
	"reflect"
	"testing"
)

func TestCallbackSlotLifecycle(t *testing.T) {
	var s callbackSlot[CompleteCallback]

	if s.state != slotUnarmed {
		t.Fatalf("initial state = %v, want unarmed", s.state)
	}
	if _, ok := s.take(); ok {
		t.Error("take() on unarmed slot returned ok")
	}

	if err := s.arm(func() {}, false); err != nil {
		t.Fatalf("arm() error = %v", err)
	}
	if s.state != slotArmed {
		t.Errorf("state after arm = %v, want armed", s.state)
	}

	err := s.arm(func() {}, false)
	if !errors.Is(err, ErrCallbackArmed) {
		t.Errorf("second arm() error = %v, want ErrCallbackArmed", err)
	}

	fn, ok := s.take()
	if !ok || fn == nil {
		t.Fatal("take() on armed slot returned nothing")
	}
	if s.state != slotFired {
		t.Errorf("state after take = %v, want fired", s.state)
	}
	if _, ok := s.take(); ok {
		t.Error("take() on fired slot returned ok")
	}

	// A fired slot may be re-armed for the next frame.
	if err := s.arm(func() {}, false); err != nil {
		t.Errorf("re-arm after fire error = %v", err)
	}
}

func TestCallbackSlotDisarm(t *testing.T) {
	var s callbackSlot[CommitCallback]
	_ = s.arm(func(bool) {}, false)

	if err := s.arm(nil, true); err != nil {
		t.Fatalf("disarm error = %v", err)
	}
	if s.state != slotUnarmed {
		t.Errorf("state after disarm = %v, want unarmed", s.state)
	}
	if err := s.arm(func(bool) {}, false); err != nil {
		t.Errorf("arm after disarm error = %v", err)
	}
}

func TestFrameCallbacksResolveOrder(t *testing.T) {
	tests := []struct {
		name      string
		draw      func() bool
		presented bool
	}{
		{"presented", func() bool { return true }, true},
		{"failed", func() bool { return false }, false},
		{"dropped", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []string
			var gotPresented []bool

			cbs := frameCallbacks{
				dispatch: func(frame uint64, vsync int64) CommitCallback {
					events = append(events, "dispatch")
					if frame != 3 || vsync != 99 {
						t.Errorf("dispatch(%d, %d), want (3, 99)", frame, vsync)
					}
					return func(p bool) {
						events = append(events, "post-dispatch")
						gotPresented = append(gotPresented, p)
					}
				},
				commit: func(p bool) {
					events = append(events, "commit")
					gotPresented = append(gotPresented, p)
				},
				complete: func() { events = append(events, "complete") },
			}

			draw := tt.draw
			if draw != nil {
				inner := draw
				draw = func() bool {
					events = append(events, "draw")
					return inner()
				}
			}
			cbs.resolve(3, 99, draw, func(bool) { events = append(events, "bookkeeping") })

			want := []string{"dispatch", "draw", "post-dispatch", "commit", "bookkeeping", "complete"}
			if tt.draw == nil {
				want = []string{"dispatch", "post-dispatch", "commit", "bookkeeping", "complete"}
			}
			if !reflect.DeepEqual(events, want) {
				t.Errorf("events = %v, want %v", events, want)
			}
			for _, p := range gotPresented {
				if p != tt.presented {
					t.Errorf("presented = %v, want %v", p, tt.presented)
				}
			}
		})
	}
}

func TestFrameCallbacksResolveUnarmed(t *testing.T) {
	drawn := false
	frameCallbacks{}.resolve(1, 0, func() bool { drawn = true; return true }, nil)
	if !drawn {
		t.Error("draw did not run with no callbacks armed")
	}
}
