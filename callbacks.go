// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framesync

import "errors"

// ErrCallbackArmed is returned when a callback slot is armed twice for the
// same frame. Disarm it with a nil callback first to replace it.
var ErrCallbackArmed = errors.New("framesync: callback already armed for the next frame")

// FrameCallback is invoked on the render goroutine when the frame is
// dispatched, with the frame number and its vsync timestamp. The returned
// CommitCallback, if any, runs once the frame is presented or dropped.
type FrameCallback func(frame uint64, vsync int64) CommitCallback

// CommitCallback receives true if the frame was presented and false if it
// was dropped or failed.
type CommitCallback func(presented bool)

// CompleteCallback runs after all bookkeeping for the frame, including the
// FrameInfo record, has finished. It is the last event of a frame.
type CompleteCallback func()

type slotState uint8

const (
	slotUnarmed slotState = iota
	slotArmed
	slotFired
)

func (s slotState) String() string {
	switch s {
	case slotUnarmed:
		return "unarmed"
	case slotArmed:
		return "armed"
	case slotFired:
		return "fired"
	default:
		return "unknown"
	}
}

// callbackSlot holds a single-use callback. armed moves to fired exactly
// once, when take hands the callback to a frame.
type callbackSlot[F any] struct {
	state slotState
	fn    F
}

// arm stores fn for the next frame. A nil fn disarms the slot.
func (s *callbackSlot[F]) arm(fn F, isNil bool) error {
	if isNil {
		var zero F
		s.fn = zero
		s.state = slotUnarmed
		return nil
	}
	if s.state == slotArmed {
		return ErrCallbackArmed
	}
	s.fn = fn
	s.state = slotArmed
	return nil
}

// take moves the callback out of the slot. ok is false for an unarmed or
// already fired slot.
func (s *callbackSlot[F]) take() (fn F, ok bool) {
	if s.state != slotArmed {
		return fn, false
	}
	fn = s.fn
	var zero F
	s.fn = zero
	s.state = slotFired
	return fn, true
}

// frameCallbacks are the callbacks moved out of the task for one frame.
type frameCallbacks struct {
	dispatch FrameCallback
	commit   CommitCallback
	complete CompleteCallback
}

// resolve fires the callbacks in frame order. draw runs between dispatch
// and commit and reports whether the frame was presented; a nil draw means
// the frame was dropped. beforeComplete runs just before the completion
// callback with the same outcome.
func (c frameCallbacks) resolve(frame uint64, vsync int64, draw func() bool, beforeComplete func(presented bool)) {
	var postDispatch CommitCallback
	if c.dispatch != nil {
		postDispatch = c.dispatch(frame, vsync)
	}

	presented := false
	if draw != nil {
		presented = draw()
	}

	if postDispatch != nil {
		postDispatch(presented)
	}
	if c.commit != nil {
		c.commit(presented)
	}

	if beforeComplete != nil {
		beforeComplete(presented)
	}
	if c.complete != nil {
		c.complete()
	}
}
