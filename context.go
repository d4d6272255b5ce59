// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framesync

import (
	"image"
	"time"

	"github.com/gogpu/gputypes"
)

// Executor runs work on the render goroutine, one item at a time and in
// post order.
type Executor interface {
	// Post queues fn. It returns false if the executor no longer accepts
	// work; fn is then never run. Once Post returns true, fn must run even
	// if the executor is shut down afterwards.
	Post(fn func()) bool
}

// Status is the drawing state of a Context.
type Status uint8

const (
	// StatusReady means the context can draw and present.
	StatusReady Status = iota

	// StatusNoSurface means the context has no output surface right now.
	// The surface may come back.
	StatusNoSurface

	// StatusStopped means the context was stopped and will not draw.
	StatusStopped
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusNoSurface:
		return "NoSurface"
	case StatusStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// SkipReason explains why a frame was not drawn.
type SkipReason uint8

const (
	SkipNone SkipReason = iota
	SkipNoOutputTarget
	SkipContextStopped
	SkipNothingToDraw
)

// String returns the reason name.
func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "None"
	case SkipNoOutputTarget:
		return "NoOutputTarget"
	case SkipContextStopped:
		return "ContextStopped"
	case SkipNothingToDraw:
		return "NothingToDraw"
	default:
		return "Unknown"
	}
}

// TreeInfo is passed to Context.Snapshot. The task fills the inputs and the
// context and scene root fill the outputs.
type TreeInfo struct {
	// ForceDraw requests a redraw of the full target region regardless of
	// damage. Set from ForceDrawNextFrame.
	ForceDraw bool

	// PrepareTextures is true on entry. A context clears it when it could
	// not upload everything the draw needs, in which case the producer stays
	// blocked until the draw phase finishes.
	PrepareTextures bool

	// HasAnimations and RequiresUIRedraw together ask the producer for
	// another frame.
	HasAnimations    bool
	RequiresUIRedraw bool

	// SkippedFrameReason is set when the frame must not be drawn.
	SkippedFrameReason SkipReason
}

// BufferParams describe the buffer the frame renders into.
type BufferParams struct {
	Format     gputypes.TextureFormat
	Usage      gputypes.TextureUsage
	ClearColor gputypes.Color

	// OnRendered, if set, runs on the render goroutine after the frame is
	// drawn into the buffer and before the completion callback.
	OnRendered func(presented bool)
}

// HasBuffer reports whether the params name a concrete buffer format.
func (p BufferParams) HasBuffer() bool {
	return p.Format != gputypes.TextureFormatUndefined
}

// FrameState is the per-frame configuration merged into the context during
// the sync phase.
type FrameState struct {
	ContentBounds image.Rectangle
	SdrHdrRatio   float32
	Buffer        BufferParams

	// SyncDelay is how long the frame waited in the executor queue.
	SyncDelay time.Duration
}

// Snapshot is an immutable, draw-ready capture of a scene root. It must not
// reference producer-owned memory that the producer may mutate.
type Snapshot interface {
	// Bounds returns the region covered by the captured content.
	Bounds() image.Rectangle
}

// SceneRoot is the tree the task draws.
type SceneRoot interface {
	// Capture returns a snapshot of the tree. It runs on the render
	// goroutine while the producer is blocked and may set the animation
	// outputs of info.
	Capture(info *TreeInfo) Snapshot
}

// Frame is everything the draw phase needs, captured during the sync phase.
type Frame struct {
	Number   uint64
	Snapshot Snapshot
	Info     TreeInfo
	State    FrameState

	// Timing is the frame's own record. Draw may stamp
	// FrameInfoSwapBuffers and FrameInfoSwapBuffersCompleted.
	Timing *FrameInfo
}

// Context is the render target side of the pipeline. All methods are called
// on the render goroutine.
type Context interface {
	// Status reports whether the context can draw.
	Status() Status

	// ApplyLayerUpdate uploads the pending content of l.
	ApplyLayerUpdate(l Layer)

	// SetFrameState merges the frame state record.
	SetFrameState(state FrameState)

	// Snapshot captures root for drawing. It runs while the producer is
	// blocked.
	Snapshot(root SceneRoot, info *TreeInfo) Snapshot

	// Draw draws and presents the frame. It reports whether the frame was
	// presented.
	Draw(frame *Frame) bool

	// FrameNumber returns the number the next drawn frame will carry.
	FrameNumber() uint64
}

// Flusher is implemented by contexts that must flush queued uploads when a
// frame is skipped after layers were applied.
type Flusher interface {
	Flush()
}
