// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"image/color"
	"slices"

	"github.com/gogpu/framesync"
)

// maxDirtyRects is the threshold after which we switch to full redraw.
// When more than this many rects accumulate, it's more efficient to redraw everything.
const maxDirtyRects = 16

// Scene is a retained list of drawing commands with damage tracking.
//
// A Scene is the producer-side scene root of a frame task. It is mutated
// only by the producer goroutine between SubmitFrame calls; Capture runs on
// the render goroutine while the producer is blocked, so no locking is
// needed.
//
// Example:
//
//	scene := render.NewScene(image.Rect(0, 0, 800, 600))
//	scene.Clear(color.White)
//	scene.FillRect(image.Rect(10, 10, 110, 60), color.RGBA{255, 0, 0, 255})
//	task.Setup(rt, ctx, scene)
type Scene struct {
	bounds   image.Rectangle
	commands []drawCommand

	animating bool

	// Damage tracking for efficient partial redraws
	dirtyRects []image.Rectangle
	fullRedraw bool
}

// drawCommand is a single drawing operation.
type drawCommand struct {
	op    drawOp
	rect  image.Rectangle
	color color.RGBA
}

// drawOp is the type of drawing operation.
type drawOp uint8

const (
	opFill drawOp = iota
	opClear
)

// NewScene creates an empty scene covering bounds. A new scene needs a full
// redraw.
func NewScene(bounds image.Rectangle) *Scene {
	return &Scene{
		bounds:     bounds.Canon(),
		commands:   make([]drawCommand, 0, 16),
		fullRedraw: true,
	}
}

// Bounds returns the scene bounds.
func (s *Scene) Bounds() image.Rectangle {
	return s.bounds
}

// Resize changes the scene bounds and invalidates everything.
func (s *Scene) Resize(bounds image.Rectangle) {
	s.bounds = bounds.Canon()
	s.InvalidateAll()
}

// Reset removes all commands and invalidates everything.
func (s *Scene) Reset() {
	s.commands = s.commands[:0]
	s.InvalidateAll()
}

// Clear adds a command that fills the whole scene with c.
func (s *Scene) Clear(c color.Color) {
	s.commands = append(s.commands, drawCommand{
		op:    opClear,
		rect:  s.bounds,
		color: toRGBA(c),
	})
	s.InvalidateAll()
}

// FillRect adds a command that fills r with c, blended over what is below.
func (s *Scene) FillRect(r image.Rectangle, c color.Color) {
	r = r.Canon().Intersect(s.bounds)
	if r.Empty() {
		return
	}
	s.commands = append(s.commands, drawCommand{
		op:    opFill,
		rect:  r,
		color: toRGBA(c),
	})
	s.Invalidate(r)
}

// SetAnimating marks the scene as running an animation. While set, every
// captured frame asks the producer for another frame.
func (s *Scene) SetAnimating(animating bool) {
	s.animating = animating
}

// Animating reports whether the scene is running an animation.
func (s *Scene) Animating() bool {
	return s.animating
}

// Invalidate marks a rectangular region as needing redraw.
// If the accumulated dirty rects exceed maxDirtyRects, the scene switches
// to full redraw mode.
func (s *Scene) Invalidate(r image.Rectangle) {
	if s.fullRedraw {
		return
	}
	r = r.Canon().Intersect(s.bounds)
	if r.Empty() {
		return
	}

	s.dirtyRects = append(s.dirtyRects, r)
	if len(s.dirtyRects) > maxDirtyRects {
		s.InvalidateAll()
	}
}

// InvalidateAll marks the entire scene as needing redraw.
func (s *Scene) InvalidateAll() {
	s.fullRedraw = true
	s.dirtyRects = s.dirtyRects[:0]
}

// DirtyRects returns the accumulated dirty rectangles.
// Returns nil if the scene needs a full redraw (check NeedsFullRedraw first).
// The returned slice should not be modified by the caller.
func (s *Scene) DirtyRects() []image.Rectangle {
	if s.fullRedraw {
		return nil
	}
	return s.dirtyRects
}

// ClearDirty resets the dirty state.
func (s *Scene) ClearDirty() {
	s.dirtyRects = s.dirtyRects[:0]
	s.fullRedraw = false
}

// NeedsFullRedraw returns true if the scene should be fully redrawn.
func (s *Scene) NeedsFullRedraw() bool {
	return s.fullRedraw
}

// HasDirtyRegions returns true if there are any dirty regions to redraw.
func (s *Scene) HasDirtyRegions() bool {
	return s.fullRedraw || len(s.dirtyRects) > 0
}

// IsEmpty returns true if the scene has no commands.
func (s *Scene) IsEmpty() bool {
	return len(s.commands) == 0
}

// CommandCount returns the number of drawing commands in the scene.
func (s *Scene) CommandCount() int {
	return len(s.commands)
}

// Capture implements framesync.SceneRoot. It copies the commands and the
// accumulated damage into a DisplayList and clears the damage.
func (s *Scene) Capture(info *framesync.TreeInfo) framesync.Snapshot {
	dl := &DisplayList{
		bounds:     s.bounds,
		commands:   slices.Clone(s.commands),
		fullRedraw: s.fullRedraw || info.ForceDraw,
	}
	if !dl.fullRedraw {
		dl.damage = slices.Clone(s.dirtyRects)
	}
	if s.animating {
		info.HasAnimations = true
		info.RequiresUIRedraw = true
	}
	s.ClearDirty()
	return dl
}

// DisplayList is an immutable capture of a Scene. It shares no memory with
// the scene it came from.
type DisplayList struct {
	bounds     image.Rectangle
	commands   []drawCommand
	damage     []image.Rectangle
	fullRedraw bool
}

// Bounds implements framesync.Snapshot.
func (d *DisplayList) Bounds() image.Rectangle {
	return d.bounds
}

// Len returns the number of captured commands.
func (d *DisplayList) Len() int {
	return len(d.commands)
}

// Damage returns the regions that changed since the previous capture.
// Returns nil when the whole list must be redrawn.
func (d *DisplayList) Damage() []image.Rectangle {
	if d.fullRedraw {
		return nil
	}
	return d.damage
}

// NeedsFullRedraw reports whether the whole list must be redrawn.
func (d *DisplayList) NeedsFullRedraw() bool {
	return d.fullRedraw
}

// Unchanged reports whether nothing changed since the previous capture.
func (d *DisplayList) Unchanged() bool {
	return !d.fullRedraw && len(d.damage) == 0
}

var (
	_ framesync.SceneRoot = (*Scene)(nil)
	_ framesync.Snapshot  = (*DisplayList)(nil)
)
