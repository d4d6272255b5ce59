// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gogpu/framesync"
	"github.com/gogpu/gputypes"
)

// ContextOption configures a SoftwareContext.
type ContextOption func(*contextOptions)

type contextOptions struct {
	device        DeviceHandle
	budget        int
	skipUnchanged bool
	clock         framesync.Clock
}

// WithDevice shares the host's device. The context presents in the host's
// surface format.
func WithDevice(h DeviceHandle) ContextOption {
	return func(o *contextOptions) {
		o.device = h
	}
}

// WithTextureBudget sets the texture cache budget in bytes. Layer uploads
// that do not fit are postponed to the draw phase and keep the producer
// blocked until the frame is drawn. A budget <= 0 is unlimited.
func WithTextureBudget(bytes int) ContextOption {
	return func(o *contextOptions) {
		o.budget = bytes
	}
}

// WithSkipUnchanged skips frames in which nothing changed.
func WithSkipUnchanged() ContextOption {
	return func(o *contextOptions) {
		o.skipUnchanged = true
	}
}

// WithClock sets the clock used to stamp swap timings. It should be the
// clock the frame task uses. A nil clock is ignored.
func WithClock(c framesync.Clock) ContextOption {
	return func(o *contextOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// ContextStats is a snapshot of SoftwareContext counters.
type ContextStats struct {
	Frames       uint64 // frames drawn
	Presented    uint64 // frames that reached the surface
	Flushes      uint64 // skipped frames that flushed uploads
	Uploads      uint64 // layer textures uploaded
	Deferred     uint64 // uploads postponed to the draw phase
	Evictions    uint64 // textures dropped because their layer was freed
	Textures     int    // textures in the cache
	TextureBytes int    // bytes held by the cache
}

// SoftwareContext is a CPU implementation of framesync.Context.
//
// It keeps a copy of every layer in a texture cache, replays the captured
// DisplayList into a back buffer, composites the layers over it in z order
// and presents the result to a Surface. Only damaged regions are redrawn.
//
// Stop, Start and Stats may be called from any goroutine. Everything else is
// called by the frame task on the render goroutine.
type SoftwareContext struct {
	surface *Surface
	opts    contextOptions
	stopped atomic.Bool
	frame   atomic.Uint64

	// Render goroutine only.
	state    framesync.FrameState
	textures *textureCache
	deferred []*Layer
	damage   []image.Rectangle
	back     *image.RGBA
	skipped  bool

	frames, presented, flushes  atomic.Uint64
	uploads, deferrals, evicted atomic.Uint64
	texCount, texBytes          atomic.Int64
}

// NewSoftwareContext creates a context presenting into surface.
func NewSoftwareContext(surface *Surface, opts ...ContextOption) *SoftwareContext {
	o := contextOptions{
		budget: DefaultTextureBudget,
		clock:  framesync.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if surface.Format() == gputypes.TextureFormatUndefined {
		surface.setFormat(surfaceFormat(o.device))
	}

	c := &SoftwareContext{
		surface:  surface,
		opts:     o,
		textures: newTextureCache(o.budget),
	}
	c.frame.Store(1)

	framesync.Logger().Debug("render: software context created",
		"gpu", hasDevice(o.device),
		"format", surface.Format(),
		"bounds", surface.Bounds(),
		"budget", o.budget,
	)
	return c
}

// Surface returns the surface the context presents into.
func (c *SoftwareContext) Surface() *Surface {
	return c.surface
}

// Stop stops the context. Frames synced while stopped are not drawn and
// leave pending layer updates queued.
func (c *SoftwareContext) Stop() {
	if c.stopped.CompareAndSwap(false, true) {
		framesync.Logger().Debug("render: context stopped")
	}
}

// Start restarts a stopped context.
func (c *SoftwareContext) Start() {
	if c.stopped.CompareAndSwap(true, false) {
		framesync.Logger().Debug("render: context started")
	}
}

// Status implements framesync.Context.
func (c *SoftwareContext) Status() framesync.Status {
	switch {
	case c.stopped.Load():
		return framesync.StatusStopped
	case c.surface.Lost():
		return framesync.StatusNoSurface
	default:
		return framesync.StatusReady
	}
}

// ApplyLayerUpdate implements framesync.Context. The layer is copied into
// the texture cache, or postponed if the copy does not fit the budget.
func (c *SoftwareContext) ApplyLayerUpdate(l framesync.Layer) {
	layer, ok := l.(*Layer)
	if !ok {
		framesync.Logger().Warn("render: ignoring foreign layer type", "type", fmt.Sprintf("%T", l))
		return
	}
	if !c.textures.fits(layer.ID(), layer.uploadSize()) {
		layer.Retain()
		c.deferred = append(c.deferred, layer)
		c.deferrals.Add(1)
		return
	}
	c.upload(layer)
}

func (c *SoftwareContext) upload(layer *Layer) {
	tex := layer.upload()
	if tex == nil {
		return
	}
	if old := c.textures.put(tex); old != nil && old.visible {
		c.damage = append(c.damage, old.dst)
	}
	if tex.visible {
		c.damage = append(c.damage, tex.dst)
	}
	c.uploads.Add(1)
}

// uploadDeferred runs the uploads postponed by the budget.
func (c *SoftwareContext) uploadDeferred() {
	for _, layer := range c.deferred {
		c.upload(layer)
		layer.Release()
	}
	clear(c.deferred)
	c.deferred = c.deferred[:0]
}

// SetFrameState implements framesync.Context.
func (c *SoftwareContext) SetFrameState(state framesync.FrameState) {
	c.state = state
}

// FrameState returns the last merged frame state. Render goroutine only.
func (c *SoftwareContext) FrameState() framesync.FrameState {
	return c.state
}

// Snapshot implements framesync.Context.
func (c *SoftwareContext) Snapshot(root framesync.SceneRoot, info *framesync.TreeInfo) framesync.Snapshot {
	if freed := c.textures.trim(); len(freed) > 0 {
		c.damage = append(c.damage, freed...)
		c.evicted.Add(uint64(len(freed)))
	}
	if len(c.deferred) > 0 {
		info.PrepareTextures = false
	}

	snap := root.Capture(info)

	c.skipped = c.opts.skipUnchanged && c.unchanged(snap, info)
	if c.skipped {
		info.SkippedFrameReason = framesync.SkipNothingToDraw
	}
	c.publishStats()
	return snap
}

// unchanged reports whether drawing would reproduce the last presented
// frame.
func (c *SoftwareContext) unchanged(snap framesync.Snapshot, info *framesync.TreeInfo) bool {
	if info.ForceDraw || info.SkippedFrameReason != framesync.SkipNone {
		return false
	}
	if len(c.deferred) > 0 || len(c.damage) > 0 || c.back == nil || c.back.Rect != c.surface.Bounds() {
		return false
	}
	dl, ok := snap.(*DisplayList)
	return ok && dl.Unchanged()
}

// Draw implements framesync.Context.
func (c *SoftwareContext) Draw(frame *framesync.Frame) bool {
	c.uploadDeferred()

	bounds := c.surface.Bounds()
	dl, _ := frame.Snapshot.(*DisplayList)

	full := frame.Info.ForceDraw || dl == nil || dl.NeedsFullRedraw()
	if c.back == nil || c.back.Rect != bounds {
		c.back = image.NewRGBA(bounds)
		full = true
	}

	var regions []image.Rectangle
	if full {
		regions = []image.Rectangle{bounds}
	} else {
		regions = append(regions, dl.Damage()...)
		regions = append(regions, c.damage...)
	}
	clip := bounds
	if cb := c.state.ContentBounds; !cb.Empty() {
		clip = clip.Intersect(cb)
	}

	bg := clearColorRGBA(c.state.Buffer.ClearColor)
	layers := c.textures.visible()
	for _, r := range regions {
		r = r.Intersect(clip)
		if r.Empty() {
			continue
		}
		fill(c.back, r, bg)
		if dl != nil {
			replay(c.back, dl, r)
		}
		for _, tex := range layers {
			composite(c.back, tex, r)
		}
	}
	c.damage = c.damage[:0]

	frame.Timing.Set(framesync.FrameInfoSwapBuffers, c.opts.clock())
	presented := c.surface.present(c.back)
	frame.Timing.Set(framesync.FrameInfoSwapBuffersCompleted, c.opts.clock())

	c.frame.Add(1)
	c.frames.Add(1)
	if presented {
		c.presented.Add(1)
	} else {
		// The back buffer never reached the surface; redraw it all next time.
		c.back = nil
	}
	c.publishStats()

	framesync.Logger().Debug("render: frame drawn",
		"frame", frame.Number,
		"regions", len(regions),
		"layers", len(layers),
		"presented", presented,
	)
	return presented
}

// Flush implements framesync.Flusher. A skipped frame still completes the
// uploads its sync phase postponed.
func (c *SoftwareContext) Flush() {
	c.uploadDeferred()
	if !c.skipped {
		// The skipped frame's damage is gone; redraw everything next time.
		c.back = nil
	}
	c.flushes.Add(1)
	c.publishStats()
}

// FrameNumber implements framesync.Context.
func (c *SoftwareContext) FrameNumber() uint64 {
	return c.frame.Load()
}

func (c *SoftwareContext) publishStats() {
	c.texCount.Store(int64(c.textures.len()))
	c.texBytes.Store(int64(c.textures.used))
}

// Stats returns the context counters.
func (c *SoftwareContext) Stats() ContextStats {
	return ContextStats{
		Frames:       c.frames.Load(),
		Presented:    c.presented.Load(),
		Flushes:      c.flushes.Load(),
		Uploads:      c.uploads.Load(),
		Deferred:     c.deferrals.Load(),
		Evictions:    c.evicted.Load(),
		Textures:     int(c.texCount.Load()),
		TextureBytes: int(c.texBytes.Load()),
	}
}

var (
	_ framesync.Context = (*SoftwareContext)(nil)
	_ framesync.Flusher = (*SoftwareContext)(nil)
)
