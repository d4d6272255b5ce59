// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framesync

import (
	"errors"
	"image"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrIncompleteBinding is returned by Setup when the executor, context
	// or scene root is nil.
	ErrIncompleteBinding = errors.New("framesync: executor, context and scene root are all required")

	// ErrFrameInFlight is returned by Setup and Unbind while a submitted
	// frame has not finished its draw phase.
	ErrFrameInFlight = errors.New("framesync: frame in flight")
)

// Task synchronizes frames between a producer goroutine and the render
// goroutine. A Task is created once, bound with Setup and then driven with
// SubmitFrame once per frame for the lifetime of the binding.
//
// SubmitFrame, the frame state setters and the callback setters belong to
// the producer. PushLayerUpdate, RemoveLayerUpdate and ForceDrawNextFrame
// may be called from any goroutine.
type Task struct {
	opts taskOptions

	// mu is the barrier lock. It guards the binding, the rendezvous
	// counters, the sync result, the callback slots and the frame state
	// record. cond is signaled when a producer may resume.
	mu   sync.Mutex
	cond *sync.Cond

	executor Executor
	context  Context
	root     SceneRoot

	submitted  uint64
	unblocked  uint64
	syncResult SyncResult
	syncQueued int64
	lastNumber uint64

	frameCallback    callbackSlot[FrameCallback]
	commitCallback   callbackSlot[CommitCallback]
	completeCallback callbackSlot[CompleteCallback]

	contentBounds image.Rectangle
	sdrHdrRatio   float32
	bufferParams  BufferParams
	frameInfo     FrameInfo

	// layers has its own lock so pushes never wait behind a draw.
	layers *LayerQueue

	forceDraw  atomic.Bool
	submitting atomic.Bool
	inFlight   atomic.Int32
	lastFrame  atomic.Pointer[FrameInfo]
}

// frameRecord is everything one frame's draw phase touches. It is built in
// the sync phase and never shared with the producer.
type frameRecord struct {
	seq          uint64
	ctx          Context
	frame        Frame
	timing       FrameInfo
	callbacks    frameCallbacks
	deferUnblock bool
}

// NewTask creates an unconfigured task. Call Setup before SubmitFrame.
func NewTask(opts ...TaskOption) *Task {
	o := defaultTaskOptions()
	for _, opt := range opts {
		opt(&o)
	}
	t := &Task{
		opts:        o,
		sdrHdrRatio: 1,
		layers:      NewLayerQueue(),
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// Setup binds the task to an executor, a render context and a scene root.
// Rebinding is allowed only while no frame is in flight.
func (t *Task) Setup(exec Executor, ctx Context, root SceneRoot) error {
	if exec == nil || ctx == nil || root == nil {
		return ErrIncompleteBinding
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if n := t.inFlight.Load(); n > 0 {
		Logger().Warn("framesync: rebind rejected", "inFlight", n)
		return ErrFrameInFlight
	}
	rebind := t.executor != nil
	t.executor = exec
	t.context = ctx
	t.root = root

	Logger().Info("framesync: task bound", "rebind", rebind)
	return nil
}

// Unbind returns the task to the unconfigured state and drops pending layer
// updates. It fails with ErrFrameInFlight while a frame is in flight.
func (t *Task) Unbind() error {
	t.mu.Lock()
	if t.inFlight.Load() > 0 {
		t.mu.Unlock()
		return ErrFrameInFlight
	}
	t.executor = nil
	t.context = nil
	t.root = nil
	t.mu.Unlock()

	t.layers.Clear()
	Logger().Info("framesync: task unbound")
	return nil
}

// Configured reports whether Setup has bound the task.
func (t *Task) Configured() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.executor != nil
}

// SetContentDrawBounds sets the content bounds of the next frame.
func (t *Task) SetContentDrawBounds(r image.Rectangle) {
	t.mu.Lock()
	t.contentBounds = r.Canon()
	t.mu.Unlock()
}

// SetRenderSdrHdrRatio sets the HDR/SDR ratio of the next frame.
// NaN, infinite or values below 1 are treated as 1.
func (t *Task) SetRenderSdrHdrRatio(ratio float32) {
	r := float64(ratio)
	if math.IsNaN(r) || math.IsInf(r, 0) || r < 1 {
		ratio = 1
	}
	t.mu.Lock()
	t.sdrHdrRatio = ratio
	t.mu.Unlock()
}

// SetBufferParams sets the target buffer parameters of the next frame.
func (t *Task) SetBufferParams(p BufferParams) {
	t.mu.Lock()
	t.bufferParams = p
	t.mu.Unlock()
}

// SetFrameTimeline stores the producer-side timing of the next frame.
// The timeline is consumed by that frame: a frame submitted without one
// has zero vsync slots.
func (t *Task) SetFrameTimeline(ft FrameTimeline) {
	t.mu.Lock()
	ft.apply(&t.frameInfo)
	t.mu.Unlock()
}

// PushLayerUpdate queues an update of l for the next sync phase.
func (t *Task) PushLayerUpdate(l Layer) {
	t.layers.Push(l)
}

// RemoveLayerUpdate cancels a pending update of l. Updates already drained
// by a running sync phase are not affected.
func (t *Task) RemoveLayerUpdate(l Layer) bool {
	return t.layers.Remove(l)
}

// PendingLayerUpdates returns the number of queued layer updates.
func (t *Task) PendingLayerUpdates() int {
	return t.layers.Len()
}

// ForceDrawNextFrame makes the next sync phase request a full redraw even
// if nothing changed. The flag is consumed by that one frame.
func (t *Task) ForceDrawNextFrame() {
	t.forceDraw.Store(true)
}

// SetFrameCallback arms the dispatch callback for the next frame only.
// A nil fn disarms it.
func (t *Task) SetFrameCallback(fn FrameCallback) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frameCallback.arm(fn, fn == nil)
}

// SetFrameCommitCallback arms the commit callback for the next frame only.
// A nil fn disarms it.
func (t *Task) SetFrameCommitCallback(fn CommitCallback) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commitCallback.arm(fn, fn == nil)
}

// SetFrameCompleteCallback arms the completion callback for the next frame
// only. A nil fn disarms it.
func (t *Task) SetFrameCompleteCallback(fn CompleteCallback) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completeCallback.arm(fn, fn == nil)
}

// FrameInfo returns the timing record of the last completed frame. It is
// stable once that frame's completion callback has run.
func (t *Task) FrameInfo() FrameInfo {
	if fi := t.lastFrame.Load(); fi != nil {
		return *fi
	}
	return FrameInfo{}
}

// FramesInFlight returns the number of submitted frames whose draw phase
// has not finished.
func (t *Task) FramesInFlight() int {
	return int(t.inFlight.Load())
}

// SubmitFrame hands the current frame to the render goroutine and blocks
// until its sync phase has captured everything the draw needs. It returns
// the frame's SyncResult.
//
// SubmitFrame must not be called again before it returns. An unconfigured
// task or an executor that no longer accepts work yields ContextIsStopped
// without blocking.
func (t *Task) SubmitFrame() SyncResult {
	if !t.submitting.CompareAndSwap(false, true) {
		panic("framesync: concurrent SubmitFrame on the same Task")
	}
	defer t.submitting.Store(false)

	t.mu.Lock()
	exec := t.executor
	if exec == nil {
		t.mu.Unlock()
		Logger().Warn("framesync: SubmitFrame on unconfigured task")
		return ContextIsStopped
	}
	t.syncResult = OK
	t.syncQueued = t.opts.clock()
	t.submitted++
	seq := t.submitted
	t.inFlight.Add(1)
	t.mu.Unlock()

	if !exec.Post(t.run) {
		return t.dropRejected(seq)
	}

	t.mu.Lock()
	for t.unblocked < seq {
		t.cond.Wait()
	}
	res := t.syncResult
	t.mu.Unlock()
	return res
}

// run executes one frame on the render goroutine.
func (t *Task) run() {
	t.mu.Lock()
	rec := t.syncFrameState()
	if !rec.deferUnblock {
		t.unblockLocked(rec.seq)
	}
	t.mu.Unlock()

	// From here on the producer may be running again: only rec is used.
	t.drawFrame(rec)

	if rec.deferUnblock {
		t.mu.Lock()
		t.unblockLocked(rec.seq)
		t.mu.Unlock()
	}
}

func (t *Task) unblockLocked(seq uint64) {
	t.unblocked = seq
	t.cond.Broadcast()
}

// syncFrameState is the sync phase. t.mu must be held.
func (t *Task) syncFrameState() *frameRecord {
	start := t.opts.clock()
	rec := &frameRecord{
		seq:    t.submitted,
		ctx:    t.context,
		timing: t.frameInfo,
	}
	t.frameInfo = FrameInfo{}
	rec.timing.Set(FrameInfoFlags, 0)
	rec.timing.Set(FrameInfoSyncQueued, t.syncQueued)
	rec.timing.Set(FrameInfoSyncStart, start)

	info := TreeInfo{
		ForceDraw:       t.forceDraw.Swap(false),
		PrepareTextures: true,
	}
	if info.ForceDraw {
		rec.timing.AddFlag(FrameFlagForcedDraw)
	}

	state := FrameState{
		ContentBounds: t.contentBounds,
		SdrHdrRatio:   t.sdrHdrRatio,
		Buffer:        t.bufferParams,
		SyncDelay:     time.Duration(start - t.syncQueued),
	}

	var snap Snapshot
	applied := 0
	status := t.context.Status()
	if status == StatusStopped {
		// Nothing touches a stopped context. Pending layers stay queued.
		t.syncResult |= ContextIsStopped
		info.SkippedFrameReason = SkipContextStopped
	} else {
		applied = t.applyLayerUpdates()
		t.context.SetFrameState(state)
		snap = t.context.Snapshot(t.root, &info)
		t.lastNumber = t.context.FrameNumber()
		if status == StatusNoSurface {
			t.syncResult |= LostSurfaceRewardIfFound
			info.SkippedFrameReason = SkipNoOutputTarget
		}
	}

	if info.HasAnimations && info.RequiresUIRedraw {
		t.syncResult |= UIRedrawRequired
	}
	if info.SkippedFrameReason != SkipNone {
		t.syncResult |= FrameDropped
		rec.timing.AddFlag(FrameFlagSkipped)
	}
	if !info.PrepareTextures && info.SkippedFrameReason == SkipNone {
		rec.deferUnblock = true
		rec.timing.AddFlag(FrameFlagDeferredUnblock)
	}

	rec.callbacks = t.takeCallbacksLocked()
	rec.frame = Frame{
		Number:   t.lastNumber,
		Snapshot: snap,
		Info:     info,
		State:    state,
	}
	rec.timing.Set(FrameInfoSyncEnd, t.opts.clock())
	rec.frame.Timing = &rec.timing

	Logger().Debug("framesync: sync phase",
		"frame", rec.frame.Number,
		"status", status,
		"layers", applied,
		"force", info.ForceDraw,
		"skip", info.SkippedFrameReason,
		"result", t.syncResult,
	)
	return rec
}

// applyLayerUpdates drains the layer queue into the context and drops the
// queue's reference to each applied layer.
func (t *Task) applyLayerUpdates() int {
	layers := t.layers.Drain()
	for _, l := range layers {
		t.context.ApplyLayerUpdate(l)
		l.Release()
	}
	return len(layers)
}

func (t *Task) takeCallbacksLocked() frameCallbacks {
	var cbs frameCallbacks
	cbs.dispatch, _ = t.frameCallback.take()
	cbs.commit, _ = t.commitCallback.take()
	cbs.complete, _ = t.completeCallback.take()
	return cbs
}

// drawFrame is the draw phase. It runs without the barrier lock.
func (t *Task) drawFrame(rec *frameRecord) {
	skip := rec.frame.Info.SkippedFrameReason

	draw := func() bool {
		switch skip {
		case SkipNone:
			rec.timing.Set(FrameInfoIssueDrawCommandsStart, t.opts.clock())
			return rec.ctx.Draw(&rec.frame)
		case SkipContextStopped:
			return false
		default:
			// Layer uploads from the sync phase would otherwise sit in the
			// queue until the next drawn frame.
			if f, ok := rec.ctx.(Flusher); ok {
				f.Flush()
			}
			return false
		}
	}

	rec.callbacks.resolve(rec.frame.Number, rec.timing.Get(FrameInfoVsync), draw, func(presented bool) {
		if p := rec.frame.State.Buffer; p.HasBuffer() && p.OnRendered != nil {
			p.OnRendered(presented)
		}
		t.publishFrame(rec)
	})

	t.mu.Lock()
	t.inFlight.Add(-1)
	t.cond.Broadcast()
	t.mu.Unlock()
}

// publishFrame stamps completion and hands the timing record to readers.
func (t *Task) publishFrame(rec *frameRecord) {
	rec.timing.Set(FrameInfoFrameCompleted, t.opts.clock())
	published := rec.timing
	t.lastFrame.Store(&published)
	for _, observe := range t.opts.observers {
		observe(published)
	}

	Logger().Debug("framesync: frame complete",
		"frame", rec.frame.Number,
		"sync", published.Duration(FrameInfoSyncStart, FrameInfoSyncEnd),
		"total", published.Duration(FrameInfoSyncQueued, FrameInfoFrameCompleted),
	)
}

// dropRejected resolves a frame the executor refused to run. Everything
// happens on the calling goroutine, after earlier frames have completed so
// completions and published records stay in submission order.
func (t *Task) dropRejected(seq uint64) SyncResult {
	t.mu.Lock()
	for t.inFlight.Load() > 1 {
		t.cond.Wait()
	}
	now := t.opts.clock()
	rec := &frameRecord{
		seq:    seq,
		timing: t.frameInfo,
	}
	t.frameInfo = FrameInfo{}
	rec.timing.Set(FrameInfoFlags, FrameFlagSkipped)
	rec.timing.Set(FrameInfoSyncQueued, t.syncQueued)
	rec.timing.Set(FrameInfoSyncStart, now)
	rec.timing.Set(FrameInfoSyncEnd, now)
	rec.frame = Frame{
		Number: t.lastNumber,
		Info:   TreeInfo{SkippedFrameReason: SkipContextStopped},
	}
	rec.frame.Timing = &rec.timing
	rec.callbacks = t.takeCallbacksLocked()
	t.syncResult = ContextIsStopped | FrameDropped
	t.unblockLocked(seq)
	res := t.syncResult
	t.mu.Unlock()

	Logger().Warn("framesync: executor rejected frame, dropping it", "seq", seq)
	t.drawFrame(rec)
	return res
}
