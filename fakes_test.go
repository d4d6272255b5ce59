// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framesync

import (
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// serialExecutor runs posted work on one goroutine.
type serialExecutor struct {
	mu     sync.Mutex
	closed bool
	work   chan func()
	done   chan struct{}
}

func newSerialExecutor(t *testing.T) *serialExecutor {
	t.Helper()
	e := &serialExecutor{
		work: make(chan func(), 64),
		done: make(chan struct{}),
	}
	go func() {
		defer close(e.done)
		for fn := range e.work {
			fn()
		}
	}()
	t.Cleanup(e.close)
	return e
}

func (e *serialExecutor) Post(fn func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.work <- fn
	return true
}

func (e *serialExecutor) close() {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.work)
	}
	e.mu.Unlock()
	<-e.done
}

// deadExecutor refuses all work, like a torn-down render thread.
type deadExecutor struct{}

func (deadExecutor) Post(func()) bool { return false }

type fakeSnapshot struct {
	bounds image.Rectangle
}

func (s fakeSnapshot) Bounds() image.Rectangle { return s.bounds }

type fakeRoot struct {
	captures atomic.Int32
}

func (r *fakeRoot) Capture(*TreeInfo) Snapshot {
	r.captures.Add(1)
	return fakeSnapshot{bounds: image.Rect(0, 0, 10, 10)}
}

type fakeLayer struct {
	id   int
	refs atomic.Int32
}

func newFakeLayer(id int) *fakeLayer {
	l := &fakeLayer{id: id}
	l.refs.Store(1)
	return l
}

func (l *fakeLayer) Retain()  { l.refs.Add(1) }
func (l *fakeLayer) Release() { l.refs.Add(-1) }

// fakeContext records every call made by the task.
type fakeContext struct {
	mu sync.Mutex

	status          Status
	presented       bool
	animating       bool
	exhaustTextures bool

	applied   []Layer
	states    []FrameState
	infos     []TreeInfo
	drawn     []uint64
	snapshots int
	flushes   int
	number    uint64

	snapshotHook func()
	drawHook     func(*Frame)
}

func newFakeContext() *fakeContext {
	return &fakeContext{status: StatusReady, presented: true, number: 1}
}

func (c *fakeContext) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

func (c *fakeContext) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *fakeContext) ApplyLayerUpdate(l Layer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applied = append(c.applied, l)
}

func (c *fakeContext) SetFrameState(s FrameState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = append(c.states, s)
}

func (c *fakeContext) Snapshot(root SceneRoot, info *TreeInfo) Snapshot {
	c.mu.Lock()
	hook := c.snapshotHook
	c.snapshots++
	if c.animating {
		info.HasAnimations = true
		info.RequiresUIRedraw = true
	}
	if c.exhaustTextures {
		info.PrepareTextures = false
	}
	c.infos = append(c.infos, *info)
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
	return root.Capture(info)
}

func (c *fakeContext) Draw(f *Frame) bool {
	c.mu.Lock()
	hook := c.drawHook
	c.mu.Unlock()

	if hook != nil {
		hook(f)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawn = append(c.drawn, f.Number)
	c.number++
	f.Timing.Set(FrameInfoSwapBuffers, f.Timing.Get(FrameInfoIssueDrawCommandsStart)+1)
	return c.presented
}

func (c *fakeContext) FrameNumber() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.number
}

func (c *fakeContext) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushes++
}

func (c *fakeContext) appliedLayers() []Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Layer(nil), c.applied...)
}

func (c *fakeContext) drawCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.drawn)
}

func (c *fakeContext) lastInfo() TreeInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.infos[len(c.infos)-1]
}

// waitIdle blocks until every submitted frame has finished drawing.
func waitIdle(t *testing.T, task *Task) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for task.FramesInFlight() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("FramesInFlight() = %d after 2s, want 0", task.FramesInFlight())
		}
		time.Sleep(time.Millisecond)
	}
}

func newBoundTask(t *testing.T, opts ...TaskOption) (*Task, *fakeContext, *fakeRoot) {
	t.Helper()
	task := NewTask(opts...)
	ctx := newFakeContext()
	root := &fakeRoot{}
	if err := task.Setup(newSerialExecutor(t), ctx, root); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	return task, ctx, root
}

// oneShotExecutor accepts the first frame and refuses every later one.
type oneShotExecutor struct {
	inner    *serialExecutor
	accepted atomic.Bool
	once     sync.Once
	rejected chan struct{}
}

func newOneShotExecutor(t *testing.T) *oneShotExecutor {
	t.Helper()
	return &oneShotExecutor{
		inner:    newSerialExecutor(t),
		rejected: make(chan struct{}),
	}
}

func (e *oneShotExecutor) Post(fn func()) bool {
	if e.accepted.CompareAndSwap(false, true) {
		return e.inner.Post(fn)
	}
	e.once.Do(func() { close(e.rejected) })
	return false
}
