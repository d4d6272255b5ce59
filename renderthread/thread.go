// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package renderthread provides the render goroutine that executes frame
// tasks.
//
// A Thread runs posted work one item at a time, in post order, on a single
// goroutine. It satisfies framesync.Executor:
//
//	rt := renderthread.New(renderthread.WithLockOSThread())
//	defer rt.Close()
//
//	task := framesync.NewTask()
//	_ = task.Setup(rt, ctx, root)
//
// Once Post has accepted work, the work runs even if Close is called
// afterwards. Close stops accepting new work, drains the queue and waits
// for the goroutine to exit.
package renderthread

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/emirpasic/gods/queues/linkedlistqueue"

	"github.com/gogpu/framesync"
)

// Thread is a single render goroutine with an unbounded work queue.
//
// Thread safety: Thread is safe for concurrent use.
type Thread struct {
	name     string
	lockOS   bool
	running  atomic.Bool
	executed atomic.Uint64

	mu    sync.Mutex
	cond  *sync.Cond
	queue *linkedlistqueue.Queue
	done  chan struct{}
}

// Option configures a Thread.
type Option func(*Thread)

// WithName sets the name used in log records.
func WithName(name string) Option {
	return func(t *Thread) {
		if name != "" {
			t.name = name
		}
	}
}

// WithLockOSThread pins the render goroutine to its OS thread for its whole
// lifetime. Graphics APIs with thread-affine contexts need this.
func WithLockOSThread() Option {
	return func(t *Thread) {
		t.lockOS = true
	}
}

// New starts a render goroutine.
func New(opts ...Option) *Thread {
	t := &Thread{
		name:  "render",
		queue: linkedlistqueue.New(),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.cond = sync.NewCond(&t.mu)
	t.running.Store(true)

	go t.loop()

	framesync.Logger().Info("renderthread: started", "name", t.name, "lockOSThread", t.lockOS)
	return t
}

// Post queues fn for execution on the render goroutine. It returns false if
// the thread has been closed or fn is nil.
func (t *Thread) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running.Load() {
		return false
	}
	t.queue.Enqueue(fn)
	t.cond.Signal()
	return true
}

// Run posts fn and waits for it to finish. It returns false without running
// fn if the thread has been closed.
func (t *Thread) Run(fn func()) bool {
	if fn == nil {
		return false
	}
	done := make(chan struct{})
	if !t.Post(func() {
		defer close(done)
		fn()
	}) {
		return false
	}
	<-done
	return true
}

// loop is the render goroutine.
func (t *Thread) loop() {
	defer close(t.done)

	if t.lockOS {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	for {
		fn, ok := t.next()
		if !ok {
			return
		}
		t.execute(fn)
	}
}

// next blocks until work is available. It returns false once the thread is
// closed and the queue is empty.
func (t *Thread) next() (func(), bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for t.queue.Empty() {
		if !t.running.Load() {
			return nil, false
		}
		t.cond.Wait()
	}
	v, _ := t.queue.Dequeue()
	return v.(func()), true
}

// execute runs one work item. A panicking item is logged and does not take
// the render goroutine down with it.
func (t *Thread) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			framesync.Logger().Error("renderthread: work item panicked", "name", t.name, "panic", r)
		}
	}()
	fn()
	t.executed.Add(1)
}

// Close stops accepting work, runs everything already queued and waits for
// the render goroutine to exit. Close is safe to call multiple times.
func (t *Thread) Close() {
	t.mu.Lock()
	first := t.running.CompareAndSwap(true, false)
	t.cond.Broadcast()
	t.mu.Unlock()

	<-t.done
	if first {
		framesync.Logger().Info("renderthread: stopped", "name", t.name, "executed", t.executed.Load())
	}
}

// Name returns the thread name.
func (t *Thread) Name() string {
	return t.name
}

// IsRunning returns true if the thread is still accepting work.
func (t *Thread) IsRunning() bool {
	return t.running.Load()
}

// QueuedWork returns the number of work items waiting to run.
func (t *Thread) QueuedWork() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queue.Size()
}

// Executed returns the number of work items that completed without panicking.
func (t *Thread) Executed() uint64 {
	return t.executed.Load()
}

var _ framesync.Executor = (*Thread)(nil)
