// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framesync

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/emirpasic/gods/sets/linkedhashset"
)

// Layer is an offscreen layer whose content is updated independently of the
// scene root. Layers are shared: the queue holds one reference to every
// pending layer so it cannot be destroyed while its update is pending or
// being applied.
//
// The queue keys layers by identity, so implementations must be comparable.
// In practice that means a pointer type.
type Layer interface {
	// Retain adds a reference.
	Retain()

	// Release drops a reference. The layer may free its resources when the
	// last reference is released.
	Release()
}

// LayerQueue is the set of layers with a pending update.
//
// A layer appears at most once. Push, Remove and Drain are safe to call from
// any goroutine at any time. The queue has its own lock, separate from the
// frame barrier, so it stays mutable while a previous frame is drawing.
type LayerQueue struct {
	mu      sync.Mutex
	pending *linkedhashset.Set
}

// NewLayerQueue returns an empty queue.
func NewLayerQueue() *LayerQueue {
	return &LayerQueue{pending: linkedhashset.New()}
}

// Push queues an update for l. Pushing a queued layer is a no-op.
// Push panics if l is not comparable.
func (q *LayerQueue) Push(l Layer) {
	if l == nil {
		return
	}
	if !hashable(l) {
		panic(fmt.Sprintf("framesync: layer of type %T is not comparable", l))
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending.Contains(l) {
		return
	}
	l.Retain()
	q.pending.Add(l)
}

// Remove cancels a pending update for l. It returns false if l was not
// queued. An update already handed out by Drain is not affected.
func (q *LayerQueue) Remove(l Layer) bool {
	if l == nil || !hashable(l) {
		return false
	}
	q.mu.Lock()
	if !q.pending.Contains(l) {
		q.mu.Unlock()
		return false
	}
	q.pending.Remove(l)
	q.mu.Unlock()

	// Release outside the lock: the last release may free the layer.
	l.Release()
	return true
}

// Drain empties the queue and returns its contents in push order. The
// caller takes over the queue's reference to each returned layer and must
// Release it once the update is applied.
func (q *LayerQueue) Drain() []Layer {
	q.mu.Lock()
	if q.pending.Empty() {
		q.mu.Unlock()
		return nil
	}
	drained := q.pending
	q.pending = linkedhashset.New()
	q.mu.Unlock()

	values := drained.Values()
	layers := make([]Layer, len(values))
	for i, v := range values {
		layers[i] = v.(Layer)
	}
	return layers
}

// Len returns the number of pending layers.
func (q *LayerQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Size()
}

// Contains reports whether l has a pending update.
func (q *LayerQueue) Contains(l Layer) bool {
	if l == nil || !hashable(l) {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Contains(l)
}

// Clear drops every pending update and releases the queue's references.
func (q *LayerQueue) Clear() {
	for _, l := range q.Drain() {
		l.Release()
	}
}

// hashable reports whether l can be used as a set key. A non-comparable
// layer can never be queued.
func hashable(l Layer) bool {
	return reflect.TypeOf(l).Comparable()
}
