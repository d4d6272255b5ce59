// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framesync

import (
	"strings"
	"sync"
	"testing"
)

func TestLayerQueuePushDedup(t *testing.T) {
	q := NewLayerQueue()
	a := newFakeLayer(1)

	q.Push(a)
	q.Push(a)
	q.Push(nil)

	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
	if got := a.refs.Load(); got != 2 {
		t.Errorf("refs = %d, want 2 (owner + queue)", got)
	}
	if !q.Contains(a) {
		t.Error("Contains(a) = false after Push")
	}
}

// sliceLayer is a value-type layer that cannot be a map key.
type sliceLayer struct {
	tiles []int
}

func (sliceLayer) Retain()  {}
func (sliceLayer) Release() {}

func TestLayerQueueNonComparableLayer(t *testing.T) {
	q := NewLayerQueue()
	l := sliceLayer{tiles: []int{1, 2}}

	if q.Contains(l) {
		t.Error("Contains() of non-comparable layer = true")
	}
	if q.Remove(l) {
		t.Error("Remove() of non-comparable layer = true")
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Push() of non-comparable layer did not panic")
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "sliceLayer is not comparable") {
			t.Errorf("panic = %v, want a not comparable message", r)
		}
		if q.Len() != 0 {
			t.Errorf("Len() = %d after rejected Push, want 0", q.Len())
		}
	}()
	q.Push(l)
}

func TestLayerQueueRemove(t *testing.T) {
	q := NewLayerQueue()
	a := newFakeLayer(1)

	if q.Remove(a) {
		t.Error("Remove() of absent layer = true")
	}
	q.Push(a)
	if !q.Remove(a) {
		t.Error("Remove() of queued layer = false")
	}
	if got := a.refs.Load(); got != 1 {
		t.Errorf("refs after Remove = %d, want 1", got)
	}
	if q.Remove(nil) {
		t.Error("Remove(nil) = true")
	}
}

func TestLayerQueueDrainOrder(t *testing.T) {
	q := NewLayerQueue()
	a, b, c := newFakeLayer(1), newFakeLayer(2), newFakeLayer(3)

	q.Push(b)
	q.Push(a)
	q.Push(c)
	q.Push(b)

	got := q.Drain()
	want := []Layer{b, a, c}
	if len(got) != len(want) {
		t.Fatalf("Drain() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Drain()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len() after Drain = %d, want 0", q.Len())
	}
	if q.Drain() != nil {
		t.Error("Drain() of empty queue should return nil")
	}

	// Ownership of one reference per layer moved to the caller.
	for _, l := range []*fakeLayer{a, b, c} {
		if got := l.refs.Load(); got != 2 {
			t.Errorf("layer %d refs = %d, want 2", l.id, got)
		}
	}
}

func TestLayerQueueRemoveAfterDrain(t *testing.T) {
	q := NewLayerQueue()
	a := newFakeLayer(1)
	q.Push(a)

	drained := q.Drain()
	if q.Remove(a) {
		t.Error("Remove() after Drain = true; drained updates must not be cancelled")
	}
	if len(drained) != 1 {
		t.Errorf("drained = %d, want 1", len(drained))
	}
}

func TestLayerQueueClear(t *testing.T) {
	q := NewLayerQueue()
	a, b := newFakeLayer(1), newFakeLayer(2)
	q.Push(a)
	q.Push(b)

	q.Clear()

	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	for _, l := range []*fakeLayer{a, b} {
		if got := l.refs.Load(); got != 1 {
			t.Errorf("layer %d refs = %d, want 1", l.id, got)
		}
	}
}

func TestLayerQueueConcurrent(t *testing.T) {
	q := NewLayerQueue()
	const workers = 8
	const perWorker = 200

	layers := make([][]*fakeLayer, workers)
	for w := range layers {
		layers[w] = make([]*fakeLayer, perWorker)
		for i := range layers[w] {
			layers[w][i] = newFakeLayer(w*perWorker + i)
		}
	}

	var drained []Layer
	var wg sync.WaitGroup
	stop := make(chan struct{})
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for {
			select {
			case <-stop:
				drained = append(drained, q.Drain()...)
				return
			default:
				drained = append(drained, q.Drain()...)
			}
		}
	}()

	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, l := range layers[w] {
				q.Push(l)
			}
		}()
	}
	wg.Wait()
	close(stop)
	<-drainDone

	seen := make(map[Layer]int, workers*perWorker)
	for _, l := range drained {
		seen[l]++
	}
	if len(seen) != workers*perWorker {
		t.Errorf("drained %d distinct layers, want %d", len(seen), workers*perWorker)
	}
	for l, n := range seen {
		if n != 1 {
			t.Errorf("layer %d drained %d times, want 1", l.(*fakeLayer).id, n)
		}
	}
}
