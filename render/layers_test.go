// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/framesync"
)

func TestNewLayer(t *testing.T) {
	l := NewLayer(7, 20, 10)

	if l.ID() != 7 {
		t.Errorf("ID() = %d, want 7", l.ID())
	}
	if l.Refs() != 1 {
		t.Errorf("Refs() = %d, want 1", l.Refs())
	}
	if l.Bounds() != image.Rect(0, 0, 20, 10) {
		t.Errorf("Bounds() = %v, want (0,0)-(20,10)", l.Bounds())
	}
	if l.Freed() {
		t.Error("new layer should not be freed")
	}
}

func TestLayerRefCounting(t *testing.T) {
	l := NewLayer(1, 4, 4)

	l.Retain()
	l.Destroy()
	if l.Freed() {
		t.Fatal("layer freed while a reference is outstanding")
	}
	if l.uploadSize() != 4*4*4 {
		t.Errorf("uploadSize() = %d, want %d", l.uploadSize(), 4*4*4)
	}

	l.Release()
	if !l.Freed() {
		t.Error("layer should be freed after the last release")
	}
	if l.uploadSize() != 0 {
		t.Errorf("uploadSize() after free = %d, want 0", l.uploadSize())
	}
	if l.upload() != nil {
		t.Error("upload() of a freed layer should return nil")
	}

	called := false
	l.Update(func(*image.RGBA) { called = true })
	if called {
		t.Error("Update() should be a no-op on a freed layer")
	}
}

func TestLayerQueueHoldsReference(t *testing.T) {
	l := NewLayer(1, 4, 4)
	q := framesync.NewLayerQueue()

	q.Push(l)
	l.Destroy()
	if l.Freed() {
		t.Fatal("queued layer freed by Destroy")
	}

	for _, pending := range q.Drain() {
		pending.Release()
	}
	if !l.Freed() {
		t.Error("layer should be freed once the queue drops it")
	}
}

func TestLayerGeometry(t *testing.T) {
	l := NewLayer(1, 20, 10)

	l.SetOrigin(image.Pt(5, 6))
	if got, want := l.Bounds(), image.Rect(5, 6, 25, 16); got != want {
		t.Errorf("Bounds() after SetOrigin = %v, want %v", got, want)
	}

	l.SetBounds(image.Rect(40, 40, 0, 0))
	if got, want := l.Bounds(), image.Rect(0, 0, 40, 40); got != want {
		t.Errorf("Bounds() after SetBounds = %v, want %v", got, want)
	}

	l.SetOrigin(image.Pt(1, 1))
	if got, want := l.Bounds(), image.Rect(1, 1, 41, 41); got != want {
		t.Errorf("SetOrigin() should keep the size: Bounds() = %v, want %v", got, want)
	}
}

func TestLayerUpload(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	l := NewLayer(3, 2, 2)
	l.SetZ(4)
	l.SetOrigin(image.Pt(10, 10))
	l.Update(func(img *image.RGBA) {
		img.SetRGBA(0, 0, red)
	})

	tex := l.upload()
	if tex == nil {
		t.Fatal("upload() = nil")
	}
	if tex.z != 4 {
		t.Errorf("z = %d, want 4", tex.z)
	}
	if tex.dst != image.Rect(10, 10, 12, 12) {
		t.Errorf("dst = %v, want (10,10)-(12,12)", tex.dst)
	}
	if !tex.visible {
		t.Error("uploaded texture should be visible")
	}
	if got := tex.img.RGBAAt(0, 0); got != red {
		t.Errorf("texture pixel = %v, want %v", got, red)
	}

	// The texture is a copy: later updates do not reach it.
	l.Update(func(img *image.RGBA) {
		img.SetRGBA(0, 0, color.RGBA{})
	})
	if got := tex.img.RGBAAt(0, 0); got != red {
		t.Errorf("texture pixel after update = %v, want %v", got, red)
	}

	if next := l.upload(); next.version <= tex.version {
		t.Errorf("version = %d, want > %d", next.version, tex.version)
	}
}

func TestLayerVisibility(t *testing.T) {
	l := NewLayer(1, 1, 1)
	l.SetVisible(false)

	if tex := l.upload(); tex.visible {
		t.Error("hidden layer uploaded as visible")
	}
}
