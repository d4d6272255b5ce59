// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/framesync"
)

// Layer is a CPU-backed offscreen layer composited over the scene.
//
// The producer draws into a layer with Update and then queues the layer with
// Task.PushLayerUpdate; the context copies the content into its texture
// cache during the next sync phase. A layer is reference counted: the
// creator holds one reference, released by Destroy, and the layer queue
// holds another while an update is pending. The pixels are freed when the
// last reference goes away.
//
// Thread safety: Layer is safe for concurrent use.
type Layer struct {
	id   int
	refs atomic.Int32

	mu      sync.Mutex
	img     *image.RGBA
	dst     image.Rectangle
	z       int
	visible bool
	version uint64
}

// NewLayer creates a transparent width x height layer positioned at the
// origin. The caller owns the returned reference.
func NewLayer(id, width, height int) *Layer {
	l := &Layer{
		id:      id,
		img:     image.NewRGBA(image.Rect(0, 0, width, height)),
		dst:     image.Rect(0, 0, width, height),
		visible: true,
	}
	l.refs.Store(1)
	return l
}

// ID returns the layer id.
func (l *Layer) ID() int {
	return l.id
}

// Update calls fn with the layer pixels under the layer lock. It is a no-op
// on a freed layer.
func (l *Layer) Update(fn func(img *image.RGBA)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.img == nil {
		return
	}
	fn(l.img)
	l.version++
}

// SetOrigin moves the layer so its top-left corner is at p.
func (l *Layer) SetOrigin(p image.Point) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dst = l.dst.Sub(l.dst.Min).Add(p)
	l.version++
}

// SetBounds sets the destination rectangle. Content is scaled to fit.
func (l *Layer) SetBounds(r image.Rectangle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dst = r.Canon()
	l.version++
}

// Bounds returns the destination rectangle.
func (l *Layer) Bounds() image.Rectangle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dst
}

// SetZ sets the stacking order. Higher values are composited on top.
func (l *Layer) SetZ(z int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.z = z
	l.version++
}

// SetVisible controls whether the layer is composited.
func (l *Layer) SetVisible(visible bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.visible = visible
	l.version++
}

// Retain implements framesync.Layer.
func (l *Layer) Retain() {
	l.refs.Add(1)
}

// Release implements framesync.Layer. The last release frees the pixels.
func (l *Layer) Release() {
	switch n := l.refs.Add(-1); {
	case n == 0:
		l.mu.Lock()
		l.img = nil
		l.mu.Unlock()
	case n < 0:
		framesync.Logger().Warn("render: layer released too many times", "layer", l.id, "refs", n)
	}
}

// Destroy drops the creator's reference.
func (l *Layer) Destroy() {
	l.Release()
}

// Refs returns the current reference count.
func (l *Layer) Refs() int {
	return int(l.refs.Load())
}

// Freed reports whether the last reference was released.
func (l *Layer) Freed() bool {
	return l.refs.Load() <= 0
}

// upload copies the layer into a texture. It returns nil for a freed layer.
func (l *Layer) upload() *texture {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.img == nil {
		return nil
	}
	img := image.NewRGBA(l.img.Rect)
	copy(img.Pix, l.img.Pix)
	return &texture{
		layer:   l,
		img:     img,
		dst:     l.dst,
		z:       l.z,
		visible: l.visible,
		version: l.version,
	}
}

// uploadSize returns the number of bytes upload would copy.
func (l *Layer) uploadSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.img == nil {
		return 0
	}
	return len(l.img.Pix)
}

var _ framesync.Layer = (*Layer)(nil)
