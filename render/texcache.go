// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"cmp"
	"image"
	"slices"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// DefaultTextureBudget is the default texture cache budget in bytes.
const DefaultTextureBudget = 64 << 20

// texture is the context-side copy of a layer.
type texture struct {
	layer   *Layer
	img     *image.RGBA
	dst     image.Rectangle
	z       int
	visible bool
	version uint64
}

func (t *texture) size() int {
	return len(t.img.Pix)
}

// textureCache holds uploaded layer textures keyed by layer id, least
// recently uploaded first. It is used only on the render goroutine.
type textureCache struct {
	budget  int
	used    int
	entries *linkedhashmap.Map

	uploads   uint64
	evictions uint64
}

func newTextureCache(budget int) *textureCache {
	return &textureCache{
		budget:  budget,
		entries: linkedhashmap.New(),
	}
}

// fits reports whether replacing the texture of layer id with size bytes
// stays within the budget. A budget <= 0 is unlimited.
func (c *textureCache) fits(id, size int) bool {
	if c.budget <= 0 {
		return true
	}
	used := c.used
	if old := c.get(id); old != nil {
		used -= old.size()
	}
	return used+size <= c.budget
}

func (c *textureCache) get(id int) *texture {
	v, ok := c.entries.Get(id)
	if !ok {
		return nil
	}
	return v.(*texture)
}

// put stores tex, moving it to the most recent position, and returns the
// texture it replaced.
func (c *textureCache) put(tex *texture) *texture {
	old := c.remove(tex.layer.ID())
	c.entries.Put(tex.layer.ID(), tex)
	c.used += tex.size()
	c.uploads++
	return old
}

func (c *textureCache) remove(id int) *texture {
	old := c.get(id)
	if old == nil {
		return nil
	}
	c.entries.Remove(id)
	c.used -= old.size()
	return old
}

// trim evicts textures whose layer has been freed and returns the regions
// they covered.
func (c *textureCache) trim() []image.Rectangle {
	var freed []*texture
	it := c.entries.Iterator()
	for it.Next() {
		if tex := it.Value().(*texture); tex.layer.Freed() {
			freed = append(freed, tex)
		}
	}

	damage := make([]image.Rectangle, 0, len(freed))
	for _, tex := range freed {
		c.remove(tex.layer.ID())
		c.evictions++
		if tex.visible {
			damage = append(damage, tex.dst)
		}
	}
	return damage
}

// visible returns the visible textures in compositing order.
func (c *textureCache) visible() []*texture {
	out := make([]*texture, 0, c.entries.Size())
	it := c.entries.Iterator()
	for it.Next() {
		if tex := it.Value().(*texture); tex.visible {
			out = append(out, tex)
		}
	}
	slices.SortStableFunc(out, func(a, b *texture) int {
		if d := cmp.Compare(a.z, b.z); d != 0 {
			return d
		}
		return cmp.Compare(a.layer.ID(), b.layer.ID())
	})
	return out
}

func (c *textureCache) len() int {
	return c.entries.Size()
}

func (c *textureCache) clear() {
	c.entries.Clear()
	c.used = 0
}
