// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"
)

// replay draws the commands of dl into dst, restricted to clip.
func replay(dst *image.RGBA, dl *DisplayList, clip image.Rectangle) {
	clip = clip.Intersect(dst.Bounds())
	if clip.Empty() {
		return
	}
	for _, cmd := range dl.commands {
		r := cmd.rect.Intersect(clip)
		if r.Empty() {
			continue
		}
		op := xdraw.Over
		if cmd.op == opClear || cmd.color.A == 0xff {
			op = xdraw.Src
		}
		xdraw.Draw(dst, r, image.NewUniform(cmd.color), image.Point{}, op)
	}
}

// composite blends a layer texture into dst at its destination rectangle,
// restricted to clip. Textures whose destination size differs from their
// content size are scaled.
func composite(dst *image.RGBA, tex *texture, clip image.Rectangle) {
	r := tex.dst.Intersect(clip).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	src := tex.img.Bounds()
	if tex.dst.Size() == src.Size() {
		sp := src.Min.Add(r.Min.Sub(tex.dst.Min))
		xdraw.Draw(dst, r, tex.img, sp, xdraw.Over)
		return
	}
	// Scale the whole texture; the sub-image clips the output to r.
	sub, ok := dst.SubImage(r).(*image.RGBA)
	if !ok {
		return
	}
	xdraw.ApproxBiLinear.Scale(sub, tex.dst, tex.img, src, xdraw.Over, nil)
}

// fill paints r with c, replacing what is there.
func fill(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	xdraw.Draw(dst, r, image.NewUniform(c), image.Point{}, xdraw.Src)
}

// toRGBA converts any color to premultiplied 8-bit RGBA.
func toRGBA(c color.Color) color.RGBA {
	if c == nil {
		return color.RGBA{}
	}
	r, g, b, a := c.RGBA()
	//nolint:gosec // G115: values are 16-bit, shifted to 8-bit
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

// clearColorRGBA converts a straight-alpha float clear color to
// premultiplied 8-bit RGBA. Components are clamped to [0, 1].
func clearColorRGBA(c gputypes.Color) color.RGBA {
	a := unit(c.A)
	return color.RGBA{
		R: to8(unit(c.R) * a),
		G: to8(unit(c.G) * a),
		B: to8(unit(c.B) * a),
		A: to8(a),
	}
}

func unit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func to8(v float64) uint8 {
	return uint8(v*255 + 0.5)
}
