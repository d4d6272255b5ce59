// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"sync"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"
)

// Surface is the output a SoftwareContext presents into: a CPU front buffer
// standing in for a window surface.
//
// A surface can be lost, for example when its window is hidden, and
// reclaimed later. Presenting to a lost surface fails and the frame is
// reported as not presented.
//
// Thread safety: Surface is safe for concurrent use.
type Surface struct {
	mu        sync.Mutex
	img       *image.RGBA
	format    gputypes.TextureFormat
	lost      bool
	presented uint64
}

// NewSurface creates a width x height surface. With an undefined format the
// context that draws into it picks one.
func NewSurface(width, height int, format gputypes.TextureFormat) *Surface {
	return &Surface{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		format: format,
	}
}

// Bounds returns the surface bounds.
func (s *Surface) Bounds() image.Rectangle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img.Rect
}

// Format returns the pixel format of the front buffer.
func (s *Surface) Format() gputypes.TextureFormat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

func (s *Surface) setFormat(f gputypes.TextureFormat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.format = f
}

// Resize replaces the front buffer. The contents are not preserved.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Lose detaches the surface. Frames are not presented until Reclaim.
func (s *Surface) Lose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lost = true
}

// Reclaim reattaches a lost surface.
func (s *Surface) Reclaim() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lost = false
}

// Lost reports whether the surface is detached.
func (s *Surface) Lost() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lost
}

// Presented returns the number of frames presented so far.
func (s *Surface) Presented() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented
}

// Image returns a copy of the front buffer in RGBA order, whatever the
// surface format.
func (s *Surface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	img := image.NewRGBA(s.img.Rect)
	copy(img.Pix, s.img.Pix)
	if s.format == gputypes.TextureFormatBGRA8Unorm {
		swizzle(img.Pix)
	}
	return img
}

// present copies src into the front buffer. It fails if the surface is lost
// or src does not match the surface size.
func (s *Surface) present(src *image.RGBA) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lost || src.Rect != s.img.Rect {
		return false
	}
	xdraw.Copy(s.img, s.img.Rect.Min, src, src.Rect, xdraw.Src, nil)
	if s.format == gputypes.TextureFormatBGRA8Unorm {
		swizzle(s.img.Pix)
	}
	s.presented++
	return true
}

// swizzle swaps the R and B channels in place.
func swizzle(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
