// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framesync

import "strings"

// SyncResult is the set of conditions reported by one SubmitFrame call.
// The flags are independent and may be combined.
type SyncResult uint32

const (
	// OK means the frame was synced with nothing to report.
	OK SyncResult = 0

	// UIRedrawRequired asks the producer for another frame, typically
	// because an animation is running on the scene root.
	UIRedrawRequired SyncResult = 1 << (iota - 1)

	// LostSurfaceRewardIfFound means the output surface is gone but may
	// come back. The producer may retry once a surface is attached again.
	LostSurfaceRewardIfFound

	// ContextIsStopped means the render context is stopped. The producer
	// should stop submitting frames for this session.
	ContextIsStopped

	// FrameDropped means the frame was not drawn. Commit callbacks still
	// fire with presented=false.
	FrameDropped
)

var syncResultNames = [...]struct {
	flag SyncResult
	name string
}{
	{UIRedrawRequired, "UIRedrawRequired"},
	{LostSurfaceRewardIfFound, "LostSurfaceRewardIfFound"},
	{ContextIsStopped, "ContextIsStopped"},
	{FrameDropped, "FrameDropped"},
}

// Has reports whether every flag in f is set in r.
func (r SyncResult) Has(f SyncResult) bool {
	return r&f == f
}

// Any reports whether at least one flag in f is set in r.
func (r SyncResult) Any(f SyncResult) bool {
	return r&f != 0
}

// Retryable reports whether the producer may submit again later.
// A stopped context is terminal for the session; everything else is not.
func (r SyncResult) Retryable() bool {
	return !r.Has(ContextIsStopped)
}

// String returns the set flags joined by "|", or "OK".
func (r SyncResult) String() string {
	if r == OK {
		return "OK"
	}
	var parts []string
	rest := r
	for _, n := range syncResultNames {
		if r.Has(n.flag) {
			parts = append(parts, n.name)
			rest &^= n.flag
		}
	}
	if rest != 0 {
		parts = append(parts, "Unknown")
	}
	return strings.Join(parts, "|")
}
