// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framesync

import "time"

// FrameInfoIndex names one slot of a FrameInfo record.
type FrameInfoIndex int

// Slots written by the producer through SetFrameTimeline come first,
// followed by the slots stamped by the render goroutine.
const (
	FrameInfoFlags FrameInfoIndex = iota
	FrameInfoVsyncID
	FrameInfoIntendedVsync
	FrameInfoVsync
	FrameInfoFrameDeadline
	FrameInfoFrameInterval

	FrameInfoSyncQueued
	FrameInfoSyncStart
	FrameInfoSyncEnd
	FrameInfoIssueDrawCommandsStart
	FrameInfoSwapBuffers
	FrameInfoSwapBuffersCompleted
	FrameInfoFrameCompleted

	// FrameInfoCount is the number of slots in a FrameInfo.
	FrameInfoCount
)

var frameInfoNames = [FrameInfoCount]string{
	"Flags",
	"VsyncID",
	"IntendedVsync",
	"Vsync",
	"FrameDeadline",
	"FrameInterval",
	"SyncQueued",
	"SyncStart",
	"SyncEnd",
	"IssueDrawCommandsStart",
	"SwapBuffers",
	"SwapBuffersCompleted",
	"FrameCompleted",
}

// String returns the slot name.
func (i FrameInfoIndex) String() string {
	if i < 0 || i >= FrameInfoCount {
		return "Unknown"
	}
	return frameInfoNames[i]
}

// Flags stored in the FrameInfoFlags slot.
const (
	FrameFlagSkipped int64 = 1 << iota
	FrameFlagForcedDraw
	FrameFlagDeferredUnblock
)

// FrameInfo is the timing record of one frame. Timestamps are nanoseconds
// from the task's clock. A zero slot was never stamped.
//
// FrameInfo is a value type: Task.FrameInfo returns a copy, so readers never
// observe the render goroutine writing the next frame.
type FrameInfo [FrameInfoCount]int64

// Get returns the value stored at idx.
func (fi *FrameInfo) Get(idx FrameInfoIndex) int64 {
	return fi[idx]
}

// Set stores v at idx.
func (fi *FrameInfo) Set(idx FrameInfoIndex, v int64) {
	fi[idx] = v
}

// AddFlag ORs flag into the flags slot.
func (fi *FrameInfo) AddFlag(flag int64) {
	fi[FrameInfoFlags] |= flag
}

// HasFlag reports whether flag is set.
func (fi *FrameInfo) HasFlag(flag int64) bool {
	return fi[FrameInfoFlags]&flag != 0
}

// Duration returns the time between two stamped slots, or 0 if either
// slot is unset or they are out of order.
func (fi *FrameInfo) Duration(from, to FrameInfoIndex) time.Duration {
	start, end := fi[from], fi[to]
	if start == 0 || end == 0 || end < start {
		return 0
	}
	return time.Duration(end - start)
}

// FrameTimeline carries the producer-side timing of a frame: which vsync it
// was built for and when it is due.
type FrameTimeline struct {
	VsyncID       int64
	IntendedVsync int64
	Vsync         int64
	Deadline      int64
	Interval      time.Duration
}

// apply writes the timeline into the producer slots of fi.
func (ft FrameTimeline) apply(fi *FrameInfo) {
	fi.Set(FrameInfoVsyncID, ft.VsyncID)
	fi.Set(FrameInfoIntendedVsync, ft.IntendedVsync)
	fi.Set(FrameInfoVsync, ft.Vsync)
	fi.Set(FrameInfoFrameDeadline, ft.Deadline)
	fi.Set(FrameInfoFrameInterval, int64(ft.Interval))
}
