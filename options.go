package framesync

import "time"

// TaskOption configures a Task during creation.
//
// Example:
//
//	task := framesync.NewTask(
//	    framesync.WithFrameObserver(func(fi framesync.FrameInfo) {
//	        stats.Record(fi.Duration(framesync.FrameInfoSyncQueued, framesync.FrameInfoFrameCompleted))
//	    }),
//	)
type TaskOption func(*taskOptions)

// Clock returns a monotonic timestamp in nanoseconds.
type Clock func() int64

// taskOptions holds optional configuration for Task creation.
type taskOptions struct {
	clock     Clock
	observers []func(FrameInfo)
}

// processStart anchors the default clock so timestamps stay small and
// monotonic.
var processStart = time.Now()

// Now is the default Clock. It never returns zero, so an unset FrameInfo slot
// is distinguishable from a stamped one.
func Now() int64 {
	return int64(time.Since(processStart)) + 1
}

// defaultTaskOptions returns the default task options.
func defaultTaskOptions() taskOptions {
	return taskOptions{
		clock: Now,
	}
}

// WithClock replaces the clock used to stamp FrameInfo slots.
// Tests use it to get deterministic timings. A nil clock is ignored.
func WithClock(c Clock) TaskOption {
	return func(o *taskOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithFrameObserver registers fn to receive the FrameInfo of every frame.
// Observers run on the render goroutine before the completion callback and
// must not block.
func WithFrameObserver(fn func(FrameInfo)) TaskOption {
	return func(o *taskOptions) {
		if fn != nil {
			o.observers = append(o.observers, fn)
		}
	}
}
