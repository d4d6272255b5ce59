// Package framesync hands one frame at a time from a producer goroutine to a
// single render goroutine.
//
// # Overview
//
// A [Task] is a reusable rendezvous between the goroutine that builds the
// scene (the producer, usually the UI loop) and the goroutine that owns the
// drawing and presentation work (the consumer, usually a renderthread.Thread).
// The producer calls [Task.SubmitFrame] once per frame. The call blocks only
// while the consumer captures a consistent snapshot of the frame's state;
// it returns before the potentially much longer draw and present run.
//
//	thread := renderthread.New(renderthread.WithLockOSThread())
//	defer thread.Close()
//
//	task := framesync.NewTask()
//	if err := task.Setup(thread, ctx, scene); err != nil {
//	    return err
//	}
//
//	for {
//	    task.SetContentDrawBounds(image.Rect(0, 0, w, h))
//	    task.PushLayerUpdate(layer)
//	    res := task.SubmitFrame()
//	    if res.Has(framesync.ContextIsStopped) {
//	        break
//	    }
//	}
//
// # Frame Phases
//
// Each frame runs in two phases on the consumer goroutine:
//
//   - Sync phase (barrier lock held): drain the [LayerQueue], apply each
//     layer update, merge the frame state record into the [Context], capture
//     a [Snapshot] of the [SceneRoot] and compute the [SyncResult]. The
//     producer is released when this phase ends.
//   - Draw phase (no lock held): fire the dispatch callback, draw and present,
//     fire the commit callbacks with the presented flag, publish [FrameInfo]
//     and finally fire the completion callback.
//
// Layer updates use their own lock, so pushing updates for frame N+1 never
// waits behind the draw phase of frame N.
//
// # Results
//
// Consumer-side failures never cross the goroutine boundary as errors. They
// are folded into the [SyncResult] bitmask returned by SubmitFrame and into
// the boolean passed to the commit callbacks. A dropped or skipped frame
// still resolves every armed callback with a "not presented" outcome.
//
// # Logging
//
// framesync produces no log output by default. Call [SetLogger] to enable it.
package framesync
