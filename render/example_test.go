// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render_test

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/framesync"
	"github.com/gogpu/framesync/render"
	"github.com/gogpu/framesync/renderthread"
	"github.com/gogpu/gputypes"
)

// ExampleSoftwareContext drives a scene through a frame task on a render
// thread and reads back the presented pixels.
func ExampleSoftwareContext() {
	rt := renderthread.New()
	defer rt.Close()

	surface := render.NewSurface(64, 64, gputypes.TextureFormatUndefined)
	ctx := render.NewSoftwareContext(surface, render.WithDevice(render.NullDeviceHandle{}))
	scene := render.NewScene(surface.Bounds())

	task := framesync.NewTask()
	if err := task.Setup(rt, ctx, scene); err != nil {
		fmt.Println("setup failed:", err)
		return
	}

	scene.Clear(color.White)
	scene.FillRect(image.Rect(8, 8, 24, 24), color.RGBA{R: 255, A: 255})

	done := make(chan struct{})
	_ = task.SetFrameCompleteCallback(func() { close(done) })

	result := task.SubmitFrame()
	<-done

	fmt.Println(result)
	fmt.Println(surface.Image().RGBAAt(10, 10))
	// Output:
	// OK
	// {255 0 0 255}
}

// ExampleLayer shows the reference held by the layer queue.
func ExampleLayer() {
	layer := render.NewLayer(1, 32, 32)
	queue := framesync.NewLayerQueue()

	queue.Push(layer)
	layer.Destroy()
	fmt.Println(layer.Refs(), layer.Freed())

	queue.Clear()
	fmt.Println(layer.Refs(), layer.Freed())
	// Output:
	// 1 false
	// 0 true
}
