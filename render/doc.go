// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render provides a CPU implementation of the framesync
// collaborators: a scene root, shared layers and a drawing context.
//
// # Key Principle
//
// The context RECEIVES a device from the host application, it does NOT create
// its own. Without one it renders purely on the CPU.
//
// # Types
//
//   - Scene: producer-side retained commands with damage tracking
//   - DisplayList: immutable capture of a Scene, handed to the draw phase
//   - Layer: reference-counted offscreen layer, updated independently
//   - Surface: output buffer that can be lost and reclaimed
//   - SoftwareContext: framesync.Context with a texture cache for layers
//
// # Usage
//
//	surface := render.NewSurface(800, 600, gputypes.TextureFormatUndefined)
//	ctx := render.NewSoftwareContext(surface, render.WithSkipUnchanged())
//	scene := render.NewScene(surface.Bounds())
//
//	rt := renderthread.New()
//	defer rt.Close()
//
//	task := framesync.NewTask()
//	_ = task.Setup(rt, ctx, scene)
//
//	scene.Clear(color.White)
//	result := task.SubmitFrame()
//
// # Damage
//
// Scene accumulates dirty rectangles as commands are added. Capture moves them
// into the DisplayList and clears them. SoftwareContext adds the regions of
// uploaded and freed layers and redraws only the union, unless the frame is
// forced or the surface changed size.
//
// # Texture Budget
//
// Layer content is copied into the context's texture cache during the sync
// phase. When a copy would exceed the budget set by WithTextureBudget it is
// postponed to the draw phase and the context clears TreeInfo.PrepareTextures,
// so the producer stays blocked until the frame is drawn.
package render
