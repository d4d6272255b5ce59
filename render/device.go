// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host owns the device; a context RECEIVES it and never creates one.
// SoftwareContext uses the handle only to pick the surface format the host
// presents with, so its output can be handed to the host swapchain without a
// conversion.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used for CPU-only rendering where no GPU is available.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}

// hasDevice reports whether h carries a real device.
func hasDevice(h DeviceHandle) bool {
	return h != nil && h.Device() != nil
}

// surfaceFormat picks the presentation format: the host's surface format if
// it has one, RGBA8 otherwise.
func surfaceFormat(h DeviceHandle) gputypes.TextureFormat {
	if h != nil {
		if f := h.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
			return f
		}
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// DefaultBufferUsage is the usage a presentable frame buffer needs.
var DefaultBufferUsage = gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc
