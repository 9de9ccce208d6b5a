// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"
)

// DeviceHandle provides GPU device access from the host application.
//
// The batching core RECEIVES the device from the host, it does NOT create
// one. The host application (e.g., gogpu.App) implements DeviceHandle and
// passes it to the components that need device access, such as
// ProgramRegistry. This keeps device creation, surface management and
// adapter selection entirely outside this module.
//
// Example implementation in gogpu:
//
//	type contextDeviceHandle struct {
//	    ctx *gogpu.Context
//	}
//
//	func (h *contextDeviceHandle) Device() gpucontext.Device {
//	    return h.ctx.device
//	}
//
//	func (h *contextDeviceHandle) Queue() gpucontext.Queue {
//	    return h.ctx.queue
//	}
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing a
// local name for the interface while maintaining full compatibility with
// the gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider
