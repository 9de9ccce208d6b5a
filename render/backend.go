// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render defines the boundary between the batching core and the
// GPU-binding layer.
//
// The batching core never talks to a device directly. Draw lists are
// replayed against a Backend, which the host application implements on
// top of its GPU framework. The package also provides a Recorder backend
// for tests and headless verification, and a per-device WGSL program
// registry with explicit lifecycle.
package render

import (
	"github.com/gogpu/batch/domain"
	"github.com/gogpu/gputypes"
)

// ProgramID identifies a shader program registered with a ProgramRegistry.
type ProgramID uint32

// Backend is the GPU-binding surface a draw list is replayed against.
//
// BindDomain uploads/activates a domain's attribute arrays for drawing;
// Draw submits one merged range. The state methods are invoked by group
// set/unset operations in draw-list order. Implementations do not report
// errors: by the time a draw list executes, every operation in it is
// valid by construction, and GPU submission failures surface through the
// host framework, not through this interface.
type Backend interface {
	// BindDomain activates the domain's backing arrays for subsequent
	// Draw calls.
	BindDomain(d *domain.VertexDomain)

	// Draw submits one contiguous vertex range of the bound domain.
	Draw(topology gputypes.PrimitiveTopology, first, count int)

	// UseProgram binds a shader program for subsequent draws.
	UseProgram(id ProgramID)

	// ClearProgram restores the previously bound program state.
	ClearProgram()

	// SetBlend enables the given blend state.
	SetBlend(blend gputypes.BlendState)

	// ClearBlend restores default blending.
	ClearBlend()

	// SetScissor restricts rendering to the given rectangle.
	SetScissor(x, y, w, h int)

	// ClearScissor removes the scissor restriction.
	ClearScissor()
}
