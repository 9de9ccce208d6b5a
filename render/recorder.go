// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/batch/domain"
	"github.com/gogpu/gputypes"
)

// Recorder is a Backend that records every operation as a formatted
// string instead of touching a GPU. It is the verification backend used
// by the batch tests and is handy for debugging draw-list output.
//
// Domains are numbered in first-use order so recordings are stable
// across runs regardless of allocation addresses.
type Recorder struct {
	ops       []string
	domainIDs map[*domain.VertexDomain]int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{domainIDs: make(map[*domain.VertexDomain]int)}
}

// Ops returns the recorded operations in execution order. The returned
// slice is a copy and can be safely retained.
func (r *Recorder) Ops() []string {
	return append([]string(nil), r.ops...)
}

// Reset clears the recording but keeps domain numbering.
func (r *Recorder) Reset() { r.ops = r.ops[:0] }

func (r *Recorder) record(format string, args ...any) {
	r.ops = append(r.ops, fmt.Sprintf(format, args...))
}

func (r *Recorder) domainID(d *domain.VertexDomain) int {
	id, ok := r.domainIDs[d]
	if !ok {
		id = len(r.domainIDs)
		r.domainIDs[d] = id
	}
	return id
}

// BindDomain implements Backend.
func (r *Recorder) BindDomain(d *domain.VertexDomain) {
	r.record("bind domain#%d", r.domainID(d))
}

// Draw implements Backend.
func (r *Recorder) Draw(topology gputypes.PrimitiveTopology, first, count int) {
	r.record("draw topology=%d first=%d count=%d", topology, first, count)
}

// UseProgram implements Backend.
func (r *Recorder) UseProgram(id ProgramID) { r.record("use_program %d", id) }

// ClearProgram implements Backend.
func (r *Recorder) ClearProgram() { r.record("clear_program") }

// SetBlend implements Backend.
func (r *Recorder) SetBlend(blend gputypes.BlendState) { r.record("set_blend %v", blend) }

// ClearBlend implements Backend.
func (r *Recorder) ClearBlend() { r.record("clear_blend") }

// SetScissor implements Backend.
func (r *Recorder) SetScissor(x, y, w, h int) {
	r.record("set_scissor %d,%d %dx%d", x, y, w, h)
}

// ClearScissor implements Backend.
func (r *Recorder) ClearScissor() { r.record("clear_scissor") }

var _ Backend = (*Recorder)(nil)
