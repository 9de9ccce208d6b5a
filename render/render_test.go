// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/batch/domain"
	"github.com/gogpu/gputypes"
)

// passthroughWGSL is a minimal vertex shader for registry tests.
const passthroughWGSL = `
@vertex
fn vs_main(@location(0) position: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position.x, position.y, 0.0, 1.0);
}
`

func testDomain(t *testing.T) *domain.VertexDomain {
	t.Helper()
	d, err := domain.New(domain.Signature{
		{Name: "position", Format: gputypes.VertexFormatFloat32x2, StepMode: gputypes.VertexStepModeVertex},
	}, gputypes.PrimitiveTopologyTriangleList, domain.Config{})
	if err != nil {
		t.Fatal(err)
	}
	return d
}

// TestRecorder tests operation recording and stable domain numbering.
func TestRecorder(t *testing.T) {
	r := NewRecorder()
	d1 := testDomain(t)
	d2 := testDomain(t)

	r.BindDomain(d1)
	r.Draw(gputypes.PrimitiveTopologyTriangleList, 0, 12)
	r.BindDomain(d2)
	r.BindDomain(d1)
	r.SetScissor(0, 0, 64, 64)
	r.ClearScissor()

	ops := r.Ops()
	if len(ops) != 6 {
		t.Fatalf("got %d ops, want 6: %v", len(ops), ops)
	}
	if ops[0] != "bind domain#0" || ops[2] != "bind domain#1" || ops[3] != "bind domain#0" {
		t.Errorf("domain numbering not stable: %v", ops)
	}
	if !strings.HasPrefix(ops[1], "draw topology=") || !strings.HasSuffix(ops[1], "first=0 count=12") {
		t.Errorf("draw op = %q", ops[1])
	}
	if ops[4] != "set_scissor 0,0 64x64" || ops[5] != "clear_scissor" {
		t.Errorf("scissor ops = %q, %q", ops[4], ops[5])
	}

	// Reset clears ops but keeps numbering.
	r.Reset()
	r.BindDomain(d2)
	if got := r.Ops(); len(got) != 1 || got[0] != "bind domain#1" {
		t.Errorf("after Reset: %v", got)
	}
}

// TestProgramRegistry tests register/lookup/close lifecycle.
func TestProgramRegistry(t *testing.T) {
	r := NewProgramRegistry(nil)

	id, err := r.Register("passthrough", passthroughWGSL)
	if err != nil {
		skipIfNagaLimitation(t, err)
		t.Fatalf("Register: %v", err)
	}

	if got, err := r.Lookup("passthrough"); err != nil || got != id {
		t.Errorf("Lookup = %d, %v; want %d, nil", got, err, id)
	}
	spirv, err := r.SPIRV(id)
	if err != nil {
		t.Fatalf("SPIRV: %v", err)
	}
	if len(spirv) < 4 {
		t.Fatalf("SPIR-V too short: %d bytes", len(spirv))
	}
	// SPIR-V magic number, little-endian 0x07230203.
	if spirv[0] != 0x03 || spirv[1] != 0x02 || spirv[2] != 0x23 || spirv[3] != 0x07 {
		t.Errorf("missing SPIR-V magic: % x", spirv[:4])
	}

	if _, err := r.Register("passthrough", passthroughWGSL); !errors.Is(err, ErrProgramExists) {
		t.Errorf("duplicate Register error = %v, want ErrProgramExists", err)
	}
	if _, err := r.Lookup("missing"); !errors.Is(err, ErrProgramNotFound) {
		t.Errorf("Lookup(missing) error = %v, want ErrProgramNotFound", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	r.Close()
	if _, err := r.Lookup("passthrough"); !errors.Is(err, ErrRegistryClosed) {
		t.Errorf("Lookup after Close error = %v, want ErrRegistryClosed", err)
	}
	if _, err := r.SPIRV(id); !errors.Is(err, ErrRegistryClosed) {
		t.Errorf("SPIRV after Close error = %v, want ErrRegistryClosed", err)
	}
	r.Close() // idempotent
}

// TestProgramRegistryBadSource tests compile failure propagation.
func TestProgramRegistryBadSource(t *testing.T) {
	r := NewProgramRegistry(nil)
	if _, err := r.Register("broken", "this is not wgsl"); err == nil {
		t.Error("Register of invalid WGSL succeeded, want error")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after failed Register, want 0", r.Len())
	}
}

// skipIfNagaLimitation skips the test when naga rejects the shader for a
// known unimplemented feature rather than a bug in this package.
func skipIfNagaLimitation(t *testing.T, err error) {
	t.Helper()
	msg := err.Error()
	if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
		t.Skipf("skipping: naga limitation: %v", err)
	}
}
