// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
)

// Program registry errors.
var (
	// ErrRegistryClosed is returned when operating on a closed registry.
	ErrRegistryClosed = errors.New("render: program registry closed")

	// ErrProgramExists is returned when registering a name twice.
	ErrProgramExists = errors.New("render: program already registered")

	// ErrProgramNotFound is returned when looking up an unknown program.
	ErrProgramNotFound = errors.New("render: program not found")
)

// program holds one compiled shader program.
type program struct {
	name   string
	source string
	spirv  []byte
}

// ProgramRegistry compiles and caches WGSL shader programs for one GPU
// context. It replaces implicit process-wide shader caching: the host
// creates one registry per device at context creation and tears it down
// with Close at context destruction.
//
// ProgramRegistry is safe for concurrent use; registration may happen
// from loader goroutines while the render thread resolves programs.
type ProgramRegistry struct {
	mu       sync.Mutex
	device   DeviceHandle
	programs map[ProgramID]*program
	byName   map[string]ProgramID
	next     ProgramID
	closed   bool
}

// NewProgramRegistry creates a program registry bound to the given device
// handle. The device may be nil for headless use (compilation only).
func NewProgramRegistry(device DeviceHandle) *ProgramRegistry {
	return &ProgramRegistry{
		device:   device,
		programs: make(map[ProgramID]*program),
		byName:   make(map[string]ProgramID),
	}
}

// Register compiles the WGSL source to SPIR-V and stores it under the
// given name. Names are unique per registry.
func (r *ProgramRegistry) Register(name, wgslSource string) (ProgramID, error) {
	spirv, err := naga.Compile(wgslSource)
	if err != nil {
		return 0, fmt.Errorf("render: failed to compile program %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrRegistryClosed
	}
	if _, ok := r.byName[name]; ok {
		return 0, fmt.Errorf("%w: %q", ErrProgramExists, name)
	}

	id := r.next
	r.next++
	r.programs[id] = &program{name: name, source: wgslSource, spirv: spirv}
	r.byName[name] = id
	return id, nil
}

// Lookup returns the id registered under name.
func (r *ProgramRegistry) Lookup(name string) (ProgramID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrRegistryClosed
	}
	id, ok := r.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrProgramNotFound, name)
	}
	return id, nil
}

// SPIRV returns the compiled SPIR-V bytes for a program. The backend
// feeds these to its shader-module creation path.
func (r *ProgramRegistry) SPIRV(id ProgramID) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	p, ok := r.programs[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrProgramNotFound, id)
	}
	return p.spirv, nil
}

// Device returns the device handle the registry was created with.
func (r *ProgramRegistry) Device() DeviceHandle { return r.device }

// Len returns the number of registered programs.
func (r *ProgramRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.programs)
}

// Close drops all programs and marks the registry closed. Call when the
// owning GPU context is destroyed.
func (r *ProgramRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.programs = nil
	r.byName = nil
	r.closed = true
}
