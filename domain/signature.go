package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/gputypes"
)

// Attribute describes a single vertex attribute of a domain signature:
// its shader-facing name, the per-vertex item shape, and whether the
// attribute advances per vertex or per instance.
type Attribute struct {
	// Name is the attribute name as declared in the shader.
	Name string

	// Format is the per-vertex item shape. Only the float32 formats
	// (Float32 through Float32x4) are supported; vertex domains store
	// attribute data in parallel []float32 arrays.
	Format gputypes.VertexFormat

	// StepMode selects per-vertex or per-instance stepping.
	StepMode gputypes.VertexStepMode
}

// Components returns the number of float32 components per vertex for the
// attribute's format, or 0 for unsupported formats.
func (a Attribute) Components() int {
	switch a.Format {
	case gputypes.VertexFormatFloat32:
		return 1
	case gputypes.VertexFormatFloat32x2:
		return 2
	case gputypes.VertexFormatFloat32x3:
		return 3
	case gputypes.VertexFormatFloat32x4:
		return 4
	default:
		return 0
	}
}

// Signature is the ordered set of attributes shared by every vertex list
// in one domain. Two vertex lists can share backing storage, and thus be
// candidates for draw consolidation, only when their signatures have
// equal keys.
type Signature []Attribute

// Validate checks the signature for emptiness, duplicate attribute names,
// and unsupported formats.
func (s Signature) Validate() error {
	if len(s) == 0 {
		return ErrInvalidSignature
	}
	seen := make(map[string]bool, len(s))
	for _, a := range s {
		if a.Name == "" {
			return fmt.Errorf("%w: attribute with empty name", ErrInvalidSignature)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: duplicate attribute %q", ErrInvalidSignature, a.Name)
		}
		seen[a.Name] = true
		if a.Components() == 0 {
			return fmt.Errorf("%w: attribute %q has unsupported format %d",
				ErrInvalidSignature, a.Name, a.Format)
		}
	}
	return nil
}

// Key returns a canonical string key for the signature. The key is
// order-normalized: signatures listing the same attributes in different
// orders map to the same key, so they share one domain.
func (s Signature) Key() string {
	names := make([]string, 0, len(s))
	byName := make(map[string]Attribute, len(s))
	for _, a := range s {
		names = append(names, a.Name)
		byName[a.Name] = a
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		a := byName[name]
		fmt.Fprintf(&b, "%s/%d/%d;", a.Name, a.Format, a.StepMode)
	}
	return b.String()
}

// index returns the position of the named attribute, or -1.
func (s Signature) index(name string) int {
	for i, a := range s {
		if a.Name == name {
			return i
		}
	}
	return -1
}
