// Package domain implements vertex domains: shared backing storage for
// all vertex lists with an identical attribute-format signature.
//
// A domain owns one region allocator for a shared index space and one
// []float32 backing array per attribute. All attributes of a vertex list
// occupy the same slot range across their respective arrays, so a single
// allocation describes the list's position in every array at once. Index
// adjacency in this shared space is what makes separate vertex lists
// mergeable into a single draw call.
package domain

import (
	"errors"
	"fmt"

	"github.com/gogpu/batch/internal/region"
	"github.com/gogpu/gputypes"
)

// Domain errors.
var (
	// ErrInvalidSignature is returned for empty signatures, duplicate
	// attribute names, or unsupported attribute formats.
	ErrInvalidSignature = errors.New("domain: invalid attribute signature")

	// ErrInvalidCount is returned for zero or negative vertex counts.
	ErrInvalidCount = errors.New("domain: vertex count must be positive")

	// ErrCapacityExceeded is returned when backing storage growth would
	// exceed the configured limit.
	ErrCapacityExceeded = errors.New("domain: backing store capacity exceeded")

	// ErrUnknownAttribute is returned when referencing an attribute name
	// that is not part of the domain's signature.
	ErrUnknownAttribute = errors.New("domain: unknown attribute")

	// ErrAttributeMismatch is returned when supplied attribute data does
	// not match the vertex count times the attribute's component count.
	ErrAttributeMismatch = errors.New("domain: attribute data length mismatch")

	// ErrVertexListDeleted is returned when operating on a deleted or nil
	// vertex list. It signals a use-after-delete or a double delete.
	ErrVertexListDeleted = errors.New("domain: vertex list already deleted")

	// ErrForeignVertexList is returned when a vertex list is passed to a
	// domain that does not own it.
	ErrForeignVertexList = errors.New("domain: vertex list belongs to another domain")
)

// Config holds configuration for creating a VertexDomain.
type Config struct {
	// InitialCapacity is the starting slot capacity of the shared index
	// space. Defaults to region.DefaultInitialCapacity if <= 0.
	InitialCapacity int

	// MaxCapacity caps growth in slots. Zero means unbounded.
	MaxCapacity int
}

// attributeArray is one attribute's backing storage. data always spans
// the allocator's full capacity times the component count.
type attributeArray struct {
	attr  Attribute
	comps int
	data  []float32
}

// VertexDomain is the shared backing store for vertex lists with one
// attribute signature. Storage growth is append-only: slot indices handed
// out earlier stay valid, but the arrays themselves reallocate, so
// attribute views must be re-fetched after any vertex list creation.
//
// VertexDomain is not safe for concurrent use. All mutation happens on
// the thread owning the GPU context.
type VertexDomain struct {
	sig      Signature
	topology gputypes.PrimitiveTopology
	alloc    *region.Allocator
	arrays   []attributeArray
	live     int
}

// Stats contains domain storage statistics.
type Stats struct {
	// Capacity is the slot capacity of the shared index space.
	Capacity int

	// Used is the number of slots owned by live vertex lists.
	Used int

	// Free is the number of unallocated slots.
	Free int

	// FreeSpans is the number of gaps in the shared index space.
	FreeSpans int

	// LargestFree is the size of the largest gap.
	LargestFree int

	// Lists is the number of live vertex lists.
	Lists int
}

// String returns a human-readable string of domain stats.
func (s Stats) String() string {
	util := 0.0
	if s.Capacity > 0 {
		util = float64(s.Used) / float64(s.Capacity)
	}
	return fmt.Sprintf("Domain[%.1f%% used, %d/%d slots, %d lists, %d gaps]",
		util*100, s.Used, s.Capacity, s.Lists, s.FreeSpans)
}

// New creates a vertex domain for the given signature and draw topology.
func New(sig Signature, topology gputypes.PrimitiveTopology, cfg Config) (*VertexDomain, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}

	d := &VertexDomain{
		sig:      append(Signature(nil), sig...),
		topology: topology,
		alloc: region.New(region.Config{
			InitialCapacity: cfg.InitialCapacity,
			MaxCapacity:     cfg.MaxCapacity,
		}),
		arrays: make([]attributeArray, len(sig)),
	}
	for i, a := range d.sig {
		comps := a.Components()
		d.arrays[i] = attributeArray{
			attr:  a,
			comps: comps,
			data:  make([]float32, d.alloc.Capacity()*comps),
		}
	}
	return d, nil
}

// CreateVertexList allocates a contiguous range of count slots and writes
// the supplied initial attribute data into it. The data map may be nil or
// partial; attributes without data start zeroed. Each supplied slice must
// hold exactly count times the attribute's component count values.
func (d *VertexDomain) CreateVertexList(count int, data map[string][]float32) (*VertexList, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	for name, values := range data {
		i := d.sig.index(name)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
		}
		if want := count * d.arrays[i].comps; len(values) != want {
			return nil, fmt.Errorf("%w: attribute %q has %d values, want %d",
				ErrAttributeMismatch, name, len(values), want)
		}
	}

	start, err := d.alloc.Alloc(count)
	if err != nil {
		if errors.Is(err, region.ErrCapacityExceeded) {
			return nil, fmt.Errorf("%w: %d more slots", ErrCapacityExceeded, count)
		}
		return nil, err
	}
	d.syncArrays()

	for i := range d.arrays {
		arr := &d.arrays[i]
		dst := arr.data[start*arr.comps : (start+count)*arr.comps]
		if values, ok := data[arr.attr.Name]; ok {
			copy(dst, values)
		} else {
			// The range may hold stale data from a freed list.
			clear(dst)
		}
	}

	d.live++
	return &VertexList{dom: d, start: start, count: count}, nil
}

// Delete frees the vertex list's slot range in every attribute array.
// The list must belong to this domain and must not have been deleted.
func (d *VertexDomain) Delete(vl *VertexList) error {
	if vl == nil || vl.deleted {
		return ErrVertexListDeleted
	}
	if vl.dom != d {
		return ErrForeignVertexList
	}
	if err := d.alloc.Free(vl.start, vl.count); err != nil {
		return err
	}
	vl.deleted = true
	d.live--
	return nil
}

// Signature returns a copy of the domain's attribute signature.
func (d *VertexDomain) Signature() Signature {
	return append(Signature(nil), d.sig...)
}

// Topology returns the primitive topology vertex lists in this domain
// are drawn with.
func (d *VertexDomain) Topology() gputypes.PrimitiveTopology { return d.topology }

// Empty reports whether the domain has no live vertex lists. Empty
// domains are eligible for removal from their batch's domain map.
func (d *VertexDomain) Empty() bool { return d.live == 0 }

// Capacity returns the current slot capacity of the shared index space.
func (d *VertexDomain) Capacity() int { return d.alloc.Capacity() }

// Stats returns current storage statistics.
func (d *VertexDomain) Stats() Stats {
	rs := d.alloc.Stats()
	return Stats{
		Capacity:    rs.Capacity,
		Used:        rs.Used,
		Free:        rs.Free,
		FreeSpans:   rs.FreeSpans,
		LargestFree: rs.LargestFree,
		Lists:       d.live,
	}
}

// AttributeData returns the named attribute's full backing array, sized
// to the domain's current capacity. The GPU-binding layer uploads these
// arrays when activating the domain for drawing. The returned slice is
// invalidated by vertex list creation (append-only growth reallocates).
func (d *VertexDomain) AttributeData(name string) ([]float32, error) {
	i := d.sig.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	return d.arrays[i].data, nil
}

// VertexBufferLayouts returns one non-interleaved vertex buffer layout
// per attribute, with shader locations assigned in signature order. The
// pipeline layer uses these to create render pipelines compatible with
// the domain's storage.
func (d *VertexDomain) VertexBufferLayouts() []gputypes.VertexBufferLayout {
	layouts := make([]gputypes.VertexBufferLayout, len(d.sig))
	for i, a := range d.sig {
		layouts[i] = gputypes.VertexBufferLayout{
			ArrayStride: uint64(d.arrays[i].comps * 4),
			StepMode:    a.StepMode,
			Attributes: []gputypes.VertexAttribute{
				{Format: a.Format, Offset: 0, ShaderLocation: uint32(i)},
			},
		}
	}
	return layouts
}

// syncArrays extends each attribute array to match the allocator's
// capacity after growth. Existing data is copied to the front of the new
// array; slot indices are unchanged.
func (d *VertexDomain) syncArrays() {
	capSlots := d.alloc.Capacity()
	grew := false
	for i := range d.arrays {
		arr := &d.arrays[i]
		want := capSlots * arr.comps
		if len(arr.data) < want {
			grown := make([]float32, want)
			copy(grown, arr.data)
			arr.data = grown
			grew = true
		}
	}
	if grew {
		slogger().Debug("attribute arrays grown", "slots", capSlots, "attributes", len(d.arrays))
	}
}
