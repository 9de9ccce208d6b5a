package domain

import "fmt"

// VertexList is the handle to one allocation: a contiguous span of slots
// owned by exactly one caller within a domain's shared index space.
//
// Attribute views are fetched per use, never cached. Creating any other
// vertex list in the same domain may grow the backing arrays, which
// reallocates them and leaves previously fetched views pointing at stale
// storage.
type VertexList struct {
	dom     *VertexDomain
	start   int
	count   int
	deleted bool
}

// Start returns the first slot index of the list's range. Start values
// stay valid for the lifetime of the list; storage growth is append-only.
func (vl *VertexList) Start() int { return vl.start }

// Count returns the number of vertices in the list.
func (vl *VertexList) Count() int { return vl.count }

// Domain returns the owning domain.
func (vl *VertexList) Domain() *VertexDomain { return vl.dom }

// Deleted reports whether the list has been deleted.
func (vl *VertexList) Deleted() bool { return vl.deleted }

// Attribute returns a mutable view of the named attribute's values for
// this list. Writes through the view modify the shared backing array
// directly; no copy is made.
func (vl *VertexList) Attribute(name string) ([]float32, error) {
	if vl == nil || vl.deleted {
		return nil, ErrVertexListDeleted
	}
	i := vl.dom.sig.index(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	arr := &vl.dom.arrays[i]
	return arr.data[vl.start*arr.comps : (vl.start+vl.count)*arr.comps], nil
}

// SetAttribute replaces the list's values for the named attribute. The
// slice must hold exactly Count times the attribute's component count.
func (vl *VertexList) SetAttribute(name string, values []float32) error {
	dst, err := vl.Attribute(name)
	if err != nil {
		return err
	}
	if len(values) != len(dst) {
		return fmt.Errorf("%w: attribute %q has %d values, want %d",
			ErrAttributeMismatch, name, len(values), len(dst))
	}
	copy(dst, values)
	return nil
}

// String returns a short description of the list's range.
func (vl *VertexList) String() string {
	return fmt.Sprintf("VertexList[%d, %d)", vl.start, vl.start+vl.count)
}
