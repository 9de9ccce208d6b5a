package batch

import (
	"fmt"
	"hash/fnv"

	"github.com/gogpu/batch/render"
	"github.com/gogpu/gputypes"
)

// Group is a node in the rendering-state hierarchy. The state a vertex
// list is drawn with is the combined state of its group's ancestor chain,
// applied root first.
//
// Groups are compared by value, not identity: Key and Equal must cover
// the concrete type, the state parameters, and the order, but not the
// parent. The batch resolves parent chains separately, so independently
// constructed groups with the same effective state consolidate into one
// draw-list node. Groups with HasState() == false never emit set/unset
// operations; they exist purely for ordering and nesting.
type Group interface {
	// SetState applies the group's GPU state.
	SetState(b render.Backend)

	// UnsetState restores the state changed by SetState.
	UnsetState(b render.Backend)

	// HasState reports whether SetState/UnsetState do anything. Stateless
	// groups are spliced out of the draw list.
	HasState() bool

	// Order determines drawing order among siblings; lower draws first.
	// Ties break by the order groups were first added to the batch.
	Order() int

	// Parent returns the enclosing group, or nil for a top-level group.
	Parent() Group

	// Key returns a value hash of (type, state, order). Groups for which
	// Equal returns true must return equal keys.
	Key() uint64

	// Equal reports value equality of (type, state, order) with other.
	Equal(other Group) bool
}

// SetStateRecursive applies the state of g's entire ancestor chain, root
// first, ending with g itself. It serves immediate single-object draws
// that bypass the batched path.
func SetStateRecursive(g Group, b render.Backend) {
	if g == nil {
		return
	}
	SetStateRecursive(g.Parent(), b)
	if g.HasState() {
		g.SetState(b)
	}
}

// UnsetStateRecursive unwinds the state applied by SetStateRecursive,
// from g up to the root ancestor.
func UnsetStateRecursive(g Group, b render.Backend) {
	for ; g != nil; g = g.Parent() {
		if g.HasState() {
			g.UnsetState(b)
		}
	}
}

// hashKey builds a 64-bit FNV-1a hash over the formatted parts. Concrete
// groups feed it a type tag plus their state parameters.
func hashKey(parts ...any) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		fmt.Fprintf(h, "%v/", p)
	}
	return h.Sum64()
}

// groupBase carries the ordering and nesting every concrete group shares.
type groupBase struct {
	order  int
	parent Group
}

func (g groupBase) Order() int    { return g.order }
func (g groupBase) Parent() Group { return g.parent }

// BaseGroup is a stateless group used purely to order and nest other
// content. It never appears as set/unset operations in a draw list.
type BaseGroup struct {
	groupBase
}

// NewBaseGroup creates a stateless ordering group.
func NewBaseGroup(order int, parent Group) *BaseGroup {
	return &BaseGroup{groupBase{order: order, parent: parent}}
}

func (g *BaseGroup) SetState(render.Backend)   {}
func (g *BaseGroup) UnsetState(render.Backend) {}
func (g *BaseGroup) HasState() bool            { return false }
func (g *BaseGroup) Key() uint64               { return hashKey("base", g.order) }

func (g *BaseGroup) Equal(other Group) bool {
	o, ok := other.(*BaseGroup)
	return ok && o.order == g.order
}

func (g *BaseGroup) String() string { return fmt.Sprintf("BaseGroup(order=%d)", g.order) }

// BlendGroup draws its content with a specific blend state.
type BlendGroup struct {
	groupBase
	blend gputypes.BlendState
}

// NewBlendGroup creates a group that binds the given blend state around
// its content.
func NewBlendGroup(blend gputypes.BlendState, order int, parent Group) *BlendGroup {
	return &BlendGroup{groupBase: groupBase{order: order, parent: parent}, blend: blend}
}

// Blend returns the group's blend state.
func (g *BlendGroup) Blend() gputypes.BlendState { return g.blend }

func (g *BlendGroup) SetState(b render.Backend)   { b.SetBlend(g.blend) }
func (g *BlendGroup) UnsetState(b render.Backend) { b.ClearBlend() }
func (g *BlendGroup) HasState() bool              { return true }
func (g *BlendGroup) Key() uint64                 { return hashKey("blend", g.order, g.blend) }

func (g *BlendGroup) Equal(other Group) bool {
	o, ok := other.(*BlendGroup)
	return ok && o.order == g.order && o.blend == g.blend
}

func (g *BlendGroup) String() string { return fmt.Sprintf("BlendGroup(order=%d)", g.order) }

// ScissorGroup restricts its content to a screen rectangle.
type ScissorGroup struct {
	groupBase
	x, y, w, h int
}

// NewScissorGroup creates a group that clips its content to the given
// rectangle.
func NewScissorGroup(x, y, w, h, order int, parent Group) *ScissorGroup {
	return &ScissorGroup{groupBase: groupBase{order: order, parent: parent}, x: x, y: y, w: w, h: h}
}

func (g *ScissorGroup) SetState(b render.Backend)   { b.SetScissor(g.x, g.y, g.w, g.h) }
func (g *ScissorGroup) UnsetState(b render.Backend) { b.ClearScissor() }
func (g *ScissorGroup) HasState() bool              { return true }

func (g *ScissorGroup) Key() uint64 {
	return hashKey("scissor", g.order, g.x, g.y, g.w, g.h)
}

func (g *ScissorGroup) Equal(other Group) bool {
	o, ok := other.(*ScissorGroup)
	return ok && o.order == g.order &&
		o.x == g.x && o.y == g.y && o.w == g.w && o.h == g.h
}

func (g *ScissorGroup) String() string {
	return fmt.Sprintf("ScissorGroup(%d,%d %dx%d order=%d)", g.x, g.y, g.w, g.h, g.order)
}

// ProgramGroup draws its content with a specific shader program from a
// render.ProgramRegistry.
type ProgramGroup struct {
	groupBase
	program render.ProgramID
}

// NewProgramGroup creates a group that binds the given program around
// its content.
func NewProgramGroup(program render.ProgramID, order int, parent Group) *ProgramGroup {
	return &ProgramGroup{groupBase: groupBase{order: order, parent: parent}, program: program}
}

// Program returns the group's program id.
func (g *ProgramGroup) Program() render.ProgramID { return g.program }

func (g *ProgramGroup) SetState(b render.Backend)   { b.UseProgram(g.program) }
func (g *ProgramGroup) UnsetState(b render.Backend) { b.ClearProgram() }
func (g *ProgramGroup) HasState() bool              { return true }
func (g *ProgramGroup) Key() uint64                 { return hashKey("program", g.order, g.program) }

func (g *ProgramGroup) Equal(other Group) bool {
	o, ok := other.(*ProgramGroup)
	return ok && o.order == g.order && o.program == g.program
}

func (g *ProgramGroup) String() string {
	return fmt.Sprintf("ProgramGroup(%d order=%d)", g.program, g.order)
}
