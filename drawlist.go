package batch

import (
	"fmt"

	"github.com/gogpu/batch/domain"
	"github.com/gogpu/batch/render"
	"github.com/gogpu/gputypes"
)

// drawOp is one step of a compiled draw list. Ops are replayed in order
// against the backend every Draw call until a mutation invalidates the
// list.
type drawOp interface {
	apply(b render.Backend)
	String() string
}

// setStateOp applies a group's state on entry to its subtree.
type setStateOp struct {
	group Group
}

func (op setStateOp) apply(b render.Backend) { op.group.SetState(b) }
func (op setStateOp) String() string         { return fmt.Sprintf("set %v", op.group) }

// unsetStateOp restores state on exit from a group's subtree.
type unsetStateOp struct {
	group Group
}

func (op unsetStateOp) apply(b render.Backend) { op.group.UnsetState(b) }
func (op unsetStateOp) String() string         { return fmt.Sprintf("unset %v", op.group) }

// bindOp selects the domain whose buffers subsequent draws read.
type bindOp struct {
	dom *domain.VertexDomain
	id  int
}

func (op bindOp) apply(b render.Backend) { b.BindDomain(op.dom) }
func (op bindOp) String() string         { return fmt.Sprintf("bind domain#%d", op.id) }

// drawRangeOp submits one merged vertex range of the bound domain.
type drawRangeOp struct {
	topology gputypes.PrimitiveTopology
	first    int
	count    int
}

func (op drawRangeOp) apply(b render.Backend) { b.Draw(op.topology, op.first, op.count) }
func (op drawRangeOp) String() string {
	return fmt.Sprintf("draw first=%d count=%d", op.first, op.count)
}
