package batch

import "fmt"

// Stats contains batch statistics. Draw-list figures (DrawCalls,
// StateChanges, Binds) describe the most recently built draw list; when
// Dirty is true a mutation has invalidated that list and the figures are
// stale until the next Draw.
type Stats struct {
	// Domains is the number of live vertex domains.
	Domains int

	// VertexLists is the number of live vertex lists across all domains.
	VertexLists int

	// GroupNodes is the number of resolved group nodes.
	GroupNodes int

	// DrawCalls is the number of draw operations in the cached draw list.
	DrawCalls int

	// StateChanges is the number of set/unset state operations in the
	// cached draw list.
	StateChanges int

	// Binds is the number of domain bind operations in the cached draw
	// list.
	Binds int

	// Rebuilds counts draw-list rebuilds over the batch's lifetime.
	Rebuilds uint64

	// Dirty reports whether the cached draw list has been invalidated.
	Dirty bool
}

// String returns a human-readable string of batch stats.
func (s Stats) String() string {
	state := "clean"
	if s.Dirty {
		state = "dirty"
	}
	return fmt.Sprintf("Batch[%d lists in %d domains, %d draws, %d state changes, %d binds, %s]",
		s.VertexLists, s.Domains, s.DrawCalls, s.StateChanges, s.Binds, state)
}

// Stats returns current batch statistics.
func (b *Batch) Stats() Stats {
	nodes := 0
	for _, peers := range b.nodes {
		nodes += len(peers)
	}
	return Stats{
		Domains:      len(b.domains),
		VertexLists:  len(b.lists),
		GroupNodes:   nodes,
		DrawCalls:    b.lastDrawCalls,
		StateChanges: b.lastStateChanges,
		Binds:        b.lastBinds,
		Rebuilds:     b.rebuilds,
		Dirty:        b.drawList == nil,
	}
}

// tally counts the op kinds of a compiled draw list.
func tally(ops []drawOp) (draws, states, binds int) {
	for _, op := range ops {
		switch op.(type) {
		case drawRangeOp:
			draws++
		case setStateOp, unsetStateOp:
			states++
		case bindOp:
			binds++
		}
	}
	return draws, states, binds
}
