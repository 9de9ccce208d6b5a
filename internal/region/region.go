// Package region provides a span allocator over a growable linear index
// space. It is the backing allocator for vertex domains: every vertex list
// owns one contiguous span of slots, and all attribute arrays of a domain
// share the same index space.
//
// Growth is append-only. When no free span can satisfy a request the
// capacity doubles, and the new slots are appended at the end, so span
// start indices handed out earlier remain valid forever.
package region

import (
	"errors"
	"fmt"
	"sort"
)

// Allocator errors.
var (
	// ErrInvalidCount is returned for zero or negative span sizes.
	ErrInvalidCount = errors.New("region: span count must be positive")

	// ErrCapacityExceeded is returned when growth would exceed the
	// configured capacity limit.
	ErrCapacityExceeded = errors.New("region: capacity limit exceeded")

	// ErrNotAllocated is returned when freeing a span that is not live.
	// It usually signals a double free or a use-after-free.
	ErrNotAllocated = errors.New("region: span is not allocated")
)

// DefaultInitialCapacity is the slot capacity an Allocator starts with
// when the config does not specify one.
const DefaultInitialCapacity = 256

// Config holds configuration for creating an Allocator.
type Config struct {
	// InitialCapacity is the starting slot capacity.
	// Defaults to DefaultInitialCapacity if <= 0.
	InitialCapacity int

	// MaxCapacity caps growth in slots. Zero means unbounded.
	MaxCapacity int
}

// span is a contiguous [start, start+count) run of slots.
type span struct {
	start int
	count int
}

func (s span) end() int { return s.start + s.count }

// Allocator hands out non-overlapping spans of slots from a linear store.
//
// Free spans are kept in a start-ordered, fully coalesced list: no two
// free spans touch. Live spans are tracked by start index so that Free can
// reject double frees instead of corrupting the free list.
//
// Allocator is not safe for concurrent use; the owning domain serializes
// access on the rendering thread.
type Allocator struct {
	capacity int
	max      int
	used     int

	free []span      // sorted by start, coalesced
	live map[int]int // start -> count
}

// Stats contains allocator usage statistics.
type Stats struct {
	// Capacity is the current slot capacity.
	Capacity int

	// Used is the number of slots in live spans.
	Used int

	// Free is the number of unallocated slots.
	Free int

	// FreeSpans is the number of entries in the free list.
	FreeSpans int

	// LargestFree is the size of the largest free span.
	LargestFree int

	// Spans is the number of live spans.
	Spans int
}

// String returns a human-readable string of allocator stats.
func (s Stats) String() string {
	util := 0.0
	if s.Capacity > 0 {
		util = float64(s.Used) / float64(s.Capacity)
	}
	return fmt.Sprintf("Region[%.1f%% used, %d/%d slots, %d live spans, %d free spans, largest free %d]",
		util*100, s.Used, s.Capacity, s.Spans, s.FreeSpans, s.LargestFree)
}

// New creates an Allocator with the given configuration.
func New(cfg Config) *Allocator {
	initial := cfg.InitialCapacity
	if initial <= 0 {
		initial = DefaultInitialCapacity
	}
	if cfg.MaxCapacity > 0 && initial > cfg.MaxCapacity {
		initial = cfg.MaxCapacity
	}
	return &Allocator{
		capacity: initial,
		max:      cfg.MaxCapacity,
		free:     []span{{start: 0, count: initial}},
		live:     make(map[int]int),
	}
}

// Capacity returns the current slot capacity. It only ever increases.
func (a *Allocator) Capacity() int { return a.capacity }

// Alloc reserves a contiguous span of count slots and returns its start
// index. It picks the smallest free span that fits (best fit); when none
// fits, capacity doubles until one does. Alloc fails only on invalid
// count or when growth would exceed the configured limit.
func (a *Allocator) Alloc(count int) (int, error) {
	if count <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}

	idx := a.bestFit(count)
	for idx < 0 {
		if !a.grow() {
			return 0, fmt.Errorf("%w: need %d contiguous slots, limit %d slots",
				ErrCapacityExceeded, count, a.max)
		}
		idx = a.bestFit(count)
	}

	s := a.free[idx]
	start := s.start
	if s.count == count {
		a.free = append(a.free[:idx], a.free[idx+1:]...)
	} else {
		a.free[idx] = span{start: s.start + count, count: s.count - count}
	}

	a.live[start] = count
	a.used += count
	return start, nil
}

// Free returns a previously allocated span to the free list, coalescing
// with adjacent free spans on either side. The (start, count) pair must
// exactly match a live allocation.
func (a *Allocator) Free(start, count int) error {
	if count <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	liveCount, ok := a.live[start]
	if !ok || liveCount != count {
		return fmt.Errorf("%w: [%d, %d)", ErrNotAllocated, start, start+count)
	}

	delete(a.live, start)
	a.used -= count

	// Insertion point: first free span starting after the freed one.
	idx := sort.Search(len(a.free), func(i int) bool {
		return a.free[i].start > start
	})

	mergeLeft := idx > 0 && a.free[idx-1].end() == start
	mergeRight := idx < len(a.free) && start+count == a.free[idx].start

	switch {
	case mergeLeft && mergeRight:
		a.free[idx-1].count += count + a.free[idx].count
		a.free = append(a.free[:idx], a.free[idx+1:]...)
	case mergeLeft:
		a.free[idx-1].count += count
	case mergeRight:
		a.free[idx].start = start
		a.free[idx].count += count
	default:
		a.free = append(a.free, span{})
		copy(a.free[idx+1:], a.free[idx:])
		a.free[idx] = span{start: start, count: count}
	}
	return nil
}

// Stats returns current allocator statistics.
func (a *Allocator) Stats() Stats {
	st := Stats{
		Capacity:  a.capacity,
		Used:      a.used,
		Free:      a.capacity - a.used,
		FreeSpans: len(a.free),
		Spans:     len(a.live),
	}
	for _, s := range a.free {
		if s.count > st.LargestFree {
			st.LargestFree = s.count
		}
	}
	return st
}

// bestFit returns the index of the smallest free span holding at least
// count slots, or -1. Ties go to the lowest start index.
func (a *Allocator) bestFit(count int) int {
	best := -1
	for i, s := range a.free {
		if s.count < count {
			continue
		}
		if best < 0 || s.count < a.free[best].count {
			best = i
		}
	}
	return best
}

// grow doubles the capacity, appending the new slots at the end of the
// index space. Existing span starts are unaffected; the appended space
// coalesces with a trailing free span, so the caller re-probes the free
// list after each growth step. Returns false once the capacity limit
// prevents further growth.
func (a *Allocator) grow() bool {
	newCap := a.capacity * 2
	if a.max > 0 && newCap > a.max {
		newCap = a.max
	}
	if newCap <= a.capacity {
		return false
	}

	added := span{start: a.capacity, count: newCap - a.capacity}
	if n := len(a.free); n > 0 && a.free[n-1].end() == added.start {
		a.free[n-1].count += added.count
	} else {
		a.free = append(a.free, added)
	}
	slogger().Debug("capacity grown", "from", a.capacity, "to", newCap, "used", a.used)
	a.capacity = newCap
	return true
}
