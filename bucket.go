package batch

import "sort"

// drawSpan is a contiguous run of vertices within one domain, expressed
// in shared vertex indices.
type drawSpan struct {
	start int
	count int
}

func (s drawSpan) end() int { return s.start + s.count }

// bucket tracks the vertex ranges of all lists that share a (domain,
// group) pair, fusing index-adjacent ranges so each surviving range
// becomes a single draw call. Ranges are kept sorted by start and never
// touch: adjacency is resolved eagerly on add.
type bucket struct {
	ranges []drawSpan
}

// add merges the range [start, start+count) into the bucket, fusing with
// an adjacent range on either side. At most two existing ranges fuse:
// the invariant that no two stored ranges touch means a new range can
// bridge no more than its immediate left and right neighbors.
func (bk *bucket) add(start, count int) {
	i := sort.Search(len(bk.ranges), func(i int) bool {
		return bk.ranges[i].start >= start
	})

	left := i > 0 && bk.ranges[i-1].end() == start
	right := i < len(bk.ranges) && bk.ranges[i].start == start+count

	switch {
	case left && right:
		bk.ranges[i-1].count += count + bk.ranges[i].count
		bk.ranges = append(bk.ranges[:i], bk.ranges[i+1:]...)
	case left:
		bk.ranges[i-1].count += count
	case right:
		bk.ranges[i].start = start
		bk.ranges[i].count += count
	default:
		bk.ranges = append(bk.ranges, drawSpan{})
		copy(bk.ranges[i+1:], bk.ranges[i:])
		bk.ranges[i] = drawSpan{start: start, count: count}
	}
}

// remove carves the range [start, start+count) out of the bucket. The
// range must lie entirely within one stored range; removing an interior
// stretch splits the range in two. Returns false if the range is not
// covered.
func (bk *bucket) remove(start, count int) bool {
	i := sort.Search(len(bk.ranges), func(i int) bool {
		return bk.ranges[i].end() > start
	})
	if i == len(bk.ranges) {
		return false
	}
	r := bk.ranges[i]
	if start < r.start || start+count > r.end() {
		return false
	}

	switch {
	case r.start == start && r.count == count:
		bk.ranges = append(bk.ranges[:i], bk.ranges[i+1:]...)
	case r.start == start:
		bk.ranges[i].start += count
		bk.ranges[i].count -= count
	case r.end() == start+count:
		bk.ranges[i].count -= count
	default:
		// Interior removal: split into two ranges.
		tail := drawSpan{start: start + count, count: r.end() - (start + count)}
		bk.ranges[i].count = start - r.start
		bk.ranges = append(bk.ranges, drawSpan{})
		copy(bk.ranges[i+2:], bk.ranges[i+1:])
		bk.ranges[i+1] = tail
	}
	return true
}

// empty reports whether the bucket holds no ranges.
func (bk *bucket) empty() bool { return len(bk.ranges) == 0 }

// spans returns the merged ranges in ascending start order. The returned
// slice aliases the bucket's storage; callers must not mutate it.
func (bk *bucket) spans() []drawSpan { return bk.ranges }
