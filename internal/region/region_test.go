package region

import (
	"errors"
	"math/rand"
	"testing"
)

// TestAllocSequential tests that a fresh allocator hands out spans in
// ascending order from index zero.
func TestAllocSequential(t *testing.T) {
	a := New(Config{InitialCapacity: 64})

	wantStarts := []int{0, 4, 8, 12}
	for i, want := range wantStarts {
		start, err := a.Alloc(4)
		if err != nil {
			t.Fatalf("Alloc(4) #%d: %v", i, err)
		}
		if start != want {
			t.Errorf("Alloc(4) #%d = %d, want %d", i, start, want)
		}
	}
}

// TestAllocInvalidCount tests rejection of non-positive counts.
func TestAllocInvalidCount(t *testing.T) {
	a := New(Config{})

	for _, count := range []int{0, -1, -100} {
		if _, err := a.Alloc(count); !errors.Is(err, ErrInvalidCount) {
			t.Errorf("Alloc(%d) error = %v, want ErrInvalidCount", count, err)
		}
		if err := a.Free(0, count); !errors.Is(err, ErrInvalidCount) {
			t.Errorf("Free(0, %d) error = %v, want ErrInvalidCount", count, err)
		}
	}
}

// TestBestFit tests that Alloc reuses the smallest sufficient gap.
func TestBestFit(t *testing.T) {
	a := New(Config{InitialCapacity: 64})

	// Carve out spans with live separators between them, then free a
	// 4-slot and a 16-slot span to leave two gaps of different sizes.
	if _, err := a.Alloc(8); err != nil {
		t.Fatal(err)
	}
	s4, _ := a.Alloc(4)
	if _, err := a.Alloc(8); err != nil { // separator
		t.Fatal(err)
	}
	s16, _ := a.Alloc(16)
	if _, err := a.Alloc(4); err != nil { // separator against the tail gap
		t.Fatal(err)
	}
	if err := a.Free(s4, 4); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(s16, 16); err != nil {
		t.Fatal(err)
	}

	// A 3-slot request must land in the 4-slot gap, not the 16-slot one.
	start, err := a.Alloc(3)
	if err != nil {
		t.Fatal(err)
	}
	if start != s4 {
		t.Errorf("Alloc(3) = %d, want %d (smallest gap)", start, s4)
	}
}

// TestFreeCoalescing tests merging with left, right, and both neighbors.
func TestFreeCoalescing(t *testing.T) {
	tests := []struct {
		name      string
		freeOrder []int // indices into the three adjacent spans
	}{
		{name: "left then right", freeOrder: []int{0, 1, 2}},
		{name: "right then left", freeOrder: []int{2, 1, 0}},
		{name: "middle last fuses both", freeOrder: []int{0, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(Config{InitialCapacity: 32})
			starts := make([]int, 3)
			for i := range starts {
				s, err := a.Alloc(4)
				if err != nil {
					t.Fatal(err)
				}
				starts[i] = s
			}
			// Pin a fourth span so the tail free space cannot merge in.
			if _, err := a.Alloc(4); err != nil {
				t.Fatal(err)
			}

			for _, i := range tt.freeOrder {
				if err := a.Free(starts[i], 4); err != nil {
					t.Fatal(err)
				}
			}

			// The three freed spans must have coalesced into one entry
			// [0, 12), separate from the tail gap [16, 32).
			if len(a.free) != 2 {
				t.Fatalf("free list has %d spans, want 2: %v", len(a.free), a.free)
			}
			if a.free[0] != (span{start: 0, count: 12}) {
				t.Errorf("coalesced span = %+v, want {0 12}", a.free[0])
			}
		})
	}
}

// TestFreeNotAllocated tests double-free and bad-span detection.
func TestFreeNotAllocated(t *testing.T) {
	a := New(Config{InitialCapacity: 32})
	start, err := a.Alloc(8)
	if err != nil {
		t.Fatal(err)
	}

	if err := a.Free(start+1, 7); !errors.Is(err, ErrNotAllocated) {
		t.Errorf("Free of interior offset: error = %v, want ErrNotAllocated", err)
	}
	if err := a.Free(start, 4); !errors.Is(err, ErrNotAllocated) {
		t.Errorf("Free with wrong count: error = %v, want ErrNotAllocated", err)
	}
	if err := a.Free(start, 8); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if err := a.Free(start, 8); !errors.Is(err, ErrNotAllocated) {
		t.Errorf("double Free: error = %v, want ErrNotAllocated", err)
	}
}

// TestGrowthAppendOnly tests that growth never moves existing spans.
func TestGrowthAppendOnly(t *testing.T) {
	a := New(Config{InitialCapacity: 8})

	first, err := a.Alloc(8) // fills initial capacity
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Alloc(8) // forces growth
	if err != nil {
		t.Fatal(err)
	}

	if first != 0 {
		t.Errorf("first span start = %d, want 0", first)
	}
	if second != 8 {
		t.Errorf("second span start = %d, want 8 (appended)", second)
	}
	if a.Capacity() != 16 {
		t.Errorf("capacity = %d, want 16", a.Capacity())
	}

	// A request larger than double must keep doubling in one call.
	third, err := a.Alloc(100)
	if err != nil {
		t.Fatal(err)
	}
	if third != 16 {
		t.Errorf("third span start = %d, want 16", third)
	}
}

// TestCapacityLimit tests the hard growth cap.
func TestCapacityLimit(t *testing.T) {
	a := New(Config{InitialCapacity: 8, MaxCapacity: 16})

	if _, err := a.Alloc(12); err != nil {
		t.Fatalf("Alloc within limit: %v", err)
	}
	if _, err := a.Alloc(8); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("Alloc past limit: error = %v, want ErrCapacityExceeded", err)
	}
	// The failed call must not have grown or corrupted anything.
	if got, err := a.Alloc(4); err != nil || got != 12 {
		t.Errorf("Alloc(4) after failure = %d, %v; want 12, nil", got, err)
	}
}

// TestStats tests stat bookkeeping.
func TestStats(t *testing.T) {
	a := New(Config{InitialCapacity: 32})
	s1, _ := a.Alloc(8)
	if _, err := a.Alloc(4); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(s1, 8); err != nil {
		t.Fatal(err)
	}

	st := a.Stats()
	if st.Capacity != 32 || st.Used != 4 || st.Free != 28 {
		t.Errorf("stats = %+v, want capacity 32, used 4, free 28", st)
	}
	if st.FreeSpans != 2 || st.LargestFree != 20 || st.Spans != 1 {
		t.Errorf("stats = %+v, want 2 free spans, largest 20, 1 live span", st)
	}
	if st.String() == "" {
		t.Error("Stats.String() is empty")
	}
}

// TestRandomizedInvariants exercises random alloc/free sequences and
// checks the allocator invariants after every operation: live spans never
// overlap, used + free slot counts equal capacity, and the free list is
// sorted and fully coalesced.
func TestRandomizedInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := New(Config{InitialCapacity: 16})

	type alloc struct{ start, count int }
	var live []alloc

	for i := 0; i < 2000; i++ {
		if len(live) == 0 || rng.Intn(3) > 0 {
			count := 1 + rng.Intn(12)
			start, err := a.Alloc(count)
			if err != nil {
				t.Fatalf("op %d: Alloc(%d): %v", i, count, err)
			}
			live = append(live, alloc{start, count})
		} else {
			j := rng.Intn(len(live))
			if err := a.Free(live[j].start, live[j].count); err != nil {
				t.Fatalf("op %d: Free(%d, %d): %v", i, live[j].start, live[j].count, err)
			}
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
		}

		checkInvariants(t, a, i)
	}
}

func checkInvariants(t *testing.T, a *Allocator, op int) {
	t.Helper()

	slots := make([]bool, a.capacity)
	used := 0
	for start, count := range a.live {
		for s := start; s < start+count; s++ {
			if slots[s] {
				t.Fatalf("op %d: slot %d covered by two live spans", op, s)
			}
			slots[s] = true
		}
		used += count
	}
	if used != a.used {
		t.Fatalf("op %d: used = %d, tracked %d", op, used, a.used)
	}

	freeTotal := 0
	for i, s := range a.free {
		freeTotal += s.count
		if i == 0 {
			continue
		}
		prev := a.free[i-1]
		if prev.end() > s.start {
			t.Fatalf("op %d: free list unsorted or overlapping at %d", op, i)
		}
		if prev.end() == s.start {
			t.Fatalf("op %d: adjacent free spans not coalesced at %d", op, i)
		}
	}
	if used+freeTotal != a.capacity {
		t.Fatalf("op %d: used %d + free %d != capacity %d", op, used, freeTotal, a.capacity)
	}
}
