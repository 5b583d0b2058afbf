package history

import "testing"

func TestRing_EmptySlice(t *testing.T) {
	r := NewRing[int](3)
	if got := r.Slice(); len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
	if _, ok := r.Last(); ok {
		t.Fatal("expected no last entry")
	}
}

func TestRing_OrderBeforeWrap(t *testing.T) {
	r := NewRing[int](5)
	for i := 0; i < 3; i++ {
		r.Push(i)
	}
	got := r.Slice()
	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestRing_EvictsOldestFirst(t *testing.T) {
	r := NewRing[int](DefaultCapacity)
	for i := 0; i <= 100; i++ {
		r.Push(i)
	}

	if r.Len() != 100 {
		t.Fatalf("expected 100 entries, got %d", r.Len())
	}
	got := r.Slice()
	if got[0] != 1 {
		t.Fatalf("expected frame 0 evicted, oldest is %d", got[0])
	}
	if got[len(got)-1] != 100 {
		t.Fatalf("expected newest 100, got %d", got[len(got)-1])
	}
	for i := 1; i < len(got); i++ {
		if got[i] != got[i-1]+1 {
			t.Fatalf("out of order at %d: %v", i, got)
		}
	}
}

func TestRing_NeverExceedsCapacity(t *testing.T) {
	r := NewRing[int](7)
	for i := 0; i < 1000; i++ {
		r.Push(i)
		if r.Len() > r.Cap() {
			t.Fatalf("len %d exceeds cap %d", r.Len(), r.Cap())
		}
	}
	last, _ := r.Last()
	if last != 999 {
		t.Fatalf("expected last 999, got %d", last)
	}
}

func TestRing_SliceDoesNotAlias(t *testing.T) {
	r := NewRing[int](2)
	r.Push(1)
	r.Push(2)
	snap := r.Slice()
	r.Push(3)

	if snap[0] != 1 || snap[1] != 2 {
		t.Fatalf("snapshot mutated by later push: %v", snap)
	}
}

func TestRing_ResetAndDefaultCapacity(t *testing.T) {
	r := NewRing[string](0)
	if r.Cap() != DefaultCapacity {
		t.Fatalf("expected default capacity, got %d", r.Cap())
	}
	r.Push("a")
	r.Reset()
	if r.Len() != 0 {
		t.Fatalf("expected empty after reset, got %d", r.Len())
	}
}
