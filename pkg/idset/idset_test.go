package idset

import "testing"

func TestDiff_AddRemoveDisjoint(t *testing.T) {
	d := New()
	d.Add(1)
	d.Remove(2)

	if !d.IsAdded(1) {
		t.Fatal("expected 1 to be added")
	}
	if !d.IsRemoved(2) {
		t.Fatal("expected 2 to be removed")
	}
}

func TestDiff_RemoveThenAdd_UnRemoves(t *testing.T) {
	d := New()
	d.Remove(10)
	if !d.IsRemoved(10) {
		t.Fatal("expected 10 removed")
	}

	d.Add(10)
	if d.IsRemoved(10) {
		t.Fatal("add should have cancelled the removal")
	}
	if !d.IsAdded(10) {
		t.Fatal("expected 10 added after unRemove")
	}
}

func TestDiff_AddThenRemove_NetNoOp(t *testing.T) {
	d := New()
	d.Add(20)
	d.Remove(20)

	if d.IsAdded(20) || d.IsRemoved(20) {
		t.Fatal("create-then-remove in the same tx should show no trace")
	}
	if !d.IsEmpty() {
		t.Fatal("expected empty Diff after cancelling add with remove")
	}
}

func TestDiff_UnRemove_ReportsWhetherFound(t *testing.T) {
	d := New()
	if d.UnRemove(1) {
		t.Fatal("UnRemove on an empty Diff must report false")
	}
	d.Remove(1)
	if !d.UnRemove(1) {
		t.Fatal("UnRemove must report true for a recorded removal")
	}
	if d.UnRemove(1) {
		t.Fatal("second UnRemove of the same id must report false")
	}
}

func TestDiff_Augment_OrderAndMembership(t *testing.T) {
	d := New()
	d.Add(99)
	d.Remove(2)

	committed := []uint64{1, 2, 3}
	got := d.Augment(committed)

	want := map[uint64]bool{1: true, 3: true, 99: true}
	if len(got) != len(want) {
		t.Fatalf("got %v, want elements %v", got, want)
	}
	for _, g := range got {
		if !want[g] {
			t.Fatalf("unexpected id %d in augmented result", g)
		}
		delete(want, g)
	}
	if len(want) != 0 {
		t.Fatalf("missing ids from augmented result: %v", want)
	}
}

func TestDiff_Augment_EmptyIdentity(t *testing.T) {
	d := New()
	committed := []uint64{5, 6, 7}

	got := d.Augment(committed)
	if len(got) != len(committed) {
		t.Fatalf("expected unchanged slice, got %v", got)
	}
	for i := range committed {
		if got[i] != committed[i] {
			t.Fatalf("expected identical order, got %v want %v", got, committed)
		}
	}
}

type recordingVisitor struct {
	added, removed []uint64
}

func (r *recordingVisitor) VisitAdded(x uint64)   { r.added = append(r.added, x) }
func (r *recordingVisitor) VisitRemoved(x uint64) { r.removed = append(r.removed, x) }

func TestDiff_Accept(t *testing.T) {
	d := New()
	d.Add(1)
	d.Add(2)
	d.Remove(3)

	rv := &recordingVisitor{}
	d.Accept(rv)

	if len(rv.added) != 2 {
		t.Fatalf("expected 2 added callbacks, got %d", len(rv.added))
	}
	if len(rv.removed) != 1 || rv.removed[0] != 3 {
		t.Fatalf("expected removed callback for 3, got %v", rv.removed)
	}
}

func TestUnion_MergesAddedAndRemoved(t *testing.T) {
	a := New()
	a.Add(1)
	a.Remove(2)

	b := New()
	b.Add(2)
	b.Add(3)

	u := Union(a, b)
	if !u.IsAdded(1) || !u.IsAdded(2) || !u.IsAdded(3) {
		t.Fatalf("expected union added {1,2,3}, got %v", u.Added())
	}
	// b's Add(2) runs independently of a's Remove(2): Union doesn't
	// replay history, it just ORs the bitmaps, so 2 ends up in both.
	if !u.IsRemoved(2) {
		t.Fatal("expected 2 to remain in the union's removed set")
	}
}

func TestUnion_NilDiffsIgnored(t *testing.T) {
	a := New()
	a.Add(7)

	u := Union(nil, a, nil)
	if !u.IsAdded(7) {
		t.Fatal("expected Union to skip nils and keep real entries")
	}
}

func TestEmpty_IsSharedAndReadOnly(t *testing.T) {
	e1 := Empty()
	e2 := Empty()

	if !e1.IsEmpty() || !e2.IsEmpty() {
		t.Fatal("Empty() must report IsEmpty")
	}
	if e1.Added() != nil || e1.Removed() != nil {
		t.Fatal("Empty() must report no elements")
	}
}

func TestDiff_Purge(t *testing.T) {
	d := New()
	d.Add(1)
	d.Remove(2)

	d.Purge(1)
	d.Purge(2)

	if d.IsAdded(1) || d.IsRemoved(2) {
		t.Fatal("expected Purge to unconditionally clear both sides")
	}
}

func TestDiff_LazyAllocation(t *testing.T) {
	var d Diff
	if !d.IsEmpty() {
		t.Fatal("zero-value Diff must be empty")
	}
	if d.Added() != nil || d.Removed() != nil {
		t.Fatal("zero-value Diff must report nil slices")
	}
	if d.Cardinality() != 0 {
		t.Fatal("zero-value Diff must report zero cardinality")
	}
}
