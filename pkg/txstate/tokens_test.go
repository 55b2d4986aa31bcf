package txstate

import "testing"

func TestTokenTable_InIDOrder(t *testing.T) {
	var tbl tokenTable[LabelID]
	tbl.create("Zeta", 9)
	tbl.create("Alpha", 2)
	tbl.create("Mid", 5)

	got := tbl.inIDOrder()
	want := []int32{2, 5, 9}
	if len(got) != len(want) {
		t.Fatalf("got %v, want ids %v", got, want)
	}
	for i, e := range got {
		if int32(e.ID) != want[i] {
			t.Fatalf("got %v, want ids %v", got, want)
		}
	}
}

func TestTokenTable_IsEmpty(t *testing.T) {
	var tbl tokenTable[PropertyKeyID]
	if !tbl.isEmpty() {
		t.Fatal("expected fresh token table to be empty")
	}
	tbl.create("name", 1)
	if tbl.isEmpty() {
		t.Fatal("expected token table to be non-empty after create")
	}
}
