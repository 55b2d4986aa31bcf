package txstate

import "sort"

// tokenEntry pairs a newly introduced token name with the id the caller
// assigned it.
type tokenEntry[ID ~int32] struct {
	Name string
	ID   ID
}

// tokenTable tracks the label / property-key / relationship-type names
// introduced this transaction, in the order needed to emit
// VisitCreatedXToken events in ascending id order at commit.
type tokenTable[ID ~int32] struct {
	byID map[ID]string
}

func (t *tokenTable[ID]) create(name string, id ID) {
	if t.byID == nil {
		t.byID = make(map[ID]string, 1)
	}
	t.byID[id] = name
}

func (t *tokenTable[ID]) isEmpty() bool { return len(t.byID) == 0 }

// inIDOrder returns the tokens created this transaction sorted by id
// ascending, the order they're emitted in at commit.
func (t *tokenTable[ID]) inIDOrder() []tokenEntry[ID] {
	out := make([]tokenEntry[ID], 0, len(t.byID))
	for id, name := range t.byID {
		out = append(out, tokenEntry[ID]{Name: name, ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
