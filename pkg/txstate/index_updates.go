package txstate

import (
	"github.com/google/btree"
	"github.com/orneryd/graphtx/pkg/idset"
	"github.com/orneryd/graphtx/pkg/value"
)

// SchemaDescriptor identifies an index schema: a label plus an ordered
// list of property keys. Single-column descriptors (len(Properties)==1)
// support range and prefix queries; composite descriptors only support
// scan and exact seek — see ErrCompositeRangeUnsupported.
type SchemaDescriptor struct {
	Label      LabelID
	Properties []PropertyKeyID
}

// IsComposite reports whether the descriptor spans more than one
// property key.
func (d SchemaDescriptor) IsComposite() bool { return len(d.Properties) > 1 }

// Key returns a canonical string identifying this descriptor for map
// lookups, mirroring value.Tuple.Key's approach for the same reason:
// []PropertyKeyID is not a comparable map key.
func (d SchemaDescriptor) Key() string {
	buf := make([]byte, 0, 4+4*len(d.Properties))
	buf = appendInt32(buf, int32(d.Label))
	for _, p := range d.Properties {
		buf = append(buf, 0x1f)
		buf = appendInt32(buf, int32(p))
	}
	return string(buf)
}

func appendInt32(buf []byte, v int32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// indexEntry is one per-ValueTuple slot under a schema descriptor: the
// DiffSet of node ids currently associated with that tuple, plus the
// arena handle NodeState back-links reference.
type indexEntry struct {
	tuple  value.Tuple
	diff   *idset.Diff
	handle int
}

// schemaEntries holds the per-value-tuple map for one descriptor. It
// starts hashed (an ordinary Go map keyed by the tuple's canonical
// string) and is promoted in place to an ordered btree, keyed by
// value.Tuple.Compare, the first time a range or prefix query touches
// it. Every subsequent write for this descriptor targets the ordered
// form; nothing ever demotes it back.
type schemaEntries struct {
	descriptor SchemaDescriptor
	hashed     map[string]*indexEntry
	ordered    *btree.BTreeG[*indexEntry]
}

func lessByTuple(a, b *indexEntry) bool { return a.tuple.Compare(b.tuple) < 0 }

func (s *schemaEntries) promote() {
	if s.ordered != nil {
		return
	}
	s.ordered = btree.NewG(32, lessByTuple)
	for _, e := range s.hashed {
		s.ordered.ReplaceOrInsert(e)
	}
	s.hashed = nil
}

func (s *schemaEntries) get(tuple value.Tuple) (*indexEntry, bool) {
	if s.ordered != nil {
		return s.ordered.Get(&indexEntry{tuple: tuple})
	}
	e, ok := s.hashed[tuple.Key()]
	return e, ok
}

func (s *schemaEntries) put(e *indexEntry) {
	if s.ordered != nil {
		s.ordered.ReplaceOrInsert(e)
		return
	}
	if s.hashed == nil {
		s.hashed = make(map[string]*indexEntry, 1)
	}
	s.hashed[e.tuple.Key()] = e
}

func (s *schemaEntries) all() []*indexEntry {
	if s.ordered != nil {
		out := make([]*indexEntry, 0, s.ordered.Len())
		s.ordered.Ascend(func(e *indexEntry) bool {
			out = append(out, e)
			return true
		})
		return out
	}
	out := make([]*indexEntry, 0, len(s.hashed))
	for _, e := range s.hashed {
		out = append(out, e)
	}
	return out
}

// IndexUpdates is the transaction's index-update table:
// schema descriptor -> value tuple -> DiffSet of node ids.
type IndexUpdates struct {
	bySchema map[string]*schemaEntries
	arena    []*idset.Diff
}

func (iu *IndexUpdates) schema(d SchemaDescriptor) *schemaEntries {
	if iu.bySchema == nil {
		iu.bySchema = make(map[string]*schemaEntries, 1)
	}
	se, ok := iu.bySchema[d.Key()]
	if !ok {
		se = &schemaEntries{descriptor: d}
		iu.bySchema[d.Key()] = se
	}
	return se
}

func (iu *IndexUpdates) getOrCreate(d SchemaDescriptor, tuple value.Tuple) *indexEntry {
	se := iu.schema(d)
	if e, ok := se.get(tuple); ok {
		return e
	}
	diff := idset.New()
	iu.arena = append(iu.arena, diff)
	e := &indexEntry{tuple: tuple, diff: diff, handle: len(iu.arena) - 1}
	se.put(e)
	return e
}

func (iu *IndexUpdates) updateSide(d SchemaDescriptor, tuple value.Tuple, nodeID NodeID, node *NodeState, add bool) {
	e := iu.getOrCreate(d, tuple)
	x := uint64(nodeID)
	if add {
		e.diff.Add(x)
	} else {
		e.diff.Remove(x)
	}
	if e.diff.IsAdded(x) || e.diff.IsRemoved(x) {
		node.RegisterIndexBackLink(e.handle)
	} else {
		node.DeregisterIndexBackLink(e.handle)
	}
}

// IndexDoUpdateEntry moves nodeID from its old indexed value to its new
// one: it removes nodeID from the (schema, before) DiffSet if before is
// non-nil, and adds it to (schema, after) if after is non-nil,
// maintaining node back-links on both sides so that a later
// NodeDoDelete can excise the node from exactly the DiffSets that still
// mention it.
func (iu *IndexUpdates) IndexDoUpdateEntry(d SchemaDescriptor, nodeID NodeID, before, after *value.Tuple, node *NodeState) {
	if before != nil {
		iu.updateSide(d, *before, nodeID, node, false)
	}
	if after != nil {
		iu.updateSide(d, *after, nodeID, node, true)
	}
}

// ExciseNode purges nodeID from every DiffSet it is registered against
// via back-link, then clears the node's back-link list. Called by
// NodeDoDelete.
func (iu *IndexUpdates) ExciseNode(nodeID NodeID, node *NodeState) {
	x := uint64(nodeID)
	for _, h := range node.IndexBackLinks() {
		if h >= 0 && h < len(iu.arena) {
			iu.arena[h].Purge(x)
		}
	}
	node.indexBackLinks = nil
}

// ForScan returns the union of every per-value DiffSet for d.
func (iu *IndexUpdates) ForScan(d SchemaDescriptor) idset.Readable {
	se, ok := iu.bySchema[d.Key()]
	if !ok {
		return idset.Empty()
	}
	entries := se.all()
	diffs := make([]*idset.Diff, len(entries))
	for i, e := range entries {
		diffs[i] = e.diff
	}
	return idset.Union(diffs...)
}

// ForSeek returns the DiffSet stored at exactly the given tuple, or the
// shared empty view if nothing is tracked there.
func (iu *IndexUpdates) ForSeek(d SchemaDescriptor, tuple value.Tuple) idset.Readable {
	se, ok := iu.bySchema[d.Key()]
	if !ok {
		return idset.Empty()
	}
	if e, ok := se.get(tuple); ok {
		return e.diff
	}
	return idset.Empty()
}

// ForRangeSeek answers a ByNumber/ByString range scan. lower and upper
// are nil for an unbounded side; there is no maximal sentinel value to
// seek to instead, so an unbounded upper side simply ignores incUpper.
// Rejects composite descriptors.
func (iu *IndexUpdates) ForRangeSeek(d SchemaDescriptor, lower *value.Value, incLower bool, upper *value.Value, incUpper bool) (idset.Readable, error) {
	if d.IsComposite() {
		return nil, ErrCompositeRangeUnsupported
	}
	se, ok := iu.bySchema[d.Key()]
	if !ok {
		return idset.Empty(), nil
	}
	se.promote()

	var lowerTuple value.Tuple
	hasLower := lower != nil
	if hasLower {
		lowerTuple = value.Tuple{*lower}
	}

	var diffs []*idset.Diff
	visit := func(e *indexEntry) bool {
		if upper != nil {
			cmp := e.tuple.Compare(value.Tuple{*upper})
			if cmp > 0 || (cmp == 0 && !incUpper) {
				return false
			}
		}
		if hasLower && !incLower && e.tuple.Compare(lowerTuple) == 0 {
			return true
		}
		diffs = append(diffs, e.diff)
		return true
	}

	if hasLower {
		se.ordered.AscendGreaterOrEqual(&indexEntry{tuple: lowerTuple}, visit)
	} else {
		se.ordered.Ascend(visit)
	}
	return idset.Union(diffs...), nil
}

// ForRangeSeekByPrefix seeks to the first key >= prefix and streams
// forward until a key no longer starts with it.
func (iu *IndexUpdates) ForRangeSeekByPrefix(d SchemaDescriptor, prefix string) (idset.Readable, error) {
	if d.IsComposite() {
		return nil, ErrCompositeRangeUnsupported
	}
	se, ok := iu.bySchema[d.Key()]
	if !ok {
		return idset.Empty(), nil
	}
	se.promote()

	pivot := value.Tuple{value.String(prefix)}
	var diffs []*idset.Diff
	se.ordered.AscendGreaterOrEqual(&indexEntry{tuple: pivot}, func(e *indexEntry) bool {
		s, ok := e.tuple[0].AsString()
		if !ok || !hasPrefix(s, prefix) {
			return false
		}
		diffs = append(diffs, e.diff)
		return true
	})
	return idset.Union(diffs...), nil
}

func hasPrefix(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return s[:len(prefix)] == prefix
}
