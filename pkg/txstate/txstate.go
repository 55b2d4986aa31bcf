package txstate

import (
	"github.com/orneryd/graphtx/pkg/idset"
	"github.com/orneryd/graphtx/pkg/value"
)

// TxState is the transaction-local mutation buffer: the façade through
// which statement-execution code mutates a pending transaction's view of
// the graph, and through which read paths augment committed-store data
// with those pending changes.
//
// TxState is single-threaded by contract: it is owned by exactly one
// transaction and is never read or mutated concurrently. There is no
// internal locking. A zero-value TxState is ready to use; every
// collection inside it is allocated lazily on first write, so a
// read-only transaction allocates nothing beyond the TxState value
// itself.
type TxState struct {
	nodes  map[NodeID]*NodeState
	rels   map[RelationshipID]*RelationshipState
	labels map[LabelID]*LabelState
	graph  GraphState

	nodesDiff idset.Diff
	relsDiff  idset.Diff

	nodesDeletedInTx         map[NodeID]struct{}
	relationshipsDeletedInTx map[RelationshipID]struct{}

	labelTokens       tokenTable[LabelID]
	propertyKeyTokens tokenTable[PropertyKeyID]
	relTypeTokens     tokenTable[RelTypeID]

	indexUpdates  IndexUpdates
	schemaChanges SchemaChanges

	hasChanges     bool
	hasDataChanges bool

	// DebugCommitLog, when true, makes Accept log the start and end of
	// its walk and each created node it visits; the other categories are
	// not logged. Off by default; see pkg/config.
	DebugCommitLog bool
}

// New returns an empty TxState. Calling it is optional — the zero value
// is equally ready to use — but it documents intent at call sites.
func New() *TxState { return &TxState{} }

func (t *TxState) touch(dataChange bool) {
	t.hasChanges = true
	if dataChange {
		t.hasDataChanges = true
	}
}

// HasChanges reports whether any mutation — data or schema — occurred.
func (t *TxState) HasChanges() bool { return t.hasChanges }

// HasDataChanges reports whether any node/relationship/property/label
// mutation occurred, excluding schema, token, and index bookkeeping.
func (t *TxState) HasDataChanges() bool { return t.hasDataChanges }

func getOrCreate[K comparable, V any](m map[K]V, k K, newFn func() V) (map[K]V, V) {
	if m == nil {
		m = make(map[K]V, 1)
	}
	v, ok := m[k]
	if !ok {
		v = newFn()
		m[k] = v
	}
	return m, v
}

func (t *TxState) nodeState(id NodeID) *NodeState {
	var ns *NodeState
	t.nodes, ns = getOrCreate(t.nodes, id, func() *NodeState { return &NodeState{} })
	return ns
}

func (t *TxState) relState(id RelationshipID) *RelationshipState {
	var rs *RelationshipState
	t.rels, rs = getOrCreate(t.rels, id, func() *RelationshipState { return &RelationshipState{} })
	return rs
}

func (t *TxState) labelState(id LabelID) *LabelState {
	var ls *LabelState
	t.labels, ls = getOrCreate(t.labels, id, func() *LabelState { return &LabelState{} })
	return ls
}

// --- node mutation API --------------------------------------------------

// NodeDoCreate records id as created this transaction.
func (t *TxState) NodeDoCreate(id NodeID) {
	t.touch(true)
	t.nodesDiff.Add(uint64(id))
	t.nodeState(id)
}

// NodeDoDelete records id as deleted this transaction, purges it from
// every LabelState it currently belongs to (whether the label was added
// or removed this transaction), and excises it from every index-update
// DiffSet it is registered against.
func (t *TxState) NodeDoDelete(id NodeID) {
	t.touch(true)
	t.nodesDiff.Remove(uint64(id))
	if t.nodesDeletedInTx == nil {
		t.nodesDeletedInTx = make(map[NodeID]struct{}, 1)
	}
	t.nodesDeletedInTx[id] = struct{}{}

	ns, ok := t.nodes[id]
	if !ok {
		return
	}
	for _, labelID := range ns.labelDiffs.Added() {
		t.labelState(labelID).Nodes.Remove(uint64(id))
	}
	for _, labelID := range ns.labelDiffs.Removed() {
		// A label removed this transaction must also disappear from that
		// label's removed-side DiffSet, not just be left there, so the
		// node leaves no trace on either side.
		t.labelState(labelID).Nodes.Purge(uint64(id))
	}
	t.indexUpdates.ExciseNode(id, ns)
}

// NodeIsAddedInThisTx reports whether id was created this transaction.
func (t *TxState) NodeIsAddedInThisTx(id NodeID) bool { return t.nodesDiff.IsAdded(uint64(id)) }

// NodeIsDeletedInThisTx reports whether id was deleted this transaction,
// even if it was also created in the same transaction (and so shows no
// trace in AddedAndRemovedNodes).
func (t *TxState) NodeIsDeletedInThisTx(id NodeID) bool {
	_, ok := t.nodesDeletedInTx[id]
	return ok
}

// NodeModifiedInThisTx reports whether id has any tracked property,
// label, or relationship-slot change this transaction.
func (t *TxState) NodeModifiedInThisTx(id NodeID) bool {
	ns, ok := t.nodes[id]
	return ok && !ns.IsEmpty()
}

// AddedAndRemovedNodes returns the transaction's top-level node DiffSet.
func (t *TxState) AddedAndRemovedNodes() *idset.Diff { return &t.nodesDiff }

// NodesWithLabelChanged returns the node DiffSet for labelID, or the
// shared empty view if nothing touched that label this transaction.
func (t *TxState) NodesWithLabelChanged(labelID LabelID) idset.Readable {
	ls, ok := t.labels[labelID]
	if !ok {
		return idset.Empty()
	}
	return &ls.Nodes
}

// NodeDoAddProperty records k=v as newly present on id.
func (t *TxState) NodeDoAddProperty(id NodeID, k PropertyKeyID, v value.Value) {
	t.touch(true)
	t.nodeState(id).AddProperty(k, v)
}

// NodeDoChangeProperty records a new value for k on id.
func (t *TxState) NodeDoChangeProperty(id NodeID, k PropertyKeyID, v value.Value) {
	t.touch(true)
	t.nodeState(id).ChangeProperty(k, v)
}

// NodeDoRemoveProperty records k as removed from id.
func (t *TxState) NodeDoRemoveProperty(id NodeID, k PropertyKeyID) {
	t.touch(true)
	t.nodeState(id).RemoveProperty(k)
}

// NodeDoAddLabel attaches labelID to id, maintaining the LabelState /
// NodeState.labelDiffs bijection.
func (t *TxState) NodeDoAddLabel(id NodeID, labelID LabelID) {
	t.touch(true)
	t.nodeState(id).AddLabel(labelID)
	t.labelState(labelID).Nodes.Add(uint64(id))
}

// NodeDoRemoveLabel detaches labelID from id, maintaining the bijection.
func (t *TxState) NodeDoRemoveLabel(id NodeID, labelID LabelID) {
	t.touch(true)
	t.nodeState(id).RemoveLabel(labelID)
	t.labelState(labelID).Nodes.Remove(uint64(id))
}

// NodeRelationshipTypes returns the relationship types id has any
// tracked relationship change for this transaction.
func (t *TxState) NodeRelationshipTypes(id NodeID) []RelTypeID {
	ns, ok := t.nodes[id]
	if !ok {
		return nil
	}
	seen := make(map[RelTypeID]struct{})
	var out []RelTypeID
	for _, byType := range ns.rels {
		for typeID := range byType {
			if _, dup := seen[typeID]; dup {
				continue
			}
			seen[typeID] = struct{}{}
			out = append(out, typeID)
		}
	}
	return out
}

// --- relationship mutation API ------------------------------------------

// RelationshipDoCreate records id as created this transaction, with the
// fixed metadata triple set once here.
func (t *TxState) RelationshipDoCreate(id RelationshipID, typeID RelTypeID, start, end NodeID) {
	t.touch(true)
	t.relsDiff.Add(uint64(id))
	rs := t.relState(id)
	rs.StartNode, rs.EndNode, rs.TypeID = start, end, typeID

	if start == end {
		t.nodeState(start).AddRelationship(id, typeID, Both)
		return
	}
	t.nodeState(start).AddRelationship(id, typeID, Outgoing)
	t.nodeState(end).AddRelationship(id, typeID, Incoming)
}

// RelationshipDoDelete records id as deleted this transaction.
func (t *TxState) RelationshipDoDelete(id RelationshipID, typeID RelTypeID, start, end NodeID) {
	t.touch(true)
	t.relsDiff.Remove(uint64(id))
	if t.relationshipsDeletedInTx == nil {
		t.relationshipsDeletedInTx = make(map[RelationshipID]struct{}, 1)
	}
	t.relationshipsDeletedInTx[id] = struct{}{}
	rs := t.relState(id)
	rs.StartNode, rs.EndNode, rs.TypeID = start, end, typeID

	if start == end {
		t.nodeState(start).RemoveRelationship(id, typeID, Both)
		return
	}
	t.nodeState(start).RemoveRelationship(id, typeID, Outgoing)
	t.nodeState(end).RemoveRelationship(id, typeID, Incoming)
}

// RelationshipIsAddedInThisTx reports whether id was created this tx.
func (t *TxState) RelationshipIsAddedInThisTx(id RelationshipID) bool {
	return t.relsDiff.IsAdded(uint64(id))
}

// RelationshipIsDeletedInThisTx reports whether id was deleted this tx,
// even if also created in the same transaction.
func (t *TxState) RelationshipIsDeletedInThisTx(id RelationshipID) bool {
	_, ok := t.relationshipsDeletedInTx[id]
	return ok
}

// AddedAndRemovedRelationships returns the transaction's top-level
// relationship DiffSet.
func (t *TxState) AddedAndRemovedRelationships() *idset.Diff { return &t.relsDiff }

// RelationshipDoAddProperty records k=v as newly present on id.
func (t *TxState) RelationshipDoAddProperty(id RelationshipID, k PropertyKeyID, v value.Value) {
	t.touch(true)
	t.relState(id).AddProperty(k, v)
}

// RelationshipDoChangeProperty records a new value for k on id.
func (t *TxState) RelationshipDoChangeProperty(id RelationshipID, k PropertyKeyID, v value.Value) {
	t.touch(true)
	t.relState(id).ChangeProperty(k, v)
}

// RelationshipDoRemoveProperty records k as removed from id.
func (t *TxState) RelationshipDoRemoveProperty(id RelationshipID, k PropertyKeyID) {
	t.touch(true)
	t.relState(id).RemoveProperty(k)
}

// --- graph mutation API --------------------------------------------------

// GraphDoAddProperty records k=v as newly present on the graph.
func (t *TxState) GraphDoAddProperty(k PropertyKeyID, v value.Value) {
	t.touch(true)
	t.graph.AddProperty(k, v)
}

// GraphDoChangeProperty records a new value for k on the graph.
func (t *TxState) GraphDoChangeProperty(k PropertyKeyID, v value.Value) {
	t.touch(true)
	t.graph.ChangeProperty(k, v)
}

// GraphDoRemoveProperty records k as removed from the graph.
func (t *TxState) GraphDoRemoveProperty(k PropertyKeyID) {
	t.touch(true)
	t.graph.RemoveProperty(k)
}

// --- token API -----------------------------------------------------------

// LabelDoCreateForName records a newly introduced label token.
func (t *TxState) LabelDoCreateForName(name string, id LabelID) {
	t.touch(false)
	t.labelTokens.create(name, id)
}

// PropertyKeyDoCreateForName records a newly introduced property-key token.
func (t *TxState) PropertyKeyDoCreateForName(name string, id PropertyKeyID) {
	t.touch(false)
	t.propertyKeyTokens.create(name, id)
}

// RelationshipTypeDoCreateForName records a newly introduced
// relationship-type token.
func (t *TxState) RelationshipTypeDoCreateForName(name string, id RelTypeID) {
	t.touch(false)
	t.relTypeTokens.create(name, id)
}

// --- schema / index mutation API -----------------------------------------

// IndexRuleDoAdd records d as added.
func (t *TxState) IndexRuleDoAdd(d IndexDescriptor) {
	t.touch(false)
	t.schemaChanges.IndexRuleDoAdd(d)
}

// IndexDoDrop records d as removed.
func (t *TxState) IndexDoDrop(d IndexDescriptor) {
	t.touch(false)
	t.schemaChanges.IndexDoDrop(d)
}

// IndexDoUnRemove cancels a pending removal of d.
func (t *TxState) IndexDoUnRemove(d IndexDescriptor) bool {
	t.touch(false)
	return t.schemaChanges.IndexDoUnRemove(d)
}

// ConstraintDoAdd records c as added, and its backing index if any.
func (t *TxState) ConstraintDoAdd(c ConstraintDescriptor, backingIndex *IndexDescriptor) {
	t.touch(false)
	t.schemaChanges.ConstraintDoAdd(c, backingIndex)
}

// ConstraintDoDrop records c as removed, dropping its backing index too.
func (t *TxState) ConstraintDoDrop(c ConstraintDescriptor) {
	t.touch(false)
	t.schemaChanges.ConstraintDoDrop(c)
}

// ConstraintIndexesCreatedInTx returns the indexes owned by every
// uniqueness constraint added this transaction.
func (t *TxState) ConstraintIndexesCreatedInTx() []IndexDescriptor {
	return t.schemaChanges.ConstraintIndexesCreatedInTx()
}

// ConstraintsChangesForSchema returns the constraint descriptors added or
// removed this transaction whose schema equals s.
func (t *TxState) ConstraintsChangesForSchema(s SchemaDescriptor) []ConstraintDescriptor {
	return t.filterConstraints(func(c ConstraintDescriptor) bool { return c.Schema.Key() == s.Key() })
}

// ConstraintsChangesForLabel returns the constraint descriptors added or
// removed this transaction whose schema targets labelID.
func (t *TxState) ConstraintsChangesForLabel(labelID LabelID) []ConstraintDescriptor {
	return t.filterConstraints(func(c ConstraintDescriptor) bool { return c.Schema.Label == labelID })
}

// ConstraintsChangesForRelationshipType returns the constraint
// descriptors added or removed this transaction whose schema targets a
// relationship type (by convention, relationship-type schemas use
// Label as the encoded RelTypeID since a SchemaDescriptor is shared
// across both entity kinds).
func (t *TxState) ConstraintsChangesForRelationshipType(typeID RelTypeID) []ConstraintDescriptor {
	return t.filterConstraints(func(c ConstraintDescriptor) bool { return LabelID(typeID) == c.Schema.Label })
}

func (t *TxState) filterConstraints(match func(ConstraintDescriptor) bool) []ConstraintDescriptor {
	var out []ConstraintDescriptor
	keys := append(append([]string{}, t.schemaChanges.constraintDiffs.Added()...), t.schemaChanges.constraintDiffs.Removed()...)
	for _, key := range keys {
		c, ok := t.schemaChanges.ConstraintByKey(key)
		if ok && match(c) {
			out = append(out, c)
		}
	}
	return out
}

// IndexDiffSetsByLabel returns every index descriptor targeting labelID
// that has tracked changes this transaction, together with the union of
// its per-value DiffSets.
func (t *TxState) IndexDiffSetsByLabel(labelID LabelID) map[SchemaDescriptor]idset.Readable {
	out := make(map[SchemaDescriptor]idset.Readable)
	for _, se := range t.indexUpdates.bySchema {
		if se.descriptor.Label != labelID {
			continue
		}
		out[se.descriptor] = t.indexUpdates.ForScan(se.descriptor)
	}
	return out
}

// --- index-update mutation/query API -------------------------------------

// IndexDoUpdateEntry moves nodeID between its before and after indexed
// values for d.
func (t *TxState) IndexDoUpdateEntry(d SchemaDescriptor, nodeID NodeID, before, after *value.Tuple) {
	t.touch(false)
	t.indexUpdates.IndexDoUpdateEntry(d, nodeID, before, after, t.nodeState(nodeID))
}

// IndexUpdatesForScan returns the union of every per-value DiffSet for d.
func (t *TxState) IndexUpdatesForScan(d SchemaDescriptor) idset.Readable { return t.indexUpdates.ForScan(d) }

// IndexUpdatesForSeek returns the DiffSet stored at exactly tuple.
func (t *TxState) IndexUpdatesForSeek(d SchemaDescriptor, tuple value.Tuple) idset.Readable {
	return t.indexUpdates.ForSeek(d, tuple)
}

// IndexUpdatesForRangeSeekByNumber implements the numeric range query.
// lower/upper nil means unbounded on that side; there is no maximal
// sentinel value to seek to instead.
func (t *TxState) IndexUpdatesForRangeSeekByNumber(d SchemaDescriptor, lower *value.Value, incLower bool, upper *value.Value, incUpper bool) (idset.Readable, error) {
	return t.indexUpdates.ForRangeSeek(d, lower, incLower, upper, incUpper)
}

// IndexUpdatesForRangeSeekByString implements the string range query.
// lower/upper nil means unbounded on that side, symmetric with the
// numeric variant.
func (t *TxState) IndexUpdatesForRangeSeekByString(d SchemaDescriptor, lower *value.Value, incLower bool, upper *value.Value, incUpper bool) (idset.Readable, error) {
	return t.indexUpdates.ForRangeSeek(d, lower, incLower, upper, incUpper)
}

// IndexUpdatesForRangeSeekByPrefix implements the prefix scan.
func (t *TxState) IndexUpdatesForRangeSeekByPrefix(d SchemaDescriptor, prefix string) (idset.Readable, error) {
	return t.indexUpdates.ForRangeSeekByPrefix(d, prefix)
}

// --- augmenting single-entity cursors -------------------------------------

type emptyNodeCursor struct{}

func (emptyNodeCursor) Next() bool     { return false }
func (emptyNodeCursor) NodeID() NodeID { return 0 }
func (emptyNodeCursor) Close()         {}

type singleNodeCursor struct {
	id      NodeID
	yielded bool
}

func (c *singleNodeCursor) Next() bool {
	if c.yielded {
		return false
	}
	c.yielded = true
	return true
}
func (c *singleNodeCursor) NodeID() NodeID { return c.id }
func (c *singleNodeCursor) Close()         {}

// AugmentSingleNodeCursor adjusts a committed-store lookup for id with
// this transaction's pending state: a deleted node is hidden even if the
// committed store still has it; an added node not yet in the committed
// store is synthesized as a one-element cursor.
func (t *TxState) AugmentSingleNodeCursor(id NodeID, committedFound bool, committed NodeCursor) NodeCursor {
	if t.NodeIsDeletedInThisTx(id) {
		if committed != nil {
			committed.Close()
		}
		return emptyNodeCursor{}
	}
	if committedFound {
		return committed
	}
	if t.NodeIsAddedInThisTx(id) {
		return &singleNodeCursor{id: id}
	}
	return emptyNodeCursor{}
}

type emptyRelationshipCursor struct{}

func (emptyRelationshipCursor) Next() bool                    { return false }
func (emptyRelationshipCursor) RelationshipID() RelationshipID { return 0 }
func (emptyRelationshipCursor) Type() RelTypeID                { return 0 }
func (emptyRelationshipCursor) StartNode() NodeID              { return 0 }
func (emptyRelationshipCursor) EndNode() NodeID                { return 0 }
func (emptyRelationshipCursor) Close()                         {}

type singleRelationshipCursor struct {
	id      RelationshipID
	typeID  RelTypeID
	start   NodeID
	end     NodeID
	yielded bool
}

func (c *singleRelationshipCursor) Next() bool {
	if c.yielded {
		return false
	}
	c.yielded = true
	return true
}
func (c *singleRelationshipCursor) RelationshipID() RelationshipID { return c.id }
func (c *singleRelationshipCursor) Type() RelTypeID                { return c.typeID }
func (c *singleRelationshipCursor) StartNode() NodeID              { return c.start }
func (c *singleRelationshipCursor) EndNode() NodeID                { return c.end }
func (c *singleRelationshipCursor) Close()                         {}

// AugmentSingleRelationshipCursor is the relationship analogue of
// AugmentSingleNodeCursor.
func (t *TxState) AugmentSingleRelationshipCursor(id RelationshipID, committedFound bool, committed RelationshipCursor) RelationshipCursor {
	if t.RelationshipIsDeletedInThisTx(id) {
		if committed != nil {
			committed.Close()
		}
		return emptyRelationshipCursor{}
	}
	if committedFound {
		return committed
	}
	if t.RelationshipIsAddedInThisTx(id) {
		rs := t.rels[id]
		return &singleRelationshipCursor{id: id, typeID: rs.TypeID, start: rs.StartNode, end: rs.EndNode}
	}
	return emptyRelationshipCursor{}
}

// RelationshipLookupFunc adapts this transaction's relationship metadata
// into the RelationshipLookup shape cursor.go's augmenting wrappers need.
func (t *TxState) RelationshipLookupFunc() RelationshipLookup {
	return func(id RelationshipID) (RelTypeID, NodeID, NodeID, bool) {
		rs, ok := t.rels[id]
		if !ok {
			return 0, 0, 0, false
		}
		return rs.TypeID, rs.StartNode, rs.EndNode, true
	}
}

// AugmentNodeDegree adjusts committedDegree with this transaction's
// relationship-slot changes for id.
func (t *TxState) AugmentNodeDegree(id NodeID, dir Direction, typeID *RelTypeID, committedDegree int) int {
	ns, ok := t.nodes[id]
	if !ok {
		return committedDegree
	}
	return ns.AugmentDegree(dir, typeID, committedDegree)
}
