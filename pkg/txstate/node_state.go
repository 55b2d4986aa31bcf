package txstate

import (
	"github.com/orneryd/graphtx/pkg/diffset"
	"github.com/orneryd/graphtx/pkg/idset"
)

// NodeState is the per-node change log: property changes (via the
// embedded PropertyContainerState), label changes, and the relationship
// ids this transaction attached to or detached from the node, bucketed
// by direction and relationship type.
//
// indexBackLinks holds integer handles into the owning TxState's
// index-diff arena (see index_updates.go) rather than pointers to the
// DiffSets themselves, so a node and the index entries it touches never
// hold direct references to each other.
type NodeState struct {
	PropertyContainerState

	labelDiffs diffset.Generic[LabelID]

	// rels[dir][typeId] tracks relationship ids added/removed this
	// transaction in that direction/type slot.
	rels [3]map[RelTypeID]*idset.Diff

	indexBackLinks []int
}

// AddLabel forwards to the node's label DiffSet.
func (n *NodeState) AddLabel(l LabelID) { n.labelDiffs.Add(l) }

// RemoveLabel forwards to the node's label DiffSet.
func (n *NodeState) RemoveLabel(l LabelID) { n.labelDiffs.Remove(l) }

// LabelDiffs returns the node's label DiffSet.
func (n *NodeState) LabelDiffs() *diffset.Generic[LabelID] { return &n.labelDiffs }

func (n *NodeState) relSlot(dir Direction, typeID RelTypeID) *idset.Diff {
	if n.rels[dir] == nil {
		n.rels[dir] = make(map[RelTypeID]*idset.Diff, 1)
	}
	d, ok := n.rels[dir][typeID]
	if !ok {
		d = idset.New()
		n.rels[dir][typeID] = d
	}
	return d
}

// AddRelationship inserts relId into the (dir, typeId) slot. Callers
// pass Both iff start == end: a self-loop is recorded once rather than
// under both Outgoing and Incoming.
func (n *NodeState) AddRelationship(relID RelationshipID, typeID RelTypeID, dir Direction) {
	n.relSlot(dir, typeID).Add(uint64(relID))
}

// RemoveRelationship removes relId from the (dir, typeId) slot. If the
// relationship was added in this same transaction, it silently
// disappears rather than appearing as removed.
func (n *NodeState) RemoveRelationship(relID RelationshipID, typeID RelTypeID, dir Direction) {
	n.relSlot(dir, typeID).Remove(uint64(relID))
}

// GetAddedRelationships returns the relationship ids added this
// transaction matching dir and, if typeID is non-nil, that specific type.
func (n *NodeState) GetAddedRelationships(dir Direction, typeID *RelTypeID) []RelationshipID {
	var out []RelationshipID
	byType := n.rels[dir]
	if byType == nil {
		return nil
	}
	collect := func(d *idset.Diff) {
		for _, id := range d.Added() {
			out = append(out, RelationshipID(id))
		}
	}
	if typeID != nil {
		if d, ok := byType[*typeID]; ok {
			collect(d)
		}
		return out
	}
	for _, d := range byType {
		collect(d)
	}
	return out
}

// AugmentDegree returns committedDegree adjusted by this transaction's
// adds and removes for dir (and typeID, if non-nil). A relationship
// tracked under Both (a self-loop) contributes to both Outgoing's and
// Incoming's degree count symmetrically.
func (n *NodeState) AugmentDegree(dir Direction, typeID *RelTypeID, committedDegree int) int {
	delta := n.degreeDelta(dir, typeID)
	if dir != Both {
		delta += n.degreeDelta(Both, typeID)
	}
	return committedDegree + delta
}

func (n *NodeState) degreeDelta(dir Direction, typeID *RelTypeID) int {
	byType := n.rels[dir]
	if byType == nil {
		return 0
	}
	delta := 0
	sum := func(d *idset.Diff) {
		delta += int(d.Cardinality()) - len(d.Removed())
	}
	if typeID != nil {
		if d, ok := byType[*typeID]; ok {
			sum(d)
		}
		return delta
	}
	for _, d := range byType {
		sum(d)
	}
	return delta
}

// RegisterIndexBackLink records that the given arena handle references
// this node, so a later NodeDoDelete can excise the node from it.
func (n *NodeState) RegisterIndexBackLink(handle int) {
	for _, h := range n.indexBackLinks {
		if h == handle {
			return
		}
	}
	n.indexBackLinks = append(n.indexBackLinks, handle)
}

// DeregisterIndexBackLink removes a previously registered handle, used
// when an update leaves the node on neither side of that DiffSet (a
// remove cancelling an add from this same transaction).
func (n *NodeState) DeregisterIndexBackLink(handle int) {
	for i, h := range n.indexBackLinks {
		if h == handle {
			n.indexBackLinks = append(n.indexBackLinks[:i], n.indexBackLinks[i+1:]...)
			return
		}
	}
}

// IndexBackLinks returns the arena handles registered against this node.
func (n *NodeState) IndexBackLinks() []int { return n.indexBackLinks }

// relSlotDiffOrEmpty returns the DiffSet for (dir, typeID), or the union
// of every type's DiffSet in dir if typeID is nil, as a read-only view.
// Used by cursor augmentation, which never needs to mutate these slots.
func (n *NodeState) relSlotDiffOrEmpty(dir Direction, typeID *RelTypeID) NodeIDDiff {
	byType := n.rels[dir]
	if byType == nil {
		return idset.Empty()
	}
	if typeID != nil {
		d, ok := byType[*typeID]
		if !ok {
			return idset.Empty()
		}
		return d
	}
	diffs := make([]*idset.Diff, 0, len(byType))
	for _, d := range byType {
		diffs = append(diffs, d)
	}
	return idset.Union(diffs...)
}

// IsEmpty reports whether the node has no tracked changes at all.
func (n *NodeState) IsEmpty() bool {
	if !n.PropertyContainerState.IsEmpty() || !n.labelDiffs.IsEmpty() {
		return false
	}
	for _, byType := range n.rels {
		for _, d := range byType {
			if !d.IsEmpty() {
				return false
			}
		}
	}
	return true
}
