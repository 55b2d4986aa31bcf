package txstate

import (
	"sync"

	"github.com/orneryd/graphtx/pkg/diffset"
	"github.com/orneryd/graphtx/pkg/value"
)

// NodeCursor iterates over node ids supplied by the committed store (or
// an augmenting wrapper over one).
type NodeCursor interface {
	Next() bool
	NodeID() NodeID
	Close()
}

// RelationshipCursor iterates over relationships supplied by the
// committed store (or an augmenting wrapper over one).
type RelationshipCursor interface {
	Next() bool
	RelationshipID() RelationshipID
	Type() RelTypeID
	StartNode() NodeID
	EndNode() NodeID
	Close()
}

// PropertyCursor iterates over the properties of one entity, as supplied
// by the committed store (or an augmenting wrapper over one).
type PropertyCursor interface {
	Next() bool
	PropertyKey() PropertyKeyID
	PropertyValue() value.Value
	Close()
}

// --- node cursor -----------------------------------------------------

type augmentingNodeCursor struct {
	committed NodeCursor
	diff      interfaceDiff
	added     []uint64
	addedIdx  int
	phase     int
	current   NodeID
}

type interfaceDiff interface {
	IsRemoved(x uint64) bool
}

var nodeCursorPool = sync.Pool{New: func() any { return &augmentingNodeCursor{} }}

func (c *augmentingNodeCursor) Next() bool {
	if c.phase == 0 {
		for c.committed.Next() {
			id := c.committed.NodeID()
			if !c.diff.IsRemoved(uint64(id)) {
				c.current = id
				return true
			}
		}
		c.phase = 1
	}
	if c.addedIdx < len(c.added) {
		c.current = NodeID(c.added[c.addedIdx])
		c.addedIdx++
		return true
	}
	return false
}

func (c *augmentingNodeCursor) NodeID() NodeID { return c.current }

func (c *augmentingNodeCursor) Close() {
	c.committed.Close()
	c.committed = nil
	c.diff = nil
	c.added = nil
	c.addedIdx = 0
	c.phase = 0
	c.current = 0
	nodeCursorPool.Put(c)
}

// AugmentNodesGetAll merges committed with diff's added/removed node ids.
// Fast path: if diff is empty, committed is returned unchanged. Slow
// path: a pooled wrapper skips removed ids from committed, then yields
// every added id.
func AugmentNodesGetAll(committed NodeCursor, diff NodeIDDiff) NodeCursor {
	if diff == nil || diff.IsEmpty() {
		return committed
	}
	c := nodeCursorPool.Get().(*augmentingNodeCursor)
	c.committed = committed
	c.diff = diff
	c.added = diff.Added()
	return c
}

// NodeIDDiff is the read-only view AugmentNodesGetAll and friends need
// over a node-id DiffSet — satisfied by both *idset.Diff and idset.Empty().
type NodeIDDiff interface {
	Added() []uint64
	IsRemoved(x uint64) bool
	IsEmpty() bool
}

// --- relationship cursor ----------------------------------------------

// RelationshipLookup resolves metadata for a relationship id added this
// transaction, since an added relationship has no committed-store row to
// read type/start/end back from.
type RelationshipLookup func(RelationshipID) (typeID RelTypeID, start, end NodeID, ok bool)

type augmentingRelationshipCursor struct {
	committed RelationshipCursor
	diff      interfaceDiff
	added     []uint64
	addedIdx  int
	lookup    RelationshipLookup
	phase     int
	current   RelationshipID
	typeID    RelTypeID
	start     NodeID
	end       NodeID
}

var relCursorPool = sync.Pool{New: func() any { return &augmentingRelationshipCursor{} }}

func (c *augmentingRelationshipCursor) Next() bool {
	if c.phase == 0 {
		for c.committed.Next() {
			id := c.committed.RelationshipID()
			if !c.diff.IsRemoved(uint64(id)) {
				c.current = id
				c.typeID = c.committed.Type()
				c.start = c.committed.StartNode()
				c.end = c.committed.EndNode()
				return true
			}
		}
		c.phase = 1
	}
	for c.addedIdx < len(c.added) {
		id := RelationshipID(c.added[c.addedIdx])
		c.addedIdx++
		typeID, start, end, ok := c.lookup(id)
		if !ok {
			continue
		}
		c.current, c.typeID, c.start, c.end = id, typeID, start, end
		return true
	}
	return false
}

func (c *augmentingRelationshipCursor) RelationshipID() RelationshipID { return c.current }
func (c *augmentingRelationshipCursor) Type() RelTypeID                { return c.typeID }
func (c *augmentingRelationshipCursor) StartNode() NodeID              { return c.start }
func (c *augmentingRelationshipCursor) EndNode() NodeID                { return c.end }

func (c *augmentingRelationshipCursor) Close() {
	c.committed.Close()
	*c = augmentingRelationshipCursor{}
	relCursorPool.Put(c)
}

// AugmentRelationshipsGetAll merges committed with diff's added/removed
// relationship ids, resolving added-relationship metadata via lookup.
func AugmentRelationshipsGetAll(committed RelationshipCursor, diff NodeIDDiff, lookup RelationshipLookup) RelationshipCursor {
	if diff == nil || diff.IsEmpty() {
		return committed
	}
	c := relCursorPool.Get().(*augmentingRelationshipCursor)
	c.committed = committed
	c.diff = diff
	c.added = diff.Added()
	c.lookup = lookup
	return c
}

// AugmentNodeRelationshipCursor merges a committed per-node relationship
// cursor (already filtered by the caller to dir/typeID) with this
// transaction's added/removed relationships in that same slot.
func AugmentNodeRelationshipCursor(committed RelationshipCursor, node *NodeState, dir Direction, typeID *RelTypeID, lookup RelationshipLookup) RelationshipCursor {
	diff := node.relSlotDiffOrEmpty(dir, typeID)
	if diff.IsEmpty() {
		return committed
	}
	c := relCursorPool.Get().(*augmentingRelationshipCursor)
	c.committed = committed
	c.diff = diff
	c.added = diff.Added()
	c.lookup = lookup
	return c
}

// --- property cursor ---------------------------------------------------

type augmentingPropertyCursor struct {
	committed PropertyCursor
	state     *PropertyContainerState
	addedKeys []PropertyKeyID
	addedIdx  int
	phase     int
	curKey    PropertyKeyID
	curVal    value.Value
}

var propCursorPool = sync.Pool{New: func() any { return &augmentingPropertyCursor{} }}

func (c *augmentingPropertyCursor) Next() bool {
	if c.phase == 0 {
		for c.committed.Next() {
			k := c.committed.PropertyKey()
			if _, gone := c.state.removed[k]; gone {
				continue
			}
			if v, ok := c.state.changed[k]; ok {
				c.curKey, c.curVal = k, v
				return true
			}
			c.curKey, c.curVal = k, c.committed.PropertyValue()
			return true
		}
		c.phase = 1
	}
	if c.addedIdx < len(c.addedKeys) {
		k := c.addedKeys[c.addedIdx]
		c.addedIdx++
		c.curKey, c.curVal = k, c.state.added[k]
		return true
	}
	return false
}

func (c *augmentingPropertyCursor) PropertyKey() PropertyKeyID  { return c.curKey }
func (c *augmentingPropertyCursor) PropertyValue() value.Value { return c.curVal }

func (c *augmentingPropertyCursor) Close() {
	c.committed.Close()
	*c = augmentingPropertyCursor{}
	propCursorPool.Put(c)
}

// AugmentPropertyCursor merges committed property reads with state's
// added/changed/removed maps for one entity.
func AugmentPropertyCursor(committed PropertyCursor, state *PropertyContainerState) PropertyCursor {
	if state == nil || state.IsEmpty() {
		return committed
	}
	c := propCursorPool.Get().(*augmentingPropertyCursor)
	c.committed = committed
	c.state = state
	c.addedKeys = make([]PropertyKeyID, 0, len(state.added))
	for k := range state.added {
		c.addedKeys = append(c.addedKeys, k)
	}
	return c
}

// AugmentLabels returns committed's labels minus any removed this
// transaction, plus any added this transaction. Unlike the entity
// cursors above, labels per node are few enough that a pooled wrapper
// buys nothing; diffset.Generic's own Augment already gives this in one
// call with the empty-identity fast path built in.
func AugmentLabels(committed []LabelID, diffs *diffset.Generic[LabelID]) []LabelID {
	return diffs.Augment(committed)
}

// AugmentGraphProperties merges committed graph properties with this
// transaction's GraphState.
func AugmentGraphProperties(committed PropertyCursor, g *GraphState) PropertyCursor {
	return AugmentPropertyCursor(committed, &g.PropertyContainerState)
}
