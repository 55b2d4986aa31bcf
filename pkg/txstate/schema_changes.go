package txstate

import (
	"fmt"

	"github.com/orneryd/graphtx/pkg/diffset"
)

// ConstraintKind enumerates the constraint flavors a ConstraintDescriptor
// can represent.
type ConstraintKind int8

const (
	ConstraintUnique ConstraintKind = iota
	ConstraintNodeKey
	ConstraintExists
)

// IndexDescriptor identifies an index by the schema it indexes.
type IndexDescriptor struct {
	Schema SchemaDescriptor
}

// Key returns a canonical string for use as a diffset.Generic element —
// SchemaDescriptor carries a slice and so is not itself comparable.
func (d IndexDescriptor) Key() string { return d.Schema.Key() }

// ConstraintDescriptor identifies a constraint by kind and schema.
type ConstraintDescriptor struct {
	Kind   ConstraintKind
	Schema SchemaDescriptor
}

// Key returns a canonical string for use as a diffset.Generic element.
func (c ConstraintDescriptor) Key() string {
	return fmt.Sprintf("%d:%s", c.Kind, c.Schema.Key())
}

// SchemaChanges tracks the index descriptors and constraint descriptors
// added/removed this transaction.
type SchemaChanges struct {
	indexDiffs      diffset.Generic[string]
	constraintDiffs diffset.Generic[string]

	indexByKey      map[string]IndexDescriptor
	constraintByKey map[string]ConstraintDescriptor
	// constraintIndex maps a uniqueness constraint's key to the key of
	// the index it owns, so dropping the constraint also drops the index.
	constraintIndex map[string]string
}

// IndexRuleDoAdd records d as added. If d was removed earlier this
// transaction, the removal is cancelled (unRemove) instead of recording
// a fresh add.
func (s *SchemaChanges) IndexRuleDoAdd(d IndexDescriptor) {
	key := d.Key()
	s.rememberIndex(key, d)
	if !s.indexDiffs.UnRemove(key) {
		s.indexDiffs.Add(key)
	}
}

// IndexDoDrop records d as removed (or cancels an add from this same
// transaction).
func (s *SchemaChanges) IndexDoDrop(d IndexDescriptor) {
	key := d.Key()
	s.rememberIndex(key, d)
	s.indexDiffs.Remove(key)
}

// IndexDoUnRemove cancels a pending removal of d, reporting whether one
// existed.
func (s *SchemaChanges) IndexDoUnRemove(d IndexDescriptor) bool {
	return s.indexDiffs.UnRemove(d.Key())
}

func (s *SchemaChanges) rememberIndex(key string, d IndexDescriptor) {
	if s.indexByKey == nil {
		s.indexByKey = make(map[string]IndexDescriptor, 1)
	}
	s.indexByKey[key] = d
}

// ConstraintDoAdd records c as added. If backingIndex is non-nil (a
// uniqueness-style constraint), its backing index is added too and
// linked so ConstraintDoDrop also drops the index.
func (s *SchemaChanges) ConstraintDoAdd(c ConstraintDescriptor, backingIndex *IndexDescriptor) {
	key := c.Key()
	if s.constraintByKey == nil {
		s.constraintByKey = make(map[string]ConstraintDescriptor, 1)
	}
	s.constraintByKey[key] = c
	if !s.constraintDiffs.UnRemove(key) {
		s.constraintDiffs.Add(key)
	}
	if backingIndex != nil {
		s.IndexRuleDoAdd(*backingIndex)
		if s.constraintIndex == nil {
			s.constraintIndex = make(map[string]string, 1)
		}
		s.constraintIndex[key] = backingIndex.Key()
	}
}

// ConstraintDoDrop records c as removed. Dropping a uniqueness-enforcing
// constraint also drops its backing index.
func (s *SchemaChanges) ConstraintDoDrop(c ConstraintDescriptor) {
	key := c.Key()
	s.constraintDiffs.Remove(key)
	if idxKey, ok := s.constraintIndex[key]; ok {
		if idx, ok := s.indexByKey[idxKey]; ok {
			s.IndexDoDrop(idx)
		}
		delete(s.constraintIndex, key)
	}
}

// ConstraintIndexesCreatedInTx returns the index descriptors owned by
// every uniqueness constraint added this transaction.
func (s *SchemaChanges) ConstraintIndexesCreatedInTx() []IndexDescriptor {
	var out []IndexDescriptor
	for _, key := range s.constraintDiffs.Added() {
		idxKey, ok := s.constraintIndex[key]
		if !ok {
			continue
		}
		if idx, ok := s.indexByKey[idxKey]; ok {
			out = append(out, idx)
		}
	}
	return out
}

// IndexChanges returns the added/removed index descriptor keys.
func (s *SchemaChanges) IndexChanges() *diffset.Generic[string] { return &s.indexDiffs }

// ConstraintChanges returns the added/removed constraint descriptor keys.
func (s *SchemaChanges) ConstraintChanges() *diffset.Generic[string] { return &s.constraintDiffs }

// IndexByKey resolves a descriptor key back to its IndexDescriptor.
func (s *SchemaChanges) IndexByKey(key string) (IndexDescriptor, bool) {
	d, ok := s.indexByKey[key]
	return d, ok
}

// ConstraintByKey resolves a descriptor key back to its ConstraintDescriptor.
func (s *SchemaChanges) ConstraintByKey(key string) (ConstraintDescriptor, bool) {
	c, ok := s.constraintByKey[key]
	return c, ok
}
