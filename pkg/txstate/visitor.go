package txstate

import (
	"log"
	"sort"

	"github.com/orneryd/graphtx/pkg/value"
)

// Sink receives the fixed categorical event stream Accept walks at
// commit. Any Visit* call may fail with a *ConstraintValidationFailure
// or *CreateConstraintFailure, which aborts the walk and is returned
// from Accept unchanged.
type Sink interface {
	VisitCreatedNode(id NodeID) error
	VisitDeletedNode(id NodeID) error
	VisitCreatedRelationship(id RelationshipID, typeID RelTypeID, start, end NodeID) error
	VisitDeletedRelationship(id RelationshipID, typeID RelTypeID, start, end NodeID) error
	VisitNodeLabelChanges(id NodeID, added, removed []LabelID) error
	VisitNodePropertyChanges(id NodeID, added, changed map[PropertyKeyID]value.Value, removed map[PropertyKeyID]struct{}) error
	VisitRelPropertyChanges(id RelationshipID, added, changed map[PropertyKeyID]value.Value, removed map[PropertyKeyID]struct{}) error
	VisitGraphPropertyChanges(added, changed map[PropertyKeyID]value.Value, removed map[PropertyKeyID]struct{}) error
	VisitAddedIndex(d IndexDescriptor) error
	VisitRemovedIndex(d IndexDescriptor) error
	VisitAddedConstraint(c ConstraintDescriptor) error
	VisitRemovedConstraint(c ConstraintDescriptor) error
	VisitCreatedLabelToken(name string, id LabelID) error
	VisitCreatedPropertyKeyToken(name string, id PropertyKeyID) error
	VisitCreatedRelationshipTypeToken(name string, id RelTypeID) error
}

func sortedUint64[T ~uint64](ids []T) []T {
	out := append([]T(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedStrings(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}

// Accept walks the transaction's recorded changes and dispatches them to
// sink in a fixed categorical order: created nodes, created
// relationships, deleted relationships, deleted nodes, modified nodes,
// modified relationships, graph properties, index changes, constraint
// changes, created tokens. The first error returned by sink aborts the
// walk; the buffer is left exactly as it was (the caller is responsible
// for discarding it either way).
func (t *TxState) Accept(sink Sink) error {
	if t.DebugCommitLog {
		log.Printf("txstate: commit accept begin")
	}

	// 1. Created nodes.
	for _, id := range sortedUint64(t.nodesDiff.Added()) {
		if t.DebugCommitLog {
			log.Printf("txstate: visit created node %d", id)
		}
		if err := sink.VisitCreatedNode(NodeID(id)); err != nil {
			return err
		}
	}

	// 2. Created relationships.
	for _, id := range sortedUint64(t.relsDiff.Added()) {
		rs := t.rels[RelationshipID(id)]
		if err := sink.VisitCreatedRelationship(RelationshipID(id), rs.TypeID, rs.StartNode, rs.EndNode); err != nil {
			return err
		}
	}

	// 3. Deleted relationships, before deleted nodes so downstream
	// validators never see a dangling relationship.
	for _, id := range sortedUint64(t.relsDiff.Removed()) {
		rs := t.rels[RelationshipID(id)]
		if err := sink.VisitDeletedRelationship(RelationshipID(id), rs.TypeID, rs.StartNode, rs.EndNode); err != nil {
			return err
		}
	}

	// 4. Deleted nodes.
	for _, id := range sortedUint64(t.nodesDiff.Removed()) {
		if err := sink.VisitDeletedNode(NodeID(id)); err != nil {
			return err
		}
	}

	// 5. Modified nodes: label-change event then property-change event,
	// for every node with tracked changes that wasn't deleted this tx
	// (a created-then-deleted node shows no trace here, per invariant 2).
	nodeIDs := make([]NodeID, 0, len(t.nodes))
	for id := range t.nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })
	for _, id := range nodeIDs {
		if t.NodeIsDeletedInThisTx(id) {
			continue
		}
		ns := t.nodes[id]
		if ns.IsEmpty() {
			continue
		}
		if !ns.labelDiffs.IsEmpty() {
			if err := sink.VisitNodeLabelChanges(id, ns.labelDiffs.Added(), ns.labelDiffs.Removed()); err != nil {
				return err
			}
		}
		if !ns.PropertyContainerState.IsEmpty() {
			if err := sink.VisitNodePropertyChanges(id, ns.Added(), ns.Changed(), ns.Removed()); err != nil {
				return err
			}
		}
	}

	// 6. Modified relationships: property-change event.
	relIDs := make([]RelationshipID, 0, len(t.rels))
	for id := range t.rels {
		relIDs = append(relIDs, id)
	}
	sort.Slice(relIDs, func(i, j int) bool { return relIDs[i] < relIDs[j] })
	for _, id := range relIDs {
		if t.RelationshipIsDeletedInThisTx(id) {
			continue
		}
		rs := t.rels[id]
		if rs.PropertyContainerState.IsEmpty() {
			continue
		}
		if err := sink.VisitRelPropertyChanges(id, rs.Added(), rs.Changed(), rs.Removed()); err != nil {
			return err
		}
	}

	// 7. Graph property changes, if present.
	if !t.graph.PropertyContainerState.IsEmpty() {
		if err := sink.VisitGraphPropertyChanges(t.graph.Added(), t.graph.Changed(), t.graph.Removed()); err != nil {
			return err
		}
	}

	// 8. Index changes: added then removed.
	for _, key := range sortedStrings(t.schemaChanges.indexDiffs.Added()) {
		d, _ := t.schemaChanges.IndexByKey(key)
		if err := sink.VisitAddedIndex(d); err != nil {
			return err
		}
	}
	for _, key := range sortedStrings(t.schemaChanges.indexDiffs.Removed()) {
		d, _ := t.schemaChanges.IndexByKey(key)
		if err := sink.VisitRemovedIndex(d); err != nil {
			return err
		}
	}

	// 9. Constraint changes: added then removed.
	for _, key := range sortedStrings(t.schemaChanges.constraintDiffs.Added()) {
		c, _ := t.schemaChanges.ConstraintByKey(key)
		if err := sink.VisitAddedConstraint(c); err != nil {
			return err
		}
	}
	for _, key := range sortedStrings(t.schemaChanges.constraintDiffs.Removed()) {
		c, _ := t.schemaChanges.ConstraintByKey(key)
		if err := sink.VisitRemovedConstraint(c); err != nil {
			return err
		}
	}

	// 10. Created tokens, each in id order.
	for _, tok := range t.labelTokens.inIDOrder() {
		if err := sink.VisitCreatedLabelToken(tok.Name, tok.ID); err != nil {
			return err
		}
	}
	for _, tok := range t.propertyKeyTokens.inIDOrder() {
		if err := sink.VisitCreatedPropertyKeyToken(tok.Name, tok.ID); err != nil {
			return err
		}
	}
	for _, tok := range t.relTypeTokens.inIDOrder() {
		if err := sink.VisitCreatedRelationshipTypeToken(tok.Name, tok.ID); err != nil {
			return err
		}
	}

	if t.DebugCommitLog {
		log.Printf("txstate: commit accept end")
	}
	return nil
}
