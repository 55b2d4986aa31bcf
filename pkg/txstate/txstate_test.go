package txstate

import (
	"sort"
	"testing"

	"github.com/orneryd/graphtx/pkg/value"
)

func uint64sEqual(t *testing.T, got []uint64, want []uint64) {
	t.Helper()
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// --- S1: create node with properties, commit -----------------------------

func TestScenario_CreateNodeWithProperties(t *testing.T) {
	tx := New()
	tx.NodeDoCreate(7)
	tx.NodeDoAddProperty(7, 1, value.String("Ada"))

	if !tx.NodeIsAddedInThisTx(7) {
		t.Fatal("expected node 7 to be added in tx")
	}

	var events []string
	sink := &recordingSink{
		createdNode: func(id NodeID) error {
			events = append(events, "created-node")
			if id != 7 {
				t.Fatalf("unexpected node id %d", id)
			}
			return nil
		},
		nodePropertyChanges: func(id NodeID, added, changed map[PropertyKeyID]value.Value, removed map[PropertyKeyID]struct{}) error {
			events = append(events, "node-properties")
			if v, ok := added[1]; !ok || !v.Equal(value.String("Ada")) {
				t.Fatalf("expected property 1=Ada, got %v", added)
			}
			return nil
		},
	}
	if err := tx.Accept(sink); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if got, want := events, []string{"created-node", "node-properties"}; !equalStrings(got, want) {
		t.Fatalf("event order = %v, want %v", got, want)
	}
}

// --- S5: create relationship then delete it in same tx — no events -------

func TestScenario_CreateThenDeleteRelationship_NoEvents(t *testing.T) {
	tx := New()
	tx.NodeDoCreate(1)
	tx.NodeDoCreate(2)
	tx.RelationshipDoCreate(100, 5, 1, 2)
	tx.RelationshipDoDelete(100, 5, 1, 2)

	if tx.RelationshipIsAddedInThisTx(100) {
		t.Fatal("relationship 100 should no longer be added after cancel")
	}
	if !tx.RelationshipIsDeletedInThisTx(100) {
		t.Fatal("relationship 100 should still be marked deleted this tx")
	}

	var relEvents int
	sink := &recordingSink{
		createdRel: func(RelationshipID, RelTypeID, NodeID, NodeID) error { relEvents++; return nil },
		deletedRel: func(RelationshipID, RelTypeID, NodeID, NodeID) error { relEvents++; return nil },
		relPropertyChanges: func(RelationshipID, map[PropertyKeyID]value.Value, map[PropertyKeyID]value.Value, map[PropertyKeyID]struct{}) error {
			relEvents++
			return nil
		},
	}
	if err := tx.Accept(sink); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if relEvents != 0 {
		t.Fatalf("expected zero relationship-category events, got %d", relEvents)
	}
}

// --- S6: add constraint then drop it in the same tx — nets to empty -------

func TestScenario_AddThenDropConstraint_NetsEmpty(t *testing.T) {
	tx := New()
	schema := SchemaDescriptor{Label: 3, Properties: []PropertyKeyID{9}}
	c := ConstraintDescriptor{Kind: ConstraintUnique, Schema: schema}
	backing := IndexDescriptor{Schema: schema}

	tx.ConstraintDoAdd(c, &backing)
	tx.ConstraintDoDrop(c)

	if len(tx.schemaChanges.constraintDiffs.Added()) != 0 || len(tx.schemaChanges.constraintDiffs.Removed()) != 0 {
		t.Fatal("expected constraint diff to net to empty")
	}
	if len(tx.schemaChanges.indexDiffs.Added()) != 0 || len(tx.schemaChanges.indexDiffs.Removed()) != 0 {
		t.Fatal("expected backing index diff to net to empty")
	}

	var count int
	sink := &recordingSink{
		addedConstraint:   func(ConstraintDescriptor) error { count++; return nil },
		removedConstraint: func(ConstraintDescriptor) error { count++; return nil },
		addedIndex:        func(IndexDescriptor) error { count++; return nil },
		removedIndex:      func(IndexDescriptor) error { count++; return nil },
	}
	if err := tx.Accept(sink); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no index/constraint events, got %d", count)
	}
}

// --- invariant: delete a node purges it from every label it held ---------

func TestInvariant_NodeDeleteMaintainsLabelBijection(t *testing.T) {
	tx := New()
	tx.NodeDoCreate(1)
	tx.NodeDoAddLabel(1, 10)
	tx.NodeDoDelete(1)

	diff := tx.NodesWithLabelChanged(10)
	if diff.IsAdded(1) || diff.IsRemoved(1) {
		t.Fatal("deleted node must leave no trace in its former label's DiffSet")
	}
}

func TestInvariant_NodeDeletePurgesRemovedLabelSide(t *testing.T) {
	tx := New()
	// Node 1 already had label 10 in the committed store; this tx removes
	// it, then deletes the node outright.
	tx.NodeDoRemoveLabel(1, 10)
	tx.NodeDoDelete(1)

	diff := tx.NodesWithLabelChanged(10)
	if diff.IsRemoved(1) {
		t.Fatal("node delete must purge the node from a label's removed side too")
	}
}

// --- invariant: index back-links are excised on node delete ---------------

func TestInvariant_NodeDeleteExcisesIndexBackLinks(t *testing.T) {
	tx := New()
	schema := SchemaDescriptor{Label: 1, Properties: []PropertyKeyID{2}}
	after := value.Tuple{value.String("alice")}
	tx.IndexDoUpdateEntry(schema, 42, nil, &after)

	scan := tx.IndexUpdatesForScan(schema)
	if !scan.IsAdded(42) {
		t.Fatal("expected node 42 to appear in the index scan before delete")
	}

	tx.NodeDoDelete(42)

	scan = tx.IndexUpdatesForScan(schema)
	if scan.IsAdded(42) || scan.IsRemoved(42) {
		t.Fatal("expected node 42 to be excised from the index DiffSet after delete")
	}
}

// --- invariant: unRemove cancels a pending removal ------------------------

func TestInvariant_IndexDoUnRemoveCancelsRemoval(t *testing.T) {
	d := IndexDescriptor{Schema: SchemaDescriptor{Label: 1, Properties: []PropertyKeyID{2}}}
	tx := New()
	tx.IndexDoDrop(d)
	if !tx.IndexDoUnRemove(d) {
		t.Fatal("expected IndexDoUnRemove to report a cancelled removal")
	}
	if len(tx.schemaChanges.indexDiffs.Removed()) != 0 {
		t.Fatal("expected the removal to be cancelled")
	}
}

// --- invariant: composite descriptors reject range queries ---------------

func TestInvariant_CompositeRangeQueryRejected(t *testing.T) {
	tx := New()
	schema := SchemaDescriptor{Label: 1, Properties: []PropertyKeyID{2, 3}}
	_, err := tx.IndexUpdatesForRangeSeekByNumber(schema, nil, true, nil, true)
	if err != ErrCompositeRangeUnsupported {
		t.Fatalf("expected ErrCompositeRangeUnsupported, got %v", err)
	}
}

// --- invariant: range seek resolves unbounded sides with no sentinel -----

func TestInvariant_RangeSeekUnboundedSides(t *testing.T) {
	tx := New()
	schema := SchemaDescriptor{Label: 1, Properties: []PropertyKeyID{2}}
	for i, name := range []string{"a", "b", "c"} {
		tuple := value.Tuple{value.String(name)}
		tx.IndexDoUpdateEntry(schema, NodeID(i+1), nil, &tuple)
	}

	lower := value.String("b")
	result, err := tx.IndexUpdatesForRangeSeekByString(schema, &lower, true, nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	uint64sEqual(t, result.Added(), []uint64{2, 3})
}

// --- invariant: HasChanges / HasDataChanges track correctly --------------

func TestInvariant_HasChangesVsHasDataChanges(t *testing.T) {
	tx := New()
	if tx.HasChanges() || tx.HasDataChanges() {
		t.Fatal("fresh TxState must report no changes")
	}
	tx.LabelDoCreateForName("Person", 1)
	if !tx.HasChanges() || tx.HasDataChanges() {
		t.Fatal("a token creation is a schema change, not a data change")
	}
	tx.NodeDoCreate(1)
	if !tx.HasDataChanges() {
		t.Fatal("creating a node must mark data changes")
	}
}

// --- invariant: commit-time tokens come out in id order -------------------

func TestInvariant_TokensEmitInIDOrder(t *testing.T) {
	tx := New()
	tx.LabelDoCreateForName("Zeta", 9)
	tx.LabelDoCreateForName("Alpha", 2)
	tx.LabelDoCreateForName("Mid", 5)

	var ids []LabelID
	sink := &recordingSink{
		createdLabelToken: func(name string, id LabelID) error {
			ids = append(ids, id)
			return nil
		},
	}
	if err := tx.Accept(sink); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	want := []LabelID{2, 5, 9}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}
}

// --- invariant: Accept aborts and propagates the sink's error unchanged --

func TestInvariant_AcceptAbortsOnSinkError(t *testing.T) {
	tx := New()
	tx.NodeDoCreate(1)
	tx.NodeDoCreate(2)
	tx.RelationshipDoCreate(10, 1, 1, 2)

	failure := &ConstraintValidationFailure{
		Constraint: ConstraintDescriptor{Kind: ConstraintUnique, Schema: SchemaDescriptor{Label: 1}},
		Message:    "duplicate value",
	}
	var relVisited bool
	sink := &recordingSink{
		createdNode: func(NodeID) error { return failure },
		createdRel:  func(RelationshipID, RelTypeID, NodeID, NodeID) error { relVisited = true; return nil },
	}
	err := tx.Accept(sink)
	if err != failure {
		t.Fatalf("expected the sink's failure to propagate unchanged, got %v", err)
	}
	if relVisited {
		t.Fatal("Accept should have aborted before reaching the relationship category")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// recordingSink implements Sink, recording only the categories a test
// wires up and treating every other callback as a no-op success.
type recordingSink struct {
	createdNode         func(NodeID) error
	deletedNode         func(NodeID) error
	createdRel          func(RelationshipID, RelTypeID, NodeID, NodeID) error
	deletedRel              func(RelationshipID, RelTypeID, NodeID, NodeID) error
	nodeLabelChanges        func(NodeID, []LabelID, []LabelID) error
	nodePropertyChanges     func(NodeID, map[PropertyKeyID]value.Value, map[PropertyKeyID]value.Value, map[PropertyKeyID]struct{}) error
	relPropertyChanges      func(RelationshipID, map[PropertyKeyID]value.Value, map[PropertyKeyID]value.Value, map[PropertyKeyID]struct{}) error
	graphPropertyChanges    func(map[PropertyKeyID]value.Value, map[PropertyKeyID]value.Value, map[PropertyKeyID]struct{}) error
	addedIndex              func(IndexDescriptor) error
	removedIndex            func(IndexDescriptor) error
	addedConstraint         func(ConstraintDescriptor) error
	removedConstraint       func(ConstraintDescriptor) error
	createdLabelToken       func(string, LabelID) error
	createdPropertyKeyToken func(string, PropertyKeyID) error
	createdRelTypeToken     func(string, RelTypeID) error
}

func (s *recordingSink) VisitCreatedNode(id NodeID) error {
	if s.createdNode != nil {
		return s.createdNode(id)
	}
	return nil
}
func (s *recordingSink) VisitDeletedNode(id NodeID) error {
	if s.deletedNode != nil {
		return s.deletedNode(id)
	}
	return nil
}
func (s *recordingSink) VisitCreatedRelationship(id RelationshipID, typeID RelTypeID, start, end NodeID) error {
	if s.createdRel != nil {
		return s.createdRel(id, typeID, start, end)
	}
	return nil
}
func (s *recordingSink) VisitDeletedRelationship(id RelationshipID, typeID RelTypeID, start, end NodeID) error {
	if s.deletedRel != nil {
		return s.deletedRel(id, typeID, start, end)
	}
	return nil
}
func (s *recordingSink) VisitNodeLabelChanges(id NodeID, added, removed []LabelID) error {
	if s.nodeLabelChanges != nil {
		return s.nodeLabelChanges(id, added, removed)
	}
	return nil
}
func (s *recordingSink) VisitNodePropertyChanges(id NodeID, added, changed map[PropertyKeyID]value.Value, removed map[PropertyKeyID]struct{}) error {
	if s.nodePropertyChanges != nil {
		return s.nodePropertyChanges(id, added, changed, removed)
	}
	return nil
}
func (s *recordingSink) VisitRelPropertyChanges(id RelationshipID, added, changed map[PropertyKeyID]value.Value, removed map[PropertyKeyID]struct{}) error {
	if s.relPropertyChanges != nil {
		return s.relPropertyChanges(id, added, changed, removed)
	}
	return nil
}
func (s *recordingSink) VisitGraphPropertyChanges(added, changed map[PropertyKeyID]value.Value, removed map[PropertyKeyID]struct{}) error {
	if s.graphPropertyChanges != nil {
		return s.graphPropertyChanges(added, changed, removed)
	}
	return nil
}
func (s *recordingSink) VisitAddedIndex(d IndexDescriptor) error {
	if s.addedIndex != nil {
		return s.addedIndex(d)
	}
	return nil
}
func (s *recordingSink) VisitRemovedIndex(d IndexDescriptor) error {
	if s.removedIndex != nil {
		return s.removedIndex(d)
	}
	return nil
}
func (s *recordingSink) VisitAddedConstraint(c ConstraintDescriptor) error {
	if s.addedConstraint != nil {
		return s.addedConstraint(c)
	}
	return nil
}
func (s *recordingSink) VisitRemovedConstraint(c ConstraintDescriptor) error {
	if s.removedConstraint != nil {
		return s.removedConstraint(c)
	}
	return nil
}
func (s *recordingSink) VisitCreatedLabelToken(name string, id LabelID) error {
	if s.createdLabelToken != nil {
		return s.createdLabelToken(name, id)
	}
	return nil
}
func (s *recordingSink) VisitCreatedPropertyKeyToken(name string, id PropertyKeyID) error {
	if s.createdPropertyKeyToken != nil {
		return s.createdPropertyKeyToken(name, id)
	}
	return nil
}
func (s *recordingSink) VisitCreatedRelationshipTypeToken(name string, id RelTypeID) error {
	if s.createdRelTypeToken != nil {
		return s.createdRelTypeToken(name, id)
	}
	return nil
}
