package txstate

import "github.com/orneryd/graphtx/pkg/value"

// PropertyContainerState is the per-entity property change log shared by
// nodes, relationships, and the graph itself. A property key appears in
// at most one of added, changed, or removed at any time.
type PropertyContainerState struct {
	added   map[PropertyKeyID]value.Value
	changed map[PropertyKeyID]value.Value
	removed map[PropertyKeyID]struct{}
}

// AddProperty records k as newly present with value v. The caller is
// responsible for k not already being tracked in this container (not
// present in the committed store, and not already added/changed/removed
// this transaction) — this is a precondition, not something this buffer
// validates.
func (p *PropertyContainerState) AddProperty(k PropertyKeyID, v value.Value) {
	if p.added == nil {
		p.added = make(map[PropertyKeyID]value.Value, 1)
	}
	p.added[k] = v
}

// ChangeProperty records a new value for k. If k was added this
// transaction, the added entry is replaced in place; otherwise the
// change is recorded in changed, overwriting any prior changed value.
func (p *PropertyContainerState) ChangeProperty(k PropertyKeyID, vNew value.Value) {
	if p.added != nil {
		if _, ok := p.added[k]; ok {
			p.added[k] = vNew
			return
		}
	}
	if p.changed == nil {
		p.changed = make(map[PropertyKeyID]value.Value, 1)
	}
	p.changed[k] = vNew
}

// RemoveProperty records k as removed. If k was added this transaction,
// the add is cancelled (net no-op). If k was changed this transaction,
// the changed entry is dropped and replaced with a removal, since the
// committed store still has a prior value that must be deleted.
func (p *PropertyContainerState) RemoveProperty(k PropertyKeyID) {
	if p.added != nil {
		if _, ok := p.added[k]; ok {
			delete(p.added, k)
			return
		}
	}
	if p.changed != nil {
		delete(p.changed, k)
	}
	if p.removed == nil {
		p.removed = make(map[PropertyKeyID]struct{}, 1)
	}
	p.removed[k] = struct{}{}
}

// IsEmpty reports whether this container has no property changes at all.
func (p *PropertyContainerState) IsEmpty() bool {
	return len(p.added) == 0 && len(p.changed) == 0 && len(p.removed) == 0
}

// Added returns the keys added this transaction with their values.
func (p *PropertyContainerState) Added() map[PropertyKeyID]value.Value { return p.added }

// Changed returns the keys changed this transaction with their new values.
func (p *PropertyContainerState) Changed() map[PropertyKeyID]value.Value { return p.changed }

// Removed returns the keys removed this transaction.
func (p *PropertyContainerState) Removed() map[PropertyKeyID]struct{} { return p.removed }

// PropertySink receives the single combined callback Accept emits.
type PropertySink interface {
	VisitPropertyChanges(added, changed map[PropertyKeyID]value.Value, removed map[PropertyKeyID]struct{})
}

// Accept emits one combined callback carrying all three change sets, per
// spec: added-iterator, changed-iterator, and removed-iterator delivered
// together rather than as three separate dispatches.
func (p *PropertyContainerState) Accept(sink PropertySink) {
	sink.VisitPropertyChanges(p.added, p.changed, p.removed)
}
