// Package diffset implements the generic (added, removed) set delta that
// the rest of the transaction buffer is built from.
//
// A Generic[T] pairs an "added" set with a "removed" set under the
// invariant added ∩ removed = ∅. Add and Remove cooperate so that adding
// something previously removed in the same transaction cancels the
// removal (unRemove) and records it as added instead of leaving it in
// both sets, and removing something added in the same transaction is a
// net no-op for anyone reading the sets.
//
// Every collection here is allocated lazily: a zero-value Generic[T]
// holds no maps at all and is indistinguishable, for reading purposes,
// from Empty[T](). The methods are not nil-safe: a nil *Generic[T] is
// not a usable receiver.
package diffset

// ReadableDiffSet is the read-only view over a DiffSet's two sets. Read
// APIs that have nothing to report return Empty[T]() instead of
// allocating a Generic[T], so callers should always program against this
// interface rather than assume a concrete *Generic[T].
type ReadableDiffSet[T comparable] interface {
	Added() []T
	Removed() []T
	IsAdded(x T) bool
	IsRemoved(x T) bool
	IsEmpty() bool
}

// Visitor receives the two Accept callbacks, one per element of each side.
type Visitor[T comparable] interface {
	VisitAdded(x T)
	VisitRemoved(x T)
}

// Generic is a map-backed DiffSet[T] for arbitrary comparable element
// types: label ids and schema/constraint descriptor keys are diffed
// this way. Large-scale 64-bit id sets (node
// and relationship ids) use the roaring-bitmap-backed pkg/idset.Diff
// instead; see its doc comment for why.
type Generic[T comparable] struct {
	added   map[T]struct{}
	removed map[T]struct{}
}

// New returns an empty, allocation-free Generic[T]. Calling it is
// optional — the zero value behaves identically — but it documents
// intent at call sites that are about to mutate the set.
func New[T comparable]() *Generic[T] {
	return &Generic[T]{}
}

// Add records x as added. If x was previously removed in this
// transaction, that removal is cancelled (unRemove) rather than leaving
// x recorded in both sets.
func (d *Generic[T]) Add(x T) {
	if d.removed != nil {
		delete(d.removed, x)
	}
	if d.added == nil {
		d.added = make(map[T]struct{}, 1)
	}
	d.added[x] = struct{}{}
}

// Remove records x as removed. If x was added in this same transaction,
// the add is cancelled instead — externally this is a no-op, since the
// committed store never saw x either way.
func (d *Generic[T]) Remove(x T) {
	if d.added != nil {
		if _, ok := d.added[x]; ok {
			delete(d.added, x)
			return
		}
	}
	if d.removed == nil {
		d.removed = make(map[T]struct{}, 1)
	}
	d.removed[x] = struct{}{}
}

// UnRemove deletes x from the removed set without adding it, returning
// whether x had actually been recorded as removed. Used directly by
// schema-change tracking (indexRuleDoAdd checks unRemove before deciding
// whether re-adding a just-dropped descriptor is a no-op).
func (d *Generic[T]) UnRemove(x T) bool {
	if d.removed == nil {
		return false
	}
	if _, ok := d.removed[x]; ok {
		delete(d.removed, x)
		return true
	}
	return false
}

// Purge unconditionally removes x from both sides, bypassing the usual
// unRemove/net-no-op semantics of Add/Remove. See idset.Diff.Purge for
// why this exists.
func (d *Generic[T]) Purge(x T) {
	if d.added != nil {
		delete(d.added, x)
	}
	if d.removed != nil {
		delete(d.removed, x)
	}
}

// IsAdded reports whether x is in the added set.
func (d *Generic[T]) IsAdded(x T) bool {
	_, ok := d.added[x]
	return ok
}

// IsRemoved reports whether x is in the removed set.
func (d *Generic[T]) IsRemoved(x T) bool {
	_, ok := d.removed[x]
	return ok
}

// IsEmpty reports whether both sides are empty.
func (d *Generic[T]) IsEmpty() bool {
	return len(d.added) == 0 && len(d.removed) == 0
}

// Added returns the added elements in unspecified order.
func (d *Generic[T]) Added() []T { return keys(d.added) }

// Removed returns the removed elements in unspecified order.
func (d *Generic[T]) Removed() []T { return keys(d.removed) }

func keys[T comparable](m map[T]struct{}) []T {
	if len(m) == 0 {
		return nil
	}
	out := make([]T, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Augment returns the elements of committed not present in the removed
// set, in committed's original order, followed by every added element.
// Each element appears exactly once.
func (d *Generic[T]) Augment(committed []T) []T {
	if d.IsEmpty() {
		return committed
	}
	out := make([]T, 0, len(committed)+len(d.added))
	for _, c := range committed {
		if _, ok := d.removed[c]; !ok {
			out = append(out, c)
		}
	}
	for a := range d.added {
		out = append(out, a)
	}
	return out
}

// Accept dispatches VisitAdded for every added element and VisitRemoved
// for every removed element.
func (d *Generic[T]) Accept(v Visitor[T]) {
	for a := range d.added {
		v.VisitAdded(a)
	}
	for r := range d.removed {
		v.VisitRemoved(r)
	}
}

// emptySet is the zero-size ReadableDiffSet[T] returned by Empty. Since
// it carries no state, wrapping a value of this type in the
// ReadableDiffSet[T] interface costs no heap allocation.
type emptySet[T comparable] struct{}

func (emptySet[T]) Added() []T       { return nil }
func (emptySet[T]) Removed() []T     { return nil }
func (emptySet[T]) IsAdded(T) bool   { return false }
func (emptySet[T]) IsRemoved(T) bool { return false }
func (emptySet[T]) IsEmpty() bool    { return true }

// Empty returns the shared, read-only empty DiffSet view for T. Read
// paths that find no per-key state (e.g. nodesWithLabelChanged for a
// label nobody touched this transaction) return this instead of
// allocating a fresh Generic[T].
func Empty[T comparable]() ReadableDiffSet[T] {
	return emptySet[T]{}
}
