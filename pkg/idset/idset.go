// Package idset provides a roaring-bitmap-backed DiffSet specialized for
// 64-bit node and relationship ids.
//
// The generic pkg/diffset.Generic[T] is map-backed, which is the right
// choice for small, per-entity diffs (a node's label set, a schema
// descriptor list). The transaction buffer also has to diff id sets that
// can get large and are read back constantly while augmenting committed
// cursors — a label touched by a bulk import, or a single index value
// shared by many nodes. For those, a compressed bitmap beats a Go map on
// both memory and the union work indexUpdatesForScan needs. Roaring
// bitmaps are the corpus's standard answer to "a fast, compact set of
// integer ids" (github.com/RoaringBitmap/roaring/v2 is a direct
// dependency of the erigon Ethereum client in this retrieval pack), so
// Diff wraps the 64-bit flavor of that library instead of hand-rolling
// the same bit-packing.
package idset

import "github.com/RoaringBitmap/roaring/v2/roaring64"

// Diff is a DiffSet[uint64] with the same Add/Remove/UnRemove/Augment/
// Accept contract as diffset.Generic, backed by a pair of roaring64
// bitmaps instead of maps. Both bitmaps are allocated lazily: a zero
// value Diff holds neither and behaves like Empty().
type Diff struct {
	added   *roaring64.Bitmap
	removed *roaring64.Bitmap
}

// New returns an empty, allocation-free Diff.
func New() *Diff {
	return &Diff{}
}

// Add records x as added, cancelling any pending removal of x (unRemove).
func (d *Diff) Add(x uint64) {
	if d.removed != nil {
		d.removed.Remove(x)
	}
	if d.added == nil {
		d.added = roaring64.New()
	}
	d.added.Add(x)
}

// Remove records x as removed, or cancels an in-transaction add of x.
func (d *Diff) Remove(x uint64) {
	if d.added != nil && d.added.Contains(x) {
		d.added.Remove(x)
		return
	}
	if d.removed == nil {
		d.removed = roaring64.New()
	}
	d.removed.Add(x)
}

// UnRemove deletes x from the removed set, reporting whether it had been
// recorded there.
func (d *Diff) UnRemove(x uint64) bool {
	if d.removed == nil || !d.removed.Contains(x) {
		return false
	}
	d.removed.Remove(x)
	return true
}

// IsAdded reports whether x is in the added set.
func (d *Diff) IsAdded(x uint64) bool {
	return d.added != nil && d.added.Contains(x)
}

// IsRemoved reports whether x is in the removed set.
func (d *Diff) IsRemoved(x uint64) bool {
	return d.removed != nil && d.removed.Contains(x)
}

// IsEmpty reports whether both sides are empty.
func (d *Diff) IsEmpty() bool {
	return (d.added == nil || d.added.IsEmpty()) && (d.removed == nil || d.removed.IsEmpty())
}

// Added returns the added ids in ascending order.
func (d *Diff) Added() []uint64 {
	if d.added == nil {
		return nil
	}
	return d.added.ToArray()
}

// Removed returns the removed ids in ascending order.
func (d *Diff) Removed() []uint64 {
	if d.removed == nil {
		return nil
	}
	return d.removed.ToArray()
}

// Cardinality returns len(Added()) without materializing the slice.
func (d *Diff) Cardinality() uint64 {
	if d.added == nil {
		return 0
	}
	return d.added.GetCardinality()
}

// Augment returns the elements of committed not present in the removed
// set, in committed's original order, followed by every added id.
func (d *Diff) Augment(committed []uint64) []uint64 {
	if d.IsEmpty() {
		return committed
	}
	out := make([]uint64, 0, len(committed)+int(d.Cardinality()))
	for _, c := range committed {
		if d.removed == nil || !d.removed.Contains(c) {
			out = append(out, c)
		}
	}
	if d.added != nil {
		out = append(out, d.added.ToArray()...)
	}
	return out
}

// Visitor receives the Accept callbacks.
type Visitor interface {
	VisitAdded(x uint64)
	VisitRemoved(x uint64)
}

// Accept dispatches VisitAdded/VisitRemoved for every id on each side, in
// ascending order.
func (d *Diff) Accept(v Visitor) {
	if d.added != nil {
		it := d.added.Iterator()
		for it.HasNext() {
			v.VisitAdded(it.Next())
		}
	}
	if d.removed != nil {
		it := d.removed.Iterator()
		for it.HasNext() {
			v.VisitRemoved(it.Next())
		}
	}
}

// Purge unconditionally removes x from both sides, bypassing the usual
// unRemove/net-no-op semantics of Add/Remove. Node deletion uses it to
// excise the deleted node id from every index-update DiffSet that still
// references it, and from the removed side of each LabelState the node
// lost a label in this transaction, where the delete is not itself an
// "add" or "remove" event against that DiffSet.
func (d *Diff) Purge(x uint64) {
	if d.added != nil {
		d.added.Remove(x)
	}
	if d.removed != nil {
		d.removed.Remove(x)
	}
}

// Union merges any number of Diffs into a new Diff whose added side is
// the union of all their added bitmaps, and likewise for removed. This
// backs indexUpdatesForScan, which reports the union of every per-value
// DiffSet under a schema descriptor.
func Union(diffs ...*Diff) *Diff {
	out := New()
	for _, d := range diffs {
		if d == nil {
			continue
		}
		if d.added != nil {
			if out.added == nil {
				out.added = roaring64.New()
			}
			out.added.Or(d.added)
		}
		if d.removed != nil {
			if out.removed == nil {
				out.removed = roaring64.New()
			}
			out.removed.Or(d.removed)
		}
	}
	return out
}

// emptyDiff is the zero-size, read-only Diff view returned by Empty.
type emptyDiff struct{}

func (emptyDiff) Added() []uint64       { return nil }
func (emptyDiff) Removed() []uint64     { return nil }
func (emptyDiff) IsAdded(uint64) bool   { return false }
func (emptyDiff) IsRemoved(uint64) bool { return false }
func (emptyDiff) IsEmpty() bool         { return true }

// Readable is the read-only view shape shared by Diff and Empty(), kept
// in sync with diffset.ReadableDiffSet[uint64] so the two packages can
// be used interchangeably by generic read-path code.
type Readable interface {
	Added() []uint64
	Removed() []uint64
	IsAdded(x uint64) bool
	IsRemoved(x uint64) bool
	IsEmpty() bool
}

// Empty returns the shared, read-only empty Diff view, avoiding an
// allocation on read paths that find no per-key state.
func Empty() Readable {
	return emptyDiff{}
}
