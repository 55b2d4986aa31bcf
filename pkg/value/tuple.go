package value

import (
	"strconv"
	"strings"
)

// Tuple is an ordered list of Values forming an index key. A single-column
// index has a one-element Tuple; composite indexes have more.
type Tuple []Value

// Compare defines the total order Tuples sort under: lexicographic by
// element, then by length (a shorter tuple that is a prefix of a longer
// one sorts first).
func (t Tuple) Compare(other Tuple) int {
	n := len(t)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if c := t[i].Compare(other[i]); c != 0 {
			return c
		}
	}
	return len(t) - len(other)
}

// Equal reports whether two Tuples compare equal.
func (t Tuple) Equal(other Tuple) bool { return t.Compare(other) == 0 }

// Key returns a canonical string encoding of the Tuple suitable as a Go
// map key for exact-match lookups (indexUpdatesForSeek). Two Tuples that
// compare Equal under Compare always produce the same Key, and Tuples
// that differ in any element produce different keys.
func (t Tuple) Key() string {
	var b strings.Builder
	for i, v := range t {
		if i > 0 {
			b.WriteByte(0x1f) // unit separator, won't appear in normal property text
		}
		b.WriteString(valueKey(v))
	}
	return b.String()
}

func valueKey(v Value) string {
	switch v.kind {
	case KindNoValue:
		return "n:"
	case KindInteger, KindFloat:
		// Integer and Float compare numerically, so they share one encoding.
		f := v.numeric()
		if f == 0 {
			f = 0 // fold -0 into +0, which Compare treats as equal
		}
		return "d:" + strconv.FormatFloat(f, 'g', -1, 64)
	case KindString:
		s, _ := v.AsString()
		return "s:" + s
	case KindBool:
		b, _ := v.AsBool()
		if b {
			return "b:1"
		}
		return "b:0"
	case KindTemporal:
		t, _ := v.AsTemporal()
		return "t:" + t.UTC().Format("20060102150405.000000000")
	case KindArray:
		arr, _ := v.AsArray()
		var b strings.Builder
		b.WriteString("a:")
		for i, e := range arr {
			if i > 0 {
				b.WriteByte(0x1e)
			}
			b.WriteString(valueKey(e))
		}
		return b.String()
	default:
		return "?:"
	}
}
