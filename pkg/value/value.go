// Package value implements the tagged storage-value algebra that property
// values and index keys are built from.
//
// A Value is immutable once constructed: numbers, strings, booleans,
// temporal instants, arrays of Values, and a sentinel "no value" that
// stands in for an absent property. Values compare under a single total
// order (Compare), which is what makes a Tuple of Values usable as a
// sortable index key.
//
// Example:
//
//	v := value.String("apple")
//	w := value.Int(42)
//	if v.Compare(w) > 0 {
//		// strings sort after numbers in the fixed kind order
//	}
package value

import (
	"fmt"
	"time"

	"github.com/orneryd/graphtx/pkg/convert"
)

// Kind tags the variant a Value holds.
type Kind uint8

const (
	// KindNoValue is the sentinel for an absent property value.
	KindNoValue Kind = iota
	KindInteger
	KindFloat
	KindString
	KindBool
	KindTemporal
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNoValue:
		return "NoValue"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindBool:
		return "Bool"
	case KindTemporal:
		return "Temporal"
	case KindArray:
		return "Array"
	default:
		return "Unknown"
	}
}

// Value is an immutable tagged union over the storage value algebra.
//
// Zero value is NoValue, the sentinel for an absent property value.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
	t    time.Time
	arr  []Value
}

// NoValue returns the sentinel representing an absent property value.
func NoValue() Value { return Value{kind: KindNoValue} }

// Int constructs an Integer value.
func Int(v int64) Value { return Value{kind: KindInteger, i: v} }

// Float constructs a Float value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String constructs a String value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Bool constructs a Bool value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Temporal constructs a Temporal value from a time instant.
func Temporal(v time.Time) Value { return Value{kind: KindTemporal, t: v} }

// Array constructs an Array value. The slice is copied so the caller's
// backing array cannot mutate an already-constructed Value.
func Array(v []Value) Value {
	cp := make([]Value, len(v))
	copy(cp, v)
	return Value{kind: KindArray, arr: cp}
}

// Kind reports which variant this Value holds.
func (v Value) Kind() Kind { return v.kind }

// IsNoValue reports whether this is the absent-value sentinel.
func (v Value) IsNoValue() bool { return v.kind == KindNoValue }

// AsInt returns the integer payload, if this is an Integer value.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.i, true
}

// AsFloat returns the float payload, if this is a Float value.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// AsString returns the string payload, if this is a String value.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsBool returns the bool payload, if this is a Bool value.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsTemporal returns the time payload, if this is a Temporal value.
func (v Value) AsTemporal() (time.Time, bool) {
	if v.kind != KindTemporal {
		return time.Time{}, false
	}
	return v.t, true
}

// AsArray returns the element slice, if this is an Array value. The
// returned slice is a defensive copy.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	cp := make([]Value, len(v.arr))
	copy(cp, v.arr)
	return cp, true
}

// IsNumeric reports whether this Value is Integer or Float.
func (v Value) IsNumeric() bool {
	return v.kind == KindInteger || v.kind == KindFloat
}

// numeric returns the float64 representation of a numeric Value. Only
// valid when IsNumeric() is true.
func (v Value) numeric() float64 {
	if v.kind == KindInteger {
		return float64(v.i)
	}
	return v.f
}

// kindRank fixes the total order between distinct kinds: numbers sort
// before strings, strings before booleans, booleans before temporal
// instants, temporal before arrays, and NoValue sorts before everything
// (matching a missing property comparing as "less than" any present one).
func kindRank(k Kind) int {
	switch k {
	case KindNoValue:
		return 0
	case KindInteger, KindFloat:
		return 1
	case KindString:
		return 2
	case KindBool:
		return 3
	case KindTemporal:
		return 4
	case KindArray:
		return 5
	default:
		return 6
	}
}

// Compare defines the total order Values sort under. Numeric values
// (Integer and Float) compare against each other numerically regardless
// of their specific kind, so a range-index key built from a mix of
// Integer and Float values still sorts correctly. Values of different
// non-numeric kinds compare by their fixed kind rank.
func (v Value) Compare(other Value) int {
	if v.IsNumeric() && other.IsNumeric() {
		return compareFloat(v.numeric(), other.numeric())
	}
	rv, ro := kindRank(v.kind), kindRank(other.kind)
	if rv != ro {
		return rv - ro
	}
	switch v.kind {
	case KindNoValue:
		return 0
	case KindString:
		return compareString(v.s, other.s)
	case KindBool:
		return compareBool(v.b, other.b)
	case KindTemporal:
		return compareTime(v.t, other.t)
	case KindArray:
		return compareArrays(v.arr, other.arr)
	default:
		return 0
	}
}

// Equal reports whether two Values compare equal under Compare.
func (v Value) Equal(other Value) bool { return v.Compare(other) == 0 }

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func compareArrays(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// FromAny builds a Value from a loosely-typed property value, the way a
// caller translating committed-store properties into the comparator
// algebra would. Numeric types become Integer/Float; a numeric string
// (parsed via pkg/convert) becomes Integer when its value is whole and
// Float otherwise; anything else falls back to its string
// form so a comparison always has a defined answer. A nil input yields
// NoValue().
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return NoValue()
	case Value:
		return x
	case int64:
		return Int(x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case float64:
		return Float(x)
	case float32:
		return Float(float64(x))
	case string:
		if f, ok := convert.ToFloat64(x); ok {
			if i, ok := convert.ToInt64(x); ok && float64(i) == f {
				return Int(i)
			}
			return Float(f)
		}
		return String(x)
	case bool:
		return Bool(x)
	case time.Time:
		return Temporal(x)
	case []any:
		elems := make([]Value, len(x))
		for i, e := range x {
			elems[i] = FromAny(e)
		}
		return Array(elems)
	default:
		return String(fmt.Sprintf("%v", x))
	}
}
