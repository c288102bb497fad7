package caps

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the shape of a constraint value.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindBool
	KindIntRange
	KindList
)

// Value is a single constraint on a capability field: a fixed scalar,
// an inclusive integer range, or a list of alternative scalars.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
	min  int64
	max  int64
	list []Value
}

// Int returns a fixed integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a fixed floating point value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String returns a fixed string value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Bool returns a fixed boolean value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// IntRange returns an inclusive integer range. Bounds are swapped if given
// in the wrong order; a degenerate range collapses to a fixed integer.
func IntRange(min, max int64) Value {
	if min > max {
		min, max = max, min
	}
	if min == max {
		return Int(min)
	}
	return Value{kind: KindIntRange, min: min, max: max}
}

// List returns a set of alternatives. Nested lists are flattened and a
// single alternative collapses to itself.
func List(vs ...Value) Value {
	flat := make([]Value, 0, len(vs))
	for _, v := range vs {
		if v.kind == KindList {
			flat = append(flat, v.list...)
			continue
		}
		flat = append(flat, v)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return Value{kind: KindList, list: flat}
}

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// AsInt returns the integer for fixed int values.
func (v Value) AsInt() (int64, bool) {
	if v.kind == KindInt {
		return v.i, true
	}
	return 0, false
}

// AsFloat returns the number for fixed int or float values.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// AsString returns the string for fixed string values.
func (v Value) AsString() (string, bool) {
	if v.kind == KindString {
		return v.s, true
	}
	return "", false
}

// IsFixed reports whether the value is a single scalar.
func (v Value) IsFixed() bool {
	return v.kind != KindIntRange && v.kind != KindList
}

func (v Value) rank() int {
	switch v.kind {
	case KindList:
		return 2
	case KindIntRange:
		return 1
	default:
		return 0
	}
}

// overlaps reports whether some concrete value satisfies both constraints.
// Arguments are ordered by rank so every pairing is handled exactly once,
// which keeps the relation symmetric.
func overlaps(a, b Value) bool {
	if a.rank() > b.rank() {
		a, b = b, a
	}
	switch b.kind {
	case KindList:
		if a.kind == KindList {
			for _, x := range a.list {
				if overlaps(x, b) {
					return true
				}
			}
			return false
		}
		for _, y := range b.list {
			if overlaps(a, y) {
				return true
			}
		}
		return false
	case KindIntRange:
		if a.kind == KindIntRange {
			return max(a.min, b.min) <= min(a.max, b.max)
		}
		if a.kind == KindInt {
			return a.i >= b.min && a.i <= b.max
		}
		return false
	}
	return scalarEqual(a, b)
}

func scalarEqual(a, b Value) bool {
	switch {
	case a.kind == KindString && b.kind == KindString:
		return a.s == b.s
	case a.kind == KindBool && b.kind == KindBool:
		return a.b == b.b
	case a.kind == KindInt && b.kind == KindInt:
		return a.i == b.i
	}
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	return aok && bok && af == bf
}

// intersect narrows two overlapping constraints to their common values.
func intersect(a, b Value) (Value, bool) {
	if a.rank() > b.rank() {
		a, b = b, a
	}
	switch b.kind {
	case KindList:
		var out []Value
		if a.kind == KindList {
			for _, x := range a.list {
				if v, ok := intersect(x, b); ok {
					out = append(out, v)
				}
			}
		} else {
			for _, y := range b.list {
				if v, ok := intersect(a, y); ok {
					out = append(out, v)
				}
			}
		}
		if len(out) == 0 {
			return Value{}, false
		}
		return List(out...), true
	case KindIntRange:
		if a.kind == KindIntRange {
			lo, hi := max(a.min, b.min), min(a.max, b.max)
			if lo > hi {
				return Value{}, false
			}
			return IntRange(lo, hi), true
		}
		if a.kind == KindInt && a.i >= b.min && a.i <= b.max {
			return a, true
		}
		return Value{}, false
	}
	if scalarEqual(a, b) {
		return a, true
	}
	return Value{}, false
}

// String renders the value in caps-string syntax.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		if needsQuote(v.s) {
			return strconv.Quote(v.s)
		}
		return v.s
	case KindIntRange:
		return fmt.Sprintf("[%d,%d]", v.min, v.max)
	case KindList:
		parts := make([]string, len(v.list))
		for i, x := range v.list {
			parts[i] = x.String()
		}
		return "{" + strings.Join(parts, ",") + "}"
	}
	return ""
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	if s == "true" || s == "false" {
		return true
	}
	return strings.ContainsAny(s, ",=[]{}\" ")
}
