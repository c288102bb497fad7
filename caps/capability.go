package caps

import (
	"sort"
	"strings"
)

// Capability describes a stream type: a media tag such as "audio/x-raw"
// plus optional field constraints. The zero value is an empty, invalid
// capability; use New, Any or Parse.
type Capability struct {
	tag    string
	any    bool
	fields map[string]Value
	order  []string
}

// New creates a capability with the given tag and no constraints.
func New(tag string) Capability {
	return Capability{tag: tag}
}

// Any returns the unconstrained capability. It is compatible with everything.
func Any() Capability {
	return Capability{any: true}
}

// Tag returns the media tag, or "ANY" for the unconstrained capability.
func (c Capability) Tag() string {
	if c.any {
		return "ANY"
	}
	return c.tag
}

// IsAny reports whether c is the unconstrained capability.
func (c Capability) IsAny() bool { return c.any }

// IsEmpty reports whether c is the zero value.
func (c Capability) IsEmpty() bool { return !c.any && c.tag == "" }

// Family returns the part of the tag before the first slash ("audio" for
// "audio/x-raw"). ANY and empty capabilities have no family.
func (c Capability) Family() string {
	if c.any || c.tag == "" {
		return ""
	}
	if i := strings.IndexByte(c.tag, '/'); i >= 0 {
		return c.tag[:i]
	}
	return c.tag
}

// With returns a copy of c with key constrained to v.
func (c Capability) With(key string, v Value) Capability {
	out := c.clone()
	if out.fields == nil {
		out.fields = make(map[string]Value)
	}
	if _, exists := out.fields[key]; !exists {
		out.order = append(out.order, key)
	}
	out.fields[key] = v
	return out
}

// Field returns the constraint for key.
func (c Capability) Field(key string) (Value, bool) {
	v, ok := c.fields[key]
	return v, ok
}

// Keys returns the constrained field names in declaration order.
func (c Capability) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// IsFixed reports whether every field holds a single scalar.
func (c Capability) IsFixed() bool {
	if c.any || c.tag == "" {
		return false
	}
	for _, v := range c.fields {
		if !v.IsFixed() {
			return false
		}
	}
	return true
}

// String renders c in caps-string syntax, e.g. "audio/x-raw,rate=44100".
func (c Capability) String() string {
	if c.any {
		return "ANY"
	}
	if c.tag == "" {
		return "EMPTY"
	}
	var b strings.Builder
	b.WriteString(c.tag)
	for _, k := range c.order {
		b.WriteByte(',')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(c.fields[k].String())
	}
	return b.String()
}

// Equal reports whether a and b describe the same constraints,
// irrespective of field order.
func Equal(a, b Capability) bool {
	if a.any != b.any || a.tag != b.tag || len(a.fields) != len(b.fields) {
		return false
	}
	ak := a.Keys()
	bk := b.Keys()
	sort.Strings(ak)
	sort.Strings(bk)
	for i := range ak {
		if ak[i] != bk[i] || a.fields[ak[i]].String() != b.fields[bk[i]].String() {
			return false
		}
	}
	return true
}

func (c Capability) clone() Capability {
	out := Capability{tag: c.tag, any: c.any}
	if len(c.fields) > 0 {
		out.fields = make(map[string]Value, len(c.fields))
		for k, v := range c.fields {
			out.fields[k] = v
		}
		out.order = append([]string(nil), c.order...)
	}
	return out
}

// Compatible reports whether a and b can describe the same stream: the
// tags match (or either side is ANY) and every field constrained on both
// sides has overlapping values. Fields constrained on only one side never
// block a match.
func Compatible(a, b Capability) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	if a.any || b.any {
		return true
	}
	if a.tag != b.tag {
		return false
	}
	for k, av := range a.fields {
		if bv, ok := b.fields[k]; ok && !overlaps(av, bv) {
			return false
		}
	}
	return true
}

// Intersect returns the capability satisfying both a and b. The result
// carries the union of constrained fields, narrowed where both sides
// constrain the same field.
func Intersect(a, b Capability) (Capability, bool) {
	if !Compatible(a, b) {
		return Capability{}, false
	}
	if a.any {
		return b.clone(), true
	}
	if b.any {
		return a.clone(), true
	}
	out := New(a.tag)
	for _, k := range a.order {
		av := a.fields[k]
		if bv, ok := b.fields[k]; ok {
			v, _ := intersect(av, bv)
			out = out.With(k, v)
			continue
		}
		out = out.With(k, av)
	}
	for _, k := range b.order {
		if _, ok := a.fields[k]; !ok {
			out = out.With(k, b.fields[k])
		}
	}
	return out, true
}
