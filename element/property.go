package element

import (
	"fmt"
	"strconv"

	"github.com/kbukum/mediagraph/caps"
)

// ValueType is the declared type of a property.
type ValueType int

const (
	TypeInt ValueType = iota
	TypeFloat
	TypeString
	TypeBool
	TypeCaps
)

func (t ValueType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeCaps:
		return "caps"
	default:
		return "unknown"
	}
}

// PropertySpec declares one property of a kind.
type PropertySpec struct {
	Name    string
	Type    ValueType
	Default any
	// Min and Max bound numeric properties when Ranged is set.
	Min, Max float64
	Ranged   bool
	// Required properties must be set to a non-empty value before the
	// element leaves NULL.
	Required bool
}

// coerce converts v to the canonical Go type of the property: int, float64,
// string, bool or caps.Capability.
func (s PropertySpec) coerce(v any) (any, error) {
	switch s.Type {
	case TypeInt:
		var n int
		switch x := v.(type) {
		case int:
			n = x
		case int32:
			n = int(x)
		case int64:
			n = int(x)
		case uint:
			n = int(x)
		case uint32:
			n = int(x)
		default:
			return nil, fmt.Errorf("want int, got %T", v)
		}
		if s.Ranged && (float64(n) < s.Min || float64(n) > s.Max) {
			return nil, fmt.Errorf("%d out of range [%g,%g]", n, s.Min, s.Max)
		}
		return n, nil
	case TypeFloat:
		var f float64
		switch x := v.(type) {
		case float64:
			f = x
		case float32:
			f = float64(x)
		case int:
			f = float64(x)
		case int64:
			f = float64(x)
		default:
			return nil, fmt.Errorf("want float, got %T", v)
		}
		if s.Ranged && (f < s.Min || f > s.Max) {
			return nil, fmt.Errorf("%g out of range [%g,%g]", f, s.Min, s.Max)
		}
		return f, nil
	case TypeString:
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", v)
		}
		return str, nil
	case TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("want bool, got %T", v)
		}
		return b, nil
	case TypeCaps:
		switch x := v.(type) {
		case caps.Capability:
			return x, nil
		case string:
			return caps.Parse(x)
		default:
			return nil, fmt.Errorf("want caps, got %T", v)
		}
	}
	return nil, fmt.Errorf("unsupported property type %s", s.Type)
}

// parse reads a property value from its textual form.
func (s PropertySpec) parse(text string) (any, error) {
	switch s.Type {
	case TypeInt:
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("want int, got %q", text)
		}
		return s.coerce(n)
	case TypeFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("want float, got %q", text)
		}
		return s.coerce(f)
	case TypeBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("want bool, got %q", text)
		}
		return b, nil
	default:
		return s.coerce(text)
	}
}

func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case caps.Capability:
		return x.IsEmpty()
	}
	return false
}
