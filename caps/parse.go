package caps

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads a capability from caps-string syntax:
//
//	video/x-raw,width=640,height=[240,1080],format={I420,RGB}
//
// Values may carry a type prefix such as (int), (float), (string) or
// (boolean). "ANY" yields the unconstrained capability.
func Parse(s string) (Capability, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Capability{}, fmt.Errorf("caps: empty capability")
	}
	if s == "ANY" {
		return Any(), nil
	}

	parts, err := splitTopLevel(s, ',')
	if err != nil {
		return Capability{}, err
	}
	tag := strings.TrimSpace(parts[0])
	if tag == "" || strings.ContainsAny(tag, "=[]{}") {
		return Capability{}, fmt.Errorf("caps: invalid tag %q", tag)
	}

	c := New(tag)
	for _, field := range parts[1:] {
		key, raw, ok := strings.Cut(field, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return Capability{}, fmt.Errorf("caps: malformed field %q in %q", field, s)
		}
		v, err := parseValue(strings.TrimSpace(raw))
		if err != nil {
			return Capability{}, fmt.Errorf("caps: field %q: %w", key, err)
		}
		c = c.With(key, v)
	}
	return c, nil
}

// MustParse is like Parse but panics on error. Intended for static tables.
func MustParse(s string) Capability {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseValue(raw string) (Value, error) {
	if raw == "" {
		return Value{}, fmt.Errorf("empty value")
	}
	switch raw[0] {
	case '[':
		if !strings.HasSuffix(raw, "]") {
			return Value{}, fmt.Errorf("unterminated range %q", raw)
		}
		bounds, err := splitTopLevel(raw[1:len(raw)-1], ',')
		if err != nil {
			return Value{}, err
		}
		if len(bounds) != 2 {
			return Value{}, fmt.Errorf("range %q needs two bounds", raw)
		}
		lo, err := strconv.ParseInt(strings.TrimSpace(bounds[0]), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("range lower bound: %w", err)
		}
		hi, err := strconv.ParseInt(strings.TrimSpace(bounds[1]), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("range upper bound: %w", err)
		}
		return IntRange(lo, hi), nil
	case '{':
		if !strings.HasSuffix(raw, "}") {
			return Value{}, fmt.Errorf("unterminated list %q", raw)
		}
		items, err := splitTopLevel(raw[1:len(raw)-1], ',')
		if err != nil {
			return Value{}, err
		}
		vs := make([]Value, 0, len(items))
		for _, item := range items {
			v, err := parseScalar(strings.TrimSpace(item))
			if err != nil {
				return Value{}, err
			}
			vs = append(vs, v)
		}
		return List(vs...), nil
	}
	return parseScalar(raw)
}

func parseScalar(raw string) (Value, error) {
	hint := ""
	if strings.HasPrefix(raw, "(") {
		end := strings.IndexByte(raw, ')')
		if end < 0 {
			return Value{}, fmt.Errorf("unterminated type hint in %q", raw)
		}
		hint = raw[1:end]
		raw = strings.TrimSpace(raw[end+1:])
	}
	if raw == "" {
		return Value{}, fmt.Errorf("empty value")
	}

	if strings.HasPrefix(raw, `"`) {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return Value{}, fmt.Errorf("bad quoted string %s: %w", raw, err)
		}
		return String(s), nil
	}

	switch hint {
	case "string":
		return String(raw), nil
	case "int":
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case "float", "double":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case "boolean", "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case "":
	default:
		return Value{}, fmt.Errorf("unknown type hint %q", hint)
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Int(n), nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Float(f), nil
	}
	if raw == "true" || raw == "false" {
		return Bool(raw == "true"), nil
	}
	return String(raw), nil
}

// splitTopLevel splits s on sep, ignoring separators nested in brackets,
// braces or double quotes.
func splitTopLevel(s string, sep byte) ([]string, error) {
	var parts []string
	depth := 0
	quoted := false
	start := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '"' && (i == 0 || s[i-1] != '\\'):
			quoted = !quoted
		case quoted:
		case ch == '[' || ch == '{':
			depth++
		case ch == ']' || ch == '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("caps: unbalanced %q in %q", ch, s)
			}
		case ch == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if depth != 0 || quoted {
		return nil, fmt.Errorf("caps: unbalanced brackets or quotes in %q", s)
	}
	return append(parts, s[start:]), nil
}
