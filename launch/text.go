package launch

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kbukum/mediagraph/element"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/pipeline"
)

const linkToken = "!"

// Parse builds a pipeline from a text description such as
//
//	videotestsrc pattern=0 ! vertigotv ! videoconvert ! autovideosink
//
// Elements are separated by "!". Words of the form key=value set a
// property of the preceding element, and name=... names it. A segment that
// looks like a capability (video/x-raw,width=640) becomes a capsfilter.
// A word ending in "." refers to an element named earlier and starts or
// ends a chain there. "playbin uri=..." on its own creates a playbin.
func Parse(f *element.Factory, text string, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	d, err := ParseText(f, text)
	if err != nil {
		return nil, err
	}
	return d.Build(f, opts...)
}

// ParseText turns a text description into a Description without creating
// any element. f is used to tell property types.
func ParseText(f *element.Factory, text string) (*Description, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, errors.InvalidDescription("empty pipeline")
	}
	if tokens[0] == "playbin" {
		return parsePlaybin(tokens[1:])
	}

	p := &textParser{factory: f, d: &Description{Name: "pipeline"}, counts: make(map[string]int), current: -1}
	for _, tok := range tokens {
		if err := p.next(tok); err != nil {
			return nil, err
		}
	}
	if p.linkPending {
		return nil, errors.InvalidDescription("link without a sink element")
	}
	return p.d, nil
}

func parsePlaybin(words []string) (*Description, error) {
	d := &Description{Name: "playbin"}
	for _, w := range words {
		key, value, ok := strings.Cut(w, "=")
		if !ok {
			return nil, errors.InvalidDescription(fmt.Sprintf("playbin takes only properties, got %q", w))
		}
		if key != "uri" {
			return nil, errors.InvalidProperty("playbin", key, "no such property")
		}
		d.Playbin = value
	}
	if d.Playbin == "" {
		return nil, errors.InvalidProperty("playbin", "uri", "required property is not set")
	}
	return d, nil
}

type textParser struct {
	factory *element.Factory
	d       *Description
	counts  map[string]int

	// current is the index in d.Elements properties apply to, or -1.
	current int
	// last names the element a following "!" links from.
	last        string
	linkPending bool
}

func (p *textParser) next(tok string) error {
	switch {
	case tok == linkToken:
		if p.last == "" || p.linkPending {
			return errors.InvalidDescription("link without a source element")
		}
		p.linkPending = true
		p.current = -1
		return nil

	case strings.HasSuffix(tok, ".") && !strings.ContainsAny(tok, "=/"):
		name := strings.TrimSuffix(tok, ".")
		if !p.declared(name) {
			return errors.InvalidDescription(fmt.Sprintf("reference to unknown element %q", name))
		}
		p.endpoint(name)
		p.current = -1
		return nil

	case isCaps(tok):
		name := p.autoName("capsfilter")
		p.add(ElementSpec{Kind: "capsfilter", Name: name, Properties: map[string]any{"caps": tok}})
		return nil

	case strings.Contains(tok, "="):
		if p.current < 0 {
			return errors.InvalidDescription(fmt.Sprintf("property %q does not follow an element", tok))
		}
		key, value, _ := strings.Cut(tok, "=")
		spec := &p.d.Elements[p.current]
		if key == "name" {
			return p.rename(spec, value)
		}
		if spec.Properties == nil {
			spec.Properties = make(map[string]any)
		}
		spec.Properties[key] = value
		return nil

	default:
		if _, ok := p.factory.Lookup(tok); !ok {
			return errors.ElementUnavailable(tok)
		}
		p.add(ElementSpec{Kind: tok, Name: p.autoName(tok)})
		return nil
	}
}

// add declares an element and links it from the previous one when a "!"
// is pending.
func (p *textParser) add(spec ElementSpec) {
	p.d.Elements = append(p.d.Elements, spec)
	p.current = len(p.d.Elements) - 1
	p.endpoint(spec.Name)
}

// endpoint makes name the end of the current chain.
func (p *textParser) endpoint(name string) {
	if p.linkPending {
		p.d.Links = append(p.d.Links, LinkSpec{From: p.last, To: name})
		p.linkPending = false
	}
	p.last = name
}

func (p *textParser) rename(spec *ElementSpec, name string) error {
	if name == "" || p.declared(name) {
		return errors.InvalidDescription(fmt.Sprintf("invalid or duplicate element name %q", name))
	}
	old := spec.Name
	spec.Name = name
	for i := range p.d.Links {
		if p.d.Links[i].From == old {
			p.d.Links[i].From = name
		}
		if p.d.Links[i].To == old {
			p.d.Links[i].To = name
		}
	}
	if p.last == old {
		p.last = name
	}
	return nil
}

func (p *textParser) declared(name string) bool {
	for _, el := range p.d.Elements {
		if el.Name == name {
			return true
		}
	}
	return false
}

// autoName names elements the way the factory does: kind plus a counter.
func (p *textParser) autoName(kind string) string {
	for {
		n := p.counts[kind]
		p.counts[kind] = n + 1
		name := fmt.Sprintf("%s%d", kind, n)
		if !p.declared(name) {
			return name
		}
	}
}

// isCaps reports whether tok is a capability rather than a property: the
// part before any '=' or ',' holds a media type.
func isCaps(tok string) bool {
	head := tok
	if i := strings.IndexAny(tok, "=,"); i >= 0 {
		head = tok[:i]
	}
	return strings.Contains(head, "/")
}

// tokenize splits text into words and "!" separators. Double quotes group
// words, so property values may contain spaces.
func tokenize(text string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		quoted  bool
		hasWord bool
	)
	flush := func() {
		if hasWord {
			tokens = append(tokens, cur.String())
			cur.Reset()
			hasWord = false
		}
	}
	for _, r := range text {
		switch {
		case r == '"':
			quoted = !quoted
			hasWord = true
		case quoted:
			cur.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		case r == '!':
			flush()
			tokens = append(tokens, linkToken)
		default:
			cur.WriteRune(r)
			hasWord = true
		}
	}
	if quoted {
		return nil, errors.InvalidDescription("unterminated quote")
	}
	flush()
	return tokens, nil
}
