package launch

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/mediagraph/element"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/pipeline"
	"github.com/kbukum/mediagraph/validation"
)

// Description declares a pipeline: its elements in insertion order and the
// links between them. When Playbin is set the other fields are ignored and
// Build creates a playbin for that URI.
type Description struct {
	Name     string        `yaml:"name"`
	Playbin  string        `yaml:"playbin,omitempty" validate:"omitempty,media_uri"`
	Elements []ElementSpec `yaml:"elements" validate:"required_without=Playbin,dive"`
	Links    []LinkSpec    `yaml:"links" validate:"dive"`
}

// ElementSpec declares one element. Property values are read the way
// they are in a text description.
type ElementSpec struct {
	Kind       string         `yaml:"kind" validate:"required"`
	Name       string         `yaml:"name" validate:"required"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// LinkSpec links the element named From to the element named To. A From
// element without static src pads is linked at runtime by its stream family.
type LinkSpec struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to" validate:"required,nefield=From"`
}

// ParseYAML reads a description from YAML.
func ParseYAML(data []byte) (*Description, error) {
	var d Description
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.InvalidDescription(err.Error()).WithCause(err)
	}
	return &d, nil
}

// LoadFile reads a YAML description from disk.
func LoadFile(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidDescription(fmt.Sprintf("reading %s", path)).WithCause(err)
	}
	d, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}
	if d.Name == "" {
		d.Name = "pipeline"
	}
	return d, nil
}

// Validate checks the structure of d: required fields, unique element names
// and links between declared elements.
func (d *Description) Validate() error {
	if err := validation.Validate(d); err != nil {
		return err
	}
	v := validation.New()
	seen := make(map[string]bool, len(d.Elements))
	for i, el := range d.Elements {
		field := fmt.Sprintf("elements[%d].name", i)
		v.Custom(!seen[el.Name], field, fmt.Sprintf("duplicate element name %q", el.Name))
		seen[el.Name] = true
	}
	for i, l := range d.Links {
		v.Custom(seen[l.From], fmt.Sprintf("links[%d].from", i), fmt.Sprintf("unknown element %q", l.From))
		v.Custom(seen[l.To], fmt.Sprintf("links[%d].to", i), fmt.Sprintf("unknown element %q", l.To))
	}
	return v.Err()
}

// Build creates the elements with f, adds them to a new pipeline and links
// them.
func (d *Description) Build(f *element.Factory, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	if err := d.Validate(); err != nil {
		return nil, errors.InvalidDescription(err.Error()).WithCause(err)
	}
	if d.Playbin != "" {
		return NewPlaybin(f, d.Playbin, opts...)
	}

	byName := make(map[string]*element.Element, len(d.Elements))
	els := make([]*element.Element, 0, len(d.Elements))
	for _, spec := range d.Elements {
		el, err := makeElement(f, spec)
		if err != nil {
			return nil, err
		}
		byName[spec.Name] = el
		els = append(els, el)
	}

	p := pipeline.New(d.Name, opts...)
	if err := p.Add(els...); err != nil {
		return nil, err
	}
	log := p.Logger()
	for _, l := range d.Links {
		src, sink := byName[l.From], byName[l.To]
		if !src.Kind().HasStaticPads(element.Src) {
			log.Debug("deferring link to runtime pads", logger.Fields(
				logger.FieldElement, src.Name(),
				"peer", sink.Name(),
			))
			continue
		}
		if err := p.LinkElements(src, sink); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func makeElement(f *element.Factory, spec ElementSpec) (*element.Element, error) {
	kind, ok := f.Lookup(spec.Kind)
	if !ok {
		return nil, errors.ElementUnavailable(spec.Kind)
	}
	props := make(map[string]any, len(spec.Properties))
	for name, raw := range spec.Properties {
		text, ok := raw.(string)
		if !ok {
			text = fmt.Sprint(raw)
		}
		v, err := kind.ParseProperty(name, text)
		if err != nil {
			return nil, err
		}
		props[name] = v
	}
	return f.Make(spec.Kind, spec.Name, props)
}
