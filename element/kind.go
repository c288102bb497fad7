package element

import (
	"github.com/kbukum/mediagraph/caps"
	"github.com/kbukum/mediagraph/errors"
)

// Class is the processing role of a kind.
type Class int

const (
	ClassSource Class = iota
	ClassDecoder
	ClassFilter
	ClassConverter
	ClassSink
)

func (c Class) String() string {
	switch c {
	case ClassSource:
		return "source"
	case ClassDecoder:
		return "decoder"
	case ClassFilter:
		return "filter"
	case ClassConverter:
		return "converter"
	case ClassSink:
		return "sink"
	default:
		return "unknown"
	}
}

// Kind is the static description of an element type.
type Kind struct {
	Name        string
	Class       Class
	Description string
	Templates   []PadTemplate
	Properties  []PropertySpec
	// CapsProperty, when set, names a caps property that narrows every pad
	// template of the kind.
	CapsProperty string
	// NewBehavior builds the runtime behavior of one element.
	NewBehavior func(el *Element, env Env) Behavior
}

// Property returns the spec for a property name.
func (k *Kind) Property(name string) (PropertySpec, bool) {
	for _, p := range k.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertySpec{}, false
}

// CheckProperty validates v against the schema and returns it in canonical form.
func (k *Kind) CheckProperty(name string, v any) (any, error) {
	spec, ok := k.Property(name)
	if !ok {
		return nil, errors.InvalidProperty(k.Name, name, "no such property")
	}
	out, err := spec.coerce(v)
	if err != nil {
		return nil, errors.InvalidProperty(k.Name, name, err.Error())
	}
	return out, nil
}

// ParseProperty reads a property from text, as found in launch descriptions.
func (k *Kind) ParseProperty(name, text string) (any, error) {
	spec, ok := k.Property(name)
	if !ok {
		return nil, errors.InvalidProperty(k.Name, name, "no such property")
	}
	out, err := spec.parse(text)
	if err != nil {
		return nil, errors.InvalidProperty(k.Name, name, err.Error())
	}
	return out, nil
}

// HasStaticPads reports whether the kind has Always pads in direction d.
func (k *Kind) HasStaticPads(d Direction) bool {
	for _, t := range k.Templates {
		if t.Direction == d && t.Presence == Always {
			return true
		}
	}
	return false
}

// Template returns the first template in direction d with the given presence.
func (k *Kind) Template(d Direction, p Presence) (PadTemplate, bool) {
	for _, t := range k.Templates {
		if t.Direction == d && t.Presence == p {
			return t, true
		}
	}
	return PadTemplate{}, false
}

var (
	videoRaw = caps.New("video/x-raw")
	audioRaw = caps.New("audio/x-raw")
)

func srcPad(c caps.Capability) PadTemplate {
	return PadTemplate{Name: "src", Direction: Src, Presence: Always, Caps: c}
}

func sinkPad(c caps.Capability) PadTemplate {
	return PadTemplate{Name: "sink", Direction: Sink, Presence: Always, Caps: c}
}

func ranged(name string, t ValueType, def any, min, max float64) PropertySpec {
	return PropertySpec{Name: name, Type: t, Default: def, Min: min, Max: max, Ranged: true}
}

var syncProp = PropertySpec{Name: "sync", Type: TypeBool, Default: true}

func builtinKinds() []*Kind {
	return []*Kind{
		{
			Name: "videotestsrc", Class: ClassSource, Description: "Video test pattern generator",
			Templates: []PadTemplate{srcPad(videoRaw)},
			Properties: []PropertySpec{
				ranged("pattern", TypeInt, 0, 0, 24),
				{Name: "is-live", Type: TypeBool, Default: false},
				ranged("num-buffers", TypeInt, -1, -1, 1<<31-1),
				ranged("framerate", TypeInt, 30, 1, 1000),
			},
			NewBehavior: newVideoTestSource,
		},
		{
			Name: "audiotestsrc", Class: ClassSource, Description: "Audio test tone generator",
			Templates: []PadTemplate{srcPad(audioRaw)},
			Properties: []PropertySpec{
				ranged("wave", TypeInt, 0, 0, 12),
				ranged("freq", TypeFloat, 440.0, 0, 20000),
				{Name: "is-live", Type: TypeBool, Default: false},
				ranged("num-buffers", TypeInt, -1, -1, 1<<31-1),
			},
			NewBehavior: newAudioTestSource,
		},
		{
			Name: "filesrc", Class: ClassSource, Description: "Read from a local file",
			Templates:   []PadTemplate{srcPad(caps.Any())},
			Properties:  []PropertySpec{{Name: "location", Type: TypeString, Required: true}},
			NewBehavior: newFileSource,
		},
		{
			Name: "uridecodebin", Class: ClassDecoder, Description: "Decode any URI into raw streams",
			Templates: []PadTemplate{
				{Name: "src_%u", Direction: Src, Presence: Sometimes, Caps: caps.Any()},
			},
			Properties:  []PropertySpec{{Name: "uri", Type: TypeString, Required: true}},
			NewBehavior: newDecoder,
		},
		{
			Name: "vertigotv", Class: ClassFilter, Description: "Blending video effect",
			Templates: []PadTemplate{sinkPad(videoRaw), srcPad(videoRaw)},
			Properties: []PropertySpec{
				ranged("speed", TypeFloat, 0.02, -100, 100),
				ranged("zoom-speed", TypeFloat, 1.01, 1.01, 1.1),
			},
			NewBehavior: newPassthrough,
		},
		{
			Name: "identity", Class: ClassFilter, Description: "Pass data through unchanged",
			Templates:   []PadTemplate{sinkPad(caps.Any()), srcPad(caps.Any())},
			Properties:  []PropertySpec{{Name: "silent", Type: TypeBool, Default: true}},
			NewBehavior: newPassthrough,
		},
		{
			Name: "capsfilter", Class: ClassFilter, Description: "Restrict the allowed formats",
			Templates:    []PadTemplate{sinkPad(caps.Any()), srcPad(caps.Any())},
			Properties:   []PropertySpec{{Name: "caps", Type: TypeCaps, Default: caps.Any()}},
			CapsProperty: "caps",
			NewBehavior:  newPassthrough,
		},
		{
			Name: "videoconvert", Class: ClassConverter, Description: "Convert between video formats",
			Templates:   []PadTemplate{sinkPad(videoRaw), srcPad(videoRaw)},
			NewBehavior: newPassthrough,
		},
		{
			Name: "audioconvert", Class: ClassConverter, Description: "Convert between audio formats",
			Templates:   []PadTemplate{sinkPad(audioRaw), srcPad(audioRaw)},
			NewBehavior: newPassthrough,
		},
		{
			Name: "audioresample", Class: ClassConverter, Description: "Resample audio",
			Templates:   []PadTemplate{sinkPad(audioRaw), srcPad(audioRaw)},
			Properties:  []PropertySpec{ranged("quality", TypeInt, 4, 0, 10)},
			NewBehavior: newPassthrough,
		},
		{
			Name: "autovideosink", Class: ClassSink, Description: "Render video on the default output",
			Templates:   []PadTemplate{sinkPad(videoRaw)},
			Properties:  []PropertySpec{syncProp},
			NewBehavior: newSink,
		},
		{
			Name: "autoaudiosink", Class: ClassSink, Description: "Play audio on the default output",
			Templates:   []PadTemplate{sinkPad(audioRaw)},
			Properties:  []PropertySpec{syncProp},
			NewBehavior: newSink,
		},
		{
			Name: "fakesink", Class: ClassSink, Description: "Discard all data",
			Templates: []PadTemplate{sinkPad(caps.Any())},
			Properties: []PropertySpec{
				syncProp,
				{Name: "silent", Type: TypeBool, Default: true},
			},
			NewBehavior: newSink,
		},
	}
}
