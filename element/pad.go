package element

import "github.com/kbukum/mediagraph/caps"

// Direction is the data flow direction of a pad.
type Direction int

const (
	// Src pads produce data.
	Src Direction = iota
	// Sink pads consume data.
	Sink
)

func (d Direction) String() string {
	if d == Sink {
		return "sink"
	}
	return "src"
}

// Presence tells whether a pad exists from creation or appears at runtime.
type Presence int

const (
	Always Presence = iota
	Sometimes
)

func (p Presence) String() string {
	if p == Sometimes {
		return "sometimes"
	}
	return "always"
}

// PadTemplate describes the pads a kind can have. For Sometimes templates
// the name may contain %u, replaced by a running counter.
type PadTemplate struct {
	Name      string
	Direction Direction
	Presence  Presence
	Caps      caps.Capability
}

// Pad is a connection point on an element. Pads are values; the owning
// element holds the authoritative copy.
type Pad struct {
	name       string
	direction  Direction
	presence   Presence
	template   caps.Capability
	negotiated caps.Capability
	link       LinkID
}

func (p Pad) Name() string              { return p.name }
func (p Pad) Direction() Direction      { return p.direction }
func (p Pad) Presence() Presence        { return p.presence }
func (p Pad) Template() caps.Capability { return p.template }

// Negotiated returns the capability agreed when the pad was linked.
// It is empty while the pad is unlinked.
func (p Pad) Negotiated() caps.Capability { return p.negotiated }

// Link returns the link attached to the pad, if any.
func (p Pad) Link() (LinkID, bool) { return p.link, p.link != 0 }

// IsLinked reports whether the pad carries a link.
func (p Pad) IsLinked() bool { return p.link != 0 }
