package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/kbukum/mediagraph/caps"
	"github.com/kbukum/mediagraph/element"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/logger"
)

// PadLinkReturn is the outcome of linking two pads.
type PadLinkReturn int

const (
	LinkOK PadLinkReturn = iota
	// LinkWrongHierarchy means a pad or its element is not in this pipeline.
	LinkWrongHierarchy
	// LinkWasLinked means one of the pads already carries a link.
	LinkWasLinked
	// LinkWrongDirection means src is not a src pad or sink is not a sink pad.
	LinkWrongDirection
	// LinkNoFormat means the pad capabilities do not intersect.
	LinkNoFormat
	// LinkRefused means the link would close a cycle.
	LinkRefused
)

func (r PadLinkReturn) String() string {
	switch r {
	case LinkOK:
		return "ok"
	case LinkWrongHierarchy:
		return "wrong-hierarchy"
	case LinkWasLinked:
		return "was-linked"
	case LinkWrongDirection:
		return "wrong-direction"
	case LinkNoFormat:
		return "no-format"
	case LinkRefused:
		return "refused"
	default:
		return fmt.Sprintf("PadLinkReturn(%d)", int(r))
	}
}

// Link connects a src pad to a sink pad with the capability both agreed on.
type Link struct {
	ID   element.LinkID
	Src  element.PadRef
	Sink element.PadRef
	Caps caps.Capability
}

// LinkPads links src to sink.
func (p *Pipeline) LinkPads(src, sink element.PadRef) PadLinkReturn {
	p.mu.Lock()
	defer p.mu.Unlock()
	ret := p.linkPadsLocked(src, sink)
	p.metrics.RecordLink(context.Background(), ret.String(), false)
	return ret
}

func (p *Pipeline) linkPadsLocked(src, sink element.PadRef) PadLinkReturn {
	srcEl, ok := p.elements[src.Element]
	if !ok {
		return LinkWrongHierarchy
	}
	sinkEl, ok := p.elements[sink.Element]
	if !ok {
		return LinkWrongHierarchy
	}
	srcPad, ok := srcEl.Pad(src.Index)
	if !ok {
		return LinkWrongHierarchy
	}
	sinkPad, ok := sinkEl.Pad(sink.Index)
	if !ok {
		return LinkWrongHierarchy
	}
	if srcPad.Direction() != element.Src || sinkPad.Direction() != element.Sink {
		return LinkWrongDirection
	}
	if srcPad.IsLinked() || sinkPad.IsLinked() {
		return LinkWasLinked
	}

	srcCaps, _ := srcEl.PadCaps(src.Index)
	sinkCaps, _ := sinkEl.PadCaps(sink.Index)
	negotiated, ok := caps.Intersect(srcCaps, sinkCaps)
	if !ok {
		return LinkNoFormat
	}
	if src.Element == sink.Element || reaches(p.edgesLocked(), sink.Element, src.Element) {
		return LinkRefused
	}

	p.nextLink++
	l := &Link{ID: p.nextLink, Src: src, Sink: sink, Caps: negotiated}
	p.links[l.ID] = l
	srcEl.BindPad(src.Index, l.ID, negotiated)
	sinkEl.BindPad(sink.Index, l.ID, negotiated)

	p.log.Debug("pads linked", logger.Fields(
		logger.FieldElement, srcEl.Name(),
		logger.FieldPad, srcPad.Name(),
		"peer", sinkEl.Name()+"."+sinkPad.Name(),
		logger.FieldCaps, negotiated.String(),
	))

	p.evaluatePrerollLocked()
	return LinkOK
}

// LinkElements links the first compatible pair of unlinked Always pads of
// a and b.
func (p *Pipeline) LinkElements(a, b *element.Element) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.linkElementsLocked(a, b)
}

// LinkMany links each element to the next one.
func (p *Pipeline) LinkMany(els ...*element.Element) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i+1 < len(els); i++ {
		if err := p.linkElementsLocked(els[i], els[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) linkElementsLocked(a, b *element.Element) error {
	if _, ok := p.elements[a.ID()]; !ok {
		return errors.LinkFailed(a.Name(), b.Name(), "source element is not in the pipeline")
	}
	if _, ok := p.elements[b.ID()]; !ok {
		return errors.LinkFailed(a.Name(), b.Name(), "sink element is not in the pipeline")
	}
	srcs := freeAlwaysPads(a, element.Src)
	sinks := freeAlwaysPads(b, element.Sink)
	if len(srcs) == 0 {
		return errors.LinkFailed(a.Name(), b.Name(), "no free static src pad")
	}
	if len(sinks) == 0 {
		return errors.LinkFailed(a.Name(), b.Name(), "no free static sink pad")
	}

	last := LinkNoFormat
	for _, si := range srcs {
		sc, _ := a.PadCaps(si)
		for _, di := range sinks {
			dc, _ := b.PadCaps(di)
			if !caps.Compatible(sc, dc) {
				continue
			}
			last = p.linkPadsLocked(element.PadRef{Element: a.ID(), Index: si}, element.PadRef{Element: b.ID(), Index: di})
			p.metrics.RecordLink(context.Background(), last.String(), false)
			if last == LinkOK {
				return nil
			}
		}
	}
	return errors.LinkFailed(a.Name(), b.Name(), last.String())
}

func freeAlwaysPads(el *element.Element, d element.Direction) []int {
	var idx []int
	for i, pad := range el.Pads() {
		if pad.Presence() == element.Always && pad.Direction() == d && !pad.IsLinked() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Links returns the pipeline's links ordered by ID.
func (p *Pipeline) Links() []Link {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Link, 0, len(p.links))
	for _, l := range p.links {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (p *Pipeline) edgesLocked() []edge {
	edges := make([]edge, 0, len(p.links))
	for _, l := range p.links {
		edges = append(edges, edge{From: l.Src.Element, To: l.Sink.Element})
	}
	return edges
}

// unlinkLocked destroys a link and clears it from whichever pads still
// carry it.
func (p *Pipeline) unlinkLocked(id element.LinkID) {
	l, ok := p.links[id]
	if !ok {
		return
	}
	delete(p.links, id)
	for _, ref := range []element.PadRef{l.Src, l.Sink} {
		el, ok := p.elements[ref.Element]
		if !ok {
			continue
		}
		if pad, ok := el.Pad(ref.Index); ok {
			if lid, _ := pad.Link(); lid == id {
				el.UnbindPad(ref.Index)
			}
		}
	}
}

// padNamedLocked reports whether ref still resolves to a pad called name.
// Pad indices are reused once runtime pads are dropped.
func (p *Pipeline) padNamedLocked(ref element.PadRef, name string) bool {
	el, ok := p.elements[ref.Element]
	if !ok {
		return false
	}
	pad, ok := el.Pad(ref.Index)
	return ok && pad.Name() == name
}

// dropSometimesPadsLocked removes the runtime pads of el together with the
// links they carried.
func (p *Pipeline) dropSometimesPadsLocked(el *element.Element) {
	for _, id := range el.RemoveSometimesPads() {
		p.unlinkLocked(id)
	}
}
