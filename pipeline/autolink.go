package pipeline

import (
	"context"

	"github.com/kbukum/mediagraph/bus"
	"github.com/kbukum/mediagraph/caps"
	"github.com/kbukum/mediagraph/element"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/observability"
)

// DefaultLinkFamilies are the stream families linked when none are given,
// in priority order.
var DefaultLinkFamilies = []string{"audio", "video"}

// LinkDecision describes what the auto-linker did with one new pad.
type LinkDecision struct {
	Family string
	Pad    element.PadRef
	// Target is the designated entry pad, when one was found.
	Target element.PadRef
	Linked bool
	// Result is only meaningful when Skipped is empty.
	Result PadLinkReturn
	// Skipped holds the reason nothing was attempted.
	Skipped string
}

// AutoLinker connects pads that appear at runtime to the first free entry
// pad of their stream family. Each family is bound to one entry pad, chosen
// the first time a pad of that family shows up. Later pads of the same
// family stay unlinked.
type AutoLinker struct {
	p        *Pipeline
	families []string
	entries  map[string]element.PadRef
	log      *logger.Logger
}

// NewAutoLinker returns a linker for p handling families in priority
// order. No families means DefaultLinkFamilies.
func NewAutoLinker(p *Pipeline, families ...string) *AutoLinker {
	if len(families) == 0 {
		families = DefaultLinkFamilies
	}
	return &AutoLinker{
		p:        p,
		families: append([]string(nil), families...),
		entries:  make(map[string]element.PadRef),
		log:      p.log.WithComponent("autolink"),
	}
}

// Families returns the handled families in priority order.
func (a *AutoLinker) Families() []string { return append([]string(nil), a.families...) }

// HandleDynamicPad links the pad announced by a DynamicPadAdded message.
// Failures are logged and never fatal.
func (a *AutoLinker) HandleDynamicPad(ctx context.Context, m *bus.Message) LinkDecision {
	ctx, span := observability.StartSpan(ctx, observability.SpanDynamicLink)
	defer span.End()

	pad, name, c := m.ParseDynamicPadAdded()
	d := LinkDecision{Family: c.Family(), Pad: pad}
	observability.SetSpanAttribute(ctx, observability.AttrPipeline, a.p.name)
	observability.SetSpanAttribute(ctx, observability.AttrElement, m.Source.Name)
	observability.SetSpanAttribute(ctx, observability.AttrCaps, c.String())

	log := a.log.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldElement, m.Source.Name,
		logger.FieldPad, name,
		logger.FieldCaps, c.String(),
	))
	log.Info("received new pad")

	if !a.handles(d.Family) {
		d.Skipped = "family not handled"
		log.Info("pad is not of a handled family, ignoring")
		observability.SetSpanAttribute(ctx, observability.AttrResult, "skipped")
		return d
	}

	a.p.mu.Lock()
	defer a.p.mu.Unlock()

	if !a.p.padNamedLocked(pad, name) {
		d.Skipped = "stale pad"
		log.Info("pad is gone or was replaced, ignoring")
		observability.SetSpanAttribute(ctx, observability.AttrResult, "skipped")
		return d
	}

	target, ok := a.entries[d.Family]
	if !ok {
		target, ok = a.resolveLocked(d.Family, c)
		if !ok {
			d.Skipped = "no entry pad"
			log.Info("no free entry pad for family, ignoring")
			observability.SetSpanAttribute(ctx, observability.AttrResult, "skipped")
			return d
		}
		a.entries[d.Family] = target
	}
	d.Target = target

	if el, ok := a.p.elements[target.Element]; ok {
		if tp, ok := el.Pad(target.Index); ok && tp.IsLinked() {
			d.Skipped = "already linked"
			log.Info("entry pad is already linked, ignoring")
			observability.SetSpanAttribute(ctx, observability.AttrResult, "skipped")
			return d
		}
	}

	d.Result = a.p.linkPadsLocked(pad, target)
	d.Linked = d.Result == LinkOK
	a.p.metrics.RecordLink(ctx, d.Result.String(), true)
	observability.SetSpanAttribute(ctx, observability.AttrResult, d.Result.String())
	if !d.Linked {
		log.Warn("link failed", logger.Fields("result", d.Result.String()))
		return d
	}
	log.Info("link succeeded", logger.Fields("family", d.Family))
	return d
}

func (a *AutoLinker) handles(family string) bool {
	for _, f := range a.families {
		if f == family {
			return true
		}
	}
	return false
}

// resolveLocked picks the entry pad for family: a free sink pad compatible
// with c and not bound to another family. Pads whose own family matches
// win over generic ones, then insertion order decides.
func (a *AutoLinker) resolveLocked(family string, c caps.Capability) (element.PadRef, bool) {
	taken := make(map[element.PadRef]bool, len(a.entries))
	for _, ref := range a.entries {
		taken[ref] = true
	}

	var generic *element.PadRef
	for _, el := range a.p.orderedLocked() {
		for i, pad := range el.Pads() {
			ref := element.PadRef{Element: el.ID(), Index: i}
			if pad.Direction() != element.Sink || pad.IsLinked() || taken[ref] {
				continue
			}
			pc, _ := el.PadCaps(i)
			if !caps.Compatible(c, pc) {
				continue
			}
			if pc.Family() == family {
				return ref, true
			}
			if generic == nil {
				generic = &ref
			}
		}
	}
	if generic != nil {
		return *generic, true
	}
	return element.PadRef{}, false
}
