package element

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kbukum/mediagraph/caps"
	"github.com/kbukum/mediagraph/errors"
)

// Element is a named processing node. It is created by a Factory and owned
// by at most one pipeline.
type Element struct {
	mu       sync.RWMutex
	id       ID
	name     string
	kind     *Kind
	props    map[string]any
	current  State
	pending  State
	pads     []Pad
	padCount map[string]int
	behavior Behavior
	// owner is the ID of the pipeline holding the element, 0 when none.
	owner atomic.Uint64
}

func newElement(kind *Kind, name string) *Element {
	el := &Element{
		id:       NewID(),
		name:     name,
		kind:     kind,
		props:    make(map[string]any, len(kind.Properties)),
		current:  Null,
		pending:  VoidPending,
		padCount: make(map[string]int),
	}
	for _, p := range kind.Properties {
		if p.Default != nil {
			el.props[p.Name] = p.Default
		}
	}
	for _, t := range kind.Templates {
		if t.Presence == Always {
			el.pads = append(el.pads, Pad{name: t.Name, direction: t.Direction, presence: Always, template: t.Caps})
		}
	}
	return el
}

// Adopt makes parent the owner of e. It fails when another parent already
// owns it.
func (e *Element) Adopt(parent ID) bool {
	return e.owner.CompareAndSwap(0, uint64(parent)) || e.owner.Load() == uint64(parent)
}

// Orphan gives up ownership if parent holds it.
func (e *Element) Orphan(parent ID) { e.owner.CompareAndSwap(uint64(parent), 0) }

// Owner returns the owning parent, if any.
func (e *Element) Owner() (ID, bool) {
	id := ID(e.owner.Load())
	return id, id != 0
}

func (e *Element) ID() ID           { return e.id }
func (e *Element) Name() string     { return e.name }
func (e *Element) Kind() *Kind      { return e.kind }
func (e *Element) KindName() string { return e.kind.Name }
func (e *Element) Class() Class     { return e.kind.Class }

// Behavior returns the runtime behavior, for optional interface checks.
func (e *Element) Behavior() Behavior { return e.behavior }

func (e *Element) String() string { return fmt.Sprintf("%s (%s)", e.name, e.kind.Name) }

// Property returns a property value, or its default when never set.
func (e *Element) Property(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.props[name]
	return v, ok
}

// SetProperty validates value against the kind schema and stores it.
func (e *Element) SetProperty(name string, value any) error {
	v, err := e.kind.CheckProperty(name, value)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.props[name] = v
	e.mu.Unlock()
	return nil
}

func (e *Element) intProperty(name string, def int) int {
	if v, ok := e.Property(name); ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return def
}

func (e *Element) boolProperty(name string) bool {
	v, _ := e.Property(name)
	b, _ := v.(bool)
	return b
}

// State returns the current state and the state being waited for, if any.
func (e *Element) State() (current, pending State) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current, e.pending
}

// Pads returns a copy of the element's pads in index order.
func (e *Element) Pads() []Pad {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Pad(nil), e.pads...)
}

// Pad returns the pad at index i.
func (e *Element) Pad(i int) (Pad, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if i < 0 || i >= len(e.pads) {
		return Pad{}, false
	}
	return e.pads[i], true
}

// PadRef looks a pad up by name.
func (e *Element) PadRef(name string) (PadRef, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for i, p := range e.pads {
		if p.name == name {
			return PadRef{Element: e.id, Index: i}, true
		}
	}
	return PadRef{}, false
}

// PadCaps returns what pad i can carry: its template capability, narrowed
// by the kind's caps property if it has one.
func (e *Element) PadCaps(i int) (caps.Capability, bool) {
	p, ok := e.Pad(i)
	if !ok {
		return caps.Capability{}, false
	}
	if e.kind.CapsProperty == "" {
		return p.template, true
	}
	v, _ := e.Property(e.kind.CapsProperty)
	filter, ok := v.(caps.Capability)
	if !ok || filter.IsEmpty() {
		return p.template, true
	}
	narrowed, ok := caps.Intersect(p.template, filter)
	if !ok {
		return caps.Capability{}, true
	}
	return narrowed, true
}

// AddPad appends a pad instantiated from tmpl and returns its index.
func (e *Element) AddPad(tmpl PadTemplate, c caps.Capability) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.padCount[tmpl.Name]
	e.padCount[tmpl.Name] = n + 1
	e.pads = append(e.pads, Pad{
		name:      padName(tmpl.Name, n),
		direction: tmpl.Direction,
		presence:  tmpl.Presence,
		template:  c,
	})
	return len(e.pads) - 1
}

// RemoveSometimesPads drops every runtime pad and returns the links they
// carried. Always pads keep their indices.
func (e *Element) RemoveSometimesPads() []LinkID {
	e.mu.Lock()
	defer e.mu.Unlock()
	var links []LinkID
	kept := e.pads[:0]
	for _, p := range e.pads {
		if p.presence == Sometimes {
			if p.link != 0 {
				links = append(links, p.link)
			}
			continue
		}
		kept = append(kept, p)
	}
	e.pads = kept
	for k := range e.padCount {
		delete(e.padCount, k)
	}
	return links
}

// BindPad records that pad i carries link with the negotiated capability.
func (e *Element) BindPad(i int, link LinkID, negotiated caps.Capability) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pads[i].link = link
	e.pads[i].negotiated = negotiated
}

// UnbindPad clears the link on pad i.
func (e *Element) UnbindPad(i int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < len(e.pads) {
		e.pads[i].link = 0
		e.pads[i].negotiated = caps.Capability{}
	}
}

// ChangeState performs one adjacent state step through the kind behavior.
// On Success and NoPreroll the new state is committed; on Async it becomes
// pending until CompleteAsync or AbortAsync.
func (e *Element) ChangeState(ctx context.Context, host Host, change StateChange) (ChangeReturn, error) {
	e.mu.RLock()
	current := e.current
	e.mu.RUnlock()
	if current != change.From {
		return Failure, errors.StateChangeFailed(e.name, change.From.String(), change.To.String()).
			WithDetail("current", current.String())
	}
	if change == (StateChange{From: Null, To: Ready}) {
		if err := e.checkRequired(); err != nil {
			return Failure, err
		}
	}

	ret, err := e.behavior.ChangeState(ctx, e, host, change)

	e.mu.Lock()
	defer e.mu.Unlock()
	switch ret {
	case Success, NoPreroll:
		e.current = change.To
		e.pending = VoidPending
	case Async:
		e.pending = change.To
	}
	return ret, err
}

func (e *Element) checkRequired() error {
	for _, p := range e.kind.Properties {
		if !p.Required {
			continue
		}
		if v, _ := e.Property(p.Name); isEmptyValue(v) {
			return errors.InvalidProperty(e.kind.Name, p.Name, "required property is not set").
				WithDetail("element", e.name)
		}
	}
	return nil
}

// CompleteAsync commits a pending state and returns the completed step.
func (e *Element) CompleteAsync() (StateChange, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == VoidPending {
		return StateChange{}, false
	}
	change := StateChange{From: e.current, To: e.pending}
	e.current = e.pending
	e.pending = VoidPending
	return change, true
}

// AbortAsync drops a pending state, leaving the current state unchanged.
func (e *Element) AbortAsync() {
	e.mu.Lock()
	e.pending = VoidPending
	e.mu.Unlock()
}

// ForceState sets the state without running the behavior. Pipelines use it
// to roll back and to tear down.
func (e *Element) ForceState(s State) {
	e.mu.Lock()
	e.current = s
	e.pending = VoidPending
	e.mu.Unlock()
}
