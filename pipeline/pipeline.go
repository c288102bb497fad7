package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/mediagraph/bus"
	"github.com/kbukum/mediagraph/clock"
	"github.com/kbukum/mediagraph/element"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/observability"
)

const defaultEOSCheckInterval = 50 * time.Millisecond

var pipelineCount atomic.Uint64

// Pipeline owns a set of elements, the links between them and a bus. The
// aggregate state never exceeds what every child has confirmed.
type Pipeline struct {
	mu       sync.Mutex
	id       element.ID
	name     string
	instance string

	elements map[element.ID]*element.Element
	order    []element.ID
	links    map[element.LinkID]*Link
	nextLink element.LinkID

	bus     *bus.Bus
	clock   clock.Clock
	log     *logger.Logger
	metrics *observability.PipelineMetrics

	state     element.State
	pending   element.State
	target    element.State
	asyncStep element.StateChange

	runCtx context.Context
	cancel context.CancelFunc
	tasks  map[element.ID][]context.CancelFunc
	wg     sync.WaitGroup

	segmentStart clock.ClockTime
	accrued      clock.ClockTime
	runningSince clock.ClockTime
	eosPosted    bool
	eosInterval  time.Duration
	watchEpoch   uint64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock that drives running time. Defaults to the
// system clock.
func WithClock(c clock.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithLogger sets the base logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithMetrics sets the instruments state changes and links are recorded on.
func WithMetrics(m *observability.PipelineMetrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithEOSCheckInterval sets how often a playing pipeline checks whether
// its position reached the duration.
func WithEOSCheckInterval(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.eosInterval = d
		}
	}
}

// New creates an empty pipeline in NULL. An empty name is replaced by
// pipelineN.
func New(name string, opts ...Option) *Pipeline {
	n := pipelineCount.Add(1)
	if name == "" {
		name = fmt.Sprintf("pipeline%d", n-1)
	}
	p := &Pipeline{
		id:           element.NewID(),
		name:         name,
		instance:     uuid.NewString(),
		elements:     make(map[element.ID]*element.Element),
		links:        make(map[element.LinkID]*Link),
		bus:          bus.New(),
		state:        element.Null,
		pending:      element.VoidPending,
		target:       element.Null,
		tasks:        make(map[element.ID][]context.CancelFunc),
		runningSince: clock.None,
		eosInterval:  defaultEOSCheckInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.clock == nil {
		p.clock = clock.NewSystemClock()
	}
	if p.log == nil {
		p.log = logger.GetGlobalLogger()
	}
	if p.metrics == nil {
		p.metrics = observability.NoopPipelineMetrics()
	}
	p.log = p.log.WithComponent("pipeline").WithFields(map[string]any{
		logger.FieldPipeline: p.name,
		"instance":           p.instance,
	})
	metrics := p.metrics
	p.bus.SetObserver(func(m *bus.Message) {
		metrics.RecordMessage(context.Background(), m.Type.String())
	})
	return p
}

// ID identifies the pipeline as a message source.
func (p *Pipeline) ID() element.ID { return p.id }

func (p *Pipeline) Name() string { return p.name }

// Instance is a unique identifier for this pipeline object, used in logs.
func (p *Pipeline) Instance() string { return p.instance }

func (p *Pipeline) Bus() *bus.Bus { return p.bus }

// Logger carries the pipeline's name and instance fields.
func (p *Pipeline) Logger() *logger.Logger { return p.log }

// State returns the confirmed state and the state an async step is heading
// for, or VoidPending.
func (p *Pipeline) State() (current, pending element.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.pending
}

// Add takes ownership of els. Elements can only be added while the
// pipeline is in NULL, names must be unique and an element belongs to at
// most one pipeline.
func (p *Pipeline) Add(els ...*element.Element) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != element.Null || p.pending != element.VoidPending {
		return errors.InvalidInput("pipeline", "elements can only be added in NULL").
			WithDetail(logger.FieldPipeline, p.name)
	}
	names := make(map[string]bool, len(els))
	for _, el := range els {
		if _, ok := p.elements[el.ID()]; ok {
			return errors.InvalidInput("element", "already in the pipeline").WithDetail(logger.FieldElement, el.Name())
		}
		if owner, ok := el.Owner(); ok && owner != p.id {
			return ownedElsewhere(el)
		}
		if names[el.Name()] || p.byNameLocked(el.Name()) != nil {
			return errors.InvalidInput("element", "name already used").WithDetail(logger.FieldElement, el.Name())
		}
		names[el.Name()] = true
	}
	for i, el := range els {
		if !el.Adopt(p.id) {
			for _, done := range els[:i] {
				done.Orphan(p.id)
			}
			return ownedElsewhere(el)
		}
	}
	for _, el := range els {
		p.elements[el.ID()] = el
		p.order = append(p.order, el.ID())
		p.log.Debug("element added", logger.Fields(
			logger.FieldElement, el.Name(),
			logger.FieldKind, el.KindName(),
		))
	}
	return nil
}

func ownedElsewhere(el *element.Element) error {
	return errors.InvalidInput("element", "owned by another pipeline").WithDetail(logger.FieldElement, el.Name())
}

// Remove drives el to NULL, destroys its links and gives up ownership.
func (p *Pipeline) Remove(el *element.Element) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.elements[el.ID()]; !ok {
		return errors.NotFound("element", el.Name())
	}
	p.shutdownElementLocked(context.Background(), el)
	for _, pad := range el.Pads() {
		if id, ok := pad.Link(); ok {
			p.unlinkLocked(id)
		}
	}
	delete(p.elements, el.ID())
	el.Orphan(p.id)
	for i, id := range p.order {
		if id == el.ID() {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	p.log.Debug("element removed", logger.Fields(
		logger.FieldElement, el.Name(),
		logger.FieldKind, el.KindName(),
	))
	return nil
}

// Element returns a child by ID.
func (p *Pipeline) Element(id element.ID) (*element.Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[id]
	return el, ok
}

// ElementByName returns a child by name.
func (p *Pipeline) ElementByName(name string) (*element.Element, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el := p.byNameLocked(name)
	return el, el != nil
}

// Elements returns the children in insertion order.
func (p *Pipeline) Elements() []*element.Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*element.Element, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.elements[id])
	}
	return out
}

func (p *Pipeline) byNameLocked(name string) *element.Element {
	for _, id := range p.order {
		if el := p.elements[id]; el.Name() == name {
			return el
		}
	}
	return nil
}

func (p *Pipeline) source() bus.Source {
	return bus.Source{ID: p.id, Name: p.name}
}

func sourceOf(el *element.Element) bus.Source {
	return bus.Source{ID: el.ID(), Name: el.Name()}
}

func (p *Pipeline) elementLogger(el *element.Element) *logger.Logger {
	return p.log.WithElement(el.Name(), el.KindName())
}
