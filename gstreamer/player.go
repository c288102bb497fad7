//go:build gst

package gstreamer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-gst/go-gst/gst"

	"github.com/kbukum/mediagraph/bus"
	"github.com/kbukum/mediagraph/clock"
	"github.com/kbukum/mediagraph/controller"
	"github.com/kbukum/mediagraph/element"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/pipeline"
)

// pumpTimeout bounds each pop on the GStreamer bus so the pump notices
// shutdown.
const pumpTimeout = 50 * time.Millisecond

var initOnce sync.Once

// Init initializes GStreamer. Safe to call multiple times.
func Init() {
	initOnce.Do(func() {
		gst.Init(nil)
	})
}

var _ controller.Player = (*Player)(nil)

// Player is a controller.Player backed by a real GStreamer pipeline.
// Messages from the GStreamer bus are translated onto a mediagraph bus
// while the pipeline is above NULL.
type Player struct {
	id       element.ID
	name     string
	pipeline *gst.Pipeline
	bus      *bus.Bus
	log      *logger.Logger

	mu     sync.Mutex
	ids    map[string]element.ID
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPlaybin creates a playbin player for uri.
func NewPlaybin(uri string, log *logger.Logger) (*Player, error) {
	if uri == "" {
		return nil, errors.InvalidProperty("playbin", "uri", "required property is not set")
	}
	return NewFromLaunch(fmt.Sprintf("playbin uri=%q", uri), log)
}

// NewFromLaunch creates a player from a gst-launch description.
func NewFromLaunch(text string, log *logger.Logger) (*Player, error) {
	Init()
	p, err := gst.NewPipelineFromString(text)
	if err != nil {
		return nil, errors.InvalidDescription(err.Error()).WithCause(err)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	name := p.GetName()
	return &Player{
		id:       element.NewID(),
		name:     name,
		pipeline: p,
		bus:      bus.New(),
		log:      log.WithComponent("gstreamer").WithFields(logger.Fields(logger.FieldPipeline, name)),
		ids:      make(map[string]element.ID),
	}, nil
}

func (p *Player) ID() element.ID { return p.id }
func (p *Player) Name() string   { return p.name }
func (p *Player) Bus() *bus.Bus  { return p.bus }

// RequestState sets the GStreamer pipeline state. NULL never fails and
// stops the message pump.
func (p *Player) RequestState(_ context.Context, target element.State) (element.ChangeReturn, error) {
	if target == element.Null {
		if err := p.pipeline.SetState(gst.StateNull); err != nil {
			p.log.Warn("setting NULL reported an error", logger.ErrorFields("set_state", err))
		}
		p.stopPump()
		return element.Success, nil
	}

	gs, ok := toGst(target)
	if !ok {
		return element.Failure, errors.InvalidInput("state", "unsupported target "+target.String())
	}
	p.startPump()
	if err := p.pipeline.SetState(gs); err != nil {
		return element.Failure, errors.StateChangeFailed(p.name, p.currentState().String(), target.String()).WithCause(err)
	}
	return element.Success, nil
}

func (p *Player) QueryPosition(format clock.Format) (clock.ClockTime, bool) {
	if format != clock.FormatTime {
		return clock.None, false
	}
	ok, pos := p.pipeline.QueryPosition(gst.FormatTime)
	if !ok || pos < 0 {
		return clock.None, false
	}
	return clock.ClockTime(pos), true
}

func (p *Player) QueryDuration(format clock.Format) (clock.ClockTime, bool) {
	if format != clock.FormatTime {
		return clock.None, false
	}
	ok, d := p.pipeline.QueryDuration(gst.FormatTime)
	if !ok || d < 0 {
		return clock.None, false
	}
	return clock.ClockTime(d), true
}

func (p *Player) QuerySeeking(format clock.Format) (pipeline.SeekingInfo, bool) {
	if format != clock.FormatTime {
		return pipeline.SeekingInfo{}, false
	}
	q := gst.NewSeekingQuery(gst.FormatTime)
	if !p.pipeline.Query(q) {
		return pipeline.SeekingInfo{}, false
	}
	var f gst.Format
	seekable, start, end := q.ParseSeeking(&f)
	info := pipeline.SeekingInfo{Seekable: seekable, Start: clock.ClockTime(start), End: clock.ClockTime(end)}
	if end < 0 {
		info.End = clock.None
	}
	return info, true
}

func (p *Player) Seek(format clock.Format, flags clock.SeekFlags, target clock.ClockTime) bool {
	if format != clock.FormatTime || !target.IsValid() {
		return false
	}
	return p.pipeline.SeekSimple(int64(target), gst.FormatTime, toGstSeekFlags(flags))
}

func (p *Player) currentState() element.State {
	return fromGst(p.pipeline.GetCurrentState())
}

func (p *Player) startPump() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)
	go p.pump(ctx)
}

func (p *Player) stopPump() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
		p.wg.Wait()
	}
}

// pump moves messages from the GStreamer bus onto the mediagraph bus.
func (p *Player) pump(ctx context.Context) {
	defer p.wg.Done()
	gbus := p.pipeline.GetPipelineBus()
	if gbus == nil {
		p.log.Error("pipeline has no bus")
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		msg := gbus.TimedPop(gst.ClockTime(pumpTimeout))
		if msg == nil {
			continue
		}
		if m := p.translate(msg); m != nil {
			p.bus.Post(m)
		}
	}
}

func (p *Player) translate(msg *gst.Message) *bus.Message {
	src := p.sourceOf(msg.Source())
	switch msg.Type() {
	case gst.MessageError:
		gerr := msg.ParseError()
		if gerr == nil {
			return bus.NewError(src, errors.ElementError(src.Name, "unknown error", ""), "")
		}
		debug := gerr.DebugString()
		return bus.NewError(src, errors.ElementError(src.Name, gerr.Error(), debug), debug)
	case gst.MessageEOS:
		return bus.NewEOS(src)
	case gst.MessageStateChanged:
		oldState, newState := msg.ParseStateChanged()
		return bus.NewStateChanged(src, fromGst(oldState), fromGst(newState), element.VoidPending)
	case gst.MessageDurationChanged:
		return bus.NewDurationChanged(src)
	case gst.MessageWarning:
		if gwarn := msg.ParseWarning(); gwarn != nil {
			p.log.Warn("warning from element", logger.Fields(
				logger.FieldElement, src.Name,
				"warning", gwarn.Error(),
			))
		}
	}
	return nil
}

// sourceOf gives every GStreamer object name a stable ID. The pipeline
// itself maps to the player's ID.
func (p *Player) sourceOf(name string) bus.Source {
	if name == p.name {
		return bus.Source{ID: p.id, Name: name}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.ids[name]
	if !ok {
		id = element.NewID()
		p.ids[name] = id
	}
	return bus.Source{ID: id, Name: name}
}

func toGst(s element.State) (gst.State, bool) {
	switch s {
	case element.Null:
		return gst.StateNull, true
	case element.Ready:
		return gst.StateReady, true
	case element.Paused:
		return gst.StatePaused, true
	case element.Playing:
		return gst.StatePlaying, true
	}
	return gst.StateVoidPending, false
}

func fromGst(s gst.State) element.State {
	switch s {
	case gst.StateNull:
		return element.Null
	case gst.StateReady:
		return element.Ready
	case gst.StatePaused:
		return element.Paused
	case gst.StatePlaying:
		return element.Playing
	}
	return element.VoidPending
}

func toGstSeekFlags(f clock.SeekFlags) gst.SeekFlags {
	out := gst.SeekFlagNone
	if f.Has(clock.SeekFlagFlush) {
		out |= gst.SeekFlagFlush
	}
	if f.Has(clock.SeekFlagAccurate) {
		out |= gst.SeekFlagAccurate
	}
	if f.Has(clock.SeekFlagKeyUnit) {
		out |= gst.SeekFlagKeyUnit
	}
	if f.Has(clock.SeekFlagSegment) {
		out |= gst.SeekFlagSegment
	}
	return out
}
