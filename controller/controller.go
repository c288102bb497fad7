package controller

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/mediagraph/bus"
	"github.com/kbukum/mediagraph/clock"
	"github.com/kbukum/mediagraph/element"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/observability"
	"github.com/kbukum/mediagraph/pipeline"
)

// Player is what the controller drives: a top-level pipeline with a bus,
// a state machine and time queries.
type Player interface {
	ID() element.ID
	Name() string
	Bus() *bus.Bus
	RequestState(ctx context.Context, target element.State) (element.ChangeReturn, error)
	QueryPosition(format clock.Format) (clock.ClockTime, bool)
	QueryDuration(format clock.Format) (clock.ClockTime, bool)
	QuerySeeking(format clock.Format) (pipeline.SeekingInfo, bool)
	Seek(format clock.Format, flags clock.SeekFlags, target clock.ClockTime) bool
}

var _ Player = (*pipeline.Pipeline)(nil)

// Controller runs playback sessions on a Player. Run must not be called
// concurrently; Snapshot may be called from any goroutine.
type Controller struct {
	player Player
	opts   Options
	log    *logger.Logger

	snap atomic.Pointer[Snapshot]

	// session state, owned by Run
	sessionID  string
	state      element.State
	playing    bool
	terminate  bool
	reason     Reason
	lastErr    error
	position   clock.ClockTime
	duration   clock.ClockTime
	seekQuery  bool
	seekable   bool
	seekDone   bool
	seekResult bool
	messages   int
	started    time.Time
}

// New creates a controller for player.
func New(player Player, opts Options) *Controller {
	opts.ApplyDefaults()
	return &Controller{
		player: player,
		opts:   opts,
		log:    opts.Logger.WithComponent("controller"),
	}
}

// Snapshot returns the latest published session view. It reports false
// until Run has started.
func (c *Controller) Snapshot() (Snapshot, bool) {
	s := c.snap.Load()
	if s == nil {
		return Snapshot{}, false
	}
	return *s, true
}

// Run sets the player to PLAYING and pumps its bus until end of stream, an
// element error, a protocol violation or cancellation of ctx. The player is
// set to NULL on every return path.
//
// The returned error is non-nil only when PLAYING was refused outright.
// Errors reported on the bus end the session normally and are returned in
// Report.Err.
func (c *Controller) Run(ctx context.Context) (Report, error) {
	c.reset()
	ctx = logger.ContextWithSession(ctx, c.sessionID)
	ctx, span := observability.StartSpan(ctx, observability.SpanSession)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrSessionID, c.sessionID)
	observability.SetSpanAttribute(ctx, observability.AttrPipeline, c.player.Name())

	log := c.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldPipeline, c.player.Name()))
	defer c.shutdown(ctx, log)

	c.publish()
	ret, err := c.player.RequestState(ctx, element.Playing)
	if ret == element.Failure {
		if err == nil {
			err = errors.StateChangeFailed(c.player.Name(), c.state.String(), element.Playing.String())
		}
		log.Error("unable to set the pipeline to the playing state", logger.ErrorFields("request_state", err))
		observability.SetSpanError(ctx, err)
		c.lastErr = err
		c.reason = ReasonError
		return c.report(), err
	}
	log.Info("playback requested", logger.Fields("result", ret.String()))

	timeout := c.opts.waitTimeout()
	mask := c.opts.mask()
	b := c.player.Bus()
	for !c.terminate {
		msg := b.TimedPopFiltered(ctx, timeout, mask)
		switch {
		case msg != nil:
			c.messages++
			c.dispatch(ctx, log, msg)
		case ctx.Err() != nil:
			log.Info("session cancelled")
			c.reason = ReasonCancelled
			c.terminate = true
		case c.playing:
			c.poll(ctx, log)
		}
		c.publish()
	}

	if c.lastErr != nil {
		observability.SetSpanError(ctx, c.lastErr)
	}
	observability.SetSpanAttribute(ctx, observability.AttrResult, string(c.reason))
	return c.report(), nil
}

func (c *Controller) reset() {
	c.sessionID = uuid.NewString()
	c.state = element.Null
	c.playing = false
	c.terminate = false
	c.reason = ""
	c.lastErr = nil
	c.position = clock.None
	c.duration = clock.None
	c.seekQuery = false
	c.seekable = false
	c.seekDone = false
	c.seekResult = false
	c.messages = 0
	c.started = time.Now()
}

func (c *Controller) dispatch(ctx context.Context, log *logger.Logger, msg *bus.Message) {
	switch msg.Type {
	case bus.MessageError:
		err, debug := msg.ParseError()
		if debug == "" {
			debug = "none"
		}
		if err == nil {
			err = errors.ElementError(msg.Source.Name, "unknown error", debug)
		}
		log.Error("error received from element", logger.Fields(
			logger.FieldElement, msg.Source.Name,
			logger.FieldError, err.Error(),
			"debug", debug,
		))
		c.lastErr = err
		c.reason = ReasonError
		c.terminate = true

	case bus.MessageEOS:
		log.Info("end-of-stream reached", logger.Fields(logger.FieldElement, msg.Source.Name))
		c.reason = ReasonEOS
		c.terminate = true

	case bus.MessageStateChanged:
		if msg.Source.ID != c.player.ID() {
			return
		}
		oldState, newState, _ := msg.ParseStateChanged()
		log.Info("pipeline state changed", logger.Fields(
			"from", oldState.String(),
			logger.FieldState, newState.String(),
		))
		c.state = newState
		c.playing = newState == element.Playing
		if c.playing && !c.seekQuery {
			c.querySeeking(ctx, log)
		}

	case bus.MessageDurationChanged:
		c.duration = clock.None

	case bus.MessageDynamicPadAdded:
		if c.opts.PadHandler != nil {
			c.opts.PadHandler(ctx, msg)
		}

	default:
		err := errors.UnexpectedMessage(msg.Type.String())
		log.Error("unexpected message received", logger.Fields(
			logger.FieldMessage, msg.Type.String(),
			logger.FieldElement, msg.Source.Name,
		))
		c.lastErr = err
		c.reason = ReasonUnexpected
		c.terminate = true
	}
}

// querySeeking runs once per session, on the first PLAYING.
func (c *Controller) querySeeking(ctx context.Context, log *logger.Logger) {
	c.seekQuery = true
	info, ok := c.player.QuerySeeking(clock.FormatTime)
	if !ok {
		log.Error("seeking query failed")
		c.opts.Metrics.RecordQueryFailure(ctx, "seeking")
		return
	}
	c.seekable = info.Seekable
	if info.Seekable {
		log.Info("seeking is ENABLED", logger.Fields("from", info.Start.String(), "to", info.End.String()))
	} else {
		log.Info("seeking is DISABLED for this stream")
	}
}

func (c *Controller) poll(ctx context.Context, log *logger.Logger) {
	pos, ok := c.player.QueryPosition(clock.FormatTime)
	if !ok {
		log.Warn("could not query current position")
		c.opts.Metrics.RecordQueryFailure(ctx, "position")
	} else {
		c.position = pos
	}

	if !c.duration.IsValid() {
		if d, ok := c.player.QueryDuration(clock.FormatTime); ok {
			c.duration = d
		} else {
			log.Warn("could not query stream duration")
			c.opts.Metrics.RecordQueryFailure(ctx, "duration")
		}
	}

	if ok {
		log.Debug("position", logger.Fields(
			logger.FieldPosition, pos.String(),
			"duration", c.duration.String(),
		))
	}

	if ok && c.opts.SeekEnabled && c.seekable && !c.seekDone && pos > clock.FromDuration(c.opts.SeekThreshold) {
		c.seek(ctx, log)
	}
}

func (c *Controller) seek(ctx context.Context, log *logger.Logger) {
	ctx, span := observability.StartSpan(ctx, observability.SpanSeek)
	defer span.End()

	target := clock.FromDuration(c.opts.SeekTarget)
	log.Info("threshold reached, performing seek", logger.Fields(
		logger.FieldPosition, target.String(),
		"flags", c.opts.SeekFlags.String(),
	))
	c.seekResult = c.player.Seek(clock.FormatTime, c.opts.SeekFlags, target)
	c.seekDone = true

	result := "ok"
	if !c.seekResult {
		result = "failed"
		log.Warn("seek failed")
	}
	c.opts.Metrics.RecordSeek(ctx, result)
	observability.SetSpanAttribute(ctx, observability.AttrResult, result)
}

// shutdown sets the player to NULL even when ctx is already cancelled.
func (c *Controller) shutdown(ctx context.Context, log *logger.Logger) {
	if _, err := c.player.RequestState(context.WithoutCancel(ctx), element.Null); err != nil {
		log.Warn("shutdown reported an error", logger.ErrorFields("request_state", err))
	}
	c.state = element.Null
	c.playing = false
	c.terminate = true
	c.publish()
	log.Info("session finished", logger.Fields(
		"reason", string(c.reason),
		logger.FieldDuration, time.Since(c.started).Milliseconds(),
	))
}

func (c *Controller) report() Report {
	return Report{
		SessionID:     c.sessionID,
		Reason:        c.reason,
		Err:           c.lastErr,
		Position:      c.position,
		Duration:      c.duration,
		Messages:      c.messages,
		SeekIssued:    c.seekDone,
		SeekSucceeded: c.seekResult,
	}
}

func (c *Controller) publish() {
	s := &Snapshot{
		SessionID:   c.sessionID,
		Pipeline:    c.player.Name(),
		State:       c.state.String(),
		Playing:     c.playing,
		Position:    c.position,
		Duration:    c.duration,
		Seekable:    c.seekable,
		SeekEnabled: c.opts.SeekEnabled && c.seekable,
		SeekDone:    c.seekDone,
		Terminated:  c.terminate,
		UpdatedAt:   time.Now(),
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	prev := c.snap.Swap(s)
	if c.opts.OnSnapshot != nil && (prev == nil || !prev.sameAs(s)) {
		c.opts.OnSnapshot(*s)
	}
}
