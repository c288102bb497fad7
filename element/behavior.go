package element

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kbukum/mediagraph/caps"
	"github.com/kbukum/mediagraph/clock"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/probe"
)

// Behavior is the runtime part of an element. ChangeState runs with the
// owning pipeline locked: it must not call Host methods other than Go.
// Work started through Host.Go may call any Host method.
type Behavior interface {
	ChangeState(ctx context.Context, el *Element, host Host, change StateChange) (ChangeReturn, error)
}

// Host is the element's view of its pipeline.
type Host interface {
	// AddPad creates a Sometimes pad on el and announces it on the bus.
	AddPad(el ID, tmpl PadTemplate, c caps.Capability) (PadRef, error)
	// NoMorePads signals that el finished creating pads.
	NoMorePads(el ID)
	// PostError reports an asynchronous failure of el.
	PostError(el ID, err error, debug string)
	// PostDurationChanged tells listeners el's duration may have changed.
	PostDurationChanged(el ID)
	// Go runs fn on a goroutine owned by the pipeline. ctx is cancelled when
	// the pipeline returns to NULL, which then waits for fn to return.
	Go(el ID, fn func(ctx context.Context))
}

// Env carries the collaborators behaviors may need.
type Env struct {
	Prober probe.Prober
	Log    *logger.Logger
}

// DurationReporter is implemented by behaviors that know their stream length.
type DurationReporter interface {
	Duration() (clock.ClockTime, bool)
}

// SeekReporter is implemented by behaviors that can answer seeking queries.
type SeekReporter interface {
	Seeking() (seekable bool, keyframeInterval clock.ClockTime)
}

// LiveReporter is implemented by behaviors that may produce live data.
type LiveReporter interface {
	Live() bool
}

// Discoverer is implemented by behaviors that create pads at runtime.
type Discoverer interface {
	Discovering() bool
}

// testSource generates data at a fixed rate until num-buffers run out.
type testSource struct {
	el *Element
	// period is the time one buffer covers as a fraction of a second,
	// num/den. Durations multiply before dividing so they stay exact.
	period func() (num, den int64)
}

func newVideoTestSource(el *Element, _ Env) Behavior {
	return &testSource{el: el, period: func() (int64, int64) {
		return 1, int64(el.intProperty("framerate", 30))
	}}
}

// audiotestsrc emits 1024 samples per buffer at 44.1 kHz.
func newAudioTestSource(el *Element, _ Env) Behavior {
	return &testSource{el: el, period: func() (int64, int64) {
		return 1024, 44100
	}}
}

// span is the running time covered by n buffers.
func (s *testSource) span(n int64) clock.ClockTime {
	num, den := s.period()
	if den <= 0 {
		return clock.None
	}
	return clock.ClockTime(n*num) * clock.Second / clock.ClockTime(den)
}

func (s *testSource) ChangeState(_ context.Context, _ *Element, _ Host, change StateChange) (ChangeReturn, error) {
	if s.Live() && (change == StateChange{From: Ready, To: Paused} || change == StateChange{From: Playing, To: Paused}) {
		return NoPreroll, nil
	}
	return Success, nil
}

func (s *testSource) Live() bool { return s.el.boolProperty("is-live") }

func (s *testSource) Duration() (clock.ClockTime, bool) {
	n := s.el.intProperty("num-buffers", -1)
	if n < 0 || s.Live() {
		return clock.None, false
	}
	d := s.span(int64(n))
	return d, d.IsValid()
}

func (s *testSource) Seeking() (bool, clock.ClockTime) { return !s.Live(), 0 }

type fileSource struct {
	el *Element
}

func newFileSource(el *Element, _ Env) Behavior { return &fileSource{el: el} }

func (f *fileSource) ChangeState(_ context.Context, el *Element, _ Host, change StateChange) (ChangeReturn, error) {
	if change != (StateChange{From: Null, To: Ready}) {
		return Success, nil
	}
	location, _ := el.Property("location")
	fi, err := os.Stat(location.(string))
	if err != nil {
		return Failure, errors.ElementError(el.Name(), "Resource not found.", err.Error())
	}
	if fi.IsDir() {
		return Failure, errors.ElementError(el.Name(), "Resource is a directory.", fmt.Sprintf("%s is not a regular file", fi.Name()))
	}
	return Success, nil
}

func (f *fileSource) Seeking() (bool, clock.ClockTime) { return true, 0 }

// decoder inspects its URI when it starts and exposes one Sometimes pad per
// elementary stream found.
type decoder struct {
	el     *Element
	prober probe.Prober
	log    *logger.Logger

	mu          sync.Mutex
	info        *probe.Info
	discovering bool
}

func newDecoder(el *Element, env Env) Behavior {
	return &decoder{el: el, prober: env.Prober, log: env.Log}
}

func (d *decoder) ChangeState(_ context.Context, el *Element, host Host, change StateChange) (ChangeReturn, error) {
	switch change {
	case StateChange{From: Ready, To: Paused}:
		d.mu.Lock()
		d.info = nil
		d.discovering = true
		d.mu.Unlock()
		host.Go(el.ID(), func(ctx context.Context) { d.discover(ctx, el, host) })
	case StateChange{From: Paused, To: Ready}:
		d.mu.Lock()
		d.info = nil
		d.discovering = false
		d.mu.Unlock()
	}
	return Success, nil
}

func (d *decoder) discover(ctx context.Context, el *Element, host Host) {
	uri, _ := el.Property("uri")
	info, err := d.prober.Probe(ctx, uri.(string))
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		d.mu.Lock()
		d.discovering = false
		d.mu.Unlock()
		host.PostError(el.ID(), err, fmt.Sprintf("discovery of %s failed", uri))
		return
	}

	tmpl, _ := el.Kind().Template(Src, Sometimes)
	for _, s := range info.Streams {
		ref, err := host.AddPad(el.ID(), tmpl, s.Caps)
		if err != nil {
			return
		}
		d.log.Debug("stream found", logger.Fields(
			logger.FieldElement, el.Name(),
			logger.FieldPad, ref.String(),
			logger.FieldCaps, s.Caps.String(),
		))
	}

	d.mu.Lock()
	d.info = info
	d.discovering = false
	d.mu.Unlock()

	host.NoMorePads(el.ID())
	host.PostDurationChanged(el.ID())
}

func (d *decoder) Discovering() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.discovering
}

func (d *decoder) Duration() (clock.ClockTime, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.info == nil || !d.info.Duration.IsValid() {
		return clock.None, false
	}
	return d.info.Duration, true
}

func (d *decoder) Seeking() (bool, clock.ClockTime) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.info == nil {
		return false, 0
	}
	return d.info.Seekable && !d.info.Live, d.info.KeyframeInterval
}

func (d *decoder) Live() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.info != nil && d.info.Live
}

type passthrough struct{}

func newPassthrough(*Element, Env) Behavior { return passthrough{} }

func (passthrough) ChangeState(context.Context, *Element, Host, StateChange) (ChangeReturn, error) {
	return Success, nil
}

// sink waits for preroll on READY->PAUSED. The pipeline decides when
// preroll is satisfied and completes the transition.
type sink struct{}

func newSink(*Element, Env) Behavior { return sink{} }

func (sink) ChangeState(_ context.Context, _ *Element, _ Host, change StateChange) (ChangeReturn, error) {
	if change == (StateChange{From: Ready, To: Paused}) {
		return Async, nil
	}
	return Success, nil
}

// padName expands %u in a template name.
func padName(template string, n int) string {
	return strings.Replace(template, "%u", fmt.Sprint(n), 1)
}
