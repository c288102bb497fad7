package controller

import (
	"context"
	"time"

	"github.com/kbukum/mediagraph/bus"
	"github.com/kbukum/mediagraph/clock"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/observability"
)

// Defaults used by DefaultOptions and ApplyDefaults.
const (
	DefaultPollInterval  = 100 * time.Millisecond
	DefaultSeekThreshold = 10 * time.Second
	DefaultSeekTarget    = 30 * time.Second
	DefaultSeekFlags     = clock.SeekFlagFlush | clock.SeekFlagKeyUnit
)

// PadHandler is called from the dispatch loop for every DynamicPadAdded
// message. It runs before the next message is taken.
type PadHandler func(ctx context.Context, m *bus.Message)

// Options configures a Controller.
type Options struct {
	// PollInterval bounds each bus wait. When it elapses without a message
	// the controller polls position and considers seeking. Zero waits
	// until a message arrives and never polls.
	PollInterval time.Duration

	// SeekEnabled allows the one-shot seek when the stream is seekable.
	SeekEnabled bool
	// SeekThreshold is the position that must be passed before seeking.
	SeekThreshold time.Duration
	// SeekTarget is the absolute position sought to.
	SeekTarget time.Duration
	SeekFlags  clock.SeekFlags

	// PadHandler receives dynamic pads. Without one, DynamicPadAdded
	// messages are left on the bus.
	PadHandler PadHandler

	// OnSnapshot is called from the dispatch loop whenever the published
	// snapshot changes in anything but its timestamp. It must not block.
	OnSnapshot func(Snapshot)

	Logger  *logger.Logger
	Metrics *observability.PipelineMetrics
}

// DefaultOptions returns polling options with seeking enabled.
func DefaultOptions() Options {
	o := Options{PollInterval: DefaultPollInterval, SeekEnabled: true}
	o.ApplyDefaults()
	return o
}

// ApplyDefaults fills unset seek parameters and dependencies. PollInterval
// is left alone since zero selects the unbounded wait.
func (o *Options) ApplyDefaults() {
	if o.SeekThreshold == 0 {
		o.SeekThreshold = DefaultSeekThreshold
	}
	if o.SeekTarget == 0 {
		o.SeekTarget = DefaultSeekTarget
	}
	if o.SeekFlags == clock.SeekFlagNone {
		o.SeekFlags = DefaultSeekFlags
	}
	if o.Logger == nil {
		o.Logger = logger.GetGlobalLogger()
	}
	if o.Metrics == nil {
		o.Metrics = observability.NoopPipelineMetrics()
	}
}

func (o *Options) waitTimeout() time.Duration {
	if o.PollInterval <= 0 {
		return bus.Forever
	}
	return o.PollInterval
}

func (o *Options) mask() bus.MessageType {
	m := bus.MessageError | bus.MessageEOS | bus.MessageStateChanged | bus.MessageDurationChanged
	if o.PadHandler != nil {
		m |= bus.MessageDynamicPadAdded
	}
	return m
}
