package main

import (
	"context"

	"github.com/kbukum/mediagraph/bus"
	"github.com/kbukum/mediagraph/clock"
	"github.com/kbukum/mediagraph/config"
	"github.com/kbukum/mediagraph/controller"
	"github.com/kbukum/mediagraph/element"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/launch"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/observability"
	"github.com/kbukum/mediagraph/pipeline"
	"github.com/kbukum/mediagraph/probe"
	"github.com/kbukum/mediagraph/process"
)

// buildPlayer constructs the player selected by cfg. Dynamic pads of the
// native engine are linked by an auto-linker running in the controller
// loop; the gst backend links them itself and needs no handler.
func buildPlayer(cfg config.Config, log *logger.Logger, metrics *observability.PipelineMetrics) (controller.Player, controller.PadHandler, error) {
	if cfg.Playback.Backend == config.BackendGst {
		p, err := newGstPlayer(cfg, log)
		return p, nil, err
	}

	prober, err := newProber(cfg.Probe, log)
	if err != nil {
		return nil, nil, err
	}
	factory := element.NewFactory(element.WithProber(prober), element.WithLogger(log))
	opts := []pipeline.Option{pipeline.WithLogger(log), pipeline.WithMetrics(metrics)}

	var p *pipeline.Pipeline
	switch {
	case cfg.Pipeline.Launch != "":
		p, err = launch.Parse(factory, cfg.Pipeline.Launch, opts...)
	case cfg.Pipeline.File != "":
		var d *launch.Description
		if d, err = launch.LoadFile(cfg.Pipeline.File); err == nil {
			p, err = d.Build(factory, opts...)
		}
	default:
		p, err = launch.NewPlaybin(factory, cfg.Playback.URI, opts...)
	}
	if err != nil {
		return nil, nil, err
	}

	linker := pipeline.NewAutoLinker(p, cfg.Playback.LinkFamilies...)
	handler := func(ctx context.Context, m *bus.Message) {
		linker.HandleDynamicPad(ctx, m)
	}
	return p, handler, nil
}

func newProber(cfg config.ProbeConfig, log *logger.Logger) (probe.Prober, error) {
	if cfg.Mode == config.ProbeFFProbe {
		runner := process.NewAdapter(process.Config{Timeout: cfg.Timeout}, log)
		ffprobe := probe.NewFFProbe(probe.FFProbeConfig{
			Binary:           cfg.FFProbeBinary,
			KeyframeInterval: clock.FromDuration(cfg.KeyframeInterval),
		}, runner, log)
		return probe.NewRetrying(ffprobe, cfg.Retry, log), nil
	}

	static := probe.NewStatic()
	for _, m := range cfg.Streams {
		info, err := m.Info()
		if err != nil {
			return nil, errors.InvalidInput("probe.streams", err.Error()).WithCause(err)
		}
		static.Add(m.URI, info)
	}
	return static, nil
}
