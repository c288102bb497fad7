// Command mediaplay plays a pipeline to its end: a playbin for a URI, a
// gst-launch style text or a YAML description.
//
//	mediaplay --playback.uri=file:///media/sintel.webm
//	mediaplay -l "videotestsrc num-buffers=300 ! videoconvert ! autovideosink"
//	mediaplay -f pipeline.yml --playback.mode=wait --server.enabled
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kbukum/mediagraph/component"
	"github.com/kbukum/mediagraph/config"
	"github.com/kbukum/mediagraph/controller"
	"github.com/kbukum/mediagraph/events"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/observability"
	"github.com/kbukum/mediagraph/server"
	"github.com/kbukum/mediagraph/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs, cli := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if cli.showVersion {
		fmt.Println(version.Banner("mediaplay"))
		return 0
	}

	cfg, err := loadConfig(fs, cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mediaplay: %v\n", err)
		return 1
	}

	log := logger.New(&cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(log)
	log.Info("starting", logger.Fields("version", version.GetShortVersion(), "backend", cfg.Playback.Backend))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := observability.NewPipelineMetrics(observability.Meter(observability.InstrumentationName))
	if err != nil {
		log.Warn("metrics disabled", logger.ErrorFields("create_instruments", err))
		metrics = observability.NoopPipelineMetrics()
	}

	player, padHandler, err := buildPlayer(cfg, log, metrics)
	if err != nil {
		log.Error("could not construct the pipeline", logger.ErrorFields("build", err))
		return 1
	}

	opts := controllerOptions(cfg, log, metrics, padHandler)
	var hub *events.Hub
	if cfg.Server.Enabled {
		hub = events.NewHub(log)
		opts.OnSnapshot = hub.SnapshotPublisher()
	}
	ctrl := controller.New(player, opts)

	registry := component.NewRegistry(log)
	if err := registry.Register(observability.NewComponent(cfg.Observability, observability.ServiceInfo{
		Name:        cfg.Name,
		Version:     version.GetShortVersion(),
		Environment: cfg.Environment,
	}, log)); err != nil {
		log.Error("register observability", logger.ErrorFields("register", err))
		return 1
	}
	if cfg.Server.Enabled {
		srv := server.New(cfg.Server, log)
		srv.RegisterEndpoints(cfg.Name, registry.HealthAll, ctrl)
		srv.RegisterEvents(hub)
		// Stopped in reverse: the hub closes open streams before the server drains.
		if err := registry.Register(server.NewComponent(srv)); err != nil {
			log.Error("register status server", logger.ErrorFields("register", err))
			return 1
		}
		if err := registry.Register(events.NewComponent(hub, "/events")); err != nil {
			log.Error("register event stream", logger.ErrorFields("register", err))
			return 1
		}
	}
	if err := registry.StartAll(ctx); err != nil {
		log.Error("could not start components", logger.ErrorFields("start", err))
		return 1
	}
	defer func() {
		if err := registry.StopAll(context.Background()); err != nil {
			log.Warn("component shutdown", logger.ErrorFields("stop", err))
		}
	}()

	report, err := ctrl.Run(ctx)
	if err != nil {
		log.Error("playback could not start", logger.ErrorFields("run", err))
		return 1
	}

	fields := logger.Fields(
		logger.FieldSessionID, report.SessionID,
		"reason", string(report.Reason),
		logger.FieldPosition, report.Position.String(),
		"duration", report.Duration.String(),
		"seeked", report.SeekIssued,
	)
	if report.Err != nil {
		log.Error("playback ended with an error", logger.MergeWithError(fields, report.Err))
		return 0
	}
	log.Info("playback finished", fields)
	return 0
}

func loadConfig(fs *pflag.FlagSet, cli *cliFlags) (config.Config, error) {
	cfg := config.Default()
	opts := []config.LoaderOption{config.WithFlags(fs)}
	if cli.configFile != "" {
		opts = append(opts, config.WithConfigFile(cli.configFile))
	}
	if cli.envFile != "" {
		opts = append(opts, config.WithEnvFile(cli.envFile))
	}
	if err := config.LoadConfig("mediaplay", &cfg, opts...); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func controllerOptions(cfg config.Config, log *logger.Logger, metrics *observability.PipelineMetrics, pads controller.PadHandler) controller.Options {
	opts := controller.Options{
		PollInterval:  cfg.Playback.PollInterval,
		SeekEnabled:   cfg.Playback.Seek.Enabled,
		SeekThreshold: cfg.Playback.Seek.Threshold,
		SeekTarget:    cfg.Playback.Seek.Target,
		PadHandler:    pads,
		Logger:        log,
		Metrics:       metrics,
	}
	if cfg.Playback.Mode == config.ModeWait {
		opts.PollInterval = 0
	}
	return opts
}
