package observability

import (
	"context"

	"github.com/kbukum/mediagraph/component"
	"github.com/kbukum/mediagraph/logger"
)

// Component runs the telemetry providers under the component registry.
type Component struct {
	cfg       Config
	svc       ServiceInfo
	log       *logger.Logger
	providers *Providers
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a telemetry component. Nothing is exported until
// Start runs, and only for the signals enabled in cfg.
func NewComponent(cfg Config, svc ServiceInfo, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Component{cfg: cfg, svc: svc, log: log.WithComponent("telemetry")}
}

func (c *Component) Name() string { return "observability" }

func (c *Component) Start(ctx context.Context) error {
	p, err := Start(ctx, c.cfg, c.svc, c.log)
	if err != nil {
		return err
	}
	c.providers = p
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	if c.providers == nil {
		return nil
	}
	return c.providers.Shutdown(ctx)
}

func (c *Component) Health(_ context.Context) component.Health {
	msg := "export disabled"
	if c.providers.Exporting() {
		msg = "exporting to " + c.cfg.Endpoint
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: msg}
}

func (c *Component) Describe() component.Description {
	details := "export disabled"
	if c.cfg.Tracing.Enabled || c.cfg.Metrics.Enabled {
		details = "OTLP " + c.cfg.Endpoint
	}
	return component.Description{Name: "Telemetry", Type: "telemetry", Details: details}
}
