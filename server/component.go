package server

import (
	"context"

	"github.com/kbukum/mediagraph/component"
)

const componentName = "status-server"

// Component runs a Server under the component registry.
type Component struct {
	srv *Server
}

var _ component.Describable = (*Component)(nil)

func NewComponent(s *Server) *Component { return &Component{srv: s} }

func (c *Component) Name() string                  { return componentName }
func (c *Component) Start(ctx context.Context) error { return c.srv.Start(ctx) }
func (c *Component) Stop(ctx context.Context) error  { return c.srv.Stop(ctx) }

func (c *Component) Health(context.Context) component.Health {
	h := component.Health{Name: componentName, Status: component.StatusHealthy}
	if !c.srv.listening() {
		h.Status = component.StatusUnhealthy
		h.Message = "not listening"
	}
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Status Server",
		Type:    "server",
		Details: c.srv.Addr() + " h2c",
		Port:    c.srv.cfg.Port,
	}
}
