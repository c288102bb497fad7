package component

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kbukum/mediagraph/logger"
)

const defaultStopTimeout = 10 * time.Second

// Registry starts components in registration order and stops them in
// reverse, so a component may rely on everything registered before it.
type Registry struct {
	mu          sync.Mutex
	components  []Component
	started     int // components[:started] are running
	log         *logger.Logger
	stopTimeout time.Duration
}

// NewRegistry creates an empty registry. A nil logger falls back to the
// global one.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Registry{log: log.WithComponent("registry"), stopTimeout: defaultStopTimeout}
}

// Register appends c. It fails when the name is taken or the registry has
// already been started.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if r.started > 0 {
		return fmt.Errorf("component %s registered after start", name)
	}
	if slices.ContainsFunc(r.components, func(x Component) bool { return x.Name() == name }) {
		return fmt.Errorf("component %s already registered", name)
	}
	r.components = append(r.components, c)
	return nil
}

// StartAll starts every component. When one fails, those already started
// are stopped again before the error is returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.components[r.started:] {
		if err := c.Start(ctx); err != nil {
			r.log.Error("component did not start", logger.MergeWithError(logger.Fields("name", c.Name()), err))
			if stopErr := r.stopStarted(context.WithoutCancel(ctx)); stopErr != nil {
				err = errors.Join(err, stopErr)
			}
			return fmt.Errorf("start %s: %w", c.Name(), err)
		}
		r.started++
		r.logStarted(c)
	}
	return nil
}

func (r *Registry) logStarted(c Component) {
	d, ok := c.(Describable)
	if !ok {
		r.log.Debug("component started", logger.Fields("name", c.Name()))
		return
	}
	desc := d.Describe()
	if desc.Name == "" {
		desc.Name = c.Name()
	}
	r.log.Info("component started", logger.Fields(
		"name", desc.Name,
		"type", desc.Type,
		"details", desc.Details,
		"port", desc.Port,
	))
}

// StopAll stops the running components, newest first. Every component is
// given the chance to stop; their errors are joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopStarted(ctx)
}

func (r *Registry) stopStarted(ctx context.Context) error {
	var errs []error
	for ; r.started > 0; r.started-- {
		c := r.components[r.started-1]
		stopCtx, cancel := context.WithTimeout(ctx, r.stopTimeout)
		err := c.Stop(stopCtx)
		cancel()
		if err != nil {
			r.log.Warn("component did not stop cleanly", logger.MergeWithError(logger.Fields("name", c.Name()), err))
			errs = append(errs, fmt.Errorf("stop %s: %w", c.Name(), err))
			continue
		}
		r.log.Debug("component stopped", logger.Fields("name", c.Name()))
	}
	return errors.Join(errs...)
}

// HealthAll reports every registered component, started or not.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.Lock()
	components := slices.Clone(r.components)
	r.mu.Unlock()

	out := make([]Health, len(components))
	for i, c := range components {
		out[i] = c.Health(ctx)
	}
	return out
}
