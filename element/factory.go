package element

import (
	"sort"
	"sync"

	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/probe"
)

// Factory creates elements by kind name.
type Factory struct {
	mu     sync.RWMutex
	kinds  map[string]*Kind
	counts map[string]int
	env    Env
}

// Option configures a Factory.
type Option func(*Factory)

// WithProber sets the prober used by decoders to inspect URIs.
func WithProber(p probe.Prober) Option {
	return func(f *Factory) { f.env.Prober = p }
}

// WithLogger sets the logger handed to element behaviors.
func WithLogger(l *logger.Logger) Option {
	return func(f *Factory) { f.env.Log = l }
}

// NewFactory creates a factory with every built-in kind registered.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		kinds:  make(map[string]*Kind),
		counts: make(map[string]int),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.env.Prober == nil {
		f.env.Prober = probe.NewStatic()
	}
	if f.env.Log == nil {
		f.env.Log = logger.NewNop()
	}
	f.env.Log = f.env.Log.WithComponent("element")
	for _, k := range builtinKinds() {
		f.kinds[k.Name] = k
	}
	return f
}

// Register adds or replaces a kind.
func (f *Factory) Register(k *Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds[k.Name] = k
}

// Lookup returns the kind registered under name.
func (f *Factory) Lookup(name string) (*Kind, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	k, ok := f.kinds[name]
	return k, ok
}

// Kinds returns sorted names of all registered kinds.
func (f *Factory) Kinds() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.kinds))
	for name := range f.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Make creates an element of the given kind. An empty name is replaced by
// the kind name and a per-kind counter, e.g. "videotestsrc0". Every
// property is validated before the element is returned.
func (f *Factory) Make(kind, name string, props map[string]any) (*Element, error) {
	k, ok := f.Lookup(kind)
	if !ok {
		return nil, errors.ElementUnavailable(kind)
	}

	f.mu.Lock()
	n := f.counts[kind]
	f.counts[kind] = n + 1
	f.mu.Unlock()
	if name == "" {
		name = padName(kind+"%u", n)
	}

	el := newElement(k, name)
	for key, v := range props {
		if err := el.SetProperty(key, v); err != nil {
			return nil, err
		}
	}
	el.behavior = k.NewBehavior(el, f.env)
	return el, nil
}
