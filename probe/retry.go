package probe

import (
	"context"
	stderrors "errors"
	"net/url"
	"time"

	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/process"
	"github.com/kbukum/mediagraph/resilience"
)

// RetryConfig bounds repeated attempts at probing a remote URI.
type RetryConfig struct {
	// MaxAttempts includes the first attempt. One disables retries.
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=0"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff" validate:"gte=0"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff" validate:"gte=0"`
	// Jitter spreads each backoff by up to this fraction either way.
	Jitter float64 `yaml:"jitter" mapstructure:"jitter" validate:"gte=0,lte=1"`
}

// ApplyDefaults fills unset fields.
func (c *RetryConfig) ApplyDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = 200 * time.Millisecond
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 5 * time.Second
	}
}

// Retrying probes remote URIs again when an attempt fails. Local files
// are probed once since a failure there will not go away.
type Retrying struct {
	next Prober
	cfg  RetryConfig
	log  *logger.Logger
}

var _ Prober = (*Retrying)(nil)

// NewRetrying wraps next.
func NewRetrying(next Prober, cfg RetryConfig, log *logger.Logger) *Retrying {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Retrying{next: next, cfg: cfg, log: log.WithComponent("probe")}
}

func (r *Retrying) Probe(ctx context.Context, uri string) (*Info, error) {
	remote := isRemote(uri)
	info, err := resilience.Retry(ctx, r.policy(uri, remote), func() (*Info, error) {
		return r.next.Probe(ctx, uri)
	})
	if err != nil && err == ctx.Err() {
		return nil, errors.ProbeFailed(uri, err)
	}
	return info, err
}

func (r *Retrying) policy(uri string, remote bool) resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    r.cfg.MaxAttempts,
		InitialBackoff: r.cfg.InitialBackoff,
		MaxBackoff:     r.cfg.MaxBackoff,
		Jitter:         r.cfg.Jitter,
		RetryIf: func(err error) bool {
			return remote && retryable(err)
		},
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			r.log.Warn("probe failed, retrying", logger.Fields(
				"uri", uri,
				"attempt", attempt,
				"backoff", backoff.String(),
				logger.FieldError, err.Error(),
			))
		},
	}
}

// backoff doubles from InitialBackoff for each failed attempt, capped at
// MaxBackoff.
func (r *Retrying) backoff(attempt int) time.Duration {
	return resilience.Backoff(attempt, r.policy("", true))
}

func retryable(err error) bool {
	return !stderrors.Is(err, context.Canceled) &&
		!stderrors.Is(err, context.DeadlineExceeded) &&
		!stderrors.Is(err, process.ErrNotFound)
}

func isRemote(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Scheme != "file"
}
