package process

import (
	"context"
	"time"

	"github.com/kbukum/mediagraph/logger"
)

// Runner executes commands. Probers take a Runner so tests can feed them
// canned tool output.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// Config holds defaults applied to every command.
type Config struct {
	GracePeriod time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period"`
	// Timeout bounds each run. Zero means no timeout beyond ctx.
	Timeout   time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	MaxOutput int           `yaml:"max_output,omitempty" mapstructure:"max_output"`
}

// Adapter is the Runner used outside tests.
type Adapter struct {
	config Config
	log    *logger.Logger
}

var _ Runner = (*Adapter)(nil)

func NewAdapter(cfg Config, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Adapter{config: cfg, log: log.WithComponent("process")}
}

func (a *Adapter) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.GracePeriod == 0 {
		cmd.GracePeriod = a.config.GracePeriod
	}
	if cmd.MaxOutput == 0 {
		cmd.MaxOutput = a.config.MaxOutput
	}
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	res, err := Run(ctx, cmd)
	fields := logger.Fields("binary", cmd.Binary)
	if res != nil {
		fields["exit_code"] = res.ExitCode
		fields[logger.FieldDuration] = res.Duration.Milliseconds()
		if res.Truncated {
			fields["truncated"] = true
		}
	}
	if err != nil {
		a.log.Debug("process failed", logger.MergeWithError(fields, err))
		return res, err
	}
	a.log.Debug("process finished", fields)
	return res, nil
}
