package process

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// DefaultMaxOutput bounds each captured stream.
const DefaultMaxOutput = 4 << 20

// ErrNotFound is returned when the binary cannot be resolved.
var ErrNotFound = stderrors.New("process: binary not found")

// Command is one invocation of an external program.
type Command struct {
	Binary string
	Args   []string
	Dir    string
	// Env is appended to the parent environment.
	Env   []string
	Stdin io.Reader
	// GracePeriod separates SIGTERM from SIGKILL on cancellation. Zero
	// means five seconds.
	GracePeriod time.Duration
	// MaxOutput caps stdout and stderr separately. Zero means
	// DefaultMaxOutput.
	MaxOutput int
}

// Result is what a finished program left behind.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
	// Truncated is set when either stream hit MaxOutput.
	Truncated bool
}

// StderrTail returns the last non-empty stderr line, which is where
// media tools put the reason they gave up.
func (r *Result) StderrTail() string {
	if r == nil {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(string(r.Stderr)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// Run starts cmd and waits for it. Cancelling ctx sends SIGTERM to the
// whole process group and SIGKILL once GracePeriod has passed.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}
	path, err := exec.LookPath(cmd.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cmd.Binary)
	}
	if cmd.GracePeriod == 0 {
		cmd.GracePeriod = 5 * time.Second
	}
	if cmd.MaxOutput <= 0 {
		cmd.MaxOutput = DefaultMaxOutput
	}

	c := exec.CommandContext(ctx, path, cmd.Args...) //nolint:gosec // running caller-chosen tools is the point
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.Stdin = cmd.Stdin
	stdout := &capped{max: cmd.MaxOutput}
	stderr := &capped{max: cmd.MaxOutput}
	c.Stdout, c.Stderr = stdout, stderr

	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = cmd.GracePeriod

	start := time.Now()
	err = c.Run()
	res := &Result{
		Stdout:    stdout.Bytes(),
		Stderr:    stderr.Bytes(),
		ExitCode:  c.ProcessState.ExitCode(),
		Duration:  time.Since(start),
		Truncated: stdout.dropped || stderr.dropped,
	}
	switch {
	case err == nil:
		return res, nil
	case ctx.Err() != nil:
		return res, fmt.Errorf("process: %s killed: %w", cmd.Binary, ctx.Err())
	default:
		return res, fmt.Errorf("process: %s exited with %d: %w", cmd.Binary, res.ExitCode, err)
	}
}

// capped keeps the first max bytes written and discards the rest without
// failing the writer, so the child never sees EPIPE. It exposes Write only:
// io.Copy must not find a ReaderFrom that bypasses the limit.
type capped struct {
	buf     bytes.Buffer
	max     int
	dropped bool
}

func (w *capped) Write(p []byte) (int, error) {
	room := w.max - w.buf.Len()
	if len(p) > room {
		w.dropped = true
		if room > 0 {
			w.buf.Write(p[:room])
		}
		return len(p), nil
	}
	return w.buf.Write(p)
}

func (w *capped) Bytes() []byte { return w.buf.Bytes() }
