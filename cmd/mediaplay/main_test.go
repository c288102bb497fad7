package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kbukum/mediagraph/config"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/observability"
	"github.com/kbukum/mediagraph/probe"
)

var quiet = []string{"--logging.level=error", "--config=" + filepath.Join("testdata", "none.yml")}

func TestRun_Version(t *testing.T) {
	if code := run([]string{"--version"}); code != 0 {
		t.Errorf("exit code = %d", code)
	}
}

func TestRun_BadFlag(t *testing.T) {
	if code := run([]string{"--no-such-flag"}); code != 2 {
		t.Errorf("exit code = %d", code)
	}
}

func TestRun_LaunchToEOS(t *testing.T) {
	args := append([]string{"-l", "videotestsrc num-buffers=5 framerate=25 ! fakesink"}, quiet...)
	if code := run(args); code != 0 {
		t.Errorf("exit code = %d", code)
	}
}

func TestRun_ConstructionErrorIsFatal(t *testing.T) {
	args := append([]string{"-l", "videotestsrc ! warpdrive"}, quiet...)
	if code := run(args); code != 1 {
		t.Errorf("exit code = %d", code)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	if code := run(quiet); code != 1 {
		t.Errorf("missing pipeline: exit code = %d", code)
	}
}

func TestRun_YAMLDescriptionWaitMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.yml")
	content := `
name: tone
elements:
  - kind: audiotestsrc
    name: src
    properties:
      num-buffers: 5
  - kind: fakesink
    name: sink
links:
  - from: src
    to: sink
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	args := append([]string{"-f", path, "--playback.mode=wait"}, quiet...)
	if code := run(args); code != 0 {
		t.Errorf("exit code = %d", code)
	}
}

func TestRun_ElementErrorExitsCleanly(t *testing.T) {
	// No static entry for the URI: the decoder reports a probe failure on
	// the bus, which ends the session without failing the process.
	args := append([]string{"-u", "file:///media/unknown.webm"}, quiet...)
	if code := run(args); code != 0 {
		t.Errorf("exit code = %d", code)
	}
}

func TestControllerOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Playback.URI = "file:///media/a.webm"
	cfg.ApplyDefaults()

	opts := controllerOptions(cfg, logger.NewNop(), observability.NoopPipelineMetrics(), nil)
	if opts.PollInterval != 100*time.Millisecond || !opts.SeekEnabled || opts.SeekTarget != 30*time.Second {
		t.Errorf("poll options = %+v", opts)
	}

	cfg.Playback.Mode = config.ModeWait
	if opts := controllerOptions(cfg, logger.NewNop(), nil, nil); opts.PollInterval != 0 {
		t.Errorf("wait mode must not poll, got %v", opts.PollInterval)
	}
}

func TestNewProber_Static(t *testing.T) {
	cfg := config.ProbeConfig{
		Mode: config.ProbeStatic,
		Streams: []config.StaticMedia{{
			URI:      "file:///media/a.webm",
			Duration: time.Minute,
			Seekable: true,
			Caps:     []string{"audio/x-raw", "video/x-raw,width=640"},
		}},
	}
	p, err := newProber(cfg, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	info, err := p.Probe(t.Context(), "file:///media/a.webm")
	if err != nil {
		t.Fatal(err)
	}
	if len(info.Streams) != 2 || !info.Seekable {
		t.Errorf("info = %+v", info)
	}
}

func TestNewProber_FFProbeRetries(t *testing.T) {
	cfg := config.ProbeConfig{Mode: config.ProbeFFProbe}
	cfg.ApplyDefaults()
	p, err := newProber(cfg, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*probe.Retrying); !ok {
		t.Errorf("expected a retrying prober, got %T", p)
	}
}
