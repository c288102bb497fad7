package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/mediagraph/clock"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/logger"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	cfg := ServiceConfig{Name: "mediaplay"}
	cfg.ApplyDefaults()
	if cfg.Environment != "development" || cfg.Logging.Level != "info" {
		t.Errorf("defaults = %+v", cfg)
	}

	cfg = ServiceConfig{Name: "mediaplay", Debug: true, Logging: logger.Config{Level: "warn"}}
	cfg.ApplyDefaults()
	if cfg.Logging.Level != "debug" {
		t.Errorf("debug must force the debug level, got %q", cfg.Logging.Level)
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", ServiceConfig{Name: "mediaplay", Environment: "development"}, false, ""},
		{"valid production", ServiceConfig{Name: "mediaplay", Environment: "production"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "mediaplay", Environment: "lab"}, true, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Default()
	cfg.Playback.URI = "file:///media/sintel.webm"
	cfg.ApplyDefaults()

	if cfg.Playback.Mode != ModePoll {
		t.Errorf("expected poll mode, got %q", cfg.Playback.Mode)
	}
	if cfg.Playback.Backend != BackendNative {
		t.Errorf("expected native backend, got %q", cfg.Playback.Backend)
	}
	if cfg.Playback.PollInterval != 100*time.Millisecond {
		t.Errorf("expected 100ms poll interval, got %v", cfg.Playback.PollInterval)
	}
	if !cfg.Playback.Seek.Enabled {
		t.Error("expected seek enabled by default")
	}
	if cfg.Playback.Seek.Threshold != 10*time.Second || cfg.Playback.Seek.Target != 30*time.Second {
		t.Errorf("unexpected seek defaults %+v", cfg.Playback.Seek)
	}
	if len(cfg.Playback.LinkFamilies) != 2 || cfg.Playback.LinkFamilies[0] != "audio" {
		t.Errorf("unexpected link families %v", cfg.Playback.LinkFamilies)
	}
	if cfg.Probe.Mode != ProbeStatic || cfg.Probe.FFProbeBinary != "ffprobe" {
		t.Errorf("unexpected probe defaults %+v", cfg.Probe)
	}
	if cfg.Server.Port != 8089 {
		t.Errorf("expected status port 8089, got %d", cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"nothing to play", func(c *Config) { c.Playback.URI = "" }, "pipeline"},
		{"relative uri", func(c *Config) { c.Playback.URI = "sintel.webm" }, "playback.uri"},
		{"launch and file", func(c *Config) {
			c.Pipeline.Launch = "videotestsrc ! fakesink"
			c.Pipeline.File = "pipeline.yml"
		}, "mutually exclusive"},
		{"bad mode", func(c *Config) { c.Playback.Mode = "loop" }, "playback.mode"},
		{"negative threshold", func(c *Config) { c.Playback.Seek.Threshold = -time.Second }, "playback.seek.threshold"},
		{"bad probe mode", func(c *Config) { c.Probe.Mode = "discoverer" }, "probe.mode"},
		{"bad static caps", func(c *Config) {
			c.Probe.Streams = []StaticMedia{{URI: "file:///a.webm", Caps: []string{"audio/x-raw,rate=[1,"}}}
		}, "probe.streams[0].caps"},
		{"empty static caps", func(c *Config) {
			c.Probe.Streams = []StaticMedia{{URI: "file:///a.webm"}}
		}, "caps"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Playback.URI = "file:///media/sintel.webm"
			tc.mutate(&cfg)
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
			}
			if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

const sampleYAML = `
name: mediaplay
environment: staging
playback:
  uri: https://example.com/sintel_trailer-480p.webm
  poll_interval: 250ms
  seek:
    enabled: true
    threshold: 5s
    target: 20s
  link_families: [audio]
probe:
  mode: static
  streams:
    - uri: https://example.com/sintel_trailer-480p.webm
      duration: 52s
      seekable: true
      keyframe_interval: 2s
      caps:
        - audio/x-raw,rate=48000,channels=2
        - video/x-raw,width=854,height=480
server:
  enabled: true
  port: 9090
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigWithYAML(t *testing.T) {
	cfg := Default()
	if err := LoadConfig("mediaplay", &cfg, WithConfigFile(writeConfig(t))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	cfg.ApplyDefaults()

	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Playback.PollInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.Playback.PollInterval)
	}
	if cfg.Playback.Seek.Threshold != 5*time.Second || cfg.Playback.Seek.Target != 20*time.Second {
		t.Errorf("unexpected seek %+v", cfg.Playback.Seek)
	}
	if len(cfg.Playback.LinkFamilies) != 1 || cfg.Playback.LinkFamilies[0] != "audio" {
		t.Errorf("unexpected families %v", cfg.Playback.LinkFamilies)
	}
	if !cfg.Server.Enabled || cfg.Server.Port != 9090 {
		t.Errorf("unexpected server %+v", cfg.Server)
	}
	if len(cfg.Probe.Streams) != 1 {
		t.Fatalf("expected 1 static entry, got %d", len(cfg.Probe.Streams))
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	info, err := cfg.Probe.Streams[0].Info()
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Duration != 52*clock.Second {
		t.Errorf("expected 52s, got %v", info.Duration)
	}
	if info.KeyframeInterval != 2*clock.Second {
		t.Errorf("expected 2s keyframes, got %v", info.KeyframeInterval)
	}
	if fams := info.Families(); len(fams) != 2 || fams[0] != "audio" || fams[1] != "video" {
		t.Errorf("unexpected families %v", fams)
	}
}

func TestLoadConfigFlagsWin(t *testing.T) {
	t.Setenv("MEDIAPLAY_PLAYBACK_POLL_INTERVAL", "1s")

	fs := pflag.NewFlagSet("mediaplay", pflag.ContinueOnError)
	fs.String("playback.uri", "", "")
	fs.Duration("playback.poll_interval", 100*time.Millisecond, "")
	fs.Duration("playback.seek.threshold", 10*time.Second, "")
	if err := fs.Parse([]string{"--playback.poll_interval=50ms", "--playback.uri=file:///tmp/b.webm"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cfg := Default()
	if err := LoadConfig("mediaplay", &cfg, WithConfigFile(writeConfig(t)), WithFlags(fs)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Playback.PollInterval != 50*time.Millisecond {
		t.Errorf("expected flag to win, got %v", cfg.Playback.PollInterval)
	}
	if cfg.Playback.URI != "file:///tmp/b.webm" {
		t.Errorf("expected flag uri, got %q", cfg.Playback.URI)
	}
	// Not set on the command line, so the file value stays.
	if cfg.Playback.Seek.Threshold != 5*time.Second {
		t.Errorf("expected file threshold, got %v", cfg.Playback.Seek.Threshold)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	t.Setenv("MEDIAPLAY_PLAYBACK_MODE", "wait")

	cfg := Default()
	if err := LoadConfig("mediaplay", &cfg, WithConfigFile(writeConfig(t))); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Playback.Mode != ModeWait {
		t.Errorf("expected env mode 'wait', got %q", cfg.Playback.Mode)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg := Default()
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
	if cfg.Name != "mediaplay" || !cfg.Playback.Seek.Enabled {
		t.Errorf("expected defaults to survive, got %+v", cfg.ServiceConfig)
	}
}

func TestLoadConfigBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("playback: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	cfg := Default()
	if err := LoadConfig("mediaplay", &cfg, WithConfigFile(path)); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestLoadConfigEnvNesting(t *testing.T) {
	t.Setenv("MEDIAPLAY_PLAYBACK_SEEK_THRESHOLD", "3s")
	t.Setenv("MEDIAPLAY_PLAYBACK_LINK_FAMILIES", "audio,video")
	t.Setenv("MEDIAPLAY_NAME", "kiosk")
	t.Setenv("PLAYBACK_MODE", "wait")

	cfg := Default()
	if err := LoadConfig("mediaplay", &cfg, WithSearchDirs(t.TempDir())); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Playback.Seek.Threshold != 3*time.Second {
		t.Errorf("threshold = %v", cfg.Playback.Seek.Threshold)
	}
	if len(cfg.Playback.LinkFamilies) != 2 || cfg.Playback.LinkFamilies[1] != "video" {
		t.Errorf("families = %v", cfg.Playback.LinkFamilies)
	}
	if cfg.Name != "kiosk" {
		t.Errorf("squashed service fields must bind too, got name %q", cfg.Name)
	}
	if cfg.Playback.Mode == ModeWait {
		t.Error("unprefixed variables must be ignored")
	}
}

func TestLoadConfigSearchAndEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MEDIAPLAY_PLAYBACK_URI=file:///media/from-dotenv.webm\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("MEDIAPLAY_PLAYBACK_URI") })

	cfg := Default()
	if err := LoadConfig("mediaplay", &cfg); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Environment != "staging" {
		t.Errorf("config.yml in the working directory was not found: %+v", cfg.ServiceConfig)
	}
	if cfg.Playback.URI != "file:///media/from-dotenv.webm" {
		t.Errorf("uri = %q", cfg.Playback.URI)
	}
}

func TestStructKeys(t *testing.T) {
	type inner struct {
		Threshold time.Duration `mapstructure:"threshold"`
	}
	type sample struct {
		ServiceConfig `mapstructure:",squash"`
		Seek          inner    `mapstructure:"seek"`
		Families      []string `mapstructure:"link_families"`
		Skipped       string   `mapstructure:"-"`
		Plain         int
		hidden        int
	}

	keys := structKeys(reflect.TypeOf(&sample{}), "")
	want := map[string]bool{
		"name": true, "environment": true, "logging.level": true,
		"seek.threshold": true, "link_families": true, "plain": true,
	}
	got := make(map[string]bool, len(keys))
	for _, k := range keys {
		got[k] = true
	}
	for k := range want {
		if !got[k] {
			t.Errorf("missing key %q in %v", k, keys)
		}
	}
	if got["skipped"] || got["hidden"] || got["seek"] {
		t.Errorf("unexpected keys %v", keys)
	}
}
