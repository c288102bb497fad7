package config

import (
	"fmt"
	"time"

	"github.com/kbukum/mediagraph/caps"
	"github.com/kbukum/mediagraph/clock"
	"github.com/kbukum/mediagraph/observability"
	"github.com/kbukum/mediagraph/probe"
	"github.com/kbukum/mediagraph/server"
	"github.com/kbukum/mediagraph/validation"
)

// Playback modes.
const (
	ModePoll = "poll"
	ModeWait = "wait"
)

// Playback backends.
const (
	BackendNative = "native"
	BackendGst    = "gst"
)

// Probe modes.
const (
	ProbeStatic  = "static"
	ProbeFFProbe = "ffprobe"
)

// Config is the configuration of a playback process.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Playback      PlaybackConfig       `yaml:"playback" mapstructure:"playback"`
	Pipeline      PipelineConfig       `yaml:"pipeline" mapstructure:"pipeline"`
	Probe         ProbeConfig          `yaml:"probe" mapstructure:"probe"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
}

// PlaybackConfig drives the controller loop.
type PlaybackConfig struct {
	URI string `yaml:"uri" mapstructure:"uri" validate:"omitempty,media_uri"`
	// Mode is "poll" (bounded waits with position polling and seek
	// gating) or "wait" (block until EOS or error).
	Mode string `yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=poll wait"`
	// Backend is "native" (the in-process engine) or "gst" (GStreamer,
	// only in binaries built with the gst tag).
	Backend      string        `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=native gst"`
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval" validate:"gte=0"`
	Seek         SeekConfig    `yaml:"seek" mapstructure:"seek"`
	// LinkFamilies are the stream families auto-linked from dynamic pads.
	LinkFamilies []string `yaml:"link_families" mapstructure:"link_families"`
}

// SeekConfig gates the one-shot seek.
type SeekConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Threshold time.Duration `yaml:"threshold" mapstructure:"threshold" validate:"gte=0"`
	Target    time.Duration `yaml:"target" mapstructure:"target" validate:"gte=0"`
}

// PipelineConfig selects how the pipeline is described. With neither set
// and a playback URI present, a playbin is built for the URI.
type PipelineConfig struct {
	// Launch is a text description such as "videotestsrc ! autovideosink".
	Launch string `yaml:"launch" mapstructure:"launch"`
	// File is a YAML description.
	File string `yaml:"file" mapstructure:"file"`
}

// ProbeConfig selects what uridecodebin finds in a URI.
type ProbeConfig struct {
	Mode          string        `yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=static ffprobe"`
	FFProbeBinary string        `yaml:"ffprobe_binary" mapstructure:"ffprobe_binary"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	// KeyframeInterval is assumed for ffprobe results, which do not report one.
	KeyframeInterval time.Duration `yaml:"keyframe_interval" mapstructure:"keyframe_interval" validate:"gte=0"`
	Streams          []StaticMedia `yaml:"streams" mapstructure:"streams" validate:"dive"`
	// Retry applies to ffprobe runs on remote URIs.
	Retry probe.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// StaticMedia is one entry of the static probe table.
type StaticMedia struct {
	URI              string        `yaml:"uri" mapstructure:"uri" validate:"required,media_uri"`
	Duration         time.Duration `yaml:"duration" mapstructure:"duration" validate:"gte=0"`
	Seekable         bool          `yaml:"seekable" mapstructure:"seekable"`
	Live             bool          `yaml:"live" mapstructure:"live"`
	KeyframeInterval time.Duration `yaml:"keyframe_interval" mapstructure:"keyframe_interval" validate:"gte=0"`
	// Caps lists one capability per stream, e.g. "audio/x-raw,rate=48000".
	Caps []string `yaml:"caps" mapstructure:"caps" validate:"min=1"`
}

// Default returns a Config with the values whose zero value is meaningful
// already set. Load into it so file, environment and flags override them.
func Default() Config {
	return Config{
		ServiceConfig: ServiceConfig{Name: "mediaplay"},
		Playback: PlaybackConfig{
			Seek: SeekConfig{Enabled: true},
		},
	}
}

// ApplyDefaults fills unset fields of every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Playback.ApplyDefaults()
	c.Probe.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Server.ApplyDefaults()
}

// Validate checks struct tags first, then the cross-field rules.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}

	v := validation.New()
	v.Custom(c.Pipeline.Launch == "" || c.Pipeline.File == "", "pipeline",
		"launch and file are mutually exclusive")
	v.Custom(c.Pipeline.Launch != "" || c.Pipeline.File != "" || c.Playback.URI != "", "pipeline",
		"one of pipeline.launch, pipeline.file or playback.uri is required")
	for i, m := range c.Probe.Streams {
		field := fmt.Sprintf("probe.streams[%d]", i)
		for _, text := range m.Caps {
			if _, err := caps.Parse(text); err != nil {
				v.AddError(field+".caps", err.Error())
			}
		}
	}
	return v.Err()
}

// ApplyDefaults fills unset playback fields.
func (c *PlaybackConfig) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = ModePoll
	}
	if c.Backend == "" {
		c.Backend = BackendNative
	}
	if c.PollInterval == 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.Seek.Threshold == 0 {
		c.Seek.Threshold = 10 * time.Second
	}
	if c.Seek.Target == 0 {
		c.Seek.Target = 30 * time.Second
	}
	if len(c.LinkFamilies) == 0 {
		c.LinkFamilies = []string{"audio", "video"}
	}
}

// ApplyDefaults fills unset probe fields.
func (c *ProbeConfig) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = ProbeStatic
	}
	if c.FFProbeBinary == "" {
		c.FFProbeBinary = "ffprobe"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	c.Retry.ApplyDefaults()
}

// Info converts the entry to a probe result.
func (m StaticMedia) Info() (*probe.Info, error) {
	info := &probe.Info{
		URI:              m.URI,
		Duration:         clock.None,
		Seekable:         m.Seekable,
		Live:             m.Live,
		KeyframeInterval: clock.FromDuration(m.KeyframeInterval),
	}
	if m.Duration > 0 {
		info.Duration = clock.FromDuration(m.Duration)
	}
	for i, text := range m.Caps {
		c, err := caps.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("probe stream %d of %s: %w", i, m.URI, err)
		}
		info.Streams = append(info.Streams, probe.Stream{Index: i, Caps: c})
	}
	return info, nil
}
