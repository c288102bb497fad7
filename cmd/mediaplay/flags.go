package main

import (
	"time"

	"github.com/spf13/pflag"
)

// cliFlags are the flags that are not configuration keys.
type cliFlags struct {
	configFile  string
	envFile     string
	showVersion bool
}

// newFlagSet declares the command line. Configuration flags are named
// after their config key so config.WithFlags can bind them; their defaults
// only document the values applied by config.
func newFlagSet() (*pflag.FlagSet, *cliFlags) {
	fs := pflag.NewFlagSet("mediaplay", pflag.ContinueOnError)
	cli := &cliFlags{}

	fs.StringVarP(&cli.configFile, "config", "c", "", "path to config.yml")
	fs.StringVar(&cli.envFile, "env-file", "", "path to a .env file")
	fs.BoolVarP(&cli.showVersion, "version", "v", false, "print version and exit")

	fs.StringP("playback.uri", "u", "", "media URI to play with a playbin")
	fs.String("playback.mode", "poll", "loop mode: poll (position polling and seek) or wait (until EOS or error)")
	fs.String("playback.backend", "native", "engine: native or gst")
	fs.Duration("playback.poll_interval", 100*time.Millisecond, "bus wait bound in poll mode")
	fs.Bool("playback.seek.enabled", true, "seek once when the threshold is passed")
	fs.Duration("playback.seek.threshold", 10*time.Second, "position after which to seek")
	fs.Duration("playback.seek.target", 30*time.Second, "position to seek to")
	fs.StringSlice("playback.link_families", []string{"audio", "video"}, "stream families linked from dynamic pads, in priority order")

	fs.StringP("pipeline.launch", "l", "", `pipeline text, e.g. "videotestsrc ! videoconvert ! autovideosink"`)
	fs.StringP("pipeline.file", "f", "", "YAML pipeline description")

	fs.String("probe.mode", "static", "stream discovery: static or ffprobe")
	fs.String("probe.ffprobe_binary", "ffprobe", "ffprobe executable")

	fs.Bool("server.enabled", false, "serve /health, /readyz and /status")
	fs.String("server.host", "127.0.0.1", "status server host")
	fs.Int("server.port", 8089, "status server port")

	fs.String("logging.level", "info", "log level")
	fs.String("logging.format", "console", "log format: console or json")

	return fs, cli
}
