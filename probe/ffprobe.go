package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kbukum/mediagraph/caps"
	"github.com/kbukum/mediagraph/clock"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/logger"
	"github.com/kbukum/mediagraph/process"
)

// FFProbeConfig configures the ffprobe-backed prober.
type FFProbeConfig struct {
	Binary string
	// KeyframeInterval is assumed for every stream since ffprobe does not
	// report it without decoding packets.
	KeyframeInterval clock.ClockTime
}

// FFProbe inspects URIs by running ffprobe and reading its JSON report.
type FFProbe struct {
	cfg    FFProbeConfig
	runner process.Runner
	log    *logger.Logger
}

var _ Prober = (*FFProbe)(nil)

// NewFFProbe creates an ffprobe prober that runs commands through runner.
func NewFFProbe(cfg FFProbeConfig, runner process.Runner, log *logger.Logger) *FFProbe {
	if cfg.Binary == "" {
		cfg.Binary = "ffprobe"
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &FFProbe{cfg: cfg, runner: runner, log: log.WithComponent("probe")}
}

type ffprobeReport struct {
	Streams []struct {
		Index        int    `json:"index"`
		CodecName    string `json:"codec_name"`
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		SampleRate   string `json:"sample_rate"`
		Channels     int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

func (p *FFProbe) Probe(ctx context.Context, uri string) (*Info, error) {
	res, err := p.runner.Run(ctx, process.Command{
		Binary: p.cfg.Binary,
		Args:   []string{"-v", "error", "-show_format", "-show_streams", "-of", "json", localPath(uri)},
	})
	if err != nil {
		return nil, errors.ProbeFailed(uri, err).WithDetail("stderr", res.StderrTail())
	}
	return parseReport(uri, res.Stdout, p.cfg.KeyframeInterval)
}

func parseReport(uri string, data []byte, keyframe clock.ClockTime) (*Info, error) {
	var rep ffprobeReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, errors.ProbeFailed(uri, fmt.Errorf("decoding ffprobe output: %w", err))
	}

	info := &Info{
		URI:              uri,
		Duration:         clock.None,
		KeyframeInterval: keyframe,
	}
	if secs, err := strconv.ParseFloat(rep.Format.Duration, 64); err == nil && secs >= 0 {
		info.Duration = clock.ClockTime(math.Round(secs * float64(clock.Second)))
		info.Seekable = true
	}
	info.Live = info.Duration == clock.None && isNetworkURI(uri)

	for _, s := range rep.Streams {
		var c caps.Capability
		switch s.CodecType {
		case "audio":
			c = caps.New("audio/x-raw")
			if rate, err := strconv.Atoi(s.SampleRate); err == nil {
				c = c.With("rate", caps.Int(int64(rate)))
			}
			if s.Channels > 0 {
				c = c.With("channels", caps.Int(int64(s.Channels)))
			}
		case "video":
			c = caps.New("video/x-raw")
			if s.Width > 0 && s.Height > 0 {
				c = c.With("width", caps.Int(int64(s.Width))).With("height", caps.Int(int64(s.Height)))
			}
			if fps, ok := parseRate(s.AvgFrameRate); ok {
				c = c.With("framerate", caps.Float(fps))
			}
		case "subtitle":
			c = caps.New("text/x-raw")
		default:
			c = caps.New("application/x-" + s.CodecType)
		}
		info.Streams = append(info.Streams, Stream{Index: s.Index, Caps: c, Codec: s.CodecName})
	}
	return info, nil
}

// parseRate reads ffprobe rationals such as "24/1".
func parseRate(s string) (float64, bool) {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	if !found {
		return n, n > 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, n > 0
}

func localPath(uri string) string {
	if rest, ok := strings.CutPrefix(uri, "file://"); ok {
		return rest
	}
	return uri
}

func isNetworkURI(uri string) bool {
	for _, scheme := range []string{"rtsp://", "rtmp://", "udp://", "srt://"} {
		if strings.HasPrefix(uri, scheme) {
			return true
		}
	}
	return false
}
