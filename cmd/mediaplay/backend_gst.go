//go:build gst

package main

import (
	"github.com/kbukum/mediagraph/config"
	"github.com/kbukum/mediagraph/controller"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/gstreamer"
	"github.com/kbukum/mediagraph/logger"
)

func newGstPlayer(cfg config.Config, log *logger.Logger) (controller.Player, error) {
	switch {
	case cfg.Pipeline.Launch != "":
		return gstreamer.NewFromLaunch(cfg.Pipeline.Launch, log)
	case cfg.Pipeline.File != "":
		return nil, errors.InvalidDescription("YAML descriptions are not supported by the gst backend")
	default:
		return gstreamer.NewPlaybin(cfg.Playback.URI, log)
	}
}
