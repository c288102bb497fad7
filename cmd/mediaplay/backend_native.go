//go:build !gst

package main

import (
	"github.com/kbukum/mediagraph/config"
	"github.com/kbukum/mediagraph/controller"
	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/logger"
)

func newGstPlayer(config.Config, *logger.Logger) (controller.Player, error) {
	return nil, errors.ServiceUnavailable("gstreamer backend").
		WithDetail("hint", "rebuild with -tags gst")
}
