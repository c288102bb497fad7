// Package gstreamer runs playback sessions on real GStreamer pipelines
// through go-gst. It is compiled only with the gst build tag, since it
// needs cgo and the GStreamer development libraries:
//
//	go build -tags gst ./cmd/mediaplay
//
// A Player satisfies controller.Player, so the same dispatch loop drives
// both the in-process pipeline and GStreamer's playbin.
package gstreamer
