// Package probe inspects a media URI and reports the elementary streams a
// decoder would expose, along with duration and seekability.
package probe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/mediagraph/caps"
	"github.com/kbukum/mediagraph/clock"
	"github.com/kbukum/mediagraph/errors"
)

// Stream is one elementary stream inside a container.
type Stream struct {
	Index int
	Caps  caps.Capability
	// Codec is informational only.
	Codec string
}

// Info is the result of inspecting a URI.
type Info struct {
	URI      string
	Duration clock.ClockTime
	Seekable bool
	Live     bool
	// KeyframeInterval is the distance between key frames. Zero means every
	// position is a key frame.
	KeyframeInterval clock.ClockTime
	Streams          []Stream
}

// Families returns the capability family of each stream in order.
func (i *Info) Families() []string {
	out := make([]string, 0, len(i.Streams))
	for _, s := range i.Streams {
		out = append(out, s.Caps.Family())
	}
	return out
}

// Prober inspects URIs. Implementations must be safe for concurrent use.
type Prober interface {
	Probe(ctx context.Context, uri string) (*Info, error)
}

// Static answers from a fixed table. A fallback, when set, is returned for
// URIs missing from the table.
type Static struct {
	mu       sync.RWMutex
	entries  map[string]*Info
	fallback *Info
	delay    time.Duration
}

var _ Prober = (*Static)(nil)

// NewStatic creates an empty static prober.
func NewStatic() *Static {
	return &Static{entries: make(map[string]*Info)}
}

// Add registers the result for uri.
func (s *Static) Add(uri string, info *Info) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[uri] = info
	return s
}

// SetFallback sets the result for URIs without an entry.
func (s *Static) SetFallback(info *Info) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = info
	return s
}

// SetDelay makes every probe take at least d, honoring cancellation.
func (s *Static) SetDelay(d time.Duration) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
	return s
}

func (s *Static) Probe(ctx context.Context, uri string) (*Info, error) {
	s.mu.RLock()
	info, ok := s.entries[uri]
	if !ok {
		info = s.fallback
	}
	delay := s.delay
	s.mu.RUnlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if info == nil {
		return nil, errors.ProbeFailed(uri, fmt.Errorf("no such resource"))
	}
	out := *info
	out.URI = uri
	out.Streams = append([]Stream(nil), info.Streams...)
	return &out, nil
}
