// Package clock provides the time units used by pipeline queries and seeks,
// and the clocks that drive a pipeline's running time.
package clock

import (
	"fmt"
	"sync"
	"time"
)

// ClockTime is a stream time in nanoseconds. None marks an unknown or
// invalid time, such as the duration of a live stream.
type ClockTime int64

const (
	None        ClockTime = -1
	Nanosecond  ClockTime = 1
	Microsecond           = 1000 * Nanosecond
	Millisecond           = 1000 * Microsecond
	Second                = 1000 * Millisecond
	Minute                = 60 * Second
	Hour                  = 60 * Minute
)

// FromDuration converts a time.Duration to a ClockTime.
func FromDuration(d time.Duration) ClockTime {
	if d < 0 {
		return None
	}
	return ClockTime(d.Nanoseconds())
}

// IsValid reports whether t is a known time.
func (t ClockTime) IsValid() bool { return t >= 0 }

// Duration converts t to a time.Duration. None converts to zero.
func (t ClockTime) Duration() time.Duration {
	if !t.IsValid() {
		return 0
	}
	return time.Duration(t)
}

// String formats t as H:MM:SS.nnnnnnnnn; None renders as 99:99:99.999999999.
func (t ClockTime) String() string {
	if !t.IsValid() {
		return "99:99:99.999999999"
	}
	h := t / Hour
	m := (t / Minute) % 60
	s := (t / Second) % 60
	ns := t % Second
	return fmt.Sprintf("%d:%02d:%02d.%09d", h, m, s, ns)
}

// Clock reports a monotonically increasing time.
type Clock interface {
	Now() ClockTime
}

// SystemClock measures wall time elapsed since it was created.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a clock starting at zero.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() ClockTime {
	return ClockTime(time.Since(c.start).Nanoseconds())
}

// ManualClock only moves when told to. Used for simulated time in tests
// and offline runs.
type ManualClock struct {
	mu  sync.Mutex
	now ClockTime
}

// NewManualClock creates a manual clock starting at zero.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

func (c *ManualClock) Now() ClockTime {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d ClockTime) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

// Set moves the clock to t. Moving backwards is ignored.
func (c *ManualClock) Set(t ClockTime) {
	c.mu.Lock()
	if t > c.now {
		c.now = t
	}
	c.mu.Unlock()
}
