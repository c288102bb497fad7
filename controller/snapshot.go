package controller

import (
	"time"

	"github.com/kbukum/mediagraph/clock"
)

// Snapshot is a read-only copy of the controller's view of a session,
// published after every loop iteration.
type Snapshot struct {
	SessionID   string          `json:"session_id"`
	Pipeline    string          `json:"pipeline"`
	State       string          `json:"state"`
	Playing     bool            `json:"playing"`
	Position    clock.ClockTime `json:"position_ns"`
	Duration    clock.ClockTime `json:"duration_ns"`
	Seekable    bool            `json:"seekable"`
	SeekEnabled bool            `json:"seek_enabled"`
	SeekDone    bool            `json:"seek_done"`
	Terminated  bool            `json:"terminated"`
	LastError   string          `json:"last_error,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// sameAs compares everything except UpdatedAt.
func (s *Snapshot) sameAs(o *Snapshot) bool {
	a, b := *s, *o
	a.UpdatedAt, b.UpdatedAt = time.Time{}, time.Time{}
	return a == b
}

// Reason tells why a session ended.
type Reason string

const (
	ReasonEOS        Reason = "eos"
	ReasonError      Reason = "error"
	ReasonCancelled  Reason = "cancelled"
	ReasonUnexpected Reason = "unexpected-message"
)

// Report summarizes a finished session.
type Report struct {
	SessionID string
	Reason    Reason
	// Err is the element error or protocol violation that ended the
	// session, nil for EOS and cancellation.
	Err      error
	Position clock.ClockTime
	Duration clock.ClockTime
	Messages int
	// SeekIssued is true once the one-shot seek was attempted;
	// SeekSucceeded holds its result.
	SeekIssued    bool
	SeekSucceeded bool
}
