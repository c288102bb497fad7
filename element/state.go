package element

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// ID identifies an element for the lifetime of the process.
type ID uint64

var lastID atomic.Uint64

// NewID returns a fresh element ID. IDs are never reused.
func NewID() ID { return ID(lastID.Add(1)) }

// PadRef addresses a pad by owning element and index.
type PadRef struct {
	Element ID
	Index   int
}

func (r PadRef) String() string { return fmt.Sprintf("%d:%d", r.Element, r.Index) }

// LinkID identifies a link inside a pipeline. Zero means unlinked.
type LinkID uint64

// State is the lifecycle state of an element or pipeline.
type State int

const (
	VoidPending State = iota
	Null
	Ready
	Paused
	Playing
)

func (s State) String() string {
	switch s {
	case VoidPending:
		return "VOID_PENDING"
	case Null:
		return "NULL"
	case Ready:
		return "READY"
	case Paused:
		return "PAUSED"
	case Playing:
		return "PLAYING"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ParseState reads a state name as printed by String, case-insensitively.
func ParseState(s string) (State, error) {
	for st := Null; st <= Playing; st++ {
		if strings.EqualFold(st.String(), s) {
			return st, nil
		}
	}
	return VoidPending, fmt.Errorf("element: unknown state %q", s)
}

// StateChange is a single adjacent step between two states.
type StateChange struct {
	From State
	To   State
}

func (c StateChange) String() string { return c.From.String() + "->" + c.To.String() }

// Upward reports whether the change moves towards Playing.
func (c StateChange) Upward() bool { return c.To > c.From }

// Reverse returns the opposite step.
func (c StateChange) Reverse() StateChange { return StateChange{From: c.To, To: c.From} }

// Steps decomposes a transition into adjacent steps. It returns nil when
// from equals to or either state is VoidPending.
func Steps(from, to State) []StateChange {
	if from == VoidPending || to == VoidPending || from == to {
		return nil
	}
	dir := State(1)
	if to < from {
		dir = -1
	}
	steps := make([]StateChange, 0, 3)
	for s := from; s != to; s += dir {
		steps = append(steps, StateChange{From: s, To: s + dir})
	}
	return steps
}

// ChangeReturn is the result of a state change request.
type ChangeReturn int

const (
	Failure ChangeReturn = iota
	Success
	Async
	NoPreroll
)

func (r ChangeReturn) String() string {
	switch r {
	case Failure:
		return "FAILURE"
	case Success:
		return "SUCCESS"
	case Async:
		return "ASYNC"
	case NoPreroll:
		return "NO_PREROLL"
	default:
		return fmt.Sprintf("ChangeReturn(%d)", int(r))
	}
}
