package bus

import (
	"strings"
	"time"

	"github.com/kbukum/mediagraph/caps"
	"github.com/kbukum/mediagraph/element"
)

// MessageType is a bit in a message filter mask.
type MessageType uint32

const (
	MessageError MessageType = 1 << iota
	MessageEOS
	MessageStateChanged
	MessageDynamicPadAdded
	MessageDurationChanged

	MessageAny = MessageError | MessageEOS | MessageStateChanged | MessageDynamicPadAdded | MessageDurationChanged
)

var typeNames = []struct {
	t    MessageType
	name string
}{
	{MessageError, "error"},
	{MessageEOS, "eos"},
	{MessageStateChanged, "state-changed"},
	{MessageDynamicPadAdded, "dynamic-pad-added"},
	{MessageDurationChanged, "duration-changed"},
}

func (t MessageType) String() string {
	var parts []string
	for _, tn := range typeNames {
		if t&tn.t != 0 {
			parts = append(parts, tn.name)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}

// Source identifies the element or pipeline that posted a message.
type Source struct {
	ID   element.ID
	Name string
}

// Message is an event posted on a bus. Seqnum is assigned by the bus.
type Message struct {
	Type      MessageType
	Seqnum    uint64
	Source    Source
	Timestamp time.Time

	err      error
	debug    string
	oldState element.State
	newState element.State
	pending  element.State
	pad      element.PadRef
	padName  string
	padCaps  caps.Capability
}

func newMessage(t MessageType, src Source) *Message {
	return &Message{Type: t, Source: src, Timestamp: time.Now()}
}

// NewError creates an error message with an optional debug detail.
func NewError(src Source, err error, debug string) *Message {
	m := newMessage(MessageError, src)
	m.err = err
	m.debug = debug
	return m
}

// NewEOS creates an end-of-stream message.
func NewEOS(src Source) *Message {
	return newMessage(MessageEOS, src)
}

// NewStateChanged creates a state-changed message.
func NewStateChanged(src Source, oldState, newState, pending element.State) *Message {
	m := newMessage(MessageStateChanged, src)
	m.oldState, m.newState, m.pending = oldState, newState, pending
	return m
}

// NewDynamicPadAdded announces a pad created at runtime.
func NewDynamicPadAdded(src Source, pad element.PadRef, name string, c caps.Capability) *Message {
	m := newMessage(MessageDynamicPadAdded, src)
	m.pad, m.padName, m.padCaps = pad, name, c
	return m
}

// NewDurationChanged tells listeners to re-query the duration.
func NewDurationChanged(src Source) *Message {
	return newMessage(MessageDurationChanged, src)
}

// ParseError returns the error and debug detail of an error message.
func (m *Message) ParseError() (err error, debug string) {
	return m.err, m.debug
}

// ParseStateChanged returns the states carried by a state-changed message.
func (m *Message) ParseStateChanged() (oldState, newState, pending element.State) {
	return m.oldState, m.newState, m.pending
}

// ParseDynamicPadAdded returns the new pad, its name and its capability.
func (m *Message) ParseDynamicPadAdded() (pad element.PadRef, name string, c caps.Capability) {
	return m.pad, m.padName, m.padCaps
}
