// Package bus carries asynchronous messages from pipeline elements to the
// single consumer driving the pipeline. Messages are delivered in post
// order; a waiter may filter by type, in which case non-matching messages
// stay queued.
package bus

import (
	"context"
	"sync"
	"time"
)

// Forever waits without a timeout.
const Forever time.Duration = -1

// Observer is called for every message accepted by Post.
type Observer func(*Message)

// Bus is a FIFO message queue safe for many producers.
type Bus struct {
	mu       sync.Mutex
	queue    []*Message
	wake     chan struct{}
	seq      uint64
	flushing bool
	observer Observer
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{wake: make(chan struct{})}
}

// SetObserver installs a callback invoked after each successful Post.
func (b *Bus) SetObserver(o Observer) {
	b.mu.Lock()
	b.observer = o
	b.mu.Unlock()
}

// Post appends m, assigning its sequence number. It returns false when the
// bus is flushing and m was dropped.
func (b *Bus) Post(m *Message) bool {
	b.mu.Lock()
	if b.flushing {
		b.mu.Unlock()
		return false
	}
	b.seq++
	m.Seqnum = b.seq
	b.queue = append(b.queue, m)
	close(b.wake)
	b.wake = make(chan struct{})
	obs := b.observer
	b.mu.Unlock()

	if obs != nil {
		obs(m)
	}
	return true
}

// Pop removes and returns the oldest message, or nil when empty.
func (b *Bus) Pop() *Message {
	return b.TimedPopFiltered(context.Background(), 0, MessageAny)
}

// Peek returns the oldest message without removing it.
func (b *Bus) Peek() *Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return nil
	}
	return b.queue[0]
}

// Len returns the number of queued messages.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// TimedPopFiltered removes and returns the oldest message whose type is in
// mask. It waits up to timeout for one to arrive: Forever waits until ctx
// is done, zero does not wait. It returns nil on timeout or cancellation.
func (b *Bus) TimedPopFiltered(ctx context.Context, timeout time.Duration, mask MessageType) *Message {
	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}
	for {
		b.mu.Lock()
		if m := b.takeLocked(mask); m != nil {
			b.mu.Unlock()
			return m
		}
		wake := b.wake
		b.mu.Unlock()

		if timeout == 0 {
			return nil
		}
		select {
		case <-wake:
		case <-deadline:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (b *Bus) takeLocked(mask MessageType) *Message {
	for i, m := range b.queue {
		if m.Type&mask == 0 {
			continue
		}
		copy(b.queue[i:], b.queue[i+1:])
		b.queue[len(b.queue)-1] = nil
		b.queue = b.queue[:len(b.queue)-1]
		return m
	}
	return nil
}

// SetFlushing drops all queued messages and refuses new ones while
// flushing is true.
func (b *Bus) SetFlushing(flushing bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushing = flushing
	if flushing {
		b.queue = nil
	}
}
