package events

import (
	"strconv"
	"sync"

	"github.com/kbukum/mediagraph/controller"
	"github.com/kbukum/mediagraph/logger"
)

// Event types.
const (
	TypeConnected = "connected"
	TypeSnapshot  = "snapshot"
)

// Event is one message on the stream. Data is encoded as JSON.
type Event struct {
	ID   string
	Type string
	Data any
}

// Subscriber is a single stream consumer.
type Subscriber struct {
	id     string
	events chan Event
	log    *logger.Logger
}

// NewSubscriber creates a subscriber holding up to buffer undelivered events.
func NewSubscriber(id string, buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = 64
	}
	return &Subscriber{id: id, events: make(chan Event, buffer)}
}

func (s *Subscriber) ID() string { return s.id }

// Events is closed when the subscriber is unregistered or the hub stops.
func (s *Subscriber) Events() <-chan Event { return s.events }

func (s *Subscriber) send(e Event) bool {
	select {
	case s.events <- e:
		return true
	default:
		s.log.Warn("subscriber too slow, dropping event", logger.Fields(
			"subscriber", s.id,
			"event", e.Type,
		))
		return false
	}
}

// Hub manages subscribers and delivers events to all of them.
type Hub struct {
	subscribers map[string]*Subscriber
	register    chan *Subscriber
	unregister  chan *Subscriber
	broadcast   chan Event
	done        chan struct{}
	log         *logger.Logger

	mu      sync.RWMutex
	stopped bool
	latest  map[string]Event
	seq     uint64
}

// NewHub creates a hub. Run must be started before subscribers register.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		subscribers: make(map[string]*Subscriber),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan Event, 256),
		done:        make(chan struct{}),
		log:         log.WithComponent("events"),
		latest:      make(map[string]Event),
	}
}

// Run delivers events until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case s := <-h.register:
			s.log = h.log
			h.mu.Lock()
			h.subscribers[s.id] = s
			n := len(h.subscribers)
			for _, e := range h.latest {
				s.send(e)
			}
			h.mu.Unlock()
			h.log.Debug("subscriber registered", logger.Fields("subscriber", s.id, "subscribers", n))

		case s := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[s.id]; ok {
				delete(h.subscribers, s.id)
				close(s.events)
			}
			n := len(h.subscribers)
			h.mu.Unlock()
			h.log.Debug("subscriber unregistered", logger.Fields("subscriber", s.id, "subscribers", n))

		case e := <-h.broadcast:
			h.deliver(e)
		}
	}
}

// Stop closes every subscriber and makes Run return. It is safe to call
// more than once.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

// Register adds s. It reports false once the hub has stopped.
func (h *Hub) Register(s *Subscriber) bool {
	select {
	case h.register <- s:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes s and closes its channel.
func (h *Hub) Unregister(s *Subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Publish queues an event of the given type for every subscriber. It
// drops the event instead of blocking when the queue is full.
func (h *Hub) Publish(eventType string, data any) {
	h.mu.Lock()
	h.seq++
	e := Event{ID: strconv.FormatUint(h.seq, 10), Type: eventType, Data: data}
	h.mu.Unlock()

	select {
	case h.broadcast <- e:
	default:
		h.log.Warn("event queue full, dropping event", logger.Fields("event", eventType))
	}
}

// SnapshotPublisher adapts the hub to controller.Options.OnSnapshot.
func (h *Hub) SnapshotPublisher() func(controller.Snapshot) {
	return func(s controller.Snapshot) {
		h.Publish(TypeSnapshot, s)
	}
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) deliver(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest[e.Type] = e
	delivered := 0
	for _, s := range h.subscribers {
		if s.send(e) {
			delivered++
		}
	}
	h.log.Debug("event delivered", logger.Fields(
		"event", e.Type,
		"id", e.ID,
		"delivered", delivered,
	))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.subscribers {
		close(s.events)
		delete(h.subscribers, id)
	}
	h.log.Debug("all subscribers closed")
}
