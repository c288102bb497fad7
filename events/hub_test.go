package events

import (
	"testing"
	"time"

	"github.com/kbukum/mediagraph/controller"
	"github.com/kbukum/mediagraph/logger"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(logger.NewNop())
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func receive(t *testing.T, s *Subscriber) Event {
	t.Helper()
	select {
	case e, ok := <-s.Events():
		if !ok {
			t.Fatal("subscriber closed")
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
	return Event{}
}

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	h := startHub(t)
	a, b := NewSubscriber("a", 4), NewSubscriber("b", 4)
	h.Register(a)
	h.Register(b)

	h.Publish(TypeSnapshot, "hello")
	for _, s := range []*Subscriber{a, b} {
		if e := receive(t, s); e.Type != TypeSnapshot || e.Data != "hello" || e.ID != "1" {
			t.Errorf("%s got %+v", s.ID(), e)
		}
	}
	if n := h.Subscribers(); n != 2 {
		t.Errorf("subscribers = %d", n)
	}
}

func TestHub_LateSubscriberGetsLatest(t *testing.T) {
	h := startHub(t)
	early := NewSubscriber("early", 4)
	h.Register(early)
	h.Publish(TypeSnapshot, 1)
	h.Publish(TypeSnapshot, 2)
	receive(t, early)
	receive(t, early)

	late := NewSubscriber("late", 4)
	h.Register(late)
	if e := receive(t, late); e.Data != 2 {
		t.Errorf("late subscriber got %+v", e)
	}
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	h := startHub(t)
	slow, fast := NewSubscriber("slow", 1), NewSubscriber("fast", 4)
	h.Register(slow)
	h.Register(fast)
	h.Publish(TypeSnapshot, 1)
	h.Publish(TypeSnapshot, 2)

	// Each event reaches every subscriber in one delivery.
	receive(t, fast)
	receive(t, fast)
	if e := receive(t, slow); e.Data != 1 {
		t.Errorf("got %+v", e)
	}
	select {
	case e := <-slow.Events():
		t.Errorf("unexpected second event %+v", e)
	default:
	}
}

func TestHub_UnregisterClosesSubscriber(t *testing.T) {
	h := startHub(t)
	s := NewSubscriber("s", 1)
	h.Register(s)
	h.Unregister(s)
	if _, ok := <-s.Events(); ok {
		t.Error("expected closed channel")
	}
	if h.Subscribers() != 0 {
		t.Errorf("subscribers = %d", h.Subscribers())
	}
}

func TestHub_StopClosesEverything(t *testing.T) {
	h := NewHub(nil)
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()
	s := NewSubscriber("s", 1)
	h.Register(s)
	h.Stop()
	h.Stop()
	<-done

	if _, ok := <-s.Events(); ok {
		t.Error("expected closed channel")
	}
	if h.Register(NewSubscriber("after", 1)) {
		t.Error("register after stop must fail")
	}
}

func TestSnapshotPublisher(t *testing.T) {
	h := startHub(t)
	s := NewSubscriber("s", 1)
	h.Register(s)
	h.SnapshotPublisher()(controller.Snapshot{SessionID: "abc", State: "PLAYING"})
	e := receive(t, s)
	snap, ok := e.Data.(controller.Snapshot)
	if e.Type != TypeSnapshot || !ok || snap.SessionID != "abc" {
		t.Errorf("got %+v", e)
	}
}
