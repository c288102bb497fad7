// Package events fans playback session updates out to streaming
// subscribers.
//
// A Hub owns a set of subscribers and runs a single loop that registers,
// unregisters and delivers. Publishing never blocks: when the hub is busy
// or a subscriber is slow the event is dropped for that subscriber, so the
// controller loop that feeds the hub keeps its pace. New subscribers first
// receive the latest event of each type.
//
// # Usage
//
//	hub := events.NewHub(log)
//	registry.Register(events.NewComponent(hub, "/events"))
//	opts.OnSnapshot = hub.SnapshotPublisher()
//	srv.RegisterEvents(hub)
package events
