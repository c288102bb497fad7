// Package component runs the services that live next to a playback
// session, such as the status server, the event stream and the telemetry
// exporters.
//
//	reg := component.NewRegistry(log)
//	_ = reg.Register(server.NewComponent(srv))
//	if err := reg.StartAll(ctx); err != nil { ... }
//	defer reg.StopAll(context.Background())
package component
