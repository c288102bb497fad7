// Package server exposes a read-only HTTP status surface for a playback
// process, using Gin behind an h2c handler so HTTP/1.1 and cleartext
// HTTP/2 clients share one port.
//
// # Middleware
//
// Gin middleware from server/middleware, outermost first:
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id generation and propagation
//   - CORS: cross-origin headers for browser dashboards
//   - RequestLogger: one line per request, successful probes skipped
//
// # Endpoints
//
// Registered by RegisterEndpoints (server/endpoint):
//
//   - /health: component health aggregation
//   - /livez: liveness probe
//   - /readyz: ready once the session is PLAYING
//   - /version: build information
//   - /status: the controller snapshot (state, position, duration, seek flags)
//
// RegisterEvents adds /events, a Server-Sent Events stream of snapshots.
package server
