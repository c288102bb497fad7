package component

import "context"

type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Health is one component's entry in the /health report.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a service that lives next to a playback session, such as
// the status server or the telemetry exporters.
type Component interface {
	// Name must be unique within a Registry.
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is the startup summary a Describable component reports.
type Description struct {
	Name    string // display name, defaults to Name()
	Type    string // "server", "telemetry", "sse"
	Details string // e.g. "0.0.0.0:8089 h2c"
	Port    int
}

// Describable components get an info line once started instead of a
// debug line.
type Describable interface {
	Describe() Description
}
