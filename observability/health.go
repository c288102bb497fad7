package observability

import "github.com/kbukum/mediagraph/component"

// HealthStatus is the aggregate health of the process.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// ServiceHealth is the /health body.
type ServiceHealth struct {
	Service    string             `json:"service"`
	Status     HealthStatus       `json:"status"`
	Version    string             `json:"version,omitempty"`
	Components []component.Health `json:"components,omitempty"`
}

// Aggregate folds component results into one status: any unhealthy
// component takes the process down, any degraded one degrades it.
func Aggregate(service, version string, components []component.Health) ServiceHealth {
	h := ServiceHealth{Service: service, Status: HealthStatusUp, Version: version, Components: components}
	for _, c := range components {
		switch c.Status {
		case component.StatusUnhealthy:
			h.Status = HealthStatusDown
		case component.StatusDegraded:
			if h.Status == HealthStatusUp {
				h.Status = HealthStatusDegraded
			}
		}
	}
	return h
}
