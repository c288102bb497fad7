package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/mediagraph/component"
	"github.com/kbukum/mediagraph/observability"
	"github.com/kbukum/mediagraph/version"
)

// HealthChecker reports the registered components.
type HealthChecker func(ctx context.Context) []component.Health

// probeBody is shared by /livez and /readyz.
type probeBody struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

func probe(c *gin.Context, code int, status, service string) {
	c.JSON(code, probeBody{Status: status, Service: service, Timestamp: now()})
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// Liveness answers as long as the process can serve HTTP.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		probe(c, http.StatusOK, "alive", serviceName)
	}
}

// Readiness is 200 once the session is PLAYING and until it terminates.
func Readiness(serviceName string, source SnapshotSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if source != nil {
			if snap, ok := source.Snapshot(); ok && snap.Playing && !snap.Terminated {
				probe(c, http.StatusOK, "ready", serviceName)
				return
			}
		}
		probe(c, http.StatusServiceUnavailable, "not_ready", serviceName)
	}
}

// Health aggregates the component reports. A down service answers 503.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var reports []component.Health
		if checker != nil {
			reports = checker(c.Request.Context())
		}
		h := observability.Aggregate(serviceName, version.GetShortVersion(), reports)

		code := http.StatusOK
		if h.Status == observability.HealthStatusDown {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":     h.Status,
			"service":    h.Service,
			"version":    h.Version,
			"timestamp":  now(),
			"components": h.Components,
		})
	}
}
