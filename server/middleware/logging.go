package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/mediagraph/logger"
)

// Polled by orchestrators often enough to drown everything else.
var quietPaths = map[string]bool{"/health": true, "/livez": true, "/readyz": true}

// RequestLogger logs one line per request once the handler returns. Server
// errors log at error level, client errors at warn and the rest at debug.
// Probe endpoints are only logged when they fail.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if quietPaths[c.Request.URL.Path] && status < 500 {
			return
		}
		fields := logger.Fields(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			logger.FieldDuration, time.Since(start).Milliseconds(),
			"client", c.ClientIP(),
		)
		if id := c.GetString(RequestIDKey); id != "" {
			fields[RequestIDKey] = id
		}
		if len(c.Errors) > 0 {
			fields[logger.FieldError] = c.Errors.String()
		}

		switch {
		case status >= 500:
			log.Error("request failed", fields)
		case status >= 400:
			log.Warn("request rejected", fields)
		default:
			log.Debug("request served", fields)
		}
	}
}
