package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/mediagraph/version"
)

var started = time.Now()

// versionBody is version.Info plus what only the running process knows.
type versionBody struct {
	Service string `json:"service"`
	version.Info
	Uptime string `json:"uptime"`
}

func Version(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, versionBody{
			Service: serviceName,
			Info:    version.GetVersionInfo(),
			Uptime:  time.Since(started).Round(time.Second).String(),
		})
	}
}
