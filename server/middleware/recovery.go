package middleware

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/logger"
)

// Recovery turns a handler panic into a 500 with the usual error body.
// The stack goes to the log, not the client.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		log.Error("handler panicked", logger.Fields(
			"panic", fmt.Sprint(recovered),
			"stack", string(debug.Stack()),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		))
		err := apperrors.Internal(fmt.Errorf("panic: %v", recovered))
		c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
	})
}
