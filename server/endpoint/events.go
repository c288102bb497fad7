package endpoint

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/mediagraph/errors"
	"github.com/kbukum/mediagraph/events"
)

// KeepAliveInterval stays below common proxy idle timeouts.
var KeepAliveInterval = 30 * time.Second

// Events returns a handler streaming hub events as Server-Sent Events
// until the client goes away or the hub stops.
func Events(hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hub == nil {
			RespondWithError(c, errors.ServiceUnavailable("event stream"))
			return
		}
		sub := events.NewSubscriber(uuid.NewString(), 0)
		if !hub.Register(sub) {
			RespondWithError(c, errors.ServiceUnavailable("event stream"))
			return
		}
		defer hub.Unregister(sub)

		// The server write timeout would cut the stream.
		_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

		h := c.Writer.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)

		_ = sse.Encode(c.Writer, sse.Event{
			Event: events.TypeConnected,
			Data:  gin.H{"subscriber_id": sub.ID()},
		})
		c.Writer.Flush()

		keepAlive := time.NewTicker(KeepAliveInterval)
		defer keepAlive.Stop()

		ctx := c.Request.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := sse.Encode(c.Writer, sse.Event{Id: e.ID, Event: e.Type, Data: e.Data}); err != nil {
					return
				}
				c.Writer.Flush()
			case <-keepAlive.C:
				_, _ = fmt.Fprintf(c.Writer, ": keepalive %d\n\n", time.Now().Unix())
				c.Writer.Flush()
			}
		}
	}
}
