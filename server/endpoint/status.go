package endpoint

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/mediagraph/controller"
	"github.com/kbukum/mediagraph/errors"
)

// SnapshotSource exposes the latest published playback snapshot. The
// boolean is false until a session has started.
type SnapshotSource interface {
	Snapshot() (controller.Snapshot, bool)
}

// StatusView is the /status body. Times are reported both in nanoseconds
// and in H:MM:SS.nnnnnnnnn form.
type StatusView struct {
	controller.Snapshot
	PositionText string `json:"position"`
	DurationText string `json:"duration"`
}

// Status returns a handler that reports the playback session snapshot.
func Status(source SnapshotSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if source == nil {
			RespondWithError(c, errors.NotFound("session", "current"))
			return
		}
		snap, ok := source.Snapshot()
		if !ok {
			RespondWithError(c, errors.NotFound("session", "current"))
			return
		}
		RespondOK(c, StatusView{
			Snapshot:     snap,
			PositionText: snap.Position.String(),
			DurationText: snap.Duration.String(),
		})
	}
}
