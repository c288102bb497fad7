package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/mediagraph/errors"
)

// DataResponse wraps every successful body.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondWithError answers with err's status and error body. Errors without
// a code become 500s.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}
