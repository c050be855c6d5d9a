// Package httperr maps repository error kinds onto HTTP responses so
// every handler reports the taxonomy the same way.
package httperr

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/officegrid/backend/internal/models"
	"github.com/officegrid/backend/pkg/response"
)

// Write sends the response matching err's kind. Unexpected errors are
// logged (when a logger is given) and surface as a generic 500.
func Write(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, models.ErrConflict):
		response.Conflict(c, err.Error())
	case errors.Is(err, models.ErrBadReference), errors.Is(err, models.ErrPrecondition):
		response.BadRequest(c, err.Error())
	default:
		if logger != nil {
			logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		}
		response.Internal(c, "internal error")
	}
}
