package stats

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/officegrid/backend/internal/httperr"
	"github.com/officegrid/backend/pkg/response"
)

// Store is the persistence surface the stats handler needs.
type Store interface {
	Get(ctx context.Context) (*Stats, error)
}

// Handler serves the dashboard statistics endpoint.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a stats handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Get handles GET /stats.
func (h *Handler) Get(c *gin.Context) {
	s, err := h.store.Get(c.Request.Context())
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, s)
}
