package floors

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/officegrid/backend/internal/httperr"
	"github.com/officegrid/backend/internal/models"
	"github.com/officegrid/backend/internal/realtime"
	"github.com/officegrid/backend/pkg/response"
	"github.com/officegrid/backend/pkg/storage"
)

// Store is the persistence surface the floor handler needs.
type Store interface {
	List(ctx context.Context) ([]models.FloorSummary, error)
	GetByID(ctx context.Context, id int64) (*models.Floor, error)
	Create(ctx context.Context, f *models.Floor) error
	Update(ctx context.Context, id int64, name string, floorNumber int) (*models.Floor, error)
	Delete(ctx context.Context, id int64) error
	GetPlan(ctx context.Context, floorID int64) (*models.FloorPlanimetry, error)
	SavePlan(ctx context.Context, floorID int64, svg string) (time.Time, error)
}

// SaveRequest is the body for POST /floors and PUT /floors/{id}.
type SaveRequest struct {
	Name        string `json:"name"`
	FloorNumber *int   `json:"floorNumber"`
}

func (r SaveRequest) validate() string {
	if strings.TrimSpace(r.Name) == "" {
		return "Floor name is required"
	}
	if r.FloorNumber == nil || *r.FloorNumber < 0 {
		return "Valid floor number is required (must be 0 or greater)"
	}
	return ""
}

// Handler handles floor HTTP endpoints, including the floor-plan artifact.
type Handler struct {
	store   Store
	hub     *realtime.Hub
	archive *storage.S3
	logger  *zap.Logger
}

// NewHandler creates a floor handler. hub and archive may be nil.
func NewHandler(store Store, hub *realtime.Hub, archive *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{store: store, hub: hub, archive: archive, logger: logger}
}

func (h *Handler) notify(action string, id int64) {
	if h.hub != nil {
		h.hub.Notify("floor", action, id)
	}
}

// List handles GET /floors.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /floors/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid floor id")
		return
	}
	f, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, f)
}

// Create handles POST /floors.
func (h *Handler) Create(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	f := &models.Floor{Name: strings.TrimSpace(req.Name), FloorNumber: *req.FloorNumber}
	if err := h.store.Create(c.Request.Context(), f); err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	h.notify("created", f.ID)
	response.Created(c, f)
}

// Update handles PUT /floors/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid floor id")
		return
	}
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	f, err := h.store.Update(c.Request.Context(), id, strings.TrimSpace(req.Name), *req.FloorNumber)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	h.notify("updated", id)
	response.OK(c, f)
}

// Delete handles DELETE /floors/:id. Blocked while the floor owns rooms.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid floor id")
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	h.notify("deleted", id)
	response.NoContent(c)
}

// GetPlan handles GET /floors/:id/svg, returning the raw SVG body.
func (h *Handler) GetPlan(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid floor id")
		return
	}
	plan, err := h.store.GetPlan(c.Request.Context(), id)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", "inline; filename=floor"+strconv.FormatInt(id, 10)+".svg")
	c.Data(200, "image/svg+xml", []byte(plan.Planimetry))
}

// PutPlan handles PUT /floors/:id/svg. The body is the raw SVG text.
// When an archive bucket is configured the plan is also uploaded to S3,
// best-effort.
func (h *Handler) PutPlan(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid floor id")
		return
	}
	body, err := c.GetRawData()
	if err != nil || strings.TrimSpace(string(body)) == "" {
		response.BadRequest(c, "SVG data cannot be empty")
		return
	}
	svg := string(body)
	lastUpdated, err := h.store.SavePlan(c.Request.Context(), id, svg)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	if h.archive != nil {
		if err := h.archive.ArchiveFloorPlan(c.Request.Context(), id, svg); err != nil {
			h.logger.Warn("floor plan archival failed", zap.Int64("floor_id", id), zap.Error(err))
		}
	}
	if h.hub != nil {
		h.hub.Notify("floorplan", "updated", id)
	}
	response.OK(c, gin.H{"floorId": id, "lastUpdated": lastUpdated})
}
