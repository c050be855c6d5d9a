package rooms

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/officegrid/backend/internal/httperr"
	"github.com/officegrid/backend/internal/models"
	"github.com/officegrid/backend/internal/realtime"
	"github.com/officegrid/backend/pkg/response"
)

// Store is the persistence surface the room handler needs.
type Store interface {
	Create(ctx context.Context, rm *models.Room) error
	GetByID(ctx context.Context, id int64) (*models.Room, error)
	GetSeats(ctx context.Context, roomID int64) ([]models.Seat, error)
	UpdateRoom(ctx context.Context, id int64, upd Update) (*models.Room, error)
	UpdateGeometry(ctx context.Context, id int64, patch models.RoomGeometryPatch) (*models.Room, error)
	Delete(ctx context.Context, id int64) error
}

type entityRef struct {
	ID int64 `json:"id"`
}

// SaveRequest is the body for POST /rooms and PUT /rooms/{id}. The floor
// reference may come as floorId or as a nested {"floor": {"id": ...}}.
type SaveRequest struct {
	Name       string     `json:"name"`
	RoomNumber string     `json:"roomNumber"`
	FloorID    int64      `json:"floorId"`
	Floor      *entityRef `json:"floor"`
	X          *float64   `json:"x"`
	Y          *float64   `json:"y"`
	Width      *float64   `json:"width"`
	Height     *float64   `json:"height"`
}

func (r SaveRequest) floorRef() int64 {
	if r.FloorID != 0 {
		return r.FloorID
	}
	if r.Floor != nil {
		return r.Floor.ID
	}
	return 0
}

func (r SaveRequest) validate(requireFloor bool) string {
	if strings.TrimSpace(r.Name) == "" {
		return "Room name is required"
	}
	if strings.TrimSpace(r.RoomNumber) == "" {
		return "Room number is required"
	}
	if requireFloor && r.floorRef() == 0 {
		return "Floor reference is required"
	}
	return ""
}

// Handler handles room HTTP endpoints.
type Handler struct {
	store  Store
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewHandler creates a room handler. hub may be nil.
func NewHandler(store Store, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{store: store, hub: hub, logger: logger}
}

func (h *Handler) notify(action string, id int64) {
	if h.hub != nil {
		h.hub.Notify("room", action, id)
	}
}

// Create handles POST /rooms.
func (h *Handler) Create(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if msg := req.validate(true); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	rm := &models.Room{
		FloorID:    req.floorRef(),
		RoomNumber: strings.TrimSpace(req.RoomNumber),
		Name:       strings.TrimSpace(req.Name),
		Width:      models.DefaultGeometryWidth,
		Height:     models.DefaultGeometryHeight,
	}
	if req.X != nil {
		rm.X = *req.X
	}
	if req.Y != nil {
		rm.Y = *req.Y
	}
	if req.Width != nil {
		rm.Width = *req.Width
	}
	if req.Height != nil {
		rm.Height = *req.Height
	}
	if err := h.store.Create(c.Request.Context(), rm); err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	h.notify("created", rm.ID)
	response.Created(c, rm)
}

// GetByID handles GET /rooms/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid room id")
		return
	}
	rm, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, rm)
}

// GetSeats handles GET /rooms/:id/seats.
func (h *Handler) GetSeats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid room id")
		return
	}
	seats, err := h.store.GetSeats(c.Request.Context(), id)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, seats)
}

// Update handles PUT /rooms/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid room id")
		return
	}
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if msg := req.validate(false); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	rm, err := h.store.UpdateRoom(c.Request.Context(), id, Update{
		Name:       strings.TrimSpace(req.Name),
		RoomNumber: strings.TrimSpace(req.RoomNumber),
		FloorID:    req.floorRef(),
	})
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	h.notify("updated", id)
	response.OK(c, rm)
}

// UpdateGeometry handles PATCH /rooms/:id/geometry. Fields absent from
// the body keep their stored values; nested seat patches are applied
// best-effort.
func (h *Handler) UpdateGeometry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid room id")
		return
	}
	var patch models.RoomGeometryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	rm, err := h.store.UpdateGeometry(c.Request.Context(), id, patch)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	h.notify("updated", id)
	response.OK(c, rm)
}

// Delete handles DELETE /rooms/:id. Blocked while the room owns seats.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid room id")
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	h.notify("deleted", id)
	response.NoContent(c)
}
