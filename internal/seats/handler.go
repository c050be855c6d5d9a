package seats

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

// Store is the persistence surface the seat handler needs.
type Store interface {
	Create(ctx context.Context, s *models.Seat) (*models.AssignedSeat, error)
	GetByID(ctx context.Context, id int64) (*models.AssignedSeat, error)
	UpdateSeat(ctx context.Context, id int64, upd Update) (*models.AssignedSeat, error)
	UpdateGeometry(ctx context.Context, id int64, patch models.SeatGeometryPatch) (*models.AssignedSeat, error)
	Delete(ctx context.Context, id int64) error
}

type entityRef struct {
	ID int64 `json:"id"`
}

// SaveRequest is the body for POST /seats and PUT /seats/{id}. The room
// reference may come as roomId or as a nested {"room": {"id": ...}}.
// The seat number is trimmed before validation and storage.
type SaveRequest struct {
	SeatNumber string     `json:"seatNumber"`
	RoomID     int64      `json:"roomId"`
	Room       *entityRef `json:"room"`
	X          *float64   `json:"x"`
	Y          *float64   `json:"y"`
	Width      *float64   `json:"width"`
	Height     *float64   `json:"height"`
	Rotation   *float64   `json:"rotation"`
}

func (r SaveRequest) roomRef() int64 {
	if r.RoomID != 0 {
		return r.RoomID
	}
	if r.Room != nil {
		return r.Room.ID
	}
	return 0
}

func (r SaveRequest) validate(requireRoom bool) string {
	if strings.TrimSpace(r.SeatNumber) == "" {
		return "Seat number is required"
	}
	if requireRoom && r.roomRef() == 0 {
		return "Room reference is required"
	}
	return ""
}

// Handler handles seat HTTP endpoints.
type Handler struct {
	store  Store
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewHandler creates a seat handler. hub may be nil.
func NewHandler(store Store, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{store: store, hub: hub, logger: logger}
}

func (h *Handler) notify(action string, id int64) {
	if h.hub != nil {
		h.hub.Notify("seat", action, id)
	}
}

// Create handles POST /seats.
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
	s := &models.Seat{
		RoomID:     req.roomRef(),
		SeatNumber: strings.TrimSpace(req.SeatNumber),
		Width:      models.DefaultGeometryWidth,
		Height:     models.DefaultGeometryHeight,
	}
	if req.X != nil {
		s.X = *req.X
	}
	if req.Y != nil {
		s.Y = *req.Y
	}
	if req.Width != nil {
		s.Width = *req.Width
	}
	if req.Height != nil {
		s.Height = *req.Height
	}
	if req.Rotation != nil {
		s.Rotation = *req.Rotation
	}
	created, err := h.store.Create(c.Request.Context(), s)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	h.notify("created", created.ID)
	response.Created(c, created)
}

// GetByID handles GET /seats/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid seat id")
		return
	}
	s, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, s)
}

// Update handles PUT /seats/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid seat id")
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
	s, err := h.store.UpdateSeat(c.Request.Context(), id, Update{
		SeatNumber: strings.TrimSpace(req.SeatNumber),
		RoomID:     req.roomRef(),
	})
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	h.notify("updated", id)
	response.OK(c, s)
}

// UpdateGeometry handles PATCH /seats/:id/geometry. Absent fields keep
// their stored values.
func (h *Handler) UpdateGeometry(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid seat id")
		return
	}
	var patch models.SeatGeometryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s, err := h.store.UpdateGeometry(c.Request.Context(), id, patch)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	h.notify("updated", id)
	response.OK(c, s)
}

// Delete handles DELETE /seats/:id. Deletion always succeeds on an
// existing seat; memberships are cascaded away, never left dangling.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid seat id")
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	h.notify("deleted", id)
	response.NoContent(c)
}
