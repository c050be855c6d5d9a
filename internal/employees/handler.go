package employees

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

// Store is the persistence surface the employee handler needs.
type Store interface {
	Create(ctx context.Context, e *models.Employee) error
	GetByID(ctx context.Context, id int64) (*models.Employee, error)
	Assign(ctx context.Context, employeeID, seatID int64) (*models.Employee, error)
	Unassign(ctx context.Context, employeeID, seatID int64) (*models.Employee, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, term string, page, size int) ([]models.Employee, int64, error)
}

// CreateRequest is the body for POST /employees.
type CreateRequest struct {
	FullName   string `json:"fullName"`
	Occupation string `json:"occupation"`
}

func (r CreateRequest) validate() string {
	if strings.TrimSpace(r.FullName) == "" {
		return "Employee full name is required"
	}
	if strings.TrimSpace(r.Occupation) == "" {
		return "Employee occupation is required"
	}
	return ""
}

// Handler handles employee HTTP endpoints, including seat assignment.
type Handler struct {
	store  Store
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewHandler creates an employee handler. hub may be nil.
func NewHandler(store Store, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{store: store, hub: hub, logger: logger}
}

func (h *Handler) notify(entity, action string, id int64) {
	if h.hub != nil {
		h.hub.Notify(entity, action, id)
	}
}

// Create handles POST /employees.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	e := &models.Employee{
		FullName:   strings.TrimSpace(req.FullName),
		Occupation: strings.TrimSpace(req.Occupation),
	}
	if err := h.store.Create(c.Request.Context(), e); err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	h.notify("employee", "created", e.ID)
	response.Created(c, e)
}

// GetByID handles GET /employees/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid employee id")
		return
	}
	e, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, e)
}

// GetSeats handles GET /employees/:id/seats.
func (h *Handler) GetSeats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid employee id")
		return
	}
	e, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, e.Seats)
}

// Assign handles PUT /employees/:id/assign-seat/:seatId. Assigning a
// seat the employee already holds is a no-op and still returns 200 with
// the current seat set.
func (h *Handler) Assign(c *gin.Context) {
	employeeID, seatID, ok := h.pairParams(c)
	if !ok {
		return
	}
	e, err := h.store.Assign(c.Request.Context(), employeeID, seatID)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	h.notify("assignment", "created", seatID)
	response.OK(c, e)
}

// Unassign handles DELETE /employees/:id/unassign-seat/:seatId. The
// pair must exist; removing an absent pair fails.
func (h *Handler) Unassign(c *gin.Context) {
	employeeID, seatID, ok := h.pairParams(c)
	if !ok {
		return
	}
	e, err := h.store.Unassign(c.Request.Context(), employeeID, seatID)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	h.notify("assignment", "deleted", seatID)
	response.OK(c, e)
}

// Delete handles DELETE /employees/:id. The employee's seat
// memberships go with them.
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid employee id")
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	h.notify("employee", "deleted", id)
	response.NoContent(c)
}

// Search handles GET /employees/search?search=&page=&size=. Results
// come back in a page envelope with the total match count.
func (h *Handler) Search(c *gin.Context) {
	term := c.Query("search")

	page := 0
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "invalid page parameter")
			return
		}
		page = n
	}
	size := response.DefaultPageSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "invalid size parameter")
			return
		}
		size = n
	}
	if page < 0 {
		response.BadRequest(c, "Page number cannot be negative")
		return
	}
	if size <= 0 {
		response.BadRequest(c, "Page size must be positive")
		return
	}
	if size > response.MaxPageSize {
		response.BadRequest(c, "Page size cannot exceed 100")
		return
	}

	list, total, err := h.store.Search(c.Request.Context(), term, page, size)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, response.NewPage(list, total, page, size))
}

func (h *Handler) pairParams(c *gin.Context) (employeeID, seatID int64, ok bool) {
	employeeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid employee id")
		return 0, 0, false
	}
	seatID, err = strconv.ParseInt(c.Param("seatId"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid seat id")
		return 0, 0, false
	}
	return employeeID, seatID, true
}
