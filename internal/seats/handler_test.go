package seats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/officegrid/backend/internal/models"
	"github.com/officegrid/backend/pkg/response"
)

type fakeStore struct {
	nextID int64
	rooms  map[int64]bool
	seats  map[int64]*models.AssignedSeat
}

func newFakeStore(roomIDs ...int64) *fakeStore {
	s := &fakeStore{rooms: map[int64]bool{}, seats: map[int64]*models.AssignedSeat{}}
	for _, id := range roomIDs {
		s.rooms[id] = true
	}
	return s
}

func (s *fakeStore) checkNumberFree(roomID int64, seatNumber string, selfID int64) error {
	for _, existing := range s.seats {
		if existing.ID != selfID && existing.RoomID == roomID && existing.SeatNumber == seatNumber {
			return fmt.Errorf("%w: a seat with number %s already exists in this room", models.ErrConflict, seatNumber)
		}
	}
	return nil
}

func (s *fakeStore) Create(ctx context.Context, seat *models.Seat) (*models.AssignedSeat, error) {
	if !s.rooms[seat.RoomID] {
		return nil, fmt.Errorf("%w: referenced room does not exist", models.ErrBadReference)
	}
	if err := s.checkNumberFree(seat.RoomID, seat.SeatNumber, 0); err != nil {
		return nil, err
	}
	s.nextID++
	seat.ID = s.nextID
	seat.CreatedAt = time.Now()
	seat.Employees = []models.EmployeeRef{}
	as := &models.AssignedSeat{Seat: *seat, Room: &models.RoomRef{ID: seat.RoomID}}
	s.seats[as.ID] = as
	return as, nil
}

func (s *fakeStore) GetByID(ctx context.Context, id int64) (*models.AssignedSeat, error) {
	seat, ok := s.seats[id]
	if !ok {
		return nil, fmt.Errorf("%w: seat not found", models.ErrNotFound)
	}
	return seat, nil
}

func (s *fakeStore) UpdateSeat(ctx context.Context, id int64, upd Update) (*models.AssignedSeat, error) {
	seat, ok := s.seats[id]
	if !ok {
		return nil, fmt.Errorf("%w: seat not found", models.ErrNotFound)
	}
	roomID := seat.RoomID
	if upd.RoomID != 0 && upd.RoomID != roomID {
		if !s.rooms[upd.RoomID] {
			return nil, fmt.Errorf("%w: referenced room does not exist", models.ErrBadReference)
		}
		roomID = upd.RoomID
	}
	if err := s.checkNumberFree(roomID, upd.SeatNumber, id); err != nil {
		return nil, err
	}
	seat.RoomID = roomID
	seat.SeatNumber = upd.SeatNumber
	return seat, nil
}

func (s *fakeStore) UpdateGeometry(ctx context.Context, id int64, patch models.SeatGeometryPatch) (*models.AssignedSeat, error) {
	seat, ok := s.seats[id]
	if !ok {
		return nil, fmt.Errorf("%w: seat not found", models.ErrNotFound)
	}
	patch.Apply(&seat.Seat)
	return seat, nil
}

func (s *fakeStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.seats[id]; !ok {
		return fmt.Errorf("%w: seat not found", models.ErrNotFound)
	}
	delete(s.seats, id)
	return nil
}

func newRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, nil, zap.NewNop())
	r := gin.New()
	r.POST("/seats", h.Create)
	r.GET("/seats/:id", h.GetByID)
	r.PUT("/seats/:id", h.Update)
	r.PATCH("/seats/:id/geometry", h.UpdateGeometry)
	r.DELETE("/seats/:id", h.Delete)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) response.Body {
	t.Helper()
	var b response.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func TestCreateSeatTrimsNumber(t *testing.T) {
	store := newFakeStore(1)
	r := newRouter(store)

	w := doJSON(t, r, http.MethodPost, "/seats", gin.H{"seatNumber": "  A1  ", "roomId": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	data := decodeBody(t, w).Data.(map[string]any)
	assert.Equal(t, "A1", data["seatNumber"])
	assert.Equal(t, false, data["occupied"])
	assert.Equal(t, float64(100), data["width"])
	assert.Equal(t, float64(0), data["rotation"])
}

func TestCreateSeatValidation(t *testing.T) {
	r := newRouter(newFakeStore(1))

	w := doJSON(t, r, http.MethodPost, "/seats", gin.H{"roomId": 1})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Seat number is required", decodeBody(t, w).Error)

	w = doJSON(t, r, http.MethodPost, "/seats", gin.H{"seatNumber": "   ", "roomId": 1})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Seat number is required", decodeBody(t, w).Error)

	w = doJSON(t, r, http.MethodPost, "/seats", gin.H{"seatNumber": "A1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Room reference is required", decodeBody(t, w).Error)
}

func TestCreateSeatDuplicateNumberInRoom(t *testing.T) {
	r := newRouter(newFakeStore(1, 2))

	w := doJSON(t, r, http.MethodPost, "/seats", gin.H{"seatNumber": "A1", "roomId": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	// trimmed duplicate collides
	w = doJSON(t, r, http.MethodPost, "/seats", gin.H{"seatNumber": " A1 ", "roomId": 1})
	require.Equal(t, http.StatusConflict, w.Code)

	// same number in another room is fine
	w = doJSON(t, r, http.MethodPost, "/seats", gin.H{"seatNumber": "A1", "roomId": 2})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateSeatBadRoomRef(t *testing.T) {
	r := newRouter(newFakeStore(1))

	w := doJSON(t, r, http.MethodPost, "/seats", gin.H{"seatNumber": "A1", "roomId": 9})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w).Error, "referenced room does not exist")
}

func TestUpdateSeatGeometryPartial(t *testing.T) {
	store := newFakeStore(1)
	r := newRouter(store)

	w := doJSON(t, r, http.MethodPost, "/seats", gin.H{
		"seatNumber": "A1", "roomId": 1,
		"x": 5, "y": 6, "width": 50, "height": 40, "rotation": 45,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/seats/1/geometry", gin.H{"rotation": 90, "x": 7})
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w).Data.(map[string]any)
	assert.Equal(t, float64(7), data["x"])
	assert.Equal(t, float64(6), data["y"])
	assert.Equal(t, float64(50), data["width"])
	assert.Equal(t, float64(90), data["rotation"])
}

func TestDeleteSeat(t *testing.T) {
	store := newFakeStore(1)
	r := newRouter(store)

	w := doJSON(t, r, http.MethodPost, "/seats", gin.H{"seatNumber": "A1", "roomId": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	// deletion succeeds even for an occupied seat
	store.seats[1].Employees = []models.EmployeeRef{{ID: 3, FullName: "Grace Hopper"}}

	w = doJSON(t, r, http.MethodDelete, "/seats/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/seats/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
