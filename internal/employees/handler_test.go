package employees

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/officegrid/backend/internal/models"
	"github.com/officegrid/backend/pkg/response"
)

// fakeStore keeps the assignment relation as a pair set, mirroring the
// repository's semantics: idempotent assign, strict unassign, cascade on
// employee delete.
type fakeStore struct {
	nextID    int64
	employees map[int64]*models.Employee
	seats     map[int64]bool
	pairs     map[[2]int64]bool // [employeeID, seatID]
}

func newFakeStore(seatIDs ...int64) *fakeStore {
	s := &fakeStore{
		employees: map[int64]*models.Employee{},
		seats:     map[int64]bool{},
		pairs:     map[[2]int64]bool{},
	}
	for _, id := range seatIDs {
		s.seats[id] = true
	}
	return s
}

func (s *fakeStore) Create(ctx context.Context, e *models.Employee) error {
	s.nextID++
	e.ID = s.nextID
	e.CreatedAt = time.Now()
	e.Seats = []models.AssignedSeat{}
	s.employees[e.ID] = e
	return nil
}

func (s *fakeStore) project(e *models.Employee) *models.Employee {
	out := *e
	out.Seats = []models.AssignedSeat{}
	var seatIDs []int64
	for pair := range s.pairs {
		if pair[0] == e.ID {
			seatIDs = append(seatIDs, pair[1])
		}
	}
	sort.Slice(seatIDs, func(i, j int) bool { return seatIDs[i] < seatIDs[j] })
	for _, seatID := range seatIDs {
		as := models.AssignedSeat{Seat: models.Seat{ID: seatID, Employees: []models.EmployeeRef{}}}
		for pair := range s.pairs {
			if pair[1] == seatID {
				holder := s.employees[pair[0]]
				as.Employees = append(as.Employees, models.EmployeeRef{ID: holder.ID, FullName: holder.FullName, Occupation: holder.Occupation})
			}
		}
		as.RecomputeOccupied()
		out.Seats = append(out.Seats, as)
	}
	return &out
}

func (s *fakeStore) GetByID(ctx context.Context, id int64) (*models.Employee, error) {
	e, ok := s.employees[id]
	if !ok {
		return nil, fmt.Errorf("%w: employee not found", models.ErrNotFound)
	}
	return s.project(e), nil
}

func (s *fakeStore) checkPair(employeeID, seatID int64) error {
	if _, ok := s.employees[employeeID]; !ok {
		return fmt.Errorf("%w: employee not found", models.ErrNotFound)
	}
	if !s.seats[seatID] {
		return fmt.Errorf("%w: seat not found", models.ErrNotFound)
	}
	return nil
}

func (s *fakeStore) Assign(ctx context.Context, employeeID, seatID int64) (*models.Employee, error) {
	if err := s.checkPair(employeeID, seatID); err != nil {
		return nil, err
	}
	s.pairs[[2]int64{employeeID, seatID}] = true
	return s.GetByID(ctx, employeeID)
}

func (s *fakeStore) Unassign(ctx context.Context, employeeID, seatID int64) (*models.Employee, error) {
	if err := s.checkPair(employeeID, seatID); err != nil {
		return nil, err
	}
	if !s.pairs[[2]int64{employeeID, seatID}] {
		return nil, fmt.Errorf("%w: this seat is not assigned to the employee", models.ErrPrecondition)
	}
	delete(s.pairs, [2]int64{employeeID, seatID})
	return s.GetByID(ctx, employeeID)
}

func (s *fakeStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.employees[id]; !ok {
		return fmt.Errorf("%w: employee not found", models.ErrNotFound)
	}
	for pair := range s.pairs {
		if pair[0] == id {
			delete(s.pairs, pair)
		}
	}
	delete(s.employees, id)
	return nil
}

func (s *fakeStore) Search(ctx context.Context, term string, page, size int) ([]models.Employee, int64, error) {
	var ids []int64
	for id := range s.employees {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var matched []models.Employee
	for _, id := range ids {
		e := s.employees[id]
		if term == "" || containsFold(e.FullName, term) || containsFold(e.Occupation, term) {
			matched = append(matched, *s.project(e))
		}
	}
	total := int64(len(matched))
	start := page * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func newRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, nil, zap.NewNop())
	r := gin.New()
	r.POST("/employees", h.Create)
	r.GET("/employees/search", h.Search)
	r.GET("/employees/:id", h.GetByID)
	r.GET("/employees/:id/seats", h.GetSeats)
	r.PUT("/employees/:id/assign-seat/:seatId", h.Assign)
	r.DELETE("/employees/:id/unassign-seat/:seatId", h.Unassign)
	r.DELETE("/employees/:id", h.Delete)
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

func createEmployee(t *testing.T, r *gin.Engine, fullName, occupation string) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/employees", gin.H{"fullName": fullName, "occupation": occupation})
	require.Equal(t, http.StatusCreated, w.Code)
}

func seatIDs(t *testing.T, body response.Body) []float64 {
	t.Helper()
	data := body.Data.(map[string]any)
	raw := data["seats"].([]any)
	out := make([]float64, 0, len(raw))
	for _, s := range raw {
		out = append(out, s.(map[string]any)["id"].(float64))
	}
	return out
}

func TestCreateEmployeeValidation(t *testing.T) {
	r := newRouter(newFakeStore())

	w := doJSON(t, r, http.MethodPost, "/employees", gin.H{"occupation": "Engineer"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Employee full name is required", decodeBody(t, w).Error)

	w = doJSON(t, r, http.MethodPost, "/employees", gin.H{"fullName": "Ada Lovelace"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Employee occupation is required", decodeBody(t, w).Error)
}

func TestAssignSeatIdempotent(t *testing.T) {
	r := newRouter(newFakeStore(10))
	createEmployee(t, r, "Ada Lovelace", "Engineer")

	w := doJSON(t, r, http.MethodPut, "/employees/1/assign-seat/10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []float64{10}, seatIDs(t, decodeBody(t, w)))

	// assigning again is a no-op, still 200 with the same seat set
	w = doJSON(t, r, http.MethodPut, "/employees/1/assign-seat/10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []float64{10}, seatIDs(t, decodeBody(t, w)))
}

func TestAssignSeatUnknownEnds(t *testing.T) {
	r := newRouter(newFakeStore(10))
	createEmployee(t, r, "Ada Lovelace", "Engineer")

	w := doJSON(t, r, http.MethodPut, "/employees/99/assign-seat/10", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPut, "/employees/1/assign-seat/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnassignSeatStrict(t *testing.T) {
	r := newRouter(newFakeStore(10, 11))
	createEmployee(t, r, "Ada Lovelace", "Engineer")

	// unassigning a pair that was never assigned fails
	w := doJSON(t, r, http.MethodDelete, "/employees/1/unassign-seat/10", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w).Error, "not assigned to the employee")

	w = doJSON(t, r, http.MethodPut, "/employees/1/assign-seat/10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodPut, "/employees/1/assign-seat/11", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/employees/1/unassign-seat/10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []float64{11}, seatIDs(t, decodeBody(t, w)))

	// second unassign of the same pair fails
	w = doJSON(t, r, http.MethodDelete, "/employees/1/unassign-seat/10", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSeatSharedByMultipleEmployees(t *testing.T) {
	r := newRouter(newFakeStore(10))
	createEmployee(t, r, "Ada Lovelace", "Engineer")
	createEmployee(t, r, "Grace Hopper", "Admiral")

	w := doJSON(t, r, http.MethodPut, "/employees/1/assign-seat/10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodPut, "/employees/2/assign-seat/10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w).Data.(map[string]any)
	seats := data["seats"].([]any)
	require.Len(t, seats, 1)
	seat := seats[0].(map[string]any)
	assert.Equal(t, true, seat["occupied"])
	assert.Len(t, seat["employees"].([]any), 2)
}

func TestDeleteEmployeeClearsAssignments(t *testing.T) {
	store := newFakeStore(10)
	r := newRouter(store)
	createEmployee(t, r, "Ada Lovelace", "Engineer")

	w := doJSON(t, r, http.MethodPut, "/employees/1/assign-seat/10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/employees/1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.pairs)
}

func TestGetEmployeeSeats(t *testing.T) {
	r := newRouter(newFakeStore(10))
	createEmployee(t, r, "Ada Lovelace", "Engineer")

	w := doJSON(t, r, http.MethodGet, "/employees/1/seats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var b response.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Equal(t, []any{}, b.Data)

	w = doJSON(t, r, http.MethodGet, "/employees/9/seats", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchEmployees(t *testing.T) {
	r := newRouter(newFakeStore())
	createEmployee(t, r, "Ada Lovelace", "Engineer")
	createEmployee(t, r, "Grace Hopper", "Admiral")
	createEmployee(t, r, "Alan Turing", "Engineer")

	w := doJSON(t, r, http.MethodGet, "/employees/search?search=engineer", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w).Data.(map[string]any)
	assert.Equal(t, float64(2), data["totalElements"])
	assert.Equal(t, float64(1), data["totalPages"])
	assert.Equal(t, float64(0), data["currentPage"])
	assert.Len(t, data["content"].([]any), 2)
}

func TestSearchEmployeesPaging(t *testing.T) {
	r := newRouter(newFakeStore())
	for i := 0; i < 5; i++ {
		createEmployee(t, r, fmt.Sprintf("Person %d", i), "Engineer")
	}

	w := doJSON(t, r, http.MethodGet, "/employees/search?search=person&page=1&size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w).Data.(map[string]any)
	assert.Equal(t, float64(5), data["totalElements"])
	assert.Equal(t, float64(3), data["totalPages"])
	assert.Equal(t, float64(1), data["currentPage"])
	assert.Equal(t, float64(2), data["size"])
	assert.Len(t, data["content"].([]any), 2)
}

func TestSearchEmployeesParamValidation(t *testing.T) {
	r := newRouter(newFakeStore())

	w := doJSON(t, r, http.MethodGet, "/employees/search?page=-1", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Page number cannot be negative", decodeBody(t, w).Error)

	w = doJSON(t, r, http.MethodGet, "/employees/search?size=0", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Page size must be positive", decodeBody(t, w).Error)

	w = doJSON(t, r, http.MethodGet, "/employees/search?size=101", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Page size cannot exceed 100", decodeBody(t, w).Error)

	w = doJSON(t, r, http.MethodGet, "/employees/search?page=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
