package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/officegrid/backend/pkg/response"
)

type fakeStore struct {
	stats *Stats
	err   error
}

func (s *fakeStore) Get(ctx context.Context) (*Stats, error) {
	return s.stats, s.err
}

func serve(store Store) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, zap.NewNop())
	r := gin.New()
	r.GET("/stats", h.Get)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	return w
}

func TestGetStats(t *testing.T) {
	w := serve(&fakeStore{stats: &Stats{TotalEmployees: 12, TotalFloors: 3, TotalOffices: 9, TotalSeats: 40}})
	require.Equal(t, http.StatusOK, w.Code)

	var b response.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	data := b.Data.(map[string]any)
	assert.Equal(t, float64(12), data["totalEmployees"])
	assert.Equal(t, float64(3), data["totalFloors"])
	assert.Equal(t, float64(9), data["totalOffices"])
	assert.Equal(t, float64(40), data["totalSeats"])
}

func TestGetStatsError(t *testing.T) {
	w := serve(&fakeStore{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
