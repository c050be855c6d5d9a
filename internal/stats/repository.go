package stats

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Stats holds live entity counts. Computed on demand, never cached, so
// the numbers always reflect the current layout.
type Stats struct {
	TotalEmployees int64 `json:"totalEmployees"`
	TotalFloors    int64 `json:"totalFloors"`
	TotalOffices   int64 `json:"totalOffices"`
	TotalSeats     int64 `json:"totalSeats"`
}

// Repository computes layout statistics.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a stats repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get counts all entities in one round trip.
func (r *Repository) Get(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx,
		`SELECT (SELECT count(*) FROM employees),
		        (SELECT count(*) FROM floors),
		        (SELECT count(*) FROM office_rooms),
		        (SELECT count(*) FROM seats)`).
		Scan(&s.TotalEmployees, &s.TotalFloors, &s.TotalOffices, &s.TotalSeats)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
