package floors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/officegrid/backend/internal/models"
)

// GetPlan returns the floor-plan artifact for a floor. Absence of the
// artifact is reported as not found even when the floor itself exists.
func (r *Repository) GetPlan(ctx context.Context, floorID int64) (*models.FloorPlanimetry, error) {
	p := models.FloorPlanimetry{FloorID: floorID}
	err := r.pool.QueryRow(ctx,
		`SELECT planimetry, last_updated FROM floor_planimetry WHERE floor_id = $1`, floorID).
		Scan(&p.Planimetry, &p.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no floor plan found for floor ID: %d", models.ErrNotFound, floorID)
		}
		return nil, err
	}
	if p.Planimetry == "" {
		return nil, fmt.Errorf("%w: no floor plan found for floor ID: %d", models.ErrNotFound, floorID)
	}
	return &p, nil
}

// SavePlan creates the artifact on first write or overwrites its content,
// refreshing last_updated either way. The floor must exist.
func (r *Repository) SavePlan(ctx context.Context, floorID int64, svg string) (time.Time, error) {
	var lastUpdated time.Time
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists int
		if err := tx.QueryRow(ctx, `SELECT 1 FROM floors WHERE id = $1`, floorID).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: floor not found", models.ErrNotFound)
			}
			return err
		}
		return tx.QueryRow(ctx,
			`INSERT INTO floor_planimetry (floor_id, planimetry, last_updated)
			 VALUES ($1, $2, now())
			 ON CONFLICT (floor_id) DO UPDATE
			 SET planimetry = EXCLUDED.planimetry, last_updated = now()
			 RETURNING last_updated`,
			floorID, svg).Scan(&lastUpdated)
	})
	if err != nil {
		return time.Time{}, err
	}
	return lastUpdated, nil
}
