package rooms

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/officegrid/backend/internal/models"
)

// Repository handles room persistence, including the geometry batch
// update. Mutations run inside one transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a room repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Update carries the PUT /rooms/{id} fields. FloorID of zero keeps the
// current floor.
type Update struct {
	Name       string
	RoomNumber string
	FloorID    int64
}

// Create inserts a room after checking the floor reference and the
// per-floor room-number uniqueness.
func (r *Repository) Create(ctx context.Context, rm *models.Room) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := checkFloorExists(ctx, tx, rm.FloorID); err != nil {
			return err
		}
		if err := checkNumberFree(ctx, tx, rm.FloorID, rm.RoomNumber, 0); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx,
			`INSERT INTO office_rooms (floor_id, room_number, name, x, y, width, height)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`,
			rm.FloorID, rm.RoomNumber, rm.Name, rm.X, rm.Y, rm.Width, rm.Height).
			Scan(&rm.ID, &rm.CreatedAt); err != nil {
			return err
		}
		rm.Seats = []models.Seat{}
		return nil
	})
}

// GetByID returns a room with its seats and their assignees.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	return loadRoom(ctx, r.pool, id)
}

// GetSeats returns the seats of a room. The room must exist.
func (r *Repository) GetSeats(ctx context.Context, roomID int64) ([]models.Seat, error) {
	rm, err := loadRoom(ctx, r.pool, roomID)
	if err != nil {
		return nil, err
	}
	return rm.Seats, nil
}

// UpdateRoom changes name, number and optionally the owning floor,
// enforcing existence and uniqueness, and returns the refreshed room.
func (r *Repository) UpdateRoom(ctx context.Context, id int64, upd Update) (*models.Room, error) {
	var updated *models.Room
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var currentFloor int64
		if err := tx.QueryRow(ctx, `SELECT floor_id FROM office_rooms WHERE id = $1`, id).Scan(&currentFloor); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: room not found", models.ErrNotFound)
			}
			return err
		}
		floorID := currentFloor
		if upd.FloorID != 0 && upd.FloorID != currentFloor {
			if err := checkFloorExists(ctx, tx, upd.FloorID); err != nil {
				return err
			}
			floorID = upd.FloorID
		}
		if err := checkNumberFree(ctx, tx, floorID, upd.RoomNumber, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE office_rooms SET floor_id = $1, room_number = $2, name = $3 WHERE id = $4`,
			floorID, upd.RoomNumber, upd.Name, id); err != nil {
			return err
		}
		var err error
		updated, err = loadRoom(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateGeometry applies a sparse geometry patch to the room and,
// optionally, to seats of the room keyed by seat id in the patch. Seat
// keys that do not parse, or that address seats outside this room, are
// skipped silently.
func (r *Repository) UpdateGeometry(ctx context.Context, id int64, patch models.RoomGeometryPatch) (*models.Room, error) {
	var updated *models.Room
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE office_rooms
			 SET x = COALESCE($1, x), y = COALESCE($2, y),
			     width = COALESCE($3, width), height = COALESCE($4, height)
			 WHERE id = $5`,
			patch.X, patch.Y, patch.Width, patch.Height, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: room not found", models.ErrNotFound)
		}
		for key, sp := range patch.Seats {
			seatID, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
			if err != nil {
				continue
			}
			// 0 rows means the seat is missing or belongs to another
			// room; both are skipped by design.
			if _, err := tx.Exec(ctx,
				`UPDATE seats
				 SET x = COALESCE($1, x), y = COALESCE($2, y),
				     width = COALESCE($3, width), height = COALESCE($4, height),
				     rotation = COALESCE($5, rotation)
				 WHERE id = $6 AND room_id = $7`,
				sp.X, sp.Y, sp.Width, sp.Height, sp.Rotation, seatID, id); err != nil {
				return err
			}
		}
		updated, err = loadRoom(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a room. Rooms that still own seats cannot be deleted.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists int
		if err := tx.QueryRow(ctx, `SELECT 1 FROM office_rooms WHERE id = $1`, id).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: room not found", models.ErrNotFound)
			}
			return err
		}
		var seatCount int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM seats WHERE room_id = $1`, id).Scan(&seatCount); err != nil {
			return err
		}
		if seatCount > 0 {
			return fmt.Errorf("%w: cannot delete room that has seats", models.ErrPrecondition)
		}
		_, err := tx.Exec(ctx, `DELETE FROM office_rooms WHERE id = $1`, id)
		return err
	})
}

func checkFloorExists(ctx context.Context, q querier, floorID int64) error {
	var exists int
	if err := q.QueryRow(ctx, `SELECT 1 FROM floors WHERE id = $1`, floorID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: referenced floor does not exist", models.ErrBadReference)
		}
		return err
	}
	return nil
}

func checkNumberFree(ctx context.Context, q querier, floorID int64, roomNumber string, selfID int64) error {
	var count int
	if err := q.QueryRow(ctx,
		`SELECT count(*) FROM office_rooms WHERE floor_id = $1 AND room_number = $2 AND id != $3`,
		floorID, roomNumber, selfID).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: a room with number %s already exists on this floor", models.ErrConflict, roomNumber)
	}
	return nil
}

// loadRoom assembles a room with its seats and assignees.
func loadRoom(ctx context.Context, q querier, id int64) (*models.Room, error) {
	var rm models.Room
	err := q.QueryRow(ctx,
		`SELECT id, floor_id, room_number, name, x, y, width, height, created_at
		 FROM office_rooms WHERE id = $1`, id).
		Scan(&rm.ID, &rm.FloorID, &rm.RoomNumber, &rm.Name, &rm.X, &rm.Y, &rm.Width, &rm.Height, &rm.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: room not found", models.ErrNotFound)
		}
		return nil, err
	}
	rm.Seats = []models.Seat{}

	rows, err := q.Query(ctx,
		`SELECT id, room_id, seat_number, x, y, width, height, rotation, created_at
		 FROM seats WHERE room_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seatIndex := map[int64]int{}
	var seatIDs []int64
	for rows.Next() {
		var s models.Seat
		if err := rows.Scan(&s.ID, &s.RoomID, &s.SeatNumber, &s.X, &s.Y, &s.Width, &s.Height, &s.Rotation, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Employees = []models.EmployeeRef{}
		seatIndex[s.ID] = len(rm.Seats)
		seatIDs = append(seatIDs, s.ID)
		rm.Seats = append(rm.Seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(seatIDs) == 0 {
		return &rm, nil
	}

	empRows, err := q.Query(ctx,
		`SELECT a.seat_id, e.id, e.full_name, e.occupation
		 FROM employee_seat_assignments a
		 JOIN employees e ON e.id = a.employee_id
		 WHERE a.seat_id = ANY($1) ORDER BY a.seat_id, e.id`, seatIDs)
	if err != nil {
		return nil, err
	}
	defer empRows.Close()
	for empRows.Next() {
		var seatID int64
		var ref models.EmployeeRef
		if err := empRows.Scan(&seatID, &ref.ID, &ref.FullName, &ref.Occupation); err != nil {
			return nil, err
		}
		rm.Seats[seatIndex[seatID]].Employees = append(rm.Seats[seatIndex[seatID]].Employees, ref)
	}
	if err := empRows.Err(); err != nil {
		return nil, err
	}
	for i := range rm.Seats {
		rm.Seats[i].RecomputeOccupied()
	}
	return &rm, nil
}
