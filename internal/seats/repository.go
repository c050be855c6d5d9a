package seats

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/officegrid/backend/internal/models"
)

// Repository handles seat persistence. Seat numbers are stored trimmed;
// callers trim before passing them in, and uniqueness is checked on the
// trimmed value within the owning room.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a seat repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Update carries the PUT /seats/{id} fields. RoomID of zero keeps the
// current room.
type Update struct {
	SeatNumber string
	RoomID     int64
}

// Create inserts a seat after checking the room reference and the
// per-room seat-number uniqueness.
func (r *Repository) Create(ctx context.Context, s *models.Seat) (*models.AssignedSeat, error) {
	var created *models.AssignedSeat
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := checkRoomExists(ctx, tx, s.RoomID); err != nil {
			return err
		}
		if err := checkNumberFree(ctx, tx, s.RoomID, s.SeatNumber, 0); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx,
			`INSERT INTO seats (room_id, seat_number, x, y, width, height, rotation)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`,
			s.RoomID, s.SeatNumber, s.X, s.Y, s.Width, s.Height, s.Rotation).
			Scan(&s.ID, &s.CreatedAt); err != nil {
			return err
		}
		var err error
		created, err = loadSeat(ctx, tx, s.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID returns a seat with its room, floor and assignees.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.AssignedSeat, error) {
	return loadSeat(ctx, r.pool, id)
}

// UpdateSeat changes the seat number and optionally moves the seat to
// another room, enforcing existence and uniqueness.
func (r *Repository) UpdateSeat(ctx context.Context, id int64, upd Update) (*models.AssignedSeat, error) {
	var updated *models.AssignedSeat
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var currentRoom int64
		if err := tx.QueryRow(ctx, `SELECT room_id FROM seats WHERE id = $1`, id).Scan(&currentRoom); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: seat not found", models.ErrNotFound)
			}
			return err
		}
		roomID := currentRoom
		if upd.RoomID != 0 && upd.RoomID != currentRoom {
			if err := checkRoomExists(ctx, tx, upd.RoomID); err != nil {
				return err
			}
			roomID = upd.RoomID
		}
		if err := checkNumberFree(ctx, tx, roomID, upd.SeatNumber, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE seats SET room_id = $1, seat_number = $2 WHERE id = $3`,
			roomID, upd.SeatNumber, id); err != nil {
			return err
		}
		var err error
		updated, err = loadSeat(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateGeometry applies a sparse geometry patch to the seat.
func (r *Repository) UpdateGeometry(ctx context.Context, id int64, patch models.SeatGeometryPatch) (*models.AssignedSeat, error) {
	var updated *models.AssignedSeat
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE seats
			 SET x = COALESCE($1, x), y = COALESCE($2, y),
			     width = COALESCE($3, width), height = COALESCE($4, height),
			     rotation = COALESCE($5, rotation)
			 WHERE id = $6`,
			patch.X, patch.Y, patch.Width, patch.Height, patch.Rotation, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: seat not found", models.ErrNotFound)
		}
		updated, err = loadSeat(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a seat unconditionally, clearing its memberships from
// every assigned employee in the same transaction.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists int
		if err := tx.QueryRow(ctx, `SELECT 1 FROM seats WHERE id = $1`, id).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: seat not found", models.ErrNotFound)
			}
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM employee_seat_assignments WHERE seat_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM seats WHERE id = $1`, id)
		return err
	})
}

func checkRoomExists(ctx context.Context, q querier, roomID int64) error {
	var exists int
	if err := q.QueryRow(ctx, `SELECT 1 FROM office_rooms WHERE id = $1`, roomID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: referenced room does not exist", models.ErrBadReference)
		}
		return err
	}
	return nil
}

func checkNumberFree(ctx context.Context, q querier, roomID int64, seatNumber string, selfID int64) error {
	var count int
	if err := q.QueryRow(ctx,
		`SELECT count(*) FROM seats WHERE room_id = $1 AND seat_number = $2 AND id != $3`,
		roomID, seatNumber, selfID).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: a seat with number %s already exists in this room", models.ErrConflict, seatNumber)
	}
	return nil
}

// loadSeat assembles the seat projection: seat, room with floor, and the
// employee refs whose presence drives the derived occupied flag.
func loadSeat(ctx context.Context, q querier, id int64) (*models.AssignedSeat, error) {
	var s models.AssignedSeat
	var room models.RoomRef
	var floor models.FloorRef
	err := q.QueryRow(ctx,
		`SELECT s.id, s.room_id, s.seat_number, s.x, s.y, s.width, s.height, s.rotation, s.created_at,
		        r.id, r.floor_id, r.room_number, r.name,
		        f.id, f.floor_number, f.name
		 FROM seats s
		 JOIN office_rooms r ON r.id = s.room_id
		 JOIN floors f ON f.id = r.floor_id
		 WHERE s.id = $1`, id).
		Scan(&s.ID, &s.RoomID, &s.SeatNumber, &s.X, &s.Y, &s.Width, &s.Height, &s.Rotation, &s.CreatedAt,
			&room.ID, &room.FloorID, &room.RoomNumber, &room.Name,
			&floor.ID, &floor.FloorNumber, &floor.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: seat not found", models.ErrNotFound)
		}
		return nil, err
	}
	room.Floor = &floor
	s.Room = &room
	s.Employees = []models.EmployeeRef{}

	rows, err := q.Query(ctx,
		`SELECT e.id, e.full_name, e.occupation
		 FROM employee_seat_assignments a
		 JOIN employees e ON e.id = a.employee_id
		 WHERE a.seat_id = $1 ORDER BY e.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ref models.EmployeeRef
		if err := rows.Scan(&ref.ID, &ref.FullName, &ref.Occupation); err != nil {
			return nil, err
		}
		s.Employees = append(s.Employees, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.RecomputeOccupied()
	return &s, nil
}
