package floors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/officegrid/backend/internal/models"
)

// Repository handles floor persistence. Every mutating method runs its
// checks and writes inside one transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a floor repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// List returns all floors without their room graphs.
func (r *Repository) List(ctx context.Context) ([]models.FloorSummary, error) {
	const q = `SELECT id, floor_number, name, created_at FROM floors ORDER BY floor_number`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.FloorSummary{}
	for rows.Next() {
		var f models.FloorSummary
		if err := rows.Scan(&f.ID, &f.FloorNumber, &f.Name, &f.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

// GetByID returns a floor with its rooms, seats and seat assignees.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Floor, error) {
	return loadDetail(ctx, r.pool, id)
}

// Create inserts a new floor after checking floor-number uniqueness.
func (r *Repository) Create(ctx context.Context, f *models.Floor) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM floors WHERE floor_number = $1`, f.FloorNumber).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: a floor with number %d already exists", models.ErrConflict, f.FloorNumber)
		}
		if err := tx.QueryRow(ctx,
			`INSERT INTO floors (floor_number, name) VALUES ($1, $2) RETURNING id, created_at`,
			f.FloorNumber, f.Name).Scan(&f.ID, &f.CreatedAt); err != nil {
			return err
		}
		f.Rooms = []models.Room{}
		return nil
	})
}

// Update changes name and floor number, enforcing uniqueness against
// other floors, and returns the refreshed graph.
func (r *Repository) Update(ctx context.Context, id int64, name string, floorNumber int) (*models.Floor, error) {
	var updated *models.Floor
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists int
		if err := tx.QueryRow(ctx, `SELECT 1 FROM floors WHERE id = $1`, id).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: floor not found", models.ErrNotFound)
			}
			return err
		}
		var count int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM floors WHERE floor_number = $1 AND id != $2`,
			floorNumber, id).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: a floor with number %d already exists", models.ErrConflict, floorNumber)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE floors SET name = $1, floor_number = $2 WHERE id = $3`, name, floorNumber, id); err != nil {
			return err
		}
		var err error
		updated, err = loadDetail(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a floor and its planimetry. Floors that still own rooms
// cannot be deleted.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists int
		if err := tx.QueryRow(ctx, `SELECT 1 FROM floors WHERE id = $1`, id).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: floor not found", models.ErrNotFound)
			}
			return err
		}
		var roomCount int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM office_rooms WHERE floor_id = $1`, id).Scan(&roomCount); err != nil {
			return err
		}
		if roomCount > 0 {
			return fmt.Errorf("%w: cannot delete floor that has rooms", models.ErrPrecondition)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM floor_planimetry WHERE floor_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM floors WHERE id = $1`, id)
		return err
	})
}

// loadDetail assembles the full floor graph: rooms, their seats, and the
// employees assigned to each seat.
func loadDetail(ctx context.Context, q querier, id int64) (*models.Floor, error) {
	var f models.Floor
	err := q.QueryRow(ctx,
		`SELECT id, floor_number, name, created_at FROM floors WHERE id = $1`, id).
		Scan(&f.ID, &f.FloorNumber, &f.Name, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: floor not found", models.ErrNotFound)
		}
		return nil, err
	}
	f.Rooms = []models.Room{}

	rows, err := q.Query(ctx,
		`SELECT id, floor_id, room_number, name, x, y, width, height, created_at
		 FROM office_rooms WHERE floor_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	roomIndex := map[int64]int{}
	var roomIDs []int64
	for rows.Next() {
		var rm models.Room
		if err := rows.Scan(&rm.ID, &rm.FloorID, &rm.RoomNumber, &rm.Name, &rm.X, &rm.Y, &rm.Width, &rm.Height, &rm.CreatedAt); err != nil {
			return nil, err
		}
		rm.Seats = []models.Seat{}
		roomIndex[rm.ID] = len(f.Rooms)
		roomIDs = append(roomIDs, rm.ID)
		f.Rooms = append(f.Rooms, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(roomIDs) == 0 {
		return &f, nil
	}

	seatRows, err := q.Query(ctx,
		`SELECT id, room_id, seat_number, x, y, width, height, rotation, created_at
		 FROM seats WHERE room_id = ANY($1) ORDER BY id`, roomIDs)
	if err != nil {
		return nil, err
	}
	defer seatRows.Close()
	seatLoc := map[int64][2]int{} // seat id -> (room index, seat index)
	var seatIDs []int64
	for seatRows.Next() {
		var s models.Seat
		if err := seatRows.Scan(&s.ID, &s.RoomID, &s.SeatNumber, &s.X, &s.Y, &s.Width, &s.Height, &s.Rotation, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Employees = []models.EmployeeRef{}
		ri := roomIndex[s.RoomID]
		seatLoc[s.ID] = [2]int{ri, len(f.Rooms[ri].Seats)}
		seatIDs = append(seatIDs, s.ID)
		f.Rooms[ri].Seats = append(f.Rooms[ri].Seats, s)
	}
	if err := seatRows.Err(); err != nil {
		return nil, err
	}
	if len(seatIDs) == 0 {
		return &f, nil
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
		loc := seatLoc[seatID]
		seat := &f.Rooms[loc[0]].Seats[loc[1]]
		seat.Employees = append(seat.Employees, ref)
	}
	if err := empRows.Err(); err != nil {
		return nil, err
	}
	for ri := range f.Rooms {
		for si := range f.Rooms[ri].Seats {
			f.Rooms[ri].Seats[si].RecomputeOccupied()
		}
	}
	return &f, nil
}
