package employees

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/officegrid/backend/internal/models"
)

// Repository handles employee persistence and owns the seat assignment
// relation: Assign and Unassign are the only code paths that write the
// join table, which keeps the two sides symmetric by construction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an employee repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Create inserts a new employee.
func (r *Repository) Create(ctx context.Context, e *models.Employee) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO employees (full_name, occupation) VALUES ($1, $2) RETURNING id, created_at`,
		e.FullName, e.Occupation).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return err
	}
	e.Seats = []models.AssignedSeat{}
	return nil
}

// GetByID returns an employee with their full seat set, each seat carrying
// its room, floor and co-assignees.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Employee, error) {
	return loadEmployee(ctx, r.pool, id)
}

// Assign adds the employee/seat pair. Idempotent: assigning an existing
// pair changes nothing. Returns the employee's full current seat set.
func (r *Repository) Assign(ctx context.Context, employeeID, seatID int64) (*models.Employee, error) {
	var e *models.Employee
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := checkPairExists(ctx, tx, employeeID, seatID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO employee_seat_assignments (employee_id, seat_id)
			 VALUES ($1, $2) ON CONFLICT (employee_id, seat_id) DO NOTHING`,
			employeeID, seatID); err != nil {
			return err
		}
		var err error
		e, err = loadEmployee(ctx, tx, employeeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Unassign removes the employee/seat pair. The pair must currently be a
// member of the relation; removing an absent pair is an error, never a
// silent no-op. Returns the employee's remaining seat set.
func (r *Repository) Unassign(ctx context.Context, employeeID, seatID int64) (*models.Employee, error) {
	var e *models.Employee
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := checkPairExists(ctx, tx, employeeID, seatID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`DELETE FROM employee_seat_assignments WHERE employee_id = $1 AND seat_id = $2`,
			employeeID, seatID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: this seat is not assigned to the employee", models.ErrPrecondition)
		}
		e, err = loadEmployee(ctx, tx, employeeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes an employee, clearing their memberships from every seat
// in the same transaction so no dangling half of a pair survives.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists int
		if err := tx.QueryRow(ctx, `SELECT 1 FROM employees WHERE id = $1`, id).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: employee not found", models.ErrNotFound)
			}
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM employee_seat_assignments WHERE employee_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
		return err
	})
}

// Search returns a page of employees whose full name or occupation
// contains term, case-insensitively, plus the total match count.
func (r *Repository) Search(ctx context.Context, term string, page, size int) ([]models.Employee, int64, error) {
	pattern := "%" + term + "%"
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM employees WHERE full_name ILIKE $1 OR occupation ILIKE $1`,
		pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, full_name, occupation, created_at
		 FROM employees WHERE full_name ILIKE $1 OR occupation ILIKE $1
		 ORDER BY id LIMIT $2 OFFSET $3`,
		pattern, size, page*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := []models.Employee{}
	var ids []int64
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.FullName, &e.Occupation, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.Seats = []models.AssignedSeat{}
		ids = append(ids, e.ID)
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(ids) > 0 {
		seatsByEmployee, err := loadSeatSets(ctx, r.pool, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range list {
			if seats, ok := seatsByEmployee[list[i].ID]; ok {
				list[i].Seats = seats
			}
		}
	}
	return list, total, nil
}

// checkPairExists verifies both ends of an assignment pair.
func checkPairExists(ctx context.Context, q querier, employeeID, seatID int64) error {
	var exists int
	if err := q.QueryRow(ctx, `SELECT 1 FROM employees WHERE id = $1`, employeeID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: employee not found", models.ErrNotFound)
		}
		return err
	}
	if err := q.QueryRow(ctx, `SELECT 1 FROM seats WHERE id = $1`, seatID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: seat not found", models.ErrNotFound)
		}
		return err
	}
	return nil
}

// loadEmployee assembles the employee projection with the full seat set.
func loadEmployee(ctx context.Context, q querier, id int64) (*models.Employee, error) {
	var e models.Employee
	err := q.QueryRow(ctx,
		`SELECT id, full_name, occupation, created_at FROM employees WHERE id = $1`, id).
		Scan(&e.ID, &e.FullName, &e.Occupation, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: employee not found", models.ErrNotFound)
		}
		return nil, err
	}
	e.Seats = []models.AssignedSeat{}
	seatsByEmployee, err := loadSeatSets(ctx, q, []int64{id})
	if err != nil {
		return nil, err
	}
	if seats, ok := seatsByEmployee[id]; ok {
		e.Seats = seats
	}
	return &e, nil
}

// loadSeatSets loads the assigned seats for a set of employees, each seat
// with its room, floor and co-assignee refs, keyed by employee id.
func loadSeatSets(ctx context.Context, q querier, employeeIDs []int64) (map[int64][]models.AssignedSeat, error) {
	rows, err := q.Query(ctx,
		`SELECT a.employee_id,
		        s.id, s.room_id, s.seat_number, s.x, s.y, s.width, s.height, s.rotation, s.created_at,
		        r.id, r.floor_id, r.room_number, r.name,
		        f.id, f.floor_number, f.name
		 FROM employee_seat_assignments a
		 JOIN seats s ON s.id = a.seat_id
		 JOIN office_rooms r ON r.id = s.room_id
		 JOIN floors f ON f.id = r.floor_id
		 WHERE a.employee_id = ANY($1)
		 ORDER BY a.employee_id, s.id`, employeeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := map[int64][]models.AssignedSeat{}
	type seatLoc struct {
		employeeID int64
		index      int
	}
	locs := map[int64][]seatLoc{} // seat id -> positions (a seat may appear under several employees)
	var seatIDs []int64
	for rows.Next() {
		var employeeID int64
		var s models.AssignedSeat
		var room models.RoomRef
		var floor models.FloorRef
		if err := rows.Scan(&employeeID,
			&s.ID, &s.RoomID, &s.SeatNumber, &s.X, &s.Y, &s.Width, &s.Height, &s.Rotation, &s.CreatedAt,
			&room.ID, &room.FloorID, &room.RoomNumber, &room.Name,
			&floor.ID, &floor.FloorNumber, &floor.Name); err != nil {
			return nil, err
		}
		room.Floor = &floor
		s.Room = &room
		s.Employees = []models.EmployeeRef{}
		if _, seen := locs[s.ID]; !seen {
			seatIDs = append(seatIDs, s.ID)
		}
		locs[s.ID] = append(locs[s.ID], seatLoc{employeeID: employeeID, index: len(result[employeeID])})
		result[employeeID] = append(result[employeeID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(seatIDs) == 0 {
		return result, nil
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
		for _, loc := range locs[seatID] {
			seat := &result[loc.employeeID][loc.index]
			seat.Employees = append(seat.Employees, ref)
		}
	}
	if err := empRows.Err(); err != nil {
		return nil, err
	}
	for _, seats := range result {
		for i := range seats {
			seats[i].RecomputeOccupied()
		}
	}
	return result, nil
}
