package models

import "time"

// Seat is a single seat inside a room. Occupied is derived from the
// employee set at projection time and is never persisted.
type Seat struct {
	ID         int64         `json:"id"`
	RoomID     int64         `json:"roomId"`
	SeatNumber string        `json:"seatNumber"`
	X          float64       `json:"x"`
	Y          float64       `json:"y"`
	Width      float64       `json:"width"`
	Height     float64       `json:"height"`
	Rotation   float64       `json:"rotation"`
	CreatedAt  time.Time     `json:"createdAt"`
	Employees  []EmployeeRef `json:"employees"`
	Occupied   bool          `json:"occupied"`
}

// RecomputeOccupied refreshes the derived flag from the loaded employee set.
func (s *Seat) RecomputeOccupied() {
	s.Occupied = len(s.Employees) > 0
}

// AssignedSeat is the seat projection inside an employee view: the seat
// plus its room (and floor), without recursing back into employee seats.
type AssignedSeat struct {
	Seat
	Room *RoomRef `json:"room,omitempty"`
}

// SeatGeometryPatch is a sparse geometry update for a seat. Absent fields
// keep their previous values.
type SeatGeometryPatch struct {
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	Rotation *float64 `json:"rotation"`
}

// Apply overwrites only the fields present in the patch.
func (p SeatGeometryPatch) Apply(s *Seat) {
	if p.X != nil {
		s.X = *p.X
	}
	if p.Y != nil {
		s.Y = *p.Y
	}
	if p.Width != nil {
		s.Width = *p.Width
	}
	if p.Height != nil {
		s.Height = *p.Height
	}
	if p.Rotation != nil {
		s.Rotation = *p.Rotation
	}
}

// IsEmpty reports whether the patch carries no fields at all.
func (p SeatGeometryPatch) IsEmpty() bool {
	return p.X == nil && p.Y == nil && p.Width == nil && p.Height == nil && p.Rotation == nil
}
