package models

import "time"

// Default geometry applied when a create request carries no values.
const (
	DefaultGeometryWidth  = 100
	DefaultGeometryHeight = 100
)

// Room is an office room on a floor. Seats is non-nil in detail projections.
type Room struct {
	ID         int64     `json:"id"`
	FloorID    int64     `json:"floorId"`
	RoomNumber string    `json:"roomNumber"`
	Name       string    `json:"name"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	CreatedAt  time.Time `json:"createdAt"`
	Seats      []Seat    `json:"seats"`
}

// RoomRef is a shallow room reference embedded in seat projections.
type RoomRef struct {
	ID         int64     `json:"id"`
	FloorID    int64     `json:"floorId"`
	RoomNumber string    `json:"roomNumber"`
	Name       string    `json:"name"`
	Floor      *FloorRef `json:"floor,omitempty"`
}

// RoomGeometryPatch is a sparse geometry update for a room, optionally
// carrying sparse updates for seats keyed by seat id. Absent fields keep
// their previous values.
type RoomGeometryPatch struct {
	X      *float64                     `json:"x"`
	Y      *float64                     `json:"y"`
	Width  *float64                     `json:"width"`
	Height *float64                     `json:"height"`
	Seats  map[string]SeatGeometryPatch `json:"seats"`
}

// Apply overwrites only the fields present in the patch.
func (p RoomGeometryPatch) Apply(r *Room) {
	if p.X != nil {
		r.X = *p.X
	}
	if p.Y != nil {
		r.Y = *p.Y
	}
	if p.Width != nil {
		r.Width = *p.Width
	}
	if p.Height != nil {
		r.Height = *p.Height
	}
}
