package models

import "time"

// Floor is a building floor with its full room/seat/employee graph loaded.
// Rooms is always non-nil in detail projections so clients see an array.
type Floor struct {
	ID          int64     `json:"id"`
	FloorNumber int       `json:"floorNumber"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
	Rooms       []Room    `json:"rooms"`
}

// FloorSummary is the listing projection: no rooms, no planimetry.
type FloorSummary struct {
	ID          int64     `json:"id"`
	FloorNumber int       `json:"floorNumber"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FloorRef is a shallow reference embedded in room projections.
type FloorRef struct {
	ID          int64  `json:"id"`
	FloorNumber int    `json:"floorNumber"`
	Name        string `json:"name"`
}

// FloorPlanimetry is the floor-plan artifact, stored 1:1 with the floor
// in its own table so entity reads never drag the blob along.
type FloorPlanimetry struct {
	FloorID     int64     `json:"floorId"`
	Planimetry  string    `json:"planimetry"`
	LastUpdated time.Time `json:"lastUpdated"`
}
