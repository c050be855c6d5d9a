package models

import "time"

// Employee is a person who can hold any number of seats. Seats is non-nil
// in detail projections so callers always observe the full set.
type Employee struct {
	ID         int64          `json:"id"`
	FullName   string         `json:"fullName"`
	Occupation string         `json:"occupation"`
	CreatedAt  time.Time      `json:"createdAt"`
	Seats      []AssignedSeat `json:"seats"`
}

// EmployeeRef is a shallow employee reference embedded in seat projections.
type EmployeeRef struct {
	ID         int64  `json:"id"`
	FullName   string `json:"fullName"`
	Occupation string `json:"occupation"`
}
