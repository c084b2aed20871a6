package types

import "time"

// WorkSchedule lists a user's work shifts. At most one is stored.
type WorkSchedule struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Shifts    []Shift   `json:"shifts"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Shift is one working period on a given date.
type Shift struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Color     string `json:"color"`
	Notes     string `json:"notes"`
}
