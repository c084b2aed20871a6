package types

import "time"

// JournalEntry is a dated note, grouped by ISO week.
type JournalEntry struct {
	ID         string    `json:"id"`
	Date       string    `json:"date"`
	Content    string    `json:"content"`
	Section    *string   `json:"section,omitempty"`
	WeekNumber int       `json:"weekNumber"`
	WeekYear   int       `json:"weekYear"`
	Completed  bool      `json:"completed"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SetWeek fills WeekNumber and WeekYear from the ISO week of date.
func (e *JournalEntry) SetWeek(date time.Time) {
	e.WeekYear, e.WeekNumber = date.ISOWeek()
}
