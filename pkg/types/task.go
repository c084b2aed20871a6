package types

import (
	"slices"
	"strings"
	"time"
)

// DateLayout is the layout of calendar dates (no time of day).
const DateLayout = "2006-01-02"

// Priority ranks a task's importance.
type Priority string

// Priority values.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Energy describes the effort level a task demands.
type Energy string

// Energy values.
const (
	EnergyLow    Energy = "low"
	EnergyMedium Energy = "medium"
	EnergyHigh   Energy = "high"
)

// Size is a coarse estimate of a task's scope.
type Size string

// Size values.
const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Task is a unit of work. A task may belong to one project, any number of
// categories, and may be the parent of other tasks. ParentTaskID and
// SubtaskIDs reference tasks by id only; if task A lists B in SubtaskIDs,
// B's ParentTaskID is A's id.
type Task struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Completed        bool      `json:"completed"`
	Archived         bool      `json:"archived"`
	DueDate          *string   `json:"dueDate"`
	ProjectID        *string   `json:"projectId"`
	CategoryIDs      []string  `json:"categoryIds"`
	ParentTaskID     *string   `json:"parentTaskId"`
	SubtaskIDs       []string  `json:"subtaskIds"`
	Priority         *Priority `json:"priority,omitempty"`
	Energy           *Energy   `json:"energy,omitempty"`
	Size             *Size     `json:"size,omitempty"`
	EstimatedMinutes *int      `json:"estimatedMinutes,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// HasSubtask reports whether id is listed in the task's subtasks.
func (t *Task) HasSubtask(id string) bool {
	return slices.Contains(t.SubtaskIDs, id)
}

// ParsePriority maps a case-insensitive name to a Priority.
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	}
	return "", false
}

// ParseEnergy maps a case-insensitive name to an Energy.
func ParseEnergy(s string) (Energy, bool) {
	switch e := Energy(strings.ToLower(strings.TrimSpace(s))); e {
	case EnergyLow, EnergyMedium, EnergyHigh:
		return e, true
	}
	return "", false
}

// ParseSize maps a case-insensitive name to a Size. Single-letter and
// t-shirt abbreviations (s, m, l) are accepted.
func ParseSize(s string) (Size, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small", "s":
		return SizeSmall, true
	case "medium", "m":
		return SizeMedium, true
	case "large", "l":
		return SizeLarge, true
	}
	return "", false
}
