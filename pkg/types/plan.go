package types

// DailyPlan is the schedule of time blocks for one day. Its ID is
// conventionally the date string.
type DailyPlan struct {
	ID         string      `json:"id"`
	Date       string      `json:"date"`
	TimeBlocks []TimeBlock `json:"timeBlocks"`
}

// TimeBlock is a span of time within a daily plan. TaskID is the legacy
// single-task reference and is kept alongside TaskIDs for older readers.
type TimeBlock struct {
	ID          string   `json:"id"`
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	TaskID      *string  `json:"taskId"`
	TaskIDs     []string `json:"taskIds"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}
