package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseEnums(t *testing.T) {
	p, ok := ParsePriority(" High ")
	assert.True(t, ok)
	assert.Equal(t, PriorityHigh, p)

	_, ok = ParsePriority("urgent")
	assert.False(t, ok)

	e, ok := ParseEnergy("LOW")
	assert.True(t, ok)
	assert.Equal(t, EnergyLow, e)

	tests := map[string]Size{"s": SizeSmall, "Medium": SizeMedium, "l": SizeLarge}
	for in, want := range tests {
		got, ok := ParseSize(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok = ParseSize("xl")
	assert.False(t, ok)
}

func TestTaskHasSubtask(t *testing.T) {
	task := Task{ID: "a", SubtaskIDs: []string{"b", "c"}}
	assert.True(t, task.HasSubtask("c"))
	assert.False(t, task.HasSubtask("a"))
}

func TestJournalEntrySetWeek(t *testing.T) {
	var e JournalEntry
	// 2021-01-03 belongs to ISO week 53 of 2020.
	e.SetWeek(time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2020, e.WeekYear)
	assert.Equal(t, 53, e.WeekNumber)
}

func TestBundleLen(t *testing.T) {
	b := Bundle{Tasks: make([]Task, 2), Projects: make([]Project, 1)}
	assert.Equal(t, 3, b.Len())
	b.WorkSchedule = &WorkSchedule{ID: "ws"}
	assert.Equal(t, 4, b.Len())
}
