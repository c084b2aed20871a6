package types

// Bundle is the complete set of canonical entities making up one export or
// import unit.
type Bundle struct {
	Tasks          []Task
	Projects       []Project
	Categories     []Category
	DailyPlans     []DailyPlan
	WorkSchedule   *WorkSchedule
	JournalEntries []JournalEntry
}

// Len returns the total number of entities in the bundle.
func (b *Bundle) Len() int {
	n := len(b.Tasks) + len(b.Projects) + len(b.Categories) + len(b.DailyPlans) + len(b.JournalEntries)
	if b.WorkSchedule != nil {
		n++
	}
	return n
}
