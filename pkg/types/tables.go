package types

// Standard table names for Store.GetTable.
const (
	TasksTable          = "tasks"
	ProjectsTable       = "projects"
	CategoriesTable     = "categories"
	DailyPlansTable     = "dailyPlans"
	WorkSchedulesTable  = "workSchedules"
	JournalEntriesTable = "journalEntries"
)

// StandardTableNames lists all standard table names in import order.
var StandardTableNames = []string{
	TasksTable,
	ProjectsTable,
	CategoriesTable,
	DailyPlansTable,
	WorkSchedulesTable,
	JournalEntriesTable,
}
