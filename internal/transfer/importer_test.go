package transfer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/mesh-intelligence/almanac/internal/convert"
	"github.com/mesh-intelligence/almanac/internal/memory"
	"github.com/mesh-intelligence/almanac/internal/sqlite"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

// fullBundle exercises every section. The task description and the shift
// notes carry brackets, braces and escaped quotes.
const fullBundle = `{
  "tasks": [
    {"id": "t1", "title": "Parent", "description": "a [weird] \"quoted] value", "completed": false, "archived": false,
     "dueDate": "2024-05-01", "projectId": "p1", "categoryIds": ["c1"], "parentTaskId": null, "subtaskIds": ["t2"],
     "priority": "high", "energy": "low", "size": "medium", "estimatedMinutes": 90,
     "createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-02T00:00:00Z"},
    {"id": "t2", "title": "Child", "description": "", "completed": true, "archived": false,
     "dueDate": null, "projectId": null, "categoryIds": [], "parentTaskId": "t1", "subtaskIds": [],
     "createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-01T00:00:00Z"}
  ],
  "projects": [
    {"id": "p1", "name": "Home", "description": "", "color": "#6366f1", "createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-01T00:00:00Z"}
  ],
  "categories": [
    {"id": "c1", "name": "Chores", "color": "#22c55e", "createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-01T00:00:00Z"}
  ],
  "dailyPlans": [
    {"id": "2024-05-01", "date": "2024-05-01", "timeBlocks": [
      {"id": "b1", "startTime": "09:00", "endTime": "10:00", "taskId": "t1", "taskIds": ["t1"], "title": "Parent", "description": ""}
    ]}
  ],
  "workSchedule": {"id": "ws1", "name": "Rota", "shifts": [
    {"date": "2024-05-01", "startTime": "09:00", "endTime": "17:00", "color": "#fff", "notes": "bring {keys} and [badge]"},
    {"date": "2024-05-02", "startTime": "10:00", "endTime": "18:00", "color": "#000", "notes": "late }"}
  ], "createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-01T00:00:00Z"},
  "journalEntries": [
    {"id": "j1", "date": "2024-05-01", "content": "Quiet day", "section": "daily", "weekNumber": 18, "weekYear": 2024,
     "completed": false, "createdAt": "2024-05-01T20:00:00Z", "updatedAt": "2024-05-01T20:00:00Z"}
  ],
  "exportDate": "2024-04-30T00:00:00Z",
  "version": "1.0"
}`

var bundleKeys = []string{TasksKey, ProjectsKey, CategoriesKey, DailyPlansKey, WorkScheduleKey, JournalEntriesKey}

var backends = map[string]func(t *testing.T) types.Store{
	"memory": func(*testing.T) types.Store { return memory.NewAttached() },
	"sqlite": func(t *testing.T) types.Store {
		b := sqlite.NewBackend()
		require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
		t.Cleanup(func() { _ = b.Detach() })
		return b
	},
}

func TestImport_RoundTrip(t *testing.T) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			im := newTestImporter(store, 1)
			ex := NewExporter(store, func() time.Time { return fixedNow })
			ctx := context.Background()

			require.True(t, im.Import(ctx, []byte(fullBundle)))
			first, err := ex.Export(ctx)
			require.NoError(t, err)
			for _, key := range bundleKeys {
				assert.JSONEq(t, gjson.Get(fullBundle, key).Raw, gjson.GetBytes(first, key).Raw, key)
			}

			require.True(t, im.Import(ctx, first))
			second, err := ex.Export(ctx)
			require.NoError(t, err)
			assert.Equal(t, string(first), string(second))
		})
	}
}

func TestImport_Run_Report(t *testing.T) {
	store := memory.NewAttached()
	report, err := newTestImporter(store, 0).Run(context.Background(), []byte(fullBundle))
	require.NoError(t, err)

	assert.Equal(t, convert.FormatCanonical, report.Format)
	assert.Equal(t, []SectionResult{
		{Section: TasksKey, Present: true, Records: 2},
		{Section: ProjectsKey, Present: true, Records: 1},
		{Section: CategoriesKey, Present: true, Records: 1},
		{Section: DailyPlansKey, Present: true, Records: 1},
		{Section: WorkScheduleKey, Present: true, Records: 1},
		{Section: JournalEntriesKey, Present: true, Records: 1},
	}, report.Sections)
	assert.Equal(t, 7, report.Total())
}

func TestImport_BracketAndQuoteSafety(t *testing.T) {
	store := memory.NewAttached()
	require.True(t, newTestImporter(store, 0).Import(context.Background(), []byte(fullBundle)))

	table, err := store.GetTable(types.TasksTable)
	require.NoError(t, err)
	doc, err := table.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, `a [weird] "quoted] value`, gjson.GetBytes(doc, "description").String())
	assert.Len(t, rows(t, store, types.TasksTable), 2)
}

func TestImport_AbsentSections(t *testing.T) {
	store := memory.NewAttached()
	seed(t, store, types.ProjectsTable, `{"id":"old"}`)

	report, err := newTestImporter(store, 0).Run(context.Background(), []byte(`{"tasks": [{"id": "t1", "title": "Only"}]}`))
	require.NoError(t, err)
	assert.Equal(t, convert.FormatCanonical, report.Format)

	assert.Len(t, rows(t, store, types.TasksTable), 1)
	for _, name := range types.StandardTableNames[1:] {
		assert.Empty(t, rows(t, store, name), name)
	}
	assert.False(t, report.Sections[1].Present)
}

func TestImport_MalformedRoot(t *testing.T) {
	inputs := []string{
		`"not an object"`,
		`{broken`,
		``,
		`   `,
		`[{"id": "t1"}]`,
		`{"tasks": [}`,
		`{"items": [1, 2,}`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			store := memory.NewAttached()
			seed(t, store, types.TasksTable, `{"id":"keep"}`)

			var ok bool
			require.NotPanics(t, func() { ok = newTestImporter(store, 0).Import(context.Background(), []byte(in)) })
			if in == `{"tasks": [}` {
				// Braces pass the envelope check; the broken section is absent.
				assert.True(t, ok)
				return
			}
			assert.False(t, ok)
			assert.Len(t, rows(t, store, types.TasksTable), 1, "store untouched")
		})
	}
}

func TestImport_EnvelopeErrors(t *testing.T) {
	store := memory.NewAttached()
	im := newTestImporter(store, 0)

	_, err := im.Run(context.Background(), []byte("nope"))
	assert.ErrorIs(t, err, ErrEnvelope)

	_, err = im.Run(context.Background(), []byte(`{"items": [1, 2,}`))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	ok := im.Import(context.Background(), append([]byte("\xEF\xBB\xBF\n"), []byte(`{"tasks": []}`)...))
	assert.True(t, ok, "byte order mark is ignored")
}

func TestImport_ChunkBoundaries(t *testing.T) {
	const chunks = 50
	for _, size := range []int{1, 49, 50, 51} {
		t.Run(fmt.Sprintf("size %d", size), func(t *testing.T) {
			store := memory.NewAttached()
			total := chunks*size + 1
			require.True(t, newTestImporter(store, size).Import(context.Background(), tasksBundle(total)))
			assert.Len(t, rows(t, store, types.TasksTable), total)
		})
	}
}

func TestImport_Idempotent(t *testing.T) {
	store := memory.NewAttached()
	im := newTestImporter(store, 3)
	ctx := context.Background()

	snapshot := func() map[string][]string {
		out := make(map[string][]string)
		for _, name := range types.StandardTableNames {
			for _, r := range rows(t, store, name) {
				out[name] = append(out[name], string(r))
			}
		}
		return out
	}

	require.True(t, im.Import(ctx, []byte(fullBundle)))
	first := snapshot()
	require.True(t, im.Import(ctx, []byte(fullBundle)))
	assert.Equal(t, first, snapshot())
}

func TestImport_ScheduleAliasEquivalence(t *testing.T) {
	schedule := gjson.Get(fullBundle, WorkScheduleKey).Raw
	singular := `{"tasks": [], "projects": [], "workSchedule": ` + schedule + `}`
	plural := `{"tasks": [], "projects": [], "workSchedules": ` + schedule + `}`

	var stored []string
	for _, doc := range []string{singular, plural} {
		store := memory.NewAttached()
		require.True(t, newTestImporter(store, 0).Import(context.Background(), []byte(doc)))
		got := rows(t, store, types.WorkSchedulesTable)
		require.Len(t, got, 1)
		stored = append(stored, string(got[0]))
	}
	assert.Equal(t, stored[0], stored[1])
	assert.Len(t, gjson.Get(stored[0], "shifts").Array(), 2, "nested shifts survive")
	assert.Equal(t, "late }", gjson.Get(stored[0], "shifts.1.notes").String())
}

func TestImport_ScheduleShapeValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string // stored schedule id, empty for none
	}{
		{name: "missing shifts", doc: `{"tasks": [], "workSchedule": {"id": "ws"}}`},
		{name: "shifts not an array", doc: `{"tasks": [], "workSchedule": {"id": "ws", "shifts": {}}}`},
		{name: "missing id", doc: `{"tasks": [], "workSchedule": {"shifts": []}}`},
		{name: "null", doc: `{"tasks": [], "workSchedule": null}`},
		{name: "invalid singular falls back to alias", doc: `{"tasks": [], "workSchedule": {"id": ""}, "workSchedules": {"id": "legacy", "shifts": []}}`, want: "legacy"},
		{name: "singular wins", doc: `{"tasks": [], "workSchedules": {"id": "legacy", "shifts": []}, "workSchedule": {"id": "new", "shifts": []}}`, want: "new"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewAttached()
			require.True(t, newTestImporter(store, 0).Import(context.Background(), []byte(tt.doc)))
			got := rows(t, store, types.WorkSchedulesTable)
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, gjson.GetBytes(got[0], "id").String())
		})
	}
}

func TestImport_NormalizesRecords(t *testing.T) {
	store := memory.NewAttached()
	doc := `{"tasks": [{"title": "no id"}, 5, "text", null, {"id": "a", "title": "kept"}, {"id": "", "title": "empty id"}]}`
	require.True(t, newTestImporter(store, 0).Import(context.Background(), []byte(doc)))

	got := rows(t, store, types.TasksTable)
	require.Len(t, got, 3)
	assert.JSONEq(t, `{"id": "gen-1", "title": "no id"}`, string(got[0]))
	assert.Equal(t, "a", gjson.GetBytes(got[1], "id").String())
	assert.JSONEq(t, `{"id": "gen-2", "title": "empty id"}`, string(got[2]))
}

func TestImport_DuplicateIDsFail(t *testing.T) {
	store := memory.NewAttached()
	ok := newTestImporter(store, 0).Import(context.Background(), []byte(`{"tasks": [{"id": "a"}, {"id": "a"}]}`))
	assert.False(t, ok)
}

func TestImport_StorageFailureLeavesPrefix(t *testing.T) {
	store := newFaultyStore(t)
	tasks := store.wrap(t, types.TasksTable)
	tasks.failOn = 3
	seed(t, store, types.JournalEntriesTable, `{"id":"old"}`)

	doc := `{"tasks": ` + taskArray(50) + `, "projects": [{"id": "p1"}], "categories": []}`
	im := newTestImporter(store, 10)

	report, err := im.Run(context.Background(), []byte(doc))
	require.ErrorIs(t, err, errBoom)
	require.NotNil(t, report)
	assert.Equal(t, []SectionResult{{Section: TasksKey, Present: true, Records: 20}}, report.Sections)

	assert.Len(t, rows(t, store, types.TasksTable), 20, "prefix written")
	assert.Empty(t, rows(t, store, types.ProjectsTable), "later sections not written")
	assert.Empty(t, rows(t, store, types.JournalEntriesTable), "tables cleared before writing")
}

func TestImport_PanicBecomesFalse(t *testing.T) {
	store := newFaultyStore(t)
	store.wrap(t, types.ProjectsTable).panicOn = 1

	var ok bool
	require.NotPanics(t, func() {
		ok = newTestImporter(store, 0).Import(context.Background(), []byte(fullBundle))
	})
	assert.False(t, ok)
	assert.Len(t, rows(t, store, types.TasksTable), 2)
}

func TestImport_ForeignProjectManagerRepairsSubtasks(t *testing.T) {
	store := memory.NewAttached()
	doc := `{
		"projects": [{"id": "p1", "name": "Launch"}],
		"tasks": [
			{"id": "parent", "name": "Ship"},
			{"id": "c1", "name": "Docs", "parentId": "parent"},
			{"id": "c2", "name": "Tests", "parentId": "parent"}
		]
	}`
	report, err := newTestImporter(store, 0).Run(context.Background(), []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, convert.FormatProjectManager, report.Format)

	table, err := store.GetTable(types.TasksTable)
	require.NoError(t, err)
	parent, err := table.Get(context.Background(), "parent")
	require.NoError(t, err)

	var subs []string
	for _, v := range gjson.GetBytes(parent, "subtaskIds").Array() {
		subs = append(subs, v.String())
	}
	assert.ElementsMatch(t, []string{"c1", "c2"}, subs)

	child, err := table.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "parent", gjson.GetBytes(child, "parentTaskId").String())
	assert.Len(t, rows(t, store, types.ProjectsTable), 1)
}

func TestImport_ForeignCalendar(t *testing.T) {
	store := memory.NewAttached()
	doc := `{"events": [{"id": "e1", "summary": "Dentist", "start": "2024-06-03T15:00:00Z", "end": "2024-06-03T15:45:00Z"}]}`
	require.True(t, newTestImporter(store, 0).Import(context.Background(), []byte(doc)))

	plans := rows(t, store, types.DailyPlansTable)
	require.Len(t, plans, 1)
	assert.Equal(t, "2024-06-03", gjson.GetBytes(plans[0], "id").String())
	assert.Equal(t, "e1", gjson.GetBytes(plans[0], "timeBlocks.0.taskId").String())
	assert.Equal(t, "15:45", gjson.GetBytes(plans[0], "timeBlocks.0.endTime").String())
	assert.Len(t, rows(t, store, types.TasksTable), 1)
}

func TestImport_ForeignGenericEmpty(t *testing.T) {
	store := memory.NewAttached()
	seed(t, store, types.TasksTable, `{"id":"old"}`)

	report, err := newTestImporter(store, 0).Run(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, convert.FormatGeneric, report.Format)
	assert.Zero(t, report.Total())
	assert.Empty(t, rows(t, store, types.TasksTable))
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		text string
		want convert.Format
	}{
		{text: fullBundle, want: convert.FormatCanonical},
		{text: `{"tasks": []}`, want: convert.FormatCanonical},
		{text: `{"lists": [], "items": []}`, want: convert.FormatTodoApp},
		{text: `{"tasks": [], "projects": [], "team": "x"}`, want: convert.FormatProjectManager},
		{text: `{"tasks": [], "projects": []}`, want: convert.FormatProjectManager},
		{text: `{"tasks": [], "projects": [], "workSchedules": {"id": "ws", "shifts": []}}`, want: convert.FormatCanonical},
		{text: `{"calendar": {"events": []}}`, want: convert.FormatCalendarApp},
		{text: `{"notes": [{"title": "x"}]}`, want: convert.FormatGeneric},
	}
	for _, tt := range tests {
		got, err := DetectFormat([]byte(tt.text))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.text)
	}

	_, err := DetectFormat([]byte(`[]`))
	assert.ErrorIs(t, err, ErrEnvelope)
}
