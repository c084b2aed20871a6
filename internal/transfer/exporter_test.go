package transfer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/mesh-intelligence/almanac/internal/memory"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

func TestExport_EmptyStore(t *testing.T) {
	out, err := NewExporter(memory.NewAttached(), func() time.Time { return fixedNow }).Export(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(out), "{\n  \"tasks\": [],\n"), "two-space indent, empty tables as []")
	assert.JSONEq(t, `{
		"tasks": [], "projects": [], "categories": [], "dailyPlans": [],
		"workSchedule": null, "journalEntries": [],
		"exportDate": "2024-05-01T10:00:00Z", "version": "1.0"
	}`, string(out))
}

func TestExport_KeyOrder(t *testing.T) {
	out, err := NewExporter(memory.NewAttached(), nil).Export(context.Background())
	require.NoError(t, err)

	var keys []string
	gjson.ParseBytes(out).ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	assert.Equal(t, []string{"tasks", "projects", "categories", "dailyPlans", "workSchedule", "journalEntries", "exportDate", "version"}, keys)

	_, err = time.Parse(time.RFC3339, gjson.GetBytes(out, "exportDate").String())
	assert.NoError(t, err)
}

func TestExport_WorkScheduleIsSingleObject(t *testing.T) {
	store := memory.NewAttached()
	seed(t, store, types.WorkSchedulesTable,
		`{"id":"ws1","name":"A","shifts":[]}`,
		`{"id":"ws2","name":"B","shifts":[]}`)

	out, err := NewExporter(store, nil).Export(context.Background())
	require.NoError(t, err)

	ws := gjson.GetBytes(out, "workSchedule")
	require.True(t, ws.IsObject())
	assert.Equal(t, "ws1", ws.Get("id").String())
}

func TestExport_PreservesInsertionOrder(t *testing.T) {
	store := memory.NewAttached()
	seed(t, store, types.TasksTable, `{"id":"b"}`, `{"id":"a"}`, `{"id":"c"}`)

	out, err := NewExporter(store, nil).Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `["b","a","c"]`, gjson.GetBytes(out, "tasks.#.id").Raw)
}

func TestExport_TableFailure(t *testing.T) {
	store := newFaultyStore(t)
	store.wrap(t, types.CategoriesTable).readErr = errBoom

	out, err := NewExporter(store, nil).Export(context.Background())
	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), types.CategoriesTable)
	assert.Nil(t, out)
}

func TestExport_DetachedStore(t *testing.T) {
	store := memory.NewAttached()
	require.NoError(t, store.Detach())

	_, err := NewExporter(store, nil).Export(context.Background())
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}
