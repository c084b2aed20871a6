package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/almanac/internal/logger"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

// FormatVersion is written to the version field of every export.
const FormatVersion = "1.0"

// document is the serialized bundle. Field order is the output key order.
type document struct {
	Tasks          []json.RawMessage `json:"tasks"`
	Projects       []json.RawMessage `json:"projects"`
	Categories     []json.RawMessage `json:"categories"`
	DailyPlans     []json.RawMessage `json:"dailyPlans"`
	WorkSchedule   json.RawMessage   `json:"workSchedule"`
	JournalEntries []json.RawMessage `json:"journalEntries"`
	ExportDate     string            `json:"exportDate"`
	Version        string            `json:"version"`
}

// Exporter serializes a store into a JSON bundle.
type Exporter struct {
	store types.Store
	now   func() time.Time
}

// NewExporter returns an Exporter reading from store. now stamps the
// exportDate field; nil means time.Now.
func NewExporter(store types.Store, now func() time.Time) *Exporter {
	if now == nil {
		now = time.Now
	}
	return &Exporter{store: store, now: now}
}

// Export reads every table, one at a time, and returns the bundle indented
// with two spaces. Any table failure aborts the export.
func (e *Exporter) Export(ctx context.Context) ([]byte, error) {
	doc := document{
		ExportDate: e.now().UTC().Format(time.RFC3339),
		Version:    FormatVersion,
	}
	for _, s := range sectionTables {
		rows, err := e.read(ctx, s.table)
		if err != nil {
			return nil, err
		}
		switch s.key {
		case TasksKey:
			doc.Tasks = rows
		case ProjectsKey:
			doc.Projects = rows
		case CategoriesKey:
			doc.Categories = rows
		case DailyPlansKey:
			doc.DailyPlans = rows
		case WorkScheduleKey:
			if len(rows) > 1 {
				logger.Warn("multiple work schedules stored, exporting the first", "count", len(rows))
			}
			if len(rows) > 0 {
				doc.WorkSchedule = rows[0]
			}
		case JournalEntriesKey:
			doc.JournalEntries = rows
		}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding bundle: %w", err)
	}
	logger.Info("export finished", "tasks", len(doc.Tasks), "bytes", len(out))
	return out, nil
}

func (e *Exporter) read(ctx context.Context, name string) ([]json.RawMessage, error) {
	table, err := e.store.GetTable(name)
	if err != nil {
		return nil, fmt.Errorf("getting table %s: %w", name, err)
	}
	rows, err := table.ToArray(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", name, err)
	}
	if rows == nil {
		rows = []json.RawMessage{}
	}
	return rows, nil
}
