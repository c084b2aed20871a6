package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/tidwall/gjson"

	"github.com/mesh-intelligence/almanac/internal/convert"
	"github.com/mesh-intelligence/almanac/internal/logger"
	"github.com/mesh-intelligence/almanac/internal/section"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

// Import errors.
var (
	// ErrEnvelope means the text is not shaped like a JSON object. The
	// store is not touched.
	ErrEnvelope = errors.New("import text is not a JSON object")

	// ErrInvalidDocument means a foreign document is not valid JSON. The
	// store is not touched.
	ErrInvalidDocument = errors.New("import document is not valid JSON")
)

// Bundle section keys, in import order.
const (
	TasksKey          = "tasks"
	ProjectsKey       = "projects"
	CategoriesKey     = "categories"
	DailyPlansKey     = "dailyPlans"
	WorkScheduleKey   = "workSchedule"
	JournalEntriesKey = "journalEntries"

	// LegacyWorkScheduleKey is the plural spelling accepted on import.
	LegacyWorkScheduleKey = "workSchedules"
)

// sectionTables maps each bundle section to its table, in import order.
var sectionTables = []struct {
	key   string
	table string
}{
	{TasksKey, types.TasksTable},
	{ProjectsKey, types.ProjectsTable},
	{CategoriesKey, types.CategoriesTable},
	{DailyPlansKey, types.DailyPlansTable},
	{WorkScheduleKey, types.WorkSchedulesTable},
	{JournalEntriesKey, types.JournalEntriesTable},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options configures an Importer. The zero value is usable.
type Options struct {
	// ChunkSize is the number of records per bulk insert.
	// Zero means types.DefaultChunkSize.
	ChunkSize int

	// Yielder runs between chunks. Nil means Sleep(DefaultYieldDelay).
	Yielder Yielder

	// Converter maps foreign documents. Nil means convert.New().
	Converter *convert.Converter

	// NewID generates ids for canonical records that lack one.
	// Nil means convert.NewID.
	NewID func() string
}

// Importer replaces the contents of a store with a JSON bundle.
type Importer struct {
	store     types.Store
	writer    ChunkedWriter
	converter *convert.Converter
	newID     func() string
}

// NewImporter returns an Importer writing to store.
func NewImporter(store types.Store, opts Options) *Importer {
	im := &Importer{
		store: store,
		writer: ChunkedWriter{
			ChunkSize: opts.ChunkSize,
			Yielder:   opts.Yielder,
		},
		converter: opts.Converter,
		newID:     opts.NewID,
	}
	if im.writer.Yielder == nil {
		im.writer.Yielder = Sleep(DefaultYieldDelay)
	}
	if im.converter == nil {
		im.converter = convert.New()
	}
	if im.newID == nil {
		im.newID = convert.NewID
	}
	return im
}

// SectionResult describes one imported section.
type SectionResult struct {
	Section string `json:"section"`
	Present bool   `json:"present"`
	Records int    `json:"records"`
}

// Report describes a finished or failed import.
type Report struct {
	Format   convert.Format  `json:"format"`
	Sections []SectionResult `json:"sections"`
}

// Total returns the number of records written.
func (r *Report) Total() int {
	n := 0
	for _, s := range r.Sections {
		n += s.Records
	}
	return n
}

func (r *Report) add(key string, present bool, written int) {
	r.Sections = append(r.Sections, SectionResult{Section: key, Present: present, Records: written})
}

// Import runs the import and reports whether it completed. Failures are
// logged, never returned.
func (im *Importer) Import(ctx context.Context, text []byte) bool {
	_, err := im.Run(ctx, text)
	return err == nil
}

// Run replaces every table with the contents of text and reports what was
// written. Envelope failures return before the store is touched. Once the
// tables are cleared, a storage failure stops the import and leaves the
// data written so far; the returned report covers that prefix.
func (im *Importer) Run(ctx context.Context, text []byte) (report *Report, err error) {
	body, ok := envelope(text)
	if !ok {
		logger.Warn("import rejected", "error", ErrEnvelope)
		return nil, ErrEnvelope
	}

	format := convert.Classify(section.Keys(body))
	report = &Report{Format: format, Sections: []SectionResult{}}
	logger.Info("import started", "format", format, "bytes", len(body))

	var doc gjson.Result
	if format != convert.FormatCanonical {
		if !gjson.ValidBytes(body) {
			logger.Warn("import rejected", "format", format, "error", ErrInvalidDocument)
			return nil, ErrInvalidDocument
		}
		doc = gjson.ParseBytes(body)
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("import panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("import panicked: %v", r)
		}
		if err != nil {
			logger.Error("import failed", "format", format, "written", report.Total(), "error", err)
			return
		}
		logger.Info("import finished", "format", format, "written", report.Total())
	}()

	if err := Reset(ctx, im.store); err != nil {
		return report, err
	}
	if format == convert.FormatCanonical {
		return report, im.canonical(ctx, body, report)
	}
	return report, im.foreign(ctx, doc, format, report)
}

// canonical extracts and writes one section at a time, so only one
// section's records are held at once.
func (im *Importer) canonical(ctx context.Context, body []byte, report *Report) error {
	for _, s := range sectionTables {
		var (
			records []json.RawMessage
			present bool
		)
		if s.key == WorkScheduleKey {
			if obj, ok := workSchedule(body); ok {
				records, present = []json.RawMessage{obj}, true
			}
		} else if raw, ok := section.Extract(s.key, body); ok {
			records, present = normalize(s.key, raw, im.newID), true
		} else {
			logger.Debug("section absent", "section", s.key)
		}

		written, err := im.write(ctx, s.table, records)
		report.add(s.key, present, written)
		if err != nil {
			return err
		}
	}
	return nil
}

// workSchedule returns the first valid schedule object stored under the
// singular key or its legacy plural alias.
func workSchedule(body []byte) (json.RawMessage, bool) {
	for _, key := range []string{WorkScheduleKey, LegacyWorkScheduleKey} {
		obj, ok := section.ExtractObject(key, body)
		if !ok {
			continue
		}
		if !validSchedule(obj) {
			logger.Warn("work schedule skipped, needs an id and a shifts array", "section", key)
			continue
		}
		return obj, true
	}
	return nil, false
}

// foreign converts the parsed document and writes each collection.
func (im *Importer) foreign(ctx context.Context, doc gjson.Result, format convert.Format, report *Report) error {
	b := im.converter.Convert(doc, format)
	logger.Debug("document converted", "format", format,
		"tasks", len(b.Tasks), "projects", len(b.Projects), "categories", len(b.Categories),
		"dailyPlans", len(b.DailyPlans), "journalEntries", len(b.JournalEntries))

	collections, err := encodeBundle(b)
	if err != nil {
		return err
	}

	for _, s := range sectionTables {
		records := collections[s.key]
		written, err := im.write(ctx, s.table, records)
		report.add(s.key, len(records) > 0, written)
		if err != nil {
			return err
		}
	}
	return nil
}

// encodeBundle marshals every collection of b, keyed by section.
func encodeBundle(b *types.Bundle) (map[string][]json.RawMessage, error) {
	out := make(map[string][]json.RawMessage, len(sectionTables))
	var err error
	if out[TasksKey], err = encodeAll(b.Tasks); err != nil {
		return nil, fmt.Errorf("encoding tasks: %w", err)
	}
	if out[ProjectsKey], err = encodeAll(b.Projects); err != nil {
		return nil, fmt.Errorf("encoding projects: %w", err)
	}
	if out[CategoriesKey], err = encodeAll(b.Categories); err != nil {
		return nil, fmt.Errorf("encoding categories: %w", err)
	}
	if out[DailyPlansKey], err = encodeAll(b.DailyPlans); err != nil {
		return nil, fmt.Errorf("encoding daily plans: %w", err)
	}
	if b.WorkSchedule != nil {
		if out[WorkScheduleKey], err = encodeAll([]types.WorkSchedule{*b.WorkSchedule}); err != nil {
			return nil, fmt.Errorf("encoding work schedule: %w", err)
		}
	}
	if out[JournalEntriesKey], err = encodeAll(b.JournalEntries); err != nil {
		return nil, fmt.Errorf("encoding journal entries: %w", err)
	}
	return out, nil
}

func (im *Importer) write(ctx context.Context, name string, records []json.RawMessage) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	table, err := im.store.GetTable(name)
	if err != nil {
		return 0, fmt.Errorf("getting table %s: %w", name, err)
	}
	return im.writer.Write(ctx, table, records)
}

// DetectFormat reports the format Run would use for text, reading only
// its top-level keys.
func DetectFormat(text []byte) (convert.Format, error) {
	body, ok := envelope(text)
	if !ok {
		return "", ErrEnvelope
	}
	return convert.Classify(section.Keys(body)), nil
}

// envelope trims whitespace and a byte order mark and reports whether the
// remainder is delimited by braces.
func envelope(text []byte) ([]byte, bool) {
	body := bytes.TrimSpace(bytes.TrimPrefix(bytes.TrimSpace(text), utf8BOM))
	if len(body) < 2 || body[0] != '{' || body[len(body)-1] != '}' {
		return nil, false
	}
	return body, true
}
