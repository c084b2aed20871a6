package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/almanac/internal/convert"
	"github.com/mesh-intelligence/almanac/internal/memory"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

var (
	errBoom  = errors.New("boom")
	fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
)

// faultyTable wraps a table, records the size of every BulkAdd and fails
// on request.
type faultyTable struct {
	types.Table
	batches []int
	failOn  int // 1-based BulkAdd call that fails; 0 never fails
	panicOn int
	readErr error
}

func (f *faultyTable) BulkAdd(ctx context.Context, records []json.RawMessage) error {
	f.batches = append(f.batches, len(records))
	switch len(f.batches) {
	case f.failOn:
		return errBoom
	case f.panicOn:
		panic("storage exploded")
	}
	return f.Table.BulkAdd(ctx, records)
}

func (f *faultyTable) ToArray(ctx context.Context) ([]json.RawMessage, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.Table.ToArray(ctx)
}

// faultyStore serves faultyTables for the names registered with wrap.
type faultyStore struct {
	types.Store
	tables map[string]*faultyTable
}

func newFaultyStore(t *testing.T) *faultyStore {
	t.Helper()
	return &faultyStore{Store: memory.NewAttached(), tables: make(map[string]*faultyTable)}
}

func (s *faultyStore) wrap(t *testing.T, name string) *faultyTable {
	t.Helper()
	inner, err := s.Store.GetTable(name)
	require.NoError(t, err)
	f := &faultyTable{Table: inner}
	s.tables[name] = f
	return f
}

func (s *faultyStore) GetTable(name string) (types.Table, error) {
	if f, ok := s.tables[name]; ok {
		return f, nil
	}
	return s.Store.GetTable(name)
}

// newTestImporter returns an importer that never sleeps and generates
// predictable ids.
func newTestImporter(store types.Store, chunkSize int) *Importer {
	n := 0
	next := func() string {
		n++
		return fmt.Sprintf("gen-%d", n)
	}
	return NewImporter(store, Options{
		ChunkSize: chunkSize,
		Yielder:   NoYield,
		Converter: convert.New(convert.WithClock(func() time.Time { return fixedNow }), convert.WithIDGenerator(next)),
		NewID:     next,
	})
}

func rows(t *testing.T, store types.Store, name string) []json.RawMessage {
	t.Helper()
	table, err := store.GetTable(name)
	require.NoError(t, err)
	out, err := table.ToArray(context.Background())
	require.NoError(t, err)
	return out
}

func seed(t *testing.T, store types.Store, name string, docs ...string) {
	t.Helper()
	table, err := store.GetTable(name)
	require.NoError(t, err)
	records := make([]json.RawMessage, len(docs))
	for i, d := range docs {
		records[i] = json.RawMessage(d)
	}
	require.NoError(t, table.BulkAdd(context.Background(), records))
}

// taskDocs returns n task documents with ids t0..t(n-1).
func taskDocs(n int) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range out {
		out[i] = json.RawMessage(fmt.Sprintf(`{"id":"t%d","title":"task %d"}`, i, i))
	}
	return out
}

// taskArray returns a JSON array of n task documents.
func taskArray(n int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, d := range taskDocs(n) {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(d)
	}
	b.WriteByte(']')
	return b.String()
}

// tasksBundle returns a canonical document holding n tasks.
func tasksBundle(n int) []byte {
	return []byte(`{"tasks":` + taskArray(n) + `,"projects":[],"categories":[]}`)
}
