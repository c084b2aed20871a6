// Package memory implements an in-memory Store. It keeps every table as an
// ordered slice of documents with an id index and is used by tests and by
// the "memory" backend.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/almanac/pkg/types"
)

// Backend implements types.Store in memory.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	tables   map[string]*table
}

// NewBackend creates a new, unattached in-memory backend.
func NewBackend() *Backend {
	return &Backend{tables: make(map[string]*table)}
}

// NewAttached returns a backend that is already attached. It is a
// convenience for tests.
func NewAttached() *Backend {
	b := NewBackend()
	_ = b.Attach(types.Config{Backend: types.BackendMemory})
	return b
}

// GetTable returns the table with the given name.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	t, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return t, nil
}

// Attach creates the standard tables.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	for _, name := range types.StandardTableNames {
		b.tables[name] = &table{name: name, backend: b, index: make(map[string]int)}
	}
	b.attached = true
	return nil
}

// Detach drops all data. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.attached = false
	b.tables = make(map[string]*table)
	return nil
}

// table implements types.Table. It shares the backend lock so that a
// detached backend rejects table operations.
type table struct {
	name    string
	backend *Backend
	rows    []json.RawMessage
	index   map[string]int // id -> position in rows
}

func (t *table) Name() string { return t.name }

func (t *table) lock() error {
	t.backend.mu.Lock()
	if !t.backend.attached {
		t.backend.mu.Unlock()
		return types.ErrStoreDetached
	}
	return nil
}

func (t *table) rlock() error {
	t.backend.mu.RLock()
	if !t.backend.attached {
		t.backend.mu.RUnlock()
		return types.ErrStoreDetached
	}
	return nil
}

func (t *table) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.lock(); err != nil {
		return err
	}
	defer t.backend.mu.Unlock()

	t.rows = nil
	t.index = make(map[string]int)
	return nil
}

func (t *table) BulkAdd(ctx context.Context, records []json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.lock(); err != nil {
		return err
	}
	defer t.backend.mu.Unlock()

	ids, err := t.checkIDs(records, t.index)
	if err != nil {
		return err
	}
	t.append(records, ids)
	return nil
}

func (t *table) Replace(ctx context.Context, records []json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.lock(); err != nil {
		return err
	}
	defer t.backend.mu.Unlock()

	ids, err := t.checkIDs(records, nil)
	if err != nil {
		return err
	}
	t.rows = nil
	t.index = make(map[string]int)
	t.append(records, ids)
	return nil
}

// checkIDs validates every record before anything is written, so a failed
// insert leaves the table unchanged.
func (t *table) checkIDs(records []json.RawMessage, existing map[string]int) ([]string, error) {
	ids := make([]string, len(records))
	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		id, err := types.RecordID(rec)
		if err != nil {
			return nil, fmt.Errorf("%s record %d: %w", t.name, i, err)
		}
		if _, ok := existing[id]; ok || seen[id] {
			return nil, fmt.Errorf("%s record %q: %w", t.name, id, types.ErrDuplicateID)
		}
		seen[id] = true
		ids[i] = id
	}
	return ids, nil
}

func (t *table) append(records []json.RawMessage, ids []string) {
	for i, rec := range records {
		cp := make(json.RawMessage, len(rec))
		copy(cp, rec)
		t.index[ids[i]] = len(t.rows)
		t.rows = append(t.rows, cp)
	}
}

func (t *table) ToArray(ctx context.Context) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := t.rlock(); err != nil {
		return nil, err
	}
	defer t.backend.mu.RUnlock()

	out := make([]json.RawMessage, len(t.rows))
	copy(out, t.rows)
	return out, nil
}

func (t *table) Get(ctx context.Context, id string) (json.RawMessage, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := t.rlock(); err != nil {
		return nil, err
	}
	defer t.backend.mu.RUnlock()

	i, ok := t.index[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return t.rows[i], nil
}

func (t *table) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := t.rlock(); err != nil {
		return 0, err
	}
	defer t.backend.mu.RUnlock()

	return len(t.rows), nil
}
