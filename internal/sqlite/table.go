package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/almanac/pkg/types"
)

// table implements types.Table for a single document table.
type table struct {
	name    string
	backend *Backend
}

func newTable(b *Backend, name string) *table {
	return &table{name: name, backend: b}
}

// Name returns the table name.
func (t *table) Name() string { return t.name }

// db returns the open database, holding the backend read lock until release
// is called. The lock only guards against a concurrent Detach.
func (t *table) db() (*sql.DB, func(), error) {
	t.backend.mu.RLock()
	if !t.backend.attached || t.backend.db == nil {
		t.backend.mu.RUnlock()
		return nil, nil, types.ErrStoreDetached
	}
	return t.backend.db, t.backend.mu.RUnlock, nil
}

// Clear deletes every row.
func (t *table) Clear(ctx context.Context) error {
	db, release, err := t.db()
	if err != nil {
		return err
	}
	defer release()

	if _, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %q", t.name)); err != nil {
		return fmt.Errorf("clearing %s: %w", t.name, err)
	}
	return nil
}

// BulkAdd inserts records in one transaction. Either all records are
// inserted or none are.
func (t *table) BulkAdd(ctx context.Context, records []json.RawMessage) error {
	db, release, err := t.db()
	if err != nil {
		return err
	}
	defer release()

	return t.inTx(ctx, db, func(tx *sql.Tx) error {
		return t.insert(ctx, tx, records)
	})
}

// Replace deletes every row and inserts records in one transaction.
func (t *table) Replace(ctx context.Context, records []json.RawMessage) error {
	db, release, err := t.db()
	if err != nil {
		return err
	}
	defer release()

	return t.inTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %q", t.name)); err != nil {
			return fmt.Errorf("clearing %s: %w", t.name, err)
		}
		return t.insert(ctx, tx, records)
	})
}

func (t *table) inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning %s transaction: %w", t.name, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s transaction: %w", t.name, err)
	}
	return nil
}

func (t *table) insert(ctx context.Context, tx *sql.Tx, records []json.RawMessage) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %q (id, body) VALUES (?, ?)", t.name))
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", t.name, err)
	}
	defer stmt.Close()

	for i, rec := range records {
		id, err := types.RecordID(rec)
		if err != nil {
			return fmt.Errorf("%s record %d: %w", t.name, i, err)
		}
		if _, err := stmt.ExecContext(ctx, id, string(rec)); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%s record %q: %w", t.name, id, types.ErrDuplicateID)
			}
			return fmt.Errorf("inserting %s record %q: %w", t.name, id, err)
		}
	}
	return nil
}

// ToArray returns all documents ordered by insertion sequence.
func (t *table) ToArray(ctx context.Context) ([]json.RawMessage, error) {
	db, release, err := t.db()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT body FROM %q ORDER BY seq", t.name))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.name, err)
	}
	defer rows.Close()

	out := []json.RawMessage{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", t.name, err)
		}
		out = append(out, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", t.name, err)
	}
	return out, nil
}

// Get returns the document with the given id.
func (t *table) Get(ctx context.Context, id string) (json.RawMessage, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, release, err := t.db()
	if err != nil {
		return nil, err
	}
	defer release()

	var body string
	err = db.QueryRowContext(ctx, fmt.Sprintf("SELECT body FROM %q WHERE id = ?", t.name), id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s %q: %w", t.name, id, err)
	}
	return json.RawMessage(body), nil
}

// Count returns the number of rows.
func (t *table) Count(ctx context.Context) (int, error) {
	db, release, err := t.db()
	if err != nil {
		return 0, err
	}
	defer release()

	var n int
	if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %q", t.name)).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", t.name, err)
	}
	return n, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
