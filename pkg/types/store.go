package types

import (
	"context"
	"encoding/json"
	"errors"
)

// Store defines the interface for backend-agnostic table storage.
// Callers attach to a backend, access tables by name, and detach when done.
type Store interface {
	// GetTable returns the Table for the given name.
	// Returns ErrTableNotFound if the name is not a standard table.
	GetTable(name string) (Table, error)

	// Attach connects the Store to the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations on tables return ErrStoreDetached.
	Detach() error
}

// Table holds the JSON documents of a single entity type in insertion order.
// Each document is a JSON object whose "id" field is unique within the table.
type Table interface {
	// Name returns the table name.
	Name() string

	// Clear removes every document.
	Clear(ctx context.Context) error

	// BulkAdd inserts records in order as one atomic operation.
	// Returns ErrDuplicateID if any id already exists or repeats.
	BulkAdd(ctx context.Context, records []json.RawMessage) error

	// Replace clears the table and inserts records in one transaction.
	// It saves a single table atomically; a full import instead clears
	// every table and writes each in chunks with BulkAdd.
	Replace(ctx context.Context, records []json.RawMessage) error

	// ToArray returns every document in insertion order.
	ToArray(ctx context.Context) ([]json.RawMessage, error)

	// Get returns the document with the given id.
	// Returns ErrNotFound if no document has that id.
	Get(ctx context.Context, id string) (json.RawMessage, error)

	// Count returns the number of documents.
	Count(ctx context.Context) (int, error)
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrTableNotFound   = errors.New("table not found")
)

// Table operation errors.
var (
	ErrNotFound    = errors.New("entity not found")
	ErrInvalidID   = errors.New("invalid entity ID")
	ErrInvalidData = errors.New("invalid entity data")
	ErrDuplicateID = errors.New("duplicate entity ID")
)
