// Package store creates table stores for Almanac data.
//
// Example:
//
//	s, err := store.Open(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "/var/lib/almanac",
//	})
//	if err != nil {
//	    return err
//	}
//	defer s.Detach()
package store

import (
	"fmt"

	"github.com/mesh-intelligence/almanac/internal/memory"
	"github.com/mesh-intelligence/almanac/internal/sqlite"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

// New returns an unattached store for the named backend.
// Returns types.ErrBackendUnknown for any other name.
func New(backend string) (types.Store, error) {
	switch backend {
	case types.BackendSQLite:
		return sqlite.NewBackend(), nil
	case types.BackendMemory:
		return memory.NewBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, backend)
	}
}

// Open creates the backend named by cfg and attaches it.
func Open(cfg types.Config) (types.Store, error) {
	s, err := New(cfg.Backend)
	if err != nil {
		return nil, err
	}
	if err := s.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach %s backend: %w", cfg.Backend, err)
	}
	return s, nil
}
