package transfer

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/almanac/pkg/types"
)

// Reset clears every standard table, in import order. It stops at the
// first failure; tables cleared before it stay cleared.
func Reset(ctx context.Context, store types.Store) error {
	for _, name := range types.StandardTableNames {
		table, err := store.GetTable(name)
		if err != nil {
			return fmt.Errorf("getting table %s: %w", name, err)
		}
		if err := table.Clear(ctx); err != nil {
			return fmt.Errorf("clearing table %s: %w", name, err)
		}
	}
	return nil
}
