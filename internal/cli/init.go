package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/almanac/internal/paths"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and initialize storage",
		Long: `Init writes a default config.yaml if none exists and creates the data
directory and database. Running it again is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var counts []int
			err := a.withStore(func(store types.Store) error {
				var err error
				counts, err = tableCounts(cmd.Context(), store)
				return err
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config: %s\n", paths.ConfigFile(a.configDir))
			fmt.Fprintf(out, "data:   %s (%s)\n", a.settings.Store.DataDir, a.settings.Store.Backend)
			for i, name := range types.StandardTableNames {
				fmt.Fprintf(out, "  %-16s %6d\n", name, counts[i])
			}
			return nil
		},
	}
}

// tableCounts returns the record count of every standard table, in
// StandardTableNames order.
func tableCounts(ctx context.Context, store types.Store) ([]int, error) {
	counts := make([]int, len(types.StandardTableNames))
	for i, name := range types.StandardTableNames {
		table, err := store.GetTable(name)
		if err != nil {
			return nil, sysError(fmt.Errorf("getting table %s: %w", name, err))
		}
		if counts[i], err = table.Count(ctx); err != nil {
			return nil, sysError(fmt.Errorf("counting table %s: %w", name, err))
		}
	}
	return counts, nil
}
