package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/almanac/internal/atomicfile"
	"github.com/mesh-intelligence/almanac/internal/transfer"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every table to a JSON bundle",
		Long: `Export serializes tasks, projects, categories, daily plans, the work
schedule and journal entries into one JSON bundle. Without -o the bundle
is written to standard output; with -o the file is replaced atomically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store types.Store) error {
				data, err := transfer.NewExporter(store, nil).Export(cmd.Context())
				if err != nil {
					return sysError(fmt.Errorf("export: %w", err))
				}
				if output == "" {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return err
				}
				if err := atomicfile.Write(output, append(data, '\n'), 0o644); err != nil {
					return sysError(fmt.Errorf("write %s: %w", output, err))
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d bytes to %s\n", len(data)+1, output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the bundle to FILE instead of stdout")
	return cmd
}
