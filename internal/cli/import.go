package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/almanac/internal/transfer"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

func newImportCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "import FILE|-",
		Short: "Replace all data with the contents of a JSON bundle",
		Long: `Import clears every table and loads the bundle in FILE (or standard
input for "-"). Bundles exported by almanac are loaded as is; documents from
other to-do, project and calendar tools are converted first.

Existing data is removed before the new data is written. If the import
fails partway, the store keeps only what was written before the failure.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return userError(err)
			}
			return a.withStore(func(store types.Store) error {
				im := transfer.NewImporter(store, transfer.Options{
					ChunkSize: a.settings.Store.GetChunkSize(),
					Yielder:   transfer.Sleep(a.settings.YieldDelay),
				})
				report, runErr := im.Run(cmd.Context(), text)
				if report != nil {
					if err := printReport(cmd.OutOrStdout(), report, jsonOut); err != nil {
						return err
					}
				}
				switch {
				case runErr == nil:
					return nil
				case errors.Is(runErr, transfer.ErrEnvelope), errors.Is(runErr, transfer.ErrInvalidDocument):
					return userError(fmt.Errorf("import: %w", runErr))
				default:
					return sysError(fmt.Errorf("import failed after existing data was cleared: %w", runErr))
				}
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the import report as JSON")
	return cmd
}

func printReport(w io.Writer, r *transfer.Report, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	fmt.Fprintf(w, "format: %s\n", r.Format)
	for _, s := range r.Sections {
		state := ""
		if !s.Present {
			state = " (absent)"
		}
		fmt.Fprintf(w, "  %-16s %6d%s\n", s.Section, s.Records, state)
	}
	fmt.Fprintf(w, "  %-16s %6d\n", "total", r.Total())
	return nil
}
