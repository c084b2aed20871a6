package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/almanac/internal/transfer"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect FILE|-",
		Short: "Print the format import would use for a document",
		Long: `Detect prints one of canonical, todo-app, project-manager, calendar-app
or generic. It reads only the top-level keys and does not touch the store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return userError(err)
			}
			format, err := transfer.DetectFormat(text)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), format)
			return nil
		},
	}
}
