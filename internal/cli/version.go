package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/almanac/internal/transfer"
	"github.com/mesh-intelligence/almanac/pkg/almanac"
)

const modulePath = "github.com/mesh-intelligence/almanac"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the almanac version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "almanac v%s\nbundle format: %s\nmodule: %s\n",
				almanac.Version, transfer.FormatVersion, modulePath)
			return nil
		},
	}
}
