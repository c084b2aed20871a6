package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/almanac/internal/transfer"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

var errResetNotConfirmed = errors.New("reset deletes every record; pass --yes to confirm")

func newResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every record from every table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return userError(errResetNotConfirmed)
			}
			return a.withStore(func(store types.Store) error {
				if err := transfer.Reset(cmd.Context(), store); err != nil {
					return sysError(fmt.Errorf("reset: %w", err))
				}
				fmt.Fprintln(cmd.OutOrStdout(), "all tables cleared")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all data")
	return cmd
}
