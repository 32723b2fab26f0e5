package quota

import (
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the free baseline allowance",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, userID, err := target()
		if err != nil {
			return err
		}
		snap, err := app.Ledger.ResetQuota(cmd.Context(), userID)
		if err != nil {
			return err
		}
		printSnapshot(cmd.OutOrStdout(), snap)
		return nil
	},
}
