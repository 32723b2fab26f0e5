package quota

import (
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current allowance",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, userID, err := target()
		if err != nil {
			return err
		}
		snap, err := app.Ledger.GetQuota(cmd.Context(), userID)
		if err != nil {
			return err
		}
		printSnapshot(cmd.OutOrStdout(), snap)
		return nil
	},
}
