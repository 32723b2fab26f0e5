package quota

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hirelane/hirelane/adapter/cli"
	jobsApp "github.com/hirelane/hirelane/internal/jobs/application"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Spend one CV download",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, userID, err := target()
		if err != nil {
			return err
		}
		if app.Downloads == nil {
			return errors.New("downloads not configured")
		}

		err = app.Downloads.DownloadCV(cmd.Context(), userID, nil)
		if errors.Is(err, jobsApp.ErrQuotaExhausted) {
			fmt.Fprintln(cmd.OutOrStdout(), cli.Failure("No downloads left.")+" Buy a package with `hirelane package buy`.")
			return err
		}
		if err != nil {
			return err
		}

		snap, err := app.Ledger.GetQuota(cmd.Context(), userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s remaining\n", cli.Success("Download recorded."), snap.Remaining)
		return nil
	},
}
