package billing

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hirelane/hirelane/adapter/cli"
)

var (
	settlePackage string
	settleUser    string
)

var settleCmd = &cobra.Command{
	Use:   "settle <order>",
	Short: "Add a paid package to your download allowance",
	Long: `Check that an order is paid and add its package to the local download
allowance. Settling the same order again has no effect.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := paymentsApp()
		if err != nil {
			return err
		}
		if app.Checkout == nil {
			return errors.New("checkout not configured")
		}
		userID, err := app.UserID(settleUser)
		if err != nil {
			return err
		}

		res, err := app.Checkout.Settle(cmd.Context(), userID, args[0], settlePackage)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case res.Duplicate:
			fmt.Fprintf(out, "Order %s was already settled.\n", args[0])
		case res.Granted:
			fmt.Fprintf(out, "%s %s\n", cli.Success("Settled order"), args[0])
		default:
			fmt.Fprintf(out, "%s; nothing granted.\n", cli.Failure("Unknown package"))
		}
		fmt.Fprintf(out, "%s %s (%s remaining)\n", cli.Label("Downloads:"), res.Snapshot.MaxQuota, res.Snapshot.Remaining)
		return nil
	},
}

func init() {
	settleCmd.Flags().StringVar(&settlePackage, "package", "", "package name when the payment status does not name it")
	settleCmd.Flags().StringVar(&settleUser, "user", "", "user id (defaults to the configured user)")
}
