package billing

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hirelane/hirelane/adapter/cli"
)

var buyType int

var buyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Start buying a package",
	Long: `Create a payment for a package and print its checkout URL.

After paying, run "hirelane package settle <order> --package <name>" to add
the package's downloads to your allowance.

Examples:
  hirelane package buy --type 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := paymentsApp()
		if err != nil {
			return err
		}
		if app.Checkout == nil {
			return errors.New("checkout not configured")
		}

		p, err := app.Checkout.Start(cmd.Context(), buyType)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", cli.Label("Order:"), p.OrderCode)
		if p.CheckoutURL != "" {
			fmt.Fprintf(out, "%s %s\n", cli.Label("Pay at:"), p.CheckoutURL)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <order>",
	Short: "Show the status of a payment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := paymentsApp()
		if err != nil {
			return err
		}

		st, err := app.Payments.PaymentStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		state := string(st.Status)
		switch {
		case st.Status.IsPaid():
			state = cli.Success(state)
		case st.Status.IsFinal():
			state = cli.Failure(state)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Order %s: %s\n", st.OrderCode, state)
		if st.PackageName != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cli.Label("Package:"), st.PackageName)
		}
		return nil
	},
}

func init() {
	buyCmd.Flags().IntVar(&buyType, "type", 0, "package id from `hirelane package list`")
	_ = buyCmd.MarkFlagRequired("type")
}
