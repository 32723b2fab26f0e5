package billing

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/hirelane/hirelane/adapter/cli"
)

// Cmd is the package command group.
var Cmd = &cobra.Command{
	Use:     "package",
	Aliases: []string{"billing"},
	Short:   "Browse and buy subscription packages",
	Long:    `List packages, inspect your subscription and buy packages.`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(subscriptionCmd)
	Cmd.AddCommand(buyCmd)
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(settleCmd)
}

var errNoPayments = errors.New("package commands require the backend client")

func paymentsApp() (*cli.App, error) {
	app := cli.GetApp()
	if app == nil || app.Payments == nil {
		return nil, errNoPayments
	}
	return app, nil
}
