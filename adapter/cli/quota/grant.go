package quota

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hirelane/hirelane/adapter/cli"
	billingApp "github.com/hirelane/hirelane/internal/billing/application"
	"github.com/hirelane/hirelane/internal/billing/domain"
)

var (
	grantPackage string
	grantOrder   string
)

var grantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Add a package's allowance",
	Long: `Add a package's allowance to the user's maximum.

Without --order every call grants again. With --order the grant is applied
at most once per order code.

Examples:
  hirelane quota grant --package Basic
  hirelane quota grant --package Premium --order 1712345678`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, userID, err := target()
		if err != nil {
			return err
		}
		if strings.TrimSpace(grantPackage) == "" {
			return errors.New("package is required")
		}

		var res billingApp.GrantResult
		if grantOrder != "" {
			res, err = app.Ledger.GrantForOrder(cmd.Context(), userID, grantPackage, grantOrder)
		} else {
			res, err = app.Ledger.Grant(cmd.Context(), userID, grantPackage)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case res.Duplicate:
			fmt.Fprintf(out, "Order %s was already granted.\n", grantOrder)
		case !res.Granted:
			fmt.Fprintf(out, "%s %q; nothing changed. Known packages: %s\n",
				cli.Failure("Unknown package"), grantPackage, strings.Join(packageNames(), ", "))
		default:
			fmt.Fprintf(out, "%s %s\n", cli.Success("Granted"), grantPackage)
		}
		printSnapshot(out, res.Snapshot)
		return nil
	},
}

func packageNames() []string {
	catalog := domain.Catalog()
	names := make([]string, len(catalog))
	for i, p := range catalog {
		names[i] = p.Name
	}
	return names
}

func init() {
	grantCmd.Flags().StringVar(&grantPackage, "package", "", "package name (Free, Basic, Premium)")
	grantCmd.Flags().StringVar(&grantOrder, "order", "", "payment order code; grants at most once per order")
}
