package quota

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hirelane/hirelane/adapter/cli"
	"github.com/hirelane/hirelane/internal/billing/domain"
)

// Cmd is the quota command group.
var Cmd = &cobra.Command{
	Use:   "quota",
	Short: "Inspect and manage CV download allowances",
	Long:  `Inspect and manage the locally tracked CV download allowance of a user.`,
}

var userOverride string

func init() {
	Cmd.PersistentFlags().StringVar(&userOverride, "user", "", "user id (defaults to the configured user)")

	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(grantCmd)
	Cmd.AddCommand(consumeCmd)
	Cmd.AddCommand(resetCmd)
}

// target returns the app and user a command operates on.
func target() (*cli.App, string, error) {
	app := cli.GetApp()
	if app == nil || app.Ledger == nil {
		return nil, "", errors.New("quota commands require local storage")
	}
	userID, err := app.UserID(userOverride)
	if err != nil {
		return nil, "", err
	}
	return app, userID, nil
}

func printSnapshot(w io.Writer, s domain.Snapshot) {
	fmt.Fprintf(w, "%s\n", cli.Heading("Quota for "+s.UserID))
	pkg := s.LastPackageName
	if pkg == "" {
		pkg = "-"
	}
	fmt.Fprintf(w, "  %s %s\n", cli.Label("Package:  "), pkg)
	fmt.Fprintf(w, "  %s %s\n", cli.Label("Max:      "), s.MaxQuota)
	fmt.Fprintf(w, "  %s %d\n", cli.Label("Used:     "), s.UsedCount)
	fmt.Fprintf(w, "  %s %s\n", cli.Label("Remaining:"), s.Remaining)
}
