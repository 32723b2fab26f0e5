package billing

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hirelane/hirelane/adapter/cli"
	"github.com/hirelane/hirelane/internal/billing/domain"
	"github.com/hirelane/hirelane/internal/gateway"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List purchasable packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := paymentsApp()
		if err != nil {
			return err
		}

		var (
			offerings []domain.Offering
			current   string
		)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			var err error
			offerings, err = app.Payments.ListPackages(ctx)
			return err
		})
		g.Go(func() error {
			sub, err := app.Payments.MySubscription(ctx)
			if status, ok := gateway.StatusCode(err); ok && status == http.StatusNotFound {
				return nil
			}
			if err != nil {
				return err
			}
			current = sub.PackageName
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(offerings) == 0 {
			fmt.Fprintln(out, "No packages available.")
			return nil
		}
		fmt.Fprintln(out, cli.Heading("Packages"))
		for _, o := range offerings {
			downloads := "-"
			if pkg, ok := domain.LookupPackage(o.Name); ok {
				downloads = pkg.Quota.String()
			}
			marker := " "
			if o.Name == current {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-3d %-10s %12.0f  %s downloads\n", marker, o.ID, o.Name, o.Price, downloads)
		}
		if current != "" {
			fmt.Fprintf(out, "%s current package\n", cli.Label("*"))
		}
		return nil
	},
}

var subscriptionCmd = &cobra.Command{
	Use:   "subscription",
	Short: "Show your current subscription",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := paymentsApp()
		if err != nil {
			return err
		}

		sub, err := app.Payments.MySubscription(cmd.Context())
		if status, ok := gateway.StatusCode(err); ok && status == http.StatusNotFound {
			fmt.Fprintln(cmd.OutOrStdout(), "No subscription found.")
			return nil
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		statusLine := sub.Status
		if sub.PackageName != "" {
			statusLine = fmt.Sprintf("%s (%s)", sub.PackageName, sub.Status)
		}
		fmt.Fprintf(out, "Subscription: %s\n", statusLine)
		if sub.StartDate != nil {
			fmt.Fprintf(out, "Started: %s\n", sub.StartDate.Local().Format(time.RFC1123))
		}
		if sub.EndDate != nil {
			fmt.Fprintf(out, "Ends: %s\n", sub.EndDate.Local().Format(time.RFC1123))
		}
		return nil
	},
}
