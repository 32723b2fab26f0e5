package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hirelane/hirelane/pkg/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check local storage and backend reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Health == nil {
			return fmt.Errorf("app not initialized")
		}

		results := app.Health.Check(cmd.Context())
		out := cmd.OutOrStdout()
		for _, r := range results {
			status := Success(string(r.Status))
			if r.Status != observability.HealthStatusHealthy {
				status = Failure(string(r.Status))
			}
			fmt.Fprintf(out, "%s %s  %s (%dms)\n", Label(r.Name+":"), status, r.Message, r.Duration.Milliseconds())
		}

		overall := observability.OverallStatus(results)
		fmt.Fprintf(out, "%s %s\n", Heading("overall:"), overall)
		if overall == observability.HealthStatusUnhealthy {
			return errors.New("unhealthy")
		}
		return nil
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Dump the metrics of this invocation in Prometheus text format",
	Long: `Dump the metrics of this invocation in Prometheus text format.

Run it after other commands in the same process (for example from scripts
embedding the CLI) to inspect request and ledger counters.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Metrics == nil {
			return fmt.Errorf("app not initialized")
		}
		return app.Metrics.WriteText(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
}
