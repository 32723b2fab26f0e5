package match

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/hirelane/hirelane/adapter/cli"
	"github.com/hirelane/hirelane/internal/jobs/domain"
)

// Cmd is the match command group.
var Cmd = &cobra.Command{
	Use:   "match",
	Short: "Match your CV against job descriptions",
}

var (
	tryJobID  string
	tryCVFile string
	tryCVID   string
)

var tryCmd = &cobra.Command{
	Use:   "try",
	Short: "Start a CV match against a job",
	Long: `Start a CV match against a job. Matching runs on the backend; use
"hirelane match show <id>" to follow its progress.

Examples:
  hirelane match try --job 42 --cv-file ./resume.pdf
  hirelane match try --job 42 --cv-id 7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Jobs == nil {
			return errors.New("matching requires the backend client")
		}

		cv, closeCV, err := cli.OpenCVSource(tryCVFile, tryCVID)
		if err != nil {
			return err
		}
		defer closeCV()

		rec, err := app.Jobs.TryMatch(cmd.Context(), domain.MatchRequest{JobID: tryJobID, CV: cv})
		if err != nil {
			return err
		}
		printRecord(cmd.OutOrStdout(), rec)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List your CV matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Jobs == nil {
			return errors.New("matching requires the backend client")
		}

		records, err := app.Jobs.History(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No matches yet.")
			return nil
		}
		fmt.Fprintln(out, cli.Heading(fmt.Sprintf("%d matches", len(records))))
		for _, r := range records {
			fmt.Fprintf(out, "  #%-6d %s  %s\n", r.TryMatchID, formatTime(r.CreatedAt), r.Summary())
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one CV match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Jobs == nil {
			return errors.New("matching requires the backend client")
		}

		rec, err := app.Jobs.Detail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printRecord(cmd.OutOrStdout(), rec)
		return nil
	},
}

func printRecord(w io.Writer, r domain.MatchRecord) {
	fmt.Fprintln(w, cli.Heading(fmt.Sprintf("Match #%d", r.TryMatchID)))
	if r.JobTitle != "" {
		fmt.Fprintf(w, "  %s %s\n", cli.Label("Job:"), r.JobTitle)
	}
	switch r.Status {
	case domain.MatchCompleted:
		fmt.Fprintf(w, "  %s\n", cli.Success(r.Summary()))
		for i, s := range r.Suggestions {
			fmt.Fprintf(w, "  %d. %s\n", i+1, s)
		}
	case domain.MatchFailed:
		fmt.Fprintf(w, "  %s\n", cli.Failure(r.Summary()))
	default:
		fmt.Fprintf(w, "  %s\n", r.Summary())
	}
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  %s %s\n", cli.Label("Created:"), formatTime(r.CreatedAt))
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func init() {
	tryCmd.Flags().StringVar(&tryJobID, "job", "", "job id")
	tryCmd.Flags().StringVar(&tryCVFile, "cv-file", "", "CV file to upload")
	tryCmd.Flags().StringVar(&tryCVID, "cv-id", "", "id of a CV stored on the backend")
	_ = tryCmd.MarkFlagRequired("job")

	Cmd.AddCommand(tryCmd)
	Cmd.AddCommand(historyCmd)
	Cmd.AddCommand(showCmd)
}
