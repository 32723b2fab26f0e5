package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hirelane/hirelane/internal/jobs/domain"
	"github.com/hirelane/hirelane/internal/shared/infrastructure/security"
)

var (
	applyJobID       string
	applyCVFile      string
	applyCVID        string
	applyCoverLetter string
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply to a job with an uploaded or stored CV",
	Long: `Apply to a job.

Examples:
  hirelane apply --job 42 --cv-file ./resume.pdf --cover-letter "Hello"
  hirelane apply --job 42 --cv-id 7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Jobs == nil {
			return errors.New("applying requires the backend client")
		}

		cv, closeCV, err := OpenCVSource(applyCVFile, applyCVID)
		if err != nil {
			return err
		}
		defer closeCV()

		receipt, err := app.Jobs.Apply(cmd.Context(), domain.Application{
			JobID:       applyJobID,
			CV:          cv,
			CoverLetter: applyCoverLetter,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s job %s\n", Success("Applied to"), applyJobID)
		if receipt.ApplicationID != 0 {
			fmt.Fprintf(out, "%s %d\n", Label("Application:"), receipt.ApplicationID)
		}
		if receipt.Message != "" {
			fmt.Fprintln(out, receipt.Message)
		}
		return nil
	},
}

// OpenCVSource builds a CV source from exactly one of a file path or a CV id.
// The returned func closes the file, if any.
func OpenCVSource(path, id string) (domain.CVSource, func(), error) {
	noop := func() {}
	if (path == "") == (id == "") {
		return domain.CVSource{}, noop, domain.ErrInvalidCVSource
	}
	if id != "" {
		return domain.ExistingCV(id), noop, nil
	}

	up, err := security.OpenUpload(path, security.MaxUploadBytes)
	if err != nil {
		return domain.CVSource{}, noop, fmt.Errorf("open cv file: %w", err)
	}
	return domain.CVFile(up.Name, up), func() { _ = up.Close() }, nil
}

func init() {
	applyCmd.Flags().StringVar(&applyJobID, "job", "", "job id")
	applyCmd.Flags().StringVar(&applyCVFile, "cv-file", "", "CV file to upload")
	applyCmd.Flags().StringVar(&applyCVID, "cv-id", "", "id of a CV stored on the backend")
	applyCmd.Flags().StringVar(&applyCoverLetter, "cover-letter", "", "cover letter text")
	_ = applyCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(applyCmd)
}
