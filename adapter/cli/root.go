package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hirelane/hirelane/internal/gateway"
	"github.com/hirelane/hirelane/pkg/observability"
)

var (
	cfgFile string
	verbose bool
	logger  *zap.Logger
	boot    BootstrapFunc
)

// BootstrapFunc builds the application from the config file named by
// --config (empty for the default lookup).
type BootstrapFunc func(ctx context.Context, configPath string, verbose bool) (*App, *zap.Logger, error)

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hirelane",
	Short: "Hirelane - job search from the terminal",
	Long: `Hirelane applies to jobs, matches your CV against job descriptions
and manages subscription packages against the Hirelane backend.

	CV download allowances are tracked locally per user.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if app == nil && boot != nil {
			a, l, err := boot(cmd.Context(), cfgFile, verbose)
			if err != nil {
				return err
			}
			SetApp(a)
			if l != nil {
				logger = l
			}
		}
		if logger == nil {
			logger = zap.NewNop()
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		info := commandContext{
			correlationID: uuid.New(),
			startedAt:     time.Now(),
		}
		ctx = observability.WithCorrelationID(ctx, info.correlationID.String())
		cmd.SetContext(context.WithValue(ctx, commandContextKey{}, info))
		logger.Debug("command start",
			zap.String("command", cmd.CommandPath()),
			zap.String(observability.CorrelationIDKey, info.correlationID.String()),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = zap.NewNop()
		}
		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		logger.Debug("command end",
			zap.String("command", cmd.CommandPath()),
			zap.String(observability.CorrelationIDKey, info.correlationID.String()),
			zap.Int64(observability.DurationKey, time.Since(info.startedAt).Milliseconds()),
		)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	if a := GetApp(); a != nil {
		if cerr := a.Close(); cerr != nil && logger != nil {
			logger.Warn("failed to close application", zap.Error(cerr))
		}
	}
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, Explain(err))
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *zap.Logger) {
	logger = l
}

// SetBootstrap sets the function that builds the App before the first command runs.
func SetBootstrap(fn BootstrapFunc) {
	boot = fn
}

// Explain adds a hint to errors the user can act on.
func Explain(err error) error {
	switch {
	case err == nil:
		return nil
	case gateway.NeedsLogin(err):
		return fmt.Errorf("%w\nhint: run `hirelane auth login` to store a fresh token", err)
	case errors.Is(err, gateway.ErrCircuitOpen):
		return fmt.Errorf("%w\nhint: the backend failed repeatedly, try again shortly", err)
	default:
		return err
	}
}
