package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hirelane/hirelane/adapter/cli"
	cliAuth "github.com/hirelane/hirelane/adapter/cli/auth"
	cliBilling "github.com/hirelane/hirelane/adapter/cli/billing"
	"github.com/hirelane/hirelane/adapter/cli/match"
	"github.com/hirelane/hirelane/adapter/cli/quota"
	"github.com/hirelane/hirelane/internal/app"
	"github.com/hirelane/hirelane/pkg/config"
	"github.com/hirelane/hirelane/pkg/observability"
)

func main() {
	// Create context cancelled on shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cli.SetBootstrap(bootstrap)

	cli.AddCommand(cliAuth.Cmd)
	cli.AddCommand(quota.Cmd)
	cli.AddCommand(match.Cmd)
	cli.AddCommand(cliBilling.Cmd)

	cli.Execute(ctx)
}

// bootstrap loads configuration and builds the CLI application.
func bootstrap(ctx context.Context, configPath string, verbose bool) (*cli.App, *zap.Logger, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, nil, err
	}

	logCfg := observability.DefaultLogConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = observability.LogFormat(cfg.LogFormat)
	logCfg.Output = os.Stderr
	logCfg.ServiceVersion = cli.Version
	if verbose {
		logCfg.Level = "debug"
	}
	logger := observability.NewLogger(logCfg)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, logger, fmt.Errorf("failed to initialize: %w", err)
	}

	cliApp := &cli.App{
		Ledger:    container.Ledger,
		Downloads: container.Downloads,
		Tokens:    container.Tokens,
		Payments:  container.Payments,
		Checkout:  container.Checkout,
		Jobs:      container.Jobs,
		Metrics:   container.Metrics,
		Health:    container.Health,
	}
	cliApp.SetCurrentUserID(cfg.UserID)
	cliApp.SetCloser(container.Close)

	logger.Debug("application initialized",
		zap.String("env", cfg.AppEnv),
		zap.String("api", cfg.APIBaseURL),
		zap.String("store", cfg.Store.Driver),
	)
	return cliApp, logger, nil
}
