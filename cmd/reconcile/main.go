package main

import (
	"context"
	"os"

	"github.com/openledgerhq/orders-to-cash/internal/cli"
	"github.com/openledgerhq/orders-to-cash/internal/infrastructure/config"
	"github.com/openledgerhq/orders-to-cash/internal/infrastructure/logging"
)

func main() {
	flags := cli.ParseRunFlags()

	cfg := config.LoadOrEnvWithPath(flags.ConfigPath)
	if flags.Verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	logger := logging.NewLogger(cfg.Observability.Logging)

	service, store, err := cli.BuildService(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	cli.PrintHeader(flags.DryRun)

	result, err := service.Run(context.Background(), flags.ToOptions())
	if err != nil {
		logger.Error("Reconciliation failed", "error", err)
		os.Exit(1)
	}

	cli.PrintSummary(result)

	if !result.Report.Summary.Balanced {
		os.Exit(2)
	}
}
