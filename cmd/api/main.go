package main

import (
	"flag"
	"os"

	"github.com/openledgerhq/orders-to-cash/internal/api"
	"github.com/openledgerhq/orders-to-cash/internal/cli"
	"github.com/openledgerhq/orders-to-cash/internal/infrastructure/config"
	"github.com/openledgerhq/orders-to-cash/internal/infrastructure/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (falls back to RECON_* env vars)")
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configPath)
	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "api")

	service, store, err := cli.BuildService(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	if store == nil {
		logger.Error("storage.database_path is required for the API server")
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	apiCfg := api.DefaultConfig()
	if cfg.API.Port != 0 {
		apiCfg.Port = cfg.API.Port
	}
	if len(cfg.API.AllowedOrigins) > 0 {
		apiCfg.AllowedOrigins = cfg.API.AllowedOrigins
	}

	server := api.NewServer(apiCfg, store, service, logger)
	if err := server.Run(); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
