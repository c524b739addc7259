package cli

import (
	"fmt"
	"log/slog"

	"github.com/openledgerhq/orders-to-cash/internal/adapters/statements"
	"github.com/openledgerhq/orders-to-cash/internal/adapters/statements/deliveroo"
	"github.com/openledgerhq/orders-to-cash/internal/adapters/statements/justeat"
	"github.com/openledgerhq/orders-to-cash/internal/adapters/statements/ubereats"
	"github.com/openledgerhq/orders-to-cash/internal/adapters/warehouse"
	"github.com/openledgerhq/orders-to-cash/internal/application/reconcile"
	"github.com/openledgerhq/orders-to-cash/internal/domain/engine"
	"github.com/openledgerhq/orders-to-cash/internal/domain/model"
	"github.com/openledgerhq/orders-to-cash/internal/infrastructure/config"
	"github.com/openledgerhq/orders-to-cash/internal/infrastructure/storage"
)

// NewRegistry builds the adapter registry with every known provider
// registered.
func NewRegistry(logger *slog.Logger) (*statements.Registry, error) {
	registry := statements.NewRegistry(logger)
	adapters := []statements.Adapter{
		deliveroo.New(logger),
		justeat.New(logger),
		ubereats.New(logger),
	}
	for _, a := range adapters {
		if err := registry.Register(a); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// BuildService wires a reconciliation service from config. The returned
// repository is nil when no database path is configured; when non-nil the
// caller owns closing it.
func BuildService(cfg *config.Config, logger *slog.Logger) (*reconcile.Service, storage.Repository, error) {
	tolerance, err := cfg.Reconciliation.ToleranceAmount()
	if err != nil {
		return nil, nil, err
	}

	accStart, accEnd, stmtStart, stmtEnd, err := cfg.Reconciliation.Dates()
	if err != nil {
		return nil, nil, err
	}

	engineCfg := engine.Config{
		Tolerance: tolerance,
		Period: model.ReconciliationPeriod{
			AccountingStart: accStart,
			AccountingEnd:   accEnd,
			StatementStart:  stmtStart,
			StatementEnd:    stmtEnd,
		},
	}

	registry, err := NewRegistry(logger)
	if err != nil {
		return nil, nil, err
	}

	sources, err := reconcile.BuildSources(cfg, registry)
	if err != nil {
		return nil, nil, err
	}
	if len(sources) == 0 {
		return nil, nil, fmt.Errorf("no providers enabled")
	}

	if cfg.Warehouse.SnapshotDir == "" {
		return nil, nil, fmt.Errorf("warehouse.snapshot_dir is required")
	}
	loader := warehouse.NewLoader(cfg.Warehouse.SnapshotDir, logger)

	var store storage.Repository
	if cfg.Storage.DatabasePath != "" {
		s, err := storage.NewStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing storage: %w", err)
		}
		store = s
	}

	return reconcile.NewService(loader, sources, engineCfg, store, logger), store, nil
}
