// Package reconcile orchestrates a full reconciliation run: loading the
// warehouse snapshot, parsing every enabled provider statement, executing the
// matching engine and accrual pass, building the report, and persisting the
// outcome.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openledgerhq/orders-to-cash/internal/adapters/statements"
	"github.com/openledgerhq/orders-to-cash/internal/adapters/warehouse"
	"github.com/openledgerhq/orders-to-cash/internal/domain/engine"
	"github.com/openledgerhq/orders-to-cash/internal/domain/model"
	"github.com/openledgerhq/orders-to-cash/internal/domain/report"
	"github.com/openledgerhq/orders-to-cash/internal/infrastructure/storage"
)

// Source pairs a statement adapter with the path of its statement file.
type Source struct {
	Adapter statements.Adapter
	Path    string
}

// Options holds per-run flags.
type Options struct {
	// DryRun skips persistence; the report is still produced.
	DryRun bool
}

// Result is the outcome of one reconciliation run.
type Result struct {
	RunID            string
	Report           *report.Report
	OrderCount       int
	TransactionCount int
	Duration         time.Duration
}

// Service wires the ingestion adapters, the engine, and storage together.
type Service struct {
	loader    *warehouse.Loader
	sources   []Source
	engineCfg engine.Config
	store     storage.Repository
	logger    *slog.Logger
}

// NewService creates a reconciliation service. store may be nil when the
// caller never persists (dry-run only tooling).
func NewService(
	loader *warehouse.Loader,
	sources []Source,
	engineCfg engine.Config,
	store storage.Repository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		loader:    loader,
		sources:   sources,
		engineCfg: engineCfg,
		store:     store,
		logger:    logger,
	}
}

// Run executes one reconciliation pass. Ingestion is a hard barrier: any
// statement that fails to parse aborts the run before the engine starts, so
// a partial statement can never masquerade as missing orders.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	started := time.Now()
	period := s.engineCfg.Period

	orders, err := s.loader.LoadOrders(ctx, period.AccountingStart, period.AccountingEnd)
	if err != nil {
		return nil, fmt.Errorf("loading warehouse snapshot: %w", err)
	}
	s.logger.Info("warehouse snapshot loaded",
		"orders", len(orders),
		"accounting_start", period.AccountingStart.Format(time.DateOnly),
		"accounting_end", period.AccountingEnd.Format(time.DateOnly))

	transactions, err := s.loadStatements(ctx)
	if err != nil {
		return nil, err
	}

	eng := engine.New(s.engineCfg, s.logger)
	results, err := eng.Reconcile(orders, transactions)
	if err != nil {
		return nil, err
	}

	accrual := engine.NewAccrualCalculator(period, s.logger)
	results = accrual.Apply(results, orders)

	rep := report.Build(results, orders, s.engineCfg.Tolerance)

	runID := uuid.New().String()
	duration := time.Since(started)

	if !rep.Summary.Balanced {
		s.logger.Warn("reconciliation run is not balanced",
			"run_id", runID,
			"warehouse_gross", rep.Summary.WarehouseGross,
			"reconciled_total", rep.Summary.ReconciledTotal)
	}

	if !opts.DryRun && s.store != nil {
		if err := s.persist(runID, started, duration, len(orders), len(transactions), rep); err != nil {
			return nil, fmt.Errorf("persisting run %s: %w", runID, err)
		}
		s.logger.Info("reconciliation run persisted", "run_id", runID)
	}

	return &Result{
		RunID:            runID,
		Report:           rep,
		OrderCount:       len(orders),
		TransactionCount: len(transactions),
		Duration:         duration,
	}, nil
}

// loadStatements parses every source concurrently. Providers are independent
// files, so the only shared state is the collection slot per source.
func (s *Service) loadStatements(ctx context.Context) ([]model.ProviderTransaction, error) {
	type outcome struct {
		name string
		txs  []model.ProviderTransaction
		err  error
	}

	outcomes := make([]outcome, len(s.sources))
	var wg sync.WaitGroup

	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			txs, err := parseSource(ctx, src, s.engineCfg.Period)
			outcomes[i] = outcome{name: src.Adapter.Name(), txs: txs, err: err}
		}(i, src)
	}
	wg.Wait()

	var transactions []model.ProviderTransaction
	for _, out := range outcomes {
		if out.err != nil {
			return nil, fmt.Errorf("parsing %s statement: %w", out.name, out.err)
		}
		s.logger.Info("statement parsed", "provider", out.name, "transactions", len(out.txs))
		transactions = append(transactions, out.txs...)
	}
	return transactions, nil
}

func parseSource(ctx context.Context, src Source, period model.ReconciliationPeriod) ([]model.ProviderTransaction, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return src.Adapter.ParseStatement(ctx, f, period)
}

func (s *Service) persist(runID string, started time.Time, duration time.Duration, orderCount, txCount int, rep *report.Report) error {
	period := s.engineCfg.Period
	sum := rep.Summary

	run := &storage.RunRecord{
		ID:               runID,
		StartedAt:        started.UTC(),
		Duration:         duration.Milliseconds(),
		AccountingStart:  period.AccountingStart.Format(time.DateOnly),
		AccountingEnd:    period.AccountingEnd.Format(time.DateOnly),
		StatementStart:   formatOptionalDate(period.StatementStart),
		StatementEnd:     formatOptionalDate(period.StatementEnd),
		Tolerance:        s.engineCfg.Tolerance.String(),
		OrderCount:       orderCount,
		TransactionCount: txCount,
		MatchedCount:     sum.Matched.Count,
		MismatchCount:    sum.Mismatch.Count,
		MissingCount:     sum.Missing.Count,
		AccrualCount:     sum.Accrual.Count,
		DuplicateCount:   sum.Duplicate.Count,
		OrphanCount:      sum.Orphan.Count,
		WarehouseGross:   sum.WarehouseGross.String(),
		ReconciledTotal:  sum.ReconciledTotal.String(),
		BalanceGap:       sum.ReconciledTotal.Sub(sum.WarehouseGross).String(),
		Balanced:         sum.Balanced,
	}

	records := make([]storage.ResultRecord, len(rep.Results))
	for i, res := range rep.Results {
		records[i] = storage.ResultRecord{
			RunID:          runID,
			OrderID:        res.OrderID,
			TransactionIDs: res.TransactionIDs,
			Category:       res.Category.String(),
			ExpectedAmount: res.ExpectedAmount.String(),
			ObservedAmount: res.ObservedAmount.String(),
			Variance:       res.Variance.String(),
		}
	}

	return s.store.SaveRun(run, records)
}

func formatOptionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
