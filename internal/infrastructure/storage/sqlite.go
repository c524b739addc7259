package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for reconciliation runs.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Storage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reconciliation_runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		accounting_start TEXT NOT NULL,
		accounting_end TEXT NOT NULL,
		statement_start TEXT,
		statement_end TEXT,
		tolerance TEXT NOT NULL,
		order_count INTEGER NOT NULL,
		transaction_count INTEGER NOT NULL,
		matched_count INTEGER NOT NULL,
		mismatch_count INTEGER NOT NULL,
		missing_count INTEGER NOT NULL,
		accrual_count INTEGER NOT NULL,
		duplicate_count INTEGER NOT NULL,
		orphan_count INTEGER NOT NULL,
		warehouse_gross TEXT NOT NULL,
		reconciled_total TEXT NOT NULL,
		balance_gap TEXT NOT NULL,
		balanced INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS match_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES reconciliation_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		order_id TEXT,
		transaction_ids TEXT,
		category TEXT NOT NULL,
		expected_amount TEXT NOT NULL,
		observed_amount TEXT NOT NULL,
		variance TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_match_results_run ON match_results(run_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun stores a run and its match results in a single transaction.
// The position column preserves the report ordering.
func (s *Storage) SaveRun(run *RunRecord, results []ResultRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	runQuery := `
	INSERT INTO reconciliation_runs
	(id, started_at, duration_ms, accounting_start, accounting_end,
	 statement_start, statement_end, tolerance, order_count, transaction_count,
	 matched_count, mismatch_count, missing_count, accrual_count,
	 duplicate_count, orphan_count, warehouse_gross, reconciled_total,
	 balance_gap, balanced)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if _, err := tx.Exec(runQuery,
		run.ID,
		run.StartedAt,
		run.Duration,
		run.AccountingStart,
		run.AccountingEnd,
		run.StatementStart,
		run.StatementEnd,
		run.Tolerance,
		run.OrderCount,
		run.TransactionCount,
		run.MatchedCount,
		run.MismatchCount,
		run.MissingCount,
		run.AccrualCount,
		run.DuplicateCount,
		run.OrphanCount,
		run.WarehouseGross,
		run.ReconciledTotal,
		run.BalanceGap,
		run.Balanced,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	resultQuery := `
	INSERT INTO match_results
	(run_id, position, order_id, transaction_ids, category,
	 expected_amount, observed_amount, variance)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.Prepare(resultQuery)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range results {
		idsJSON, _ := json.Marshal(r.TransactionIDs)
		if _, err := stmt.Exec(
			run.ID,
			i,
			r.OrderID,
			string(idsJSON),
			r.Category,
			r.ExpectedAmount,
			r.ObservedAmount,
			r.Variance,
		); err != nil {
			return fmt.Errorf("failed to insert result %d: %w", i, err)
		}
	}

	return tx.Commit()
}

const runColumns = `
	id, started_at, duration_ms, accounting_start, accounting_end,
	statement_start, statement_end, tolerance, order_count, transaction_count,
	matched_count, mismatch_count, missing_count, accrual_count,
	duplicate_count, orphan_count, warehouse_gross, reconciled_total,
	balance_gap, balanced`

// GetRun retrieves a run by ID
func (s *Storage) GetRun(id string) (*RunRecord, error) {
	query := `SELECT` + runColumns + ` FROM reconciliation_runs WHERE id = ?`

	run := &RunRecord{}
	if err := scanRun(s.db.QueryRow(query, id), run); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first
func (s *Storage) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT` + runColumns + ` FROM reconciliation_runs ORDER BY started_at DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		if err := scanRun(rows, &run); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetResults returns a run's match results in their stored order
func (s *Storage) GetResults(runID string) ([]ResultRecord, error) {
	query := `
	SELECT run_id, order_id, transaction_ids, category,
	       expected_amount, observed_amount, variance
	FROM match_results WHERE run_id = ? ORDER BY position
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []ResultRecord
	for rows.Next() {
		var r ResultRecord
		var orderID, idsJSON sql.NullString
		if err := rows.Scan(
			&r.RunID,
			&orderID,
			&idsJSON,
			&r.Category,
			&r.ExpectedAmount,
			&r.ObservedAmount,
			&r.Variance,
		); err != nil {
			return nil, err
		}
		r.OrderID = orderID.String
		if idsJSON.Valid && idsJSON.String != "" {
			_ = json.Unmarshal([]byte(idsJSON.String), &r.TransactionIDs)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner, run *RunRecord) error {
	var statementStart, statementEnd sql.NullString
	err := row.Scan(
		&run.ID,
		&run.StartedAt,
		&run.Duration,
		&run.AccountingStart,
		&run.AccountingEnd,
		&statementStart,
		&statementEnd,
		&run.Tolerance,
		&run.OrderCount,
		&run.TransactionCount,
		&run.MatchedCount,
		&run.MismatchCount,
		&run.MissingCount,
		&run.AccrualCount,
		&run.DuplicateCount,
		&run.OrphanCount,
		&run.WarehouseGross,
		&run.ReconciledTotal,
		&run.BalanceGap,
		&run.Balanced,
	)
	if err != nil {
		return err
	}
	run.StatementStart = statementStart.String
	run.StatementEnd = statementEnd.String
	return nil
}
