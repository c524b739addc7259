package storage

import "time"

// RunRecord is the storage representation of a completed reconciliation run.
// Monetary amounts are kept as strings to preserve the exact decimal values.
type RunRecord struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Duration  int64     `json:"duration_ms"`

	AccountingStart string `json:"accounting_start"`
	AccountingEnd   string `json:"accounting_end"`
	StatementStart  string `json:"statement_start,omitempty"`
	StatementEnd    string `json:"statement_end,omitempty"`
	Tolerance       string `json:"tolerance"`

	OrderCount       int `json:"order_count"`
	TransactionCount int `json:"transaction_count"`

	MatchedCount   int `json:"matched_count"`
	MismatchCount  int `json:"mismatch_count"`
	MissingCount   int `json:"missing_count"`
	AccrualCount   int `json:"accrual_count"`
	DuplicateCount int `json:"duplicate_count"`
	OrphanCount    int `json:"orphan_count"`

	WarehouseGross  string `json:"warehouse_gross"`
	ReconciledTotal string `json:"reconciled_total"`
	BalanceGap      string `json:"balance_gap"`
	Balanced        bool   `json:"balanced"`
}

// ResultRecord is one persisted match result row.
type ResultRecord struct {
	RunID          string   `json:"run_id"`
	OrderID        string   `json:"order_id,omitempty"`
	TransactionIDs []string `json:"transaction_ids,omitempty"`
	Category       string   `json:"category"`
	ExpectedAmount string   `json:"expected_amount"`
	ObservedAmount string   `json:"observed_amount"`
	Variance       string   `json:"variance"`
}
