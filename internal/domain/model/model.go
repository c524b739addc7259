// Package model defines the normalized record shapes exchanged between the
// reconciliation core and its adapters: warehouse orders, provider statement
// transactions, the run period, and the per-order match results.
//
// Orders and transactions are built once per run by the adapters and must be
// treated as read-only afterward. MatchResult values are produced only by the
// engine and report packages.
package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// VATBand aggregates item-level amounts for a single tax-rate bucket
// (e.g. "0", "5", "20").
type VATBand struct {
	Quantity  int             `json:"quantity"`
	NetAmount decimal.Decimal `json:"net_amount"`
	VATAmount decimal.Decimal `json:"vat_amount"`
}

// WarehouseOrder is one warehouse-side order from the materialized snapshot,
// with VAT-band aggregation already applied upstream.
type WarehouseOrder struct {
	OrderID     string             `json:"order_id"`
	GrossAmount decimal.Decimal    `json:"gross_amount"`
	NetAmount   decimal.Decimal    `json:"net_amount"`
	VATBands    map[string]VATBand `json:"vat_bands"`

	// OrderDate is date precision; time-of-day must be zero.
	OrderDate time.Time `json:"order_date"`

	// TransactionRefs are provider transaction IDs the warehouse believes
	// settled this order. May be empty.
	TransactionRefs []string `json:"transaction_refs,omitempty"`
}

// VATBandGap returns NetAmount minus the sum of per-band net amounts.
// A well-formed order has a gap within the run tolerance.
func (o WarehouseOrder) VATBandGap() decimal.Decimal {
	sum := decimal.Zero
	for _, band := range o.VATBands {
		sum = sum.Add(band.NetAmount)
	}
	return o.NetAmount.Sub(sum)
}

// ProviderTransaction is one normalized statement line.
type ProviderTransaction struct {
	TransactionID string `json:"transaction_id"`

	// OrderReference points at a WarehouseOrder.OrderID. May be empty or
	// unresolvable; that is a categorization outcome, not an error.
	OrderReference string `json:"order_reference,omitempty"`

	Amount          decimal.Decimal `json:"amount"`
	TransactionDate time.Time       `json:"transaction_date"`

	// StatementPeriod tags the statement this line came from. A transaction
	// belongs to exactly one statement period per run.
	StatementPeriod string `json:"statement_period"`
}

// ReconciliationPeriod bounds a reconciliation run. All dates are inclusive.
// StatementStart/StatementEnd may be zero when no usable statement coverage
// exists; the accrual pass handles that case explicitly.
type ReconciliationPeriod struct {
	AccountingStart time.Time `json:"accounting_start"`
	AccountingEnd   time.Time `json:"accounting_end"`
	StatementStart  time.Time `json:"statement_start"`
	StatementEnd    time.Time `json:"statement_end"`
}

// StatementLabel renders the statement window the way statement artifacts are
// named, e.g. "25.11.04 - 25.11.30".
func (p ReconciliationPeriod) StatementLabel() string {
	if p.StatementStart.IsZero() && p.StatementEnd.IsZero() {
		return "no-statement"
	}
	return p.StatementStart.Format("06.01.02") + " - " + p.StatementEnd.Format("06.01.02")
}

// Category is the closed set of classification outcomes. Keeping it closed
// lets the report builder switch exhaustively; new members require touching
// every switch.
type Category int

const (
	CategoryMatched Category = iota
	CategoryAmountMismatch
	CategoryMissingFromStatement
	CategoryAccrual
	CategoryDuplicateReference
	CategoryOrphanTransaction
)

// Categories lists all members in report order.
var Categories = []Category{
	CategoryMatched,
	CategoryAmountMismatch,
	CategoryMissingFromStatement,
	CategoryAccrual,
	CategoryDuplicateReference,
	CategoryOrphanTransaction,
}

func (c Category) String() string {
	switch c {
	case CategoryMatched:
		return "Matched"
	case CategoryAmountMismatch:
		return "AmountMismatch"
	case CategoryMissingFromStatement:
		return "MissingFromStatement"
	case CategoryAccrual:
		return "Accrual"
	case CategoryDuplicateReference:
		return "DuplicateReference"
	case CategoryOrphanTransaction:
		return "OrphanTransaction"
	default:
		return "Unknown"
	}
}

// MatchResult is the output unit of the engine: one per warehouse order plus
// one per orphan transaction.
type MatchResult struct {
	// OrderID is empty for orphan-transaction rows.
	OrderID string `json:"order_id,omitempty"`

	// TransactionIDs lists the statement lines in this match unit, ordered
	// by transaction date then ID.
	TransactionIDs []string `json:"transaction_ids,omitempty"`

	Category Category `json:"category"`

	// ExpectedAmount is the warehouse gross (zero for orphans);
	// ObservedAmount is the statement-side sum (zero when nothing matched).
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	ObservedAmount decimal.Decimal `json:"observed_amount"`

	// Variance is |ExpectedAmount - ObservedAmount|.
	Variance decimal.Decimal `json:"variance"`
}

// SortTransactionIDs orders IDs deterministically. Used by the engine before
// publishing a result.
func SortTransactionIDs(ids []string, dates map[string]time.Time) {
	sort.SliceStable(ids, func(i, j int) bool {
		di, dj := dates[ids[i]], dates[ids[j]]
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return ids[i] < ids[j]
	})
}
