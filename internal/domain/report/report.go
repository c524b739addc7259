// Package report aggregates classified match results into per-category
// counts and monetary subtotals, and runs the global balance check that
// ties the statement side back to the warehouse gross total.
package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/openledgerhq/orders-to-cash/internal/domain/model"
)

// CategoryTotal is the count and monetary subtotal for one category.
type CategoryTotal struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// VarianceDetail lists one order whose statement amount disagreed with the
// warehouse gross. Variance is signed: observed minus expected.
type VarianceDetail struct {
	OrderID  string          `json:"order_id"`
	Expected decimal.Decimal `json:"expected"`
	Observed decimal.Decimal `json:"observed"`
	Variance decimal.Decimal `json:"variance"`
}

// Diagnostic explains a balance-check gap so a reviewer can attribute it
// without re-running the pipeline.
type Diagnostic struct {
	// Gap is reconciled total minus warehouse gross total (signed).
	Gap decimal.Decimal `json:"gap"`

	// MismatchVariance is the signed sum of observed-expected over all
	// AmountMismatch orders; DuplicateTotal and OrphanTotal are the amounts
	// the balance formula deliberately excludes.
	MismatchVariance decimal.Decimal `json:"mismatch_variance"`
	DuplicateTotal   decimal.Decimal `json:"duplicate_total"`
	OrphanTotal      decimal.Decimal `json:"orphan_total"`

	Detail string `json:"detail,omitempty"`
}

// Summary is the aggregate view of a run.
type Summary struct {
	Matched   CategoryTotal `json:"matched"`
	Mismatch  CategoryTotal `json:"mismatch"`
	Missing   CategoryTotal `json:"missing"`
	Accrual   CategoryTotal `json:"accrual"`
	Duplicate CategoryTotal `json:"duplicate"`
	Orphan    CategoryTotal `json:"orphan"`

	// Variances lists every AmountMismatch order individually.
	Variances []VarianceDetail `json:"variances,omitempty"`

	WarehouseGross  decimal.Decimal `json:"warehouse_gross"`
	ReconciledTotal decimal.Decimal `json:"reconciled_total"`
	Balanced        bool            `json:"balanced"`
	Imbalance       *Diagnostic     `json:"imbalance,omitempty"`
}

// Report is the full structured output of a run: the deterministically
// ordered results plus the summary.
type Report struct {
	Results []model.MatchResult `json:"results"`
	Summary Summary             `json:"summary"`
}

// Build aggregates results into a Report. Results are re-ordered into the
// fixed category order, then by order ID ascending within each group (orphan
// rows by transaction ID), so repeated runs produce diffable output.
//
// The balance check compares matched + mismatch (observed) + missing +
// accrual (expected) against the warehouse gross total within tolerance.
// Failure never aborts; it sets Balanced=false and attaches a Diagnostic.
func Build(results []model.MatchResult, orders []model.WarehouseOrder, tolerance decimal.Decimal) *Report {
	ordered := make([]model.MatchResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := categoryRank(ordered[i].Category), categoryRank(ordered[j].Category)
		if ri != rj {
			return ri < rj
		}
		return sortKey(ordered[i]) < sortKey(ordered[j])
	})

	summary := Summary{}
	mismatchVariance := decimal.Zero

	for _, res := range ordered {
		switch res.Category {
		case model.CategoryMatched:
			summary.Matched.Count++
			summary.Matched.Total = summary.Matched.Total.Add(res.ObservedAmount)
		case model.CategoryAmountMismatch:
			summary.Mismatch.Count++
			summary.Mismatch.Total = summary.Mismatch.Total.Add(res.ObservedAmount)
			mismatchVariance = mismatchVariance.Add(res.ObservedAmount.Sub(res.ExpectedAmount))
			summary.Variances = append(summary.Variances, VarianceDetail{
				OrderID:  res.OrderID,
				Expected: res.ExpectedAmount,
				Observed: res.ObservedAmount,
				Variance: res.ObservedAmount.Sub(res.ExpectedAmount),
			})
		case model.CategoryMissingFromStatement:
			summary.Missing.Count++
			summary.Missing.Total = summary.Missing.Total.Add(res.ExpectedAmount)
		case model.CategoryAccrual:
			summary.Accrual.Count++
			summary.Accrual.Total = summary.Accrual.Total.Add(res.ExpectedAmount)
		case model.CategoryDuplicateReference:
			summary.Duplicate.Count++
			summary.Duplicate.Total = summary.Duplicate.Total.Add(res.ExpectedAmount)
		case model.CategoryOrphanTransaction:
			summary.Orphan.Count++
			summary.Orphan.Total = summary.Orphan.Total.Add(res.ObservedAmount)
		}
	}

	for _, o := range orders {
		summary.WarehouseGross = summary.WarehouseGross.Add(o.GrossAmount)
	}

	summary.ReconciledTotal = summary.Matched.Total.
		Add(summary.Mismatch.Total).
		Add(summary.Missing.Total).
		Add(summary.Accrual.Total)

	gap := summary.ReconciledTotal.Sub(summary.WarehouseGross)
	summary.Balanced = !gap.Abs().GreaterThan(tolerance)
	if !summary.Balanced {
		summary.Imbalance = &Diagnostic{
			Gap:              gap,
			MismatchVariance: mismatchVariance,
			DuplicateTotal:   summary.Duplicate.Total,
			OrphanTotal:      summary.Orphan.Total,
			Detail: fmt.Sprintf(
				"reconciled total %s differs from warehouse gross %s by %s (mismatch variance %s, duplicate-reference orders %s, orphan transactions %s excluded from formula)",
				summary.ReconciledTotal, summary.WarehouseGross, gap,
				mismatchVariance, summary.Duplicate.Total, summary.Orphan.Total,
			),
		}
	}

	return &Report{Results: ordered, Summary: summary}
}

// categoryRank fixes the report grouping order.
func categoryRank(c model.Category) int {
	for i, cat := range model.Categories {
		if cat == c {
			return i
		}
	}
	return len(model.Categories)
}

// sortKey orders rows within a category group.
func sortKey(res model.MatchResult) string {
	if res.OrderID != "" {
		return res.OrderID
	}
	if len(res.TransactionIDs) > 0 {
		return res.TransactionIDs[0]
	}
	return ""
}
