package engine

import (
	"log/slog"
	"time"

	"github.com/openledgerhq/orders-to-cash/internal/domain/model"
)

// AccrualCalculator reclassifies MissingFromStatement orders that are not
// true discrepancies but simply too recent to appear on the available
// statement.
type AccrualCalculator struct {
	period model.ReconciliationPeriod
	logger *slog.Logger
}

// NewAccrualCalculator creates a calculator for the given run period.
func NewAccrualCalculator(period model.ReconciliationPeriod, logger *slog.Logger) *AccrualCalculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccrualCalculator{period: period, logger: logger}
}

// Apply returns a new result slice in which MissingFromStatement orders whose
// order date falls inside the accounting window and strictly after the
// statement cut-off become Accrual. An order dated exactly on StatementEnd is
// considered covered and stays MissingFromStatement.
//
// When StatementEnd is zero or precedes AccountingStart there is no usable
// statement coverage: every uncovered order in the accounting window defaults
// to Accrual, and the default is logged rather than applied silently.
func (a *AccrualCalculator) Apply(results []model.MatchResult, orders []model.WarehouseOrder) []model.MatchResult {
	dates := make(map[string]time.Time, len(orders))
	for _, o := range orders {
		dates[o.OrderID] = o.OrderDate
	}

	noCoverage := a.period.StatementEnd.IsZero() || a.period.StatementEnd.Before(a.period.AccountingStart)
	if noCoverage {
		a.logger.Warn("no usable statement coverage; uncovered orders in the accounting window default to accrual",
			"accounting_start", a.period.AccountingStart.Format(time.DateOnly),
			"accounting_end", a.period.AccountingEnd.Format(time.DateOnly),
		)
	}

	out := make([]model.MatchResult, len(results))
	copy(out, results)

	accrued := 0
	for i, res := range out {
		if res.Category != model.CategoryMissingFromStatement {
			continue
		}
		date, ok := dates[res.OrderID]
		if !ok {
			continue
		}
		if !a.inAccountingWindow(date) {
			continue
		}
		if noCoverage || date.After(a.period.StatementEnd) {
			out[i].Category = model.CategoryAccrual
			accrued++
		}
	}

	if accrued > 0 {
		a.logger.Info("reclassified uncovered orders as accruals", "count", accrued)
	}

	return out
}

func (a *AccrualCalculator) inAccountingWindow(date time.Time) bool {
	return !date.Before(a.period.AccountingStart) && !date.After(a.period.AccountingEnd)
}

// AccrualWindow returns the date range [statement_end+1, accounting_end]
// that accrued orders fall into, or ok=false when statements cover the full
// accounting period and no accrual is needed.
func AccrualWindow(period model.ReconciliationPeriod) (start, end time.Time, ok bool) {
	if period.StatementEnd.IsZero() || period.StatementEnd.Before(period.AccountingStart) {
		return period.AccountingStart, period.AccountingEnd, true
	}
	if !period.StatementEnd.Before(period.AccountingEnd) {
		return time.Time{}, time.Time{}, false
	}
	return period.StatementEnd.AddDate(0, 0, 1), period.AccountingEnd, true
}
