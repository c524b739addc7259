// Package engine implements the reconciliation core: pairing warehouse
// orders with provider statement transactions, resolving split payments and
// duplicate references, and classifying every record.
//
// The engine is a single-pass, purely computational stage. It performs no
// I/O, requires fully materialized inputs, and is deterministic: identical
// inputs and configuration yield bit-identical results.
//
// Example usage:
//
//	eng := engine.New(engine.Config{Tolerance: decimal.NewFromFloat(0.01), Period: period}, logger)
//	results, err := eng.Reconcile(orders, transactions)
package engine

import (
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openledgerhq/orders-to-cash/internal/domain/model"
)

// Config holds the engine's policy values. Tolerance is an absolute monetary
// amount applied identically to 1:1 and split-payment match units.
type Config struct {
	Tolerance decimal.Decimal
	Period    model.ReconciliationPeriod
}

// DefaultConfig returns the standard close tolerance of one cent.
func DefaultConfig() Config {
	return Config{Tolerance: decimal.New(1, -2)}
}

// Engine classifies warehouse orders against provider transactions.
type Engine struct {
	config Config
	logger *slog.Logger
}

// New creates an engine with the given config.
func New(config Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{config: config, logger: logger}
}

// Config returns the engine's configuration value.
func (e *Engine) Config() Config {
	return e.config
}

// Reconcile produces exactly one MatchResult per warehouse order plus one per
// unresolvable transaction. Orders appear in OrderID order, followed by
// orphan transactions in TransactionID order.
//
// It returns a *model.StructuralError when the input sets are malformed:
// duplicate order or transaction IDs, an empty collection, missing required
// fields, or a VAT-band breakdown that does not sum to the order net amount.
func (e *Engine) Reconcile(orders []model.WarehouseOrder, transactions []model.ProviderTransaction) ([]model.MatchResult, error) {
	if err := e.validate(orders, transactions); err != nil {
		return nil, err
	}

	ordersByID := make(map[string]model.WarehouseOrder, len(orders))
	orderIDs := make([]string, 0, len(orders))
	for _, o := range orders {
		ordersByID[o.OrderID] = o
		orderIDs = append(orderIDs, o.OrderID)
	}
	sort.Strings(orderIDs)

	txByID := make(map[string]model.ProviderTransaction, len(transactions))
	txDates := make(map[string]time.Time, len(transactions))
	txIDs := make([]string, 0, len(transactions))
	for _, tx := range transactions {
		txByID[tx.TransactionID] = tx
		txDates[tx.TransactionID] = tx.TransactionDate
		txIDs = append(txIDs, tx.TransactionID)
	}
	sort.Strings(txIDs)

	owned, lostClaim := e.resolveOwnership(ordersByID, txByID, txIDs)

	results := make([]model.MatchResult, 0, len(orders)+len(transactions))
	for _, orderID := range orderIDs {
		results = append(results, e.classifyOrder(ordersByID[orderID], owned[orderID], lostClaim[orderID], txByID, txDates))
	}

	claimed := make(map[string]bool, len(txIDs))
	for _, ids := range owned {
		for _, id := range ids {
			claimed[id] = true
		}
	}

	// Transactions owned by no order become orphan rows.
	for _, txID := range txIDs {
		if claimed[txID] {
			continue
		}
		tx := txByID[txID]
		results = append(results, model.MatchResult{
			TransactionIDs: []string{tx.TransactionID},
			Category:       model.CategoryOrphanTransaction,
			ExpectedAmount: decimal.Zero,
			ObservedAmount: tx.Amount,
			Variance:       tx.Amount.Abs(),
		})
	}

	return results, nil
}

// resolveOwnership assigns each transaction to at most one order. A claim
// exists when the transaction references the order, or the order lists the
// transaction. When several orders claim the same transaction (duplicate
// reference data error) the earliest OrderDate wins, ties broken by smallest
// OrderID. Losing orders are recorded so classifyOrder can flag them.
func (e *Engine) resolveOwnership(
	ordersByID map[string]model.WarehouseOrder,
	txByID map[string]model.ProviderTransaction,
	txIDs []string,
) (owned map[string][]string, lostClaim map[string]bool) {
	claims := make(map[string]map[string]bool, len(txIDs))
	claim := func(txID, orderID string) {
		if claims[txID] == nil {
			claims[txID] = make(map[string]bool)
		}
		claims[txID][orderID] = true
	}

	for _, txID := range txIDs {
		tx := txByID[txID]
		if tx.OrderReference != "" {
			if _, ok := ordersByID[tx.OrderReference]; ok {
				claim(txID, tx.OrderReference)
			}
		}
	}
	for orderID, order := range ordersByID {
		for _, ref := range order.TransactionRefs {
			if _, ok := txByID[ref]; ok {
				claim(ref, orderID)
			}
		}
	}

	owned = make(map[string][]string)
	lostClaim = make(map[string]bool)

	for _, txID := range txIDs {
		claimants := claims[txID]
		if len(claimants) == 0 {
			continue
		}
		winner := ""
		for orderID := range claimants {
			if winner == "" || earlierOrder(ordersByID[orderID], ordersByID[winner]) {
				winner = orderID
			}
		}
		owned[winner] = append(owned[winner], txID)
		for orderID := range claimants {
			if orderID != winner {
				lostClaim[orderID] = true
				e.logger.Warn("duplicate reference detected",
					"transaction_id", txID,
					"owner_order_id", winner,
					"losing_order_id", orderID,
				)
			}
		}
	}

	return owned, lostClaim
}

// classifyOrder produces the MatchResult for a single order given the
// transactions it owns.
func (e *Engine) classifyOrder(
	order model.WarehouseOrder,
	txIDs []string,
	lostClaim bool,
	txByID map[string]model.ProviderTransaction,
	txDates map[string]time.Time,
) model.MatchResult {
	if len(txIDs) == 0 {
		category := model.CategoryMissingFromStatement
		if lostClaim {
			// The only transaction this order referenced belongs to an
			// earlier order: a duplicate reference, not a missing payment.
			category = model.CategoryDuplicateReference
		}
		return model.MatchResult{
			OrderID:        order.OrderID,
			Category:       category,
			ExpectedAmount: order.GrossAmount,
			ObservedAmount: decimal.Zero,
			Variance:       order.GrossAmount.Abs(),
		}
	}

	ids := append([]string(nil), txIDs...)
	model.SortTransactionIDs(ids, txDates)

	// Split payments collapse into one match unit: the sum of all owned
	// transactions is compared against the gross with the same tolerance as
	// the 1:1 case.
	observed := decimal.Zero
	for _, id := range ids {
		observed = observed.Add(txByID[id].Amount)
	}

	variance := order.GrossAmount.Sub(observed).Abs()
	category := model.CategoryMatched
	if variance.GreaterThan(e.config.Tolerance) {
		category = model.CategoryAmountMismatch
	}

	return model.MatchResult{
		OrderID:        order.OrderID,
		TransactionIDs: ids,
		Category:       category,
		ExpectedAmount: order.GrossAmount,
		ObservedAmount: observed,
		Variance:       variance,
	}
}

// validate enforces the structural invariants that abort a run.
func (e *Engine) validate(orders []model.WarehouseOrder, transactions []model.ProviderTransaction) error {
	if len(orders) == 0 {
		return model.NewStructuralError(model.ReasonEmptyOrders, "warehouse order set is empty")
	}
	if len(transactions) == 0 {
		return model.NewStructuralError(model.ReasonEmptyTransactions, "provider transaction set is empty")
	}

	seen := make(map[string]bool, len(orders))
	for i, order := range orders {
		if order.OrderID == "" {
			return model.NewStructuralError(model.ReasonMissingField, "order at index %d has no order_id", i)
		}
		if order.OrderDate.IsZero() {
			return model.NewStructuralError(model.ReasonMissingField, "order %s has no order_date", order.OrderID)
		}
		if seen[order.OrderID] {
			return model.NewStructuralError(model.ReasonDuplicateOrderID, "order_id %s appears more than once", order.OrderID)
		}
		seen[order.OrderID] = true

		if gap := order.VATBandGap(); len(order.VATBands) > 0 && gap.Abs().GreaterThan(e.config.Tolerance) {
			return model.NewStructuralError(model.ReasonVATBandMismatch,
				"order %s VAT bands sum to %s against net %s", order.OrderID, order.NetAmount.Sub(gap), order.NetAmount)
		}
	}

	seenTx := make(map[string]bool, len(transactions))
	for i, tx := range transactions {
		if tx.TransactionID == "" {
			return model.NewStructuralError(model.ReasonMissingField, "transaction at index %d has no transaction_id", i)
		}
		if tx.TransactionDate.IsZero() {
			return model.NewStructuralError(model.ReasonMissingField, "transaction %s has no transaction_date", tx.TransactionID)
		}
		if seenTx[tx.TransactionID] {
			return model.NewStructuralError(model.ReasonDuplicateTransactionID, "transaction_id %s appears more than once", tx.TransactionID)
		}
		seenTx[tx.TransactionID] = true
	}

	return nil
}

// earlierOrder reports whether a is the rightful owner over b.
func earlierOrder(a, b model.WarehouseOrder) bool {
	if !a.OrderDate.Equal(b.OrderDate) {
		return a.OrderDate.Before(b.OrderDate)
	}
	return a.OrderID < b.OrderID
}
