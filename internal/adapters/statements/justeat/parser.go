// Package justeat parses the Just Eat order-level detail CSV produced by the
// upstream PDF extraction step.
//
// Column contract: order_id, transaction_type, amount, order_date. Order and
// Refund rows become transactions (refunds carry negative amounts on the
// statement already); Commission and Marketing rows are provider-level fees
// with no order reference and are skipped.
//
// Just Eat statements carry no line identifiers, so transaction IDs are
// derived deterministically as JE-<order_id>-<type>, with a -<n> sequence
// suffix from the second row of the same order and type onward (partial
// refunds can repeat for one order).
package justeat

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/openledgerhq/orders-to-cash/internal/adapters/statements"
	"github.com/openledgerhq/orders-to-cash/internal/domain/model"
)

// Adapter implements statements.Adapter for Just Eat.
type Adapter struct {
	logger *slog.Logger
}

var _ statements.Adapter = (*Adapter)(nil)

// New creates a Just Eat statement adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{logger: logger}
}

func (a *Adapter) Name() string        { return "justeat" }
func (a *Adapter) DisplayName() string { return "Just Eat" }

// ParseStatement reads the order-level detail CSV and returns one transaction
// per Order or Refund row.
func (a *Adapter) ParseStatement(ctx context.Context, r io.Reader, period model.ReconciliationPeriod) ([]model.ProviderTransaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read justeat header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range []string{"order_id", "transaction_type", "amount", "order_date"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("justeat statement missing column %q", name)
		}
	}

	label := period.StatementLabel()
	var transactions []model.ProviderTransaction
	seen := make(map[string]int)
	skipped := 0

	for line := 2; ; line++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read justeat row %d: %w", line, err)
		}

		txType := strings.TrimSpace(row[cols["transaction_type"]])
		switch txType {
		case "Order", "Refund":
		default:
			// Commission, Marketing and similar provider-level rows.
			skipped++
			continue
		}

		orderID := cleanOrderID(row[cols["order_id"]])
		if orderID == "" {
			return nil, fmt.Errorf("justeat row %d: empty order_id", line)
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(row[cols["amount"]]))
		if err != nil {
			return nil, fmt.Errorf("justeat row %d: bad amount %q: %w", line, row[cols["amount"]], err)
		}

		date, err := statements.ParseDate(strings.TrimSpace(row[cols["order_date"]]))
		if err != nil {
			return nil, fmt.Errorf("justeat row %d: bad order_date: %w", line, err)
		}

		txID := fmt.Sprintf("JE-%s-%s", orderID, txType)
		seen[txID]++
		if n := seen[txID]; n > 1 {
			txID = fmt.Sprintf("%s-%d", txID, n)
		}

		transactions = append(transactions, model.ProviderTransaction{
			TransactionID:   txID,
			OrderReference:  orderID,
			Amount:          amount,
			TransactionDate: date,
			StatementPeriod: label,
		})
	}

	a.logger.Debug("parsed justeat statement",
		"transactions", len(transactions),
		"skipped_rows", skipped,
		"statement_period", label,
	)

	return transactions, nil
}

// cleanOrderID strips whitespace and a spreadsheet-artifact ".0" suffix, the
// same normalization the warehouse side applies to its order IDs.
func cleanOrderID(value string) string {
	value = strings.TrimSpace(value)
	return strings.TrimSuffix(value, ".0")
}
