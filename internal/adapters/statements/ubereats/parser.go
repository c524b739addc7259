// Package ubereats parses the Uber Eats transaction export CSV.
//
// Column contract: workflow_id, order_id, amount, transaction_date. The
// workflow ID is Uber's own settlement identifier and is unique per line;
// order_id may be blank for balance adjustments, which surface downstream as
// orphan transactions rather than being dropped here.
package ubereats

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

// Adapter implements statements.Adapter for Uber Eats.
type Adapter struct {
	logger *slog.Logger
}

var _ statements.Adapter = (*Adapter)(nil)

// New creates an Uber Eats statement adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{logger: logger}
}

func (a *Adapter) Name() string        { return "ubereats" }
func (a *Adapter) DisplayName() string { return "Uber Eats" }

// ParseStatement reads the transaction export and returns one transaction
// per row.
func (a *Adapter) ParseStatement(ctx context.Context, r io.Reader, period model.ReconciliationPeriod) ([]model.ProviderTransaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read ubereats header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range []string{"workflow_id", "order_id", "amount", "transaction_date"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("ubereats statement missing column %q", name)
		}
	}

	label := period.StatementLabel()
	var transactions []model.ProviderTransaction

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
			return nil, fmt.Errorf("failed to read ubereats row %d: %w", line, err)
		}

		workflowID := strings.TrimSpace(row[cols["workflow_id"]])
		if workflowID == "" {
			return nil, fmt.Errorf("ubereats row %d: empty workflow_id", line)
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(row[cols["amount"]]))
		if err != nil {
			return nil, fmt.Errorf("ubereats row %d: bad amount %q: %w", line, row[cols["amount"]], err)
		}

		date, err := statements.ParseDate(strings.TrimSpace(row[cols["transaction_date"]]))
		if err != nil {
			return nil, fmt.Errorf("ubereats row %d: bad transaction_date: %w", line, err)
		}

		transactions = append(transactions, model.ProviderTransaction{
			TransactionID:   workflowID,
			OrderReference:  strings.TrimSpace(row[cols["order_id"]]),
			Amount:          amount,
			TransactionDate: date,
			StatementPeriod: label,
		})
	}

	a.logger.Debug("parsed ubereats statement",
		"transactions", len(transactions),
		"statement_period", label,
	)

	return transactions, nil
}
