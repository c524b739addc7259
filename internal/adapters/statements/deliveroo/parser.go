// Package deliveroo parses the Deliveroo combined statement CSV produced by
// the upstream document pipeline.
//
// Column contract: statement_line_id, order_number, order_value_gross,
// delivery_datetime_utc, accounting_category. Only "Order Value & Commission"
// rows are order-level settlements; adjustment and fee rows are skipped here
// because they carry no order reference.
package deliveroo

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openledgerhq/orders-to-cash/internal/adapters/statements"
	"github.com/openledgerhq/orders-to-cash/internal/domain/model"
)

// categoryOrderValue marks the delivery settlement rows.
const categoryOrderValue = "Order Value & Commission"

// Adapter implements statements.Adapter for Deliveroo.
type Adapter struct {
	logger *slog.Logger
}

// Compile-time check that Adapter implements the capability interface.
var _ statements.Adapter = (*Adapter)(nil)

// New creates a Deliveroo statement adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{logger: logger}
}

func (a *Adapter) Name() string        { return "deliveroo" }
func (a *Adapter) DisplayName() string { return "Deliveroo" }

// ParseStatement reads the combined CSV and returns one transaction per
// order-value row, tagged with the period's statement label.
func (a *Adapter) ParseStatement(ctx context.Context, r io.Reader, period model.ReconciliationPeriod) ([]model.ProviderTransaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read deliveroo header: %w", err)
	}
	cols, err := indexColumns(header,
		"statement_line_id", "order_number", "order_value_gross", "delivery_datetime_utc", "accounting_category")
	if err != nil {
		return nil, err
	}

	label := period.StatementLabel()
	var transactions []model.ProviderTransaction
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
			return nil, fmt.Errorf("failed to read deliveroo row %d: %w", line, err)
		}

		if row[cols["accounting_category"]] != categoryOrderValue {
			skipped++
			continue
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(row[cols["order_value_gross"]]))
		if err != nil {
			return nil, fmt.Errorf("deliveroo row %d: bad order_value_gross %q: %w", line, row[cols["order_value_gross"]], err)
		}

		date, err := parseDeliveryDate(row[cols["delivery_datetime_utc"]])
		if err != nil {
			return nil, fmt.Errorf("deliveroo row %d: %w", line, err)
		}

		transactions = append(transactions, model.ProviderTransaction{
			TransactionID:   strings.TrimSpace(row[cols["statement_line_id"]]),
			OrderReference:  strings.TrimSpace(row[cols["order_number"]]),
			Amount:          amount,
			TransactionDate: date,
			StatementPeriod: label,
		})
	}

	a.logger.Debug("parsed deliveroo statement",
		"transactions", len(transactions),
		"skipped_rows", skipped,
		"statement_period", label,
	)

	return transactions, nil
}

// parseDeliveryDate accepts the UTC datetime from the combined CSV and
// truncates it to date precision; a date-only value is also accepted.
func parseDeliveryDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if ts, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	ts, err := statements.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad delivery_datetime_utc %q: %w", value, err)
	}
	return ts, nil
}

// indexColumns maps required header names to their positions.
func indexColumns(header []string, required ...string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("deliveroo statement missing column %q", name)
		}
	}
	return cols, nil
}
