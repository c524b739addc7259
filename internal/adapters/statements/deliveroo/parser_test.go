package deliveroo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openledgerhq/orders-to-cash/internal/domain/model"
)

func testPeriod() model.ReconciliationPeriod {
	return model.ReconciliationPeriod{
		AccountingStart: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		AccountingEnd:   time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
		StatementStart:  time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		StatementEnd:    time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC),
	}
}

func TestParseStatement_OrderValueRows(t *testing.T) {
	// Arrange
	input := strings.Join([]string{
		"statement_line_id,order_number,order_value_gross,delivery_datetime_utc,accounting_category",
		"L-001,DR-1001,25.40,2025-11-10 18:32:11,Order Value & Commission",
		"L-002,,3.50,2025-11-10 00:00:00,Adjustment",
		"L-003,DR-1002,-4.20,2025-11-12 12:05:00,Order Value & Commission",
	}, "\n")
	adapter := New(nil)

	// Act
	transactions, err := adapter.ParseStatement(context.Background(), strings.NewReader(input), testPeriod())

	// Assert - adjustment row skipped, datetime truncated to date
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	first := transactions[0]
	assert.Equal(t, "L-001", first.TransactionID)
	assert.Equal(t, "DR-1001", first.OrderReference)
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("25.40")))
	assert.Equal(t, time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC), first.TransactionDate)
	assert.Equal(t, "25.11.01 - 25.11.25", first.StatementPeriod)

	refund := transactions[1]
	assert.True(t, refund.Amount.IsNegative())
}

func TestParseStatement_DateOnlyAccepted(t *testing.T) {
	// Arrange
	input := strings.Join([]string{
		"statement_line_id,order_number,order_value_gross,delivery_datetime_utc,accounting_category",
		"L-001,DR-1001,25.40,2025-11-10,Order Value & Commission",
	}, "\n")
	adapter := New(nil)

	// Act
	transactions, err := adapter.ParseStatement(context.Background(), strings.NewReader(input), testPeriod())

	// Assert
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC), transactions[0].TransactionDate)
}

func TestParseStatement_MissingColumn(t *testing.T) {
	// Arrange - no accounting_category column
	input := "statement_line_id,order_number,order_value_gross,delivery_datetime_utc\nL-001,DR-1001,25.40,2025-11-10"
	adapter := New(nil)

	// Act
	_, err := adapter.ParseStatement(context.Background(), strings.NewReader(input), testPeriod())

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accounting_category")
}

func TestParseStatement_BadAmount(t *testing.T) {
	// Arrange
	input := strings.Join([]string{
		"statement_line_id,order_number,order_value_gross,delivery_datetime_utc,accounting_category",
		"L-001,DR-1001,not-a-number,2025-11-10,Order Value & Commission",
	}, "\n")
	adapter := New(nil)

	// Act
	_, err := adapter.ParseStatement(context.Background(), strings.NewReader(input), testPeriod())

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order_value_gross")
}

func TestParseStatement_ContextCancelled(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	input := strings.Join([]string{
		"statement_line_id,order_number,order_value_gross,delivery_datetime_utc,accounting_category",
		"L-001,DR-1001,25.40,2025-11-10,Order Value & Commission",
	}, "\n")
	adapter := New(nil)

	// Act
	_, err := adapter.ParseStatement(ctx, strings.NewReader(input), testPeriod())

	// Assert
	assert.ErrorIs(t, err, context.Canceled)
}
