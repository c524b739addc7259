package justeat

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

func TestParseStatement_OrderAndRefundRows(t *testing.T) {
	// Arrange
	input := strings.Join([]string{
		"order_id,transaction_type,amount,order_date",
		"JE1001,Order,18.50,2025-11-08",
		"JE1001,Refund,-18.50,2025-11-09",
		",Commission,-2.10,2025-11-08",
		",Marketing,-0.99,2025-11-08",
	}, "\n")
	adapter := New(nil)

	// Act
	transactions, err := adapter.ParseStatement(context.Background(), strings.NewReader(input), testPeriod())

	// Assert - fee rows skipped; IDs derived from order and type
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, "JE-JE1001-Order", transactions[0].TransactionID)
	assert.Equal(t, "JE1001", transactions[0].OrderReference)
	assert.Equal(t, "JE-JE1001-Refund", transactions[1].TransactionID)
	assert.True(t, transactions[1].Amount.Equal(decimal.RequireFromString("-18.50")))
}

func TestParseStatement_RepeatedRefundsGetSequencedIDs(t *testing.T) {
	// Arrange - two partial refunds against one order
	input := strings.Join([]string{
		"order_id,transaction_type,amount,order_date",
		"JE1001,Order,28.00,2025-11-08",
		"JE1001,Refund,-5.00,2025-11-09",
		"JE1001,Refund,-3.00,2025-11-10",
	}, "\n")
	adapter := New(nil)

	// Act
	transactions, err := adapter.ParseStatement(context.Background(), strings.NewReader(input), testPeriod())

	// Assert - every row keeps a distinct transaction ID
	require.NoError(t, err)
	require.Len(t, transactions, 3)
	assert.Equal(t, "JE-JE1001-Order", transactions[0].TransactionID)
	assert.Equal(t, "JE-JE1001-Refund", transactions[1].TransactionID)
	assert.Equal(t, "JE-JE1001-Refund-2", transactions[2].TransactionID)
	assert.True(t, transactions[2].Amount.Equal(decimal.RequireFromString("-3.00")))
}

func TestParseStatement_SpreadsheetArtifactOrderID(t *testing.T) {
	// Arrange - order_id exported as a float
	input := strings.Join([]string{
		"order_id,transaction_type,amount,order_date",
		"1234567.0,Order,10.00,2025-11-08",
	}, "\n")
	adapter := New(nil)

	// Act
	transactions, err := adapter.ParseStatement(context.Background(), strings.NewReader(input), testPeriod())

	// Assert
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "1234567", transactions[0].OrderReference)
	assert.Equal(t, "JE-1234567-Order", transactions[0].TransactionID)
}

func TestParseStatement_EmptyOrderIDOnOrderRow(t *testing.T) {
	// Arrange - an Order row must reference an order
	input := strings.Join([]string{
		"order_id,transaction_type,amount,order_date",
		",Order,10.00,2025-11-08",
	}, "\n")
	adapter := New(nil)

	// Act
	_, err := adapter.ParseStatement(context.Background(), strings.NewReader(input), testPeriod())

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty order_id")
}

func TestParseStatement_MissingColumn(t *testing.T) {
	// Arrange
	input := "order_id,amount,order_date\nJE1001,10.00,2025-11-08"
	adapter := New(nil)

	// Act
	_, err := adapter.ParseStatement(context.Background(), strings.NewReader(input), testPeriod())

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction_type")
}
