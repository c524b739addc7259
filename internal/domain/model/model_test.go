package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStatementLabel(t *testing.T) {
	// Arrange
	period := ReconciliationPeriod{
		StatementStart: time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC),
		StatementEnd:   time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
	}

	// Act & Assert
	assert.Equal(t, "25.11.04 - 25.11.30", period.StatementLabel())
	assert.Equal(t, "no-statement", ReconciliationPeriod{}.StatementLabel())
}

func TestVATBandGap(t *testing.T) {
	// Arrange
	order := WarehouseOrder{
		NetAmount: decimal.RequireFromString("10.00"),
		VATBands: map[string]VATBand{
			"0":  {NetAmount: decimal.RequireFromString("4.00")},
			"20": {NetAmount: decimal.RequireFromString("5.50")},
		},
	}

	// Act
	gap := order.VATBandGap()

	// Assert
	assert.True(t, gap.Equal(decimal.RequireFromString("0.50")))
}

func TestSortTransactionIDs(t *testing.T) {
	// Arrange - dates drive the order, IDs break ties
	dates := map[string]time.Time{
		"TX-C": time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC),
		"TX-A": time.Date(2025, 11, 9, 0, 0, 0, 0, time.UTC),
		"TX-B": time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC),
	}
	ids := []string{"TX-A", "TX-B", "TX-C"}

	// Act
	SortTransactionIDs(ids, dates)

	// Assert
	assert.Equal(t, []string{"TX-B", "TX-C", "TX-A"}, ids)
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "Matched", CategoryMatched.String())
	assert.Equal(t, "OrphanTransaction", CategoryOrphanTransaction.String())
	assert.Equal(t, "Unknown", Category(99).String())
}

func TestStructuralError(t *testing.T) {
	// Arrange
	err := NewStructuralError(ReasonDuplicateOrderID, "order_id %s appears more than once", "A-1")

	// Assert
	assert.Equal(t, ReasonDuplicateOrderID, err.Reason)
	assert.Contains(t, err.Error(), "A-1")
	assert.Contains(t, err.Error(), string(ReasonDuplicateOrderID))
}
