package model

import "fmt"

// StructuralReason identifies which input invariant a run violated.
type StructuralReason string

const (
	ReasonDuplicateOrderID       StructuralReason = "duplicate_order_id"
	ReasonDuplicateTransactionID StructuralReason = "duplicate_transaction_id"
	ReasonEmptyOrders            StructuralReason = "empty_orders"
	ReasonEmptyTransactions      StructuralReason = "empty_transactions"
	ReasonMissingField           StructuralReason = "missing_field"
	ReasonVATBandMismatch        StructuralReason = "vat_band_mismatch"
)

// StructuralError aborts a run immediately. It is reserved for malformed
// input sets; categorization outcomes are always data, never errors.
type StructuralError struct {
	Reason StructuralReason
	Detail string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error (%s): %s", e.Reason, e.Detail)
}

// NewStructuralError builds a StructuralError with a formatted detail.
func NewStructuralError(reason StructuralReason, format string, args ...any) *StructuralError {
	return &StructuralError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
