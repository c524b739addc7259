// Package statements defines the capability interface every provider
// statement adapter implements, plus a registry for looking adapters up by
// name. The matching engine depends only on the normalized
// model.ProviderTransaction shape; provider-specific formats stay behind
// this boundary.
package statements

import (
	"context"
	"io"
	"time"

	"github.com/openledgerhq/orders-to-cash/internal/domain/model"
)

// Adapter parses one provider's statement artifact into normalized
// transactions. Implementations run to completion and hand off an immutable
// slice; they own any retry or timeout behavior.
type Adapter interface {
	// Name is the config key, e.g. "deliveroo".
	Name() string

	// DisplayName is the human label, e.g. "Deliveroo".
	DisplayName() string

	// ParseStatement reads the provider's normalized statement CSV and tags
	// every transaction with the period's statement label.
	ParseStatement(ctx context.Context, r io.Reader, period model.ReconciliationPeriod) ([]model.ProviderTransaction, error)
}

// ParseDate parses the date-only format shared by the statement contracts.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(time.DateOnly, value)
}
