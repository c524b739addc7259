package reconcile

import (
	"fmt"

	"github.com/openledgerhq/orders-to-cash/internal/adapters/statements"
	"github.com/openledgerhq/orders-to-cash/internal/infrastructure/config"
)

// BuildSources resolves the enabled providers from config against the
// adapter registry. A provider enabled without a statement path is a config
// error rather than a silent skip.
func BuildSources(cfg *config.Config, registry *statements.Registry) ([]Source, error) {
	enabled := []struct {
		name     string
		provider config.ProviderConfig
	}{
		{"deliveroo", cfg.Providers.Deliveroo},
		{"justeat", cfg.Providers.JustEat},
		{"ubereats", cfg.Providers.UberEats},
	}

	var sources []Source
	for _, e := range enabled {
		if !e.provider.Enabled {
			continue
		}
		if e.provider.StatementPath == "" {
			return nil, fmt.Errorf("provider %s is enabled but has no statement_path", e.name)
		}
		adapter, err := registry.Get(e.name)
		if err != nil {
			return nil, err
		}
		sources = append(sources, Source{Adapter: adapter, Path: e.provider.StatementPath})
	}
	return sources, nil
}
