package statements

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openledgerhq/orders-to-cash/internal/domain/model"
)

type stubAdapter struct {
	name string
}

func (s *stubAdapter) Name() string        { return s.name }
func (s *stubAdapter) DisplayName() string { return s.name }
func (s *stubAdapter) ParseStatement(context.Context, io.Reader, model.ReconciliationPeriod) ([]model.ProviderTransaction, error) {
	return nil, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	// Arrange
	registry := NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	adapter := &stubAdapter{name: "deliveroo"}

	// Act
	err := registry.Register(adapter)

	// Assert
	require.NoError(t, err)
	got, err := registry.Get("deliveroo")
	require.NoError(t, err)
	assert.Same(t, adapter, got)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	// Arrange
	registry := NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, registry.Register(&stubAdapter{name: "deliveroo"}))

	// Act
	err := registry.Register(&stubAdapter{name: "deliveroo"})

	// Assert
	assert.Error(t, err)
}

func TestRegistry_GetUnknown(t *testing.T) {
	// Arrange
	registry := NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Act
	_, err := registry.Get("nope")

	// Assert
	assert.Error(t, err)
}

func TestRegistry_ListSorted(t *testing.T) {
	// Arrange
	registry := NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, registry.Register(&stubAdapter{name: "ubereats"}))
	require.NoError(t, registry.Register(&stubAdapter{name: "deliveroo"}))
	require.NoError(t, registry.Register(&stubAdapter{name: "justeat"}))

	// Act
	names := registry.List()

	// Assert
	assert.Equal(t, []string{"deliveroo", "justeat", "ubereats"}, names)
}
