package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(id string, started time.Time) *RunRecord {
	return &RunRecord{
		ID:               id,
		StartedAt:        started,
		Duration:         42,
		AccountingStart:  "2025-11-01",
		AccountingEnd:    "2025-11-30",
		StatementStart:   "2025-11-01",
		StatementEnd:     "2025-11-25",
		Tolerance:        "0.01",
		OrderCount:       3,
		TransactionCount: 4,
		MatchedCount:     2,
		MissingCount:     1,
		WarehouseGross:   "60.00",
		ReconciledTotal:  "60.00",
		BalanceGap:       "0",
		Balanced:         true,
	}
}

func TestStorage_SaveAndGetRun(t *testing.T) {
	// Arrange
	store := newTestStorage(t)
	started := time.Date(2025, 12, 1, 9, 30, 0, 0, time.UTC)
	run := sampleRun("run-1", started)
	results := []ResultRecord{
		{RunID: "run-1", OrderID: "A-1", TransactionIDs: []string{"TX-1"}, Category: "Matched", ExpectedAmount: "10.00", ObservedAmount: "10.00", Variance: "0"},
		{RunID: "run-1", OrderID: "A-2", Category: "MissingFromStatement", ExpectedAmount: "20.00", ObservedAmount: "0", Variance: "20.00"},
	}

	// Act
	err := store.SaveRun(run, results)

	// Assert
	require.NoError(t, err)

	got, err := store.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, 3, got.OrderCount)
	assert.Equal(t, "2025-11-25", got.StatementEnd)
	assert.Equal(t, "60.00", got.WarehouseGross)
	assert.True(t, got.Balanced)
}

func TestStorage_GetResultsPreservesOrder(t *testing.T) {
	// Arrange
	store := newTestStorage(t)
	run := sampleRun("run-1", time.Now().UTC().Truncate(time.Second))
	results := []ResultRecord{
		{RunID: "run-1", OrderID: "B-2", Category: "Matched", ExpectedAmount: "10.00", ObservedAmount: "10.00", Variance: "0"},
		{RunID: "run-1", OrderID: "A-1", Category: "Accrual", ExpectedAmount: "20.00", ObservedAmount: "0", Variance: "20.00"},
		{RunID: "run-1", TransactionIDs: []string{"TX-X"}, Category: "OrphanTransaction", ExpectedAmount: "0", ObservedAmount: "5.00", Variance: "5.00"},
	}
	require.NoError(t, store.SaveRun(run, results))

	// Act
	got, err := store.GetResults("run-1")

	// Assert - stored order survives the round trip, not alphabetical order
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "B-2", got[0].OrderID)
	assert.Equal(t, "A-1", got[1].OrderID)
	assert.Empty(t, got[2].OrderID)
	assert.Equal(t, []string{"TX-X"}, got[2].TransactionIDs)
}

func TestStorage_GetRunNotFound(t *testing.T) {
	// Arrange
	store := newTestStorage(t)

	// Act
	_, err := store.GetRun("missing")

	// Assert
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStorage_ListRunsNewestFirst(t *testing.T) {
	// Arrange
	store := newTestStorage(t)
	base := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveRun(sampleRun("run-old", base), nil))
	require.NoError(t, store.SaveRun(sampleRun("run-new", base.Add(time.Hour)), nil))

	// Act
	runs, err := store.ListRuns(10)

	// Assert
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "run-old", runs[1].ID)
}

func TestStorage_ListRunsLimit(t *testing.T) {
	// Arrange
	store := newTestStorage(t)
	base := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, store.SaveRun(sampleRun(id, base.Add(time.Duration(i)*time.Minute)), nil))
	}

	// Act
	runs, err := store.ListRuns(2)

	// Assert
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestStorage_DuplicateRunIDRejected(t *testing.T) {
	// Arrange
	store := newTestStorage(t)
	run := sampleRun("run-1", time.Now().UTC())
	require.NoError(t, store.SaveRun(run, nil))

	// Act
	err := store.SaveRun(run, nil)

	// Assert - primary key violation, and the failed tx leaves nothing behind
	assert.Error(t, err)
	runs, listErr := store.ListRuns(10)
	require.NoError(t, listErr)
	assert.Len(t, runs, 1)
}

func TestMockRepository_ImplementsRepository(t *testing.T) {
	// Arrange
	mock := NewMockRepository()
	run := sampleRun("run-1", time.Now().UTC())

	// Act
	err := mock.SaveRun(run, []ResultRecord{{RunID: "run-1", OrderID: "A-1", Category: "Matched"}})

	// Assert
	require.NoError(t, err)
	assert.True(t, mock.SaveRunCalled)

	got, err := mock.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.ID)

	results, err := mock.GetResults("run-1")
	require.NoError(t, err)
	assert.Len(t, results, 1)

	_, err = mock.GetRun("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
