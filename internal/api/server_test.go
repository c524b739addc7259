package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openledgerhq/orders-to-cash/internal/infrastructure/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.MockRepository) {
	t.Helper()
	repo := storage.NewMockRepository()
	server := NewServer(DefaultConfig(), repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return server, repo
}

func doRequest(t *testing.T, server *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func seedRun(t *testing.T, repo *storage.MockRepository, id string, started time.Time) {
	t.Helper()
	run := &storage.RunRecord{
		ID:              id,
		StartedAt:       started,
		AccountingStart: "2025-11-01",
		AccountingEnd:   "2025-11-30",
		Tolerance:       "0.01",
		WarehouseGross:  "60.00",
		ReconciledTotal: "60.00",
		BalanceGap:      "0",
		Balanced:        true,
	}
	results := []storage.ResultRecord{
		{RunID: id, OrderID: "A-1", TransactionIDs: []string{"TX-1"}, Category: "Matched", ExpectedAmount: "60.00", ObservedAmount: "60.00", Variance: "0"},
	}
	require.NoError(t, repo.SaveRun(run, results))
}

func TestHealthEndpoint(t *testing.T) {
	// Arrange
	server, _ := newTestServer(t)

	// Act
	rec := doRequest(t, server, http.MethodGet, "/health")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestListRuns(t *testing.T) {
	// Arrange
	server, repo := newTestServer(t)
	base := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	seedRun(t, repo, "run-old", base)
	seedRun(t, repo, "run-new", base.Add(time.Hour))

	// Act
	rec := doRequest(t, server, http.MethodGet, "/api/runs")

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []storage.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].ID)
}

func TestListRuns_EmptyIsArray(t *testing.T) {
	// Arrange
	server, _ := newTestServer(t)

	// Act
	rec := doRequest(t, server, http.MethodGet, "/api/runs")

	// Assert - empty list, not null
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListRuns_MalformedLimit(t *testing.T) {
	// Arrange
	server, _ := newTestServer(t)

	// Act
	rec := doRequest(t, server, http.MethodGet, "/api/runs?limit=abc")

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "limit")
}

func TestGetRun(t *testing.T) {
	// Arrange
	server, repo := newTestServer(t)
	seedRun(t, repo, "run-1", time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC))

	// Act
	rec := doRequest(t, server, http.MethodGet, "/api/runs/run-1")

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var run storage.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "run-1", run.ID)
	assert.True(t, run.Balanced)
}

func TestGetRun_NotFound(t *testing.T) {
	// Arrange
	server, _ := newTestServer(t)

	// Act
	rec := doRequest(t, server, http.MethodGet, "/api/runs/missing")

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetResults(t *testing.T) {
	// Arrange
	server, repo := newTestServer(t)
	seedRun(t, repo, "run-1", time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC))

	// Act
	rec := doRequest(t, server, http.MethodGet, "/api/runs/run-1/results")

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var results []storage.ResultRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Matched", results[0].Category)
	assert.Equal(t, []string{"TX-1"}, results[0].TransactionIDs)
}

func TestGetResults_UnknownRun(t *testing.T) {
	// Arrange
	server, _ := newTestServer(t)

	// Act
	rec := doRequest(t, server, http.MethodGet, "/api/runs/missing/results")

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReconcileEndpoint_NotRegisteredWithoutService(t *testing.T) {
	// Arrange
	server, _ := newTestServer(t)

	// Act
	rec := doRequest(t, server, http.MethodPost, "/api/reconcile")

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRuns_RepositoryError(t *testing.T) {
	// Arrange
	server, repo := newTestServer(t)
	repo.ListRunsErr = assert.AnError

	// Act
	rec := doRequest(t, server, http.MethodGet, "/api/runs")

	// Assert
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
