package storage

import (
	"database/sql"
	"sort"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	runs    map[string]*RunRecord
	results map[string][]ResultRecord

	// Hooks for test assertions
	SaveRunCalled bool
	LastSavedRun  *RunRecord

	// Error injection for testing error paths
	SaveRunErr    error
	GetRunErr     error
	ListRunsErr   error
	GetResultsErr error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs:    make(map[string]*RunRecord),
		results: make(map[string][]ResultRecord),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// SaveRun stores the run and results in memory
func (m *MockRepository) SaveRun(run *RunRecord, results []ResultRecord) error {
	m.SaveRunCalled = true
	m.LastSavedRun = run
	if m.SaveRunErr != nil {
		return m.SaveRunErr
	}
	// Deep copy to avoid test mutations
	copied := *run
	m.runs[run.ID] = &copied
	m.results[run.ID] = append([]ResultRecord(nil), results...)
	return nil
}

// GetRun retrieves a run by ID
func (m *MockRepository) GetRun(id string) (*RunRecord, error) {
	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}
	run, ok := m.runs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *run
	return &copied, nil
}

// ListRuns returns stored runs, newest first
func (m *MockRepository) ListRuns(limit int) ([]RunRecord, error) {
	if m.ListRunsErr != nil {
		return nil, m.ListRunsErr
	}
	runs := make([]RunRecord, 0, len(m.runs))
	for _, run := range m.runs {
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// GetResults returns a run's stored match results
func (m *MockRepository) GetResults(runID string) ([]ResultRecord, error) {
	if m.GetResultsErr != nil {
		return nil, m.GetResultsErr
	}
	results, ok := m.results[runID]
	if !ok {
		return nil, nil
	}
	return append([]ResultRecord(nil), results...), nil
}
