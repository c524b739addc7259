package storage

// Repository defines the complete storage interface. The reconciliation core
// never touches it; only the run service and the API do. Keeping it an
// interface allows swapping implementations and makes handler tests
// straightforward.
type Repository interface {
	RunRepository
	Close() error
}

// RunRepository persists completed reconciliation runs.
type RunRepository interface {
	// SaveRun stores a run and its ordered match results atomically.
	SaveRun(run *RunRecord, results []ResultRecord) error

	// GetRun retrieves a run by ID.
	GetRun(id string) (*RunRecord, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]RunRecord, error)

	// GetResults returns a run's match results in their report order.
	GetResults(runID string) ([]ResultRecord, error)
}
