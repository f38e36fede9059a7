package workflow

import "errors"

var (
	// ErrRunNotFound is returned when a run is not found.
	ErrRunNotFound = errors.New("run not found")

	// ErrDuplicateRun is returned when saving a run whose workflow id
	// already has an open (non-terminal) run.
	ErrDuplicateRun = errors.New("open run already exists for workflow id")
)

// RunStore handles storage of workflow runs. Implementations live in the
// runstore package.
//
// UpdateRun must persist StepResults before the engine proceeds to the
// next step; it is the durability point of the checkpoint protocol.
type RunStore interface {
	// SaveRun inserts a new run. At most one open run may exist per
	// workflow id; a second insert is rejected with ErrDuplicateRun.
	// Terminal runs do not block new ones.
	SaveRun(run *Run) error
	UpdateRun(run *Run) error
	GetRun(id string) (*Run, error)
	// GetRunByWorkflowID returns the most recently started run for a
	// deterministic workflow id.
	GetRunByWorkflowID(workflowID string) (*Run, error)
	ListRuns(filter RunFilter) ([]*Run, error)
}
