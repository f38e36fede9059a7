package runstore

import (
	"sync"

	"github.com/lumapay/provision/internal/workflow"
)

// MemoryStore is a goroutine-safe run store backed by maps. It is used
// in tests and for single-process deployments that do not need
// durability across restarts.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*workflow.Run

	// byWorkflow points at the most recently started run per workflow
	// id. Earlier terminal runs stay reachable by run id only.
	byWorkflow map[string]string
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:       make(map[string]*workflow.Run),
		byWorkflow: make(map[string]string),
	}
}

var _ workflow.RunStore = (*MemoryStore)(nil)

func (s *MemoryStore) SaveRun(run *workflow.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byWorkflow[run.WorkflowID]; ok {
		if latest := s.runs[id]; latest != nil && !latest.Status.Terminal() {
			return workflow.ErrDuplicateRun
		}
	}

	cp := cloneRun(run)
	s.runs[run.ID] = cp
	s.byWorkflow[run.WorkflowID] = run.ID
	return nil
}

func (s *MemoryStore) UpdateRun(run *workflow.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; !ok {
		return workflow.ErrRunNotFound
	}

	s.runs[run.ID] = cloneRun(run)
	return nil
}

func (s *MemoryStore) GetRun(id string) (*workflow.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, workflow.ErrRunNotFound
	}
	return cloneRun(run), nil
}

func (s *MemoryStore) GetRunByWorkflowID(workflowID string) (*workflow.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byWorkflow[workflowID]
	if !ok {
		return nil, workflow.ErrRunNotFound
	}
	return cloneRun(s.runs[id]), nil
}

func (s *MemoryStore) ListRuns(filter workflow.RunFilter) ([]*workflow.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*workflow.Run
	for _, run := range s.runs {
		if filter.WorkflowName != "" && run.Name != filter.WorkflowName {
			continue
		}
		if filter.Status != "" && run.Status != filter.Status {
			continue
		}
		result = append(result, cloneRun(run))
	}
	return result, nil
}

// cloneRun copies a run so callers cannot mutate stored state in place.
// StepResults is the only mutable field that needs a deep copy.
func cloneRun(run *workflow.Run) *workflow.Run {
	cp := *run
	if run.StepResults != nil {
		cp.StepResults = make(map[int]any, len(run.StepResults))
		for k, v := range run.StepResults {
			cp.StepResults[k] = v
		}
	}
	return &cp
}
