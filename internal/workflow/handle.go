package workflow

import (
	"context"
	"sync"
)

// Handle tracks an in-flight run and lets callers await its terminal
// state. Multiple callers may hold the same Handle: a duplicate Start for
// a workflow id already in flight attaches to the existing run and
// receives the handle created by the first caller.
type Handle struct {
	workflowID string

	done chan struct{}
	mu   sync.Mutex
	run  *Run
	err  error
}

func newHandle(workflowID string) *Handle {
	return &Handle{
		workflowID: workflowID,
		done:       make(chan struct{}),
	}
}

// WorkflowID returns the deterministic workflow id this handle tracks.
func (h *Handle) WorkflowID() string {
	return h.workflowID
}

func (h *Handle) complete(run *Run, err error) {
	h.mu.Lock()
	h.run = run
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// Result blocks until the run reaches a terminal state or ctx is done.
// A caller timeout only abandons the wait; the run itself keeps
// executing in the background.
func (h *Handle) Result(ctx context.Context) (*Run, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.done:
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.run, h.err
}

// Done returns a channel closed when the run reaches a terminal state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
