package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config describes how to construct an engine. The engine carries its own
// configuration explicitly; there is no ambient global instance.
type Config struct {
	// Runs persists run state and step checkpoints. Required. The engine
	// must be the store's sole writer: there is no leasing, so pointing
	// two processes at one run store can execute the same run twice.
	Runs RunStore

	// Observer receives lifecycle callbacks. Defaults to NoopObserver.
	Observer Observer
}

type engine struct {
	runs     RunStore
	observer Observer

	mu       sync.Mutex
	defs     map[string]Definition
	inflight map[string]*Handle // keyed by workflow id
}

// New returns an Engine using the given configuration.
func New(cfg Config) Engine {
	obs := cfg.Observer
	if obs == nil {
		obs = NoopObserver{}
	}
	return &engine{
		runs:     cfg.Runs,
		observer: obs,
		defs:     make(map[string]Definition),
		inflight: make(map[string]*Handle),
	}
}

func (e *engine) RegisterWorkflow(def Definition) error {
	if def.Name == "" {
		return errors.New("workflow name is required")
	}
	if len(def.Steps) == 0 {
		return errors.New("workflow must have at least one step")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.defs[def.Name]; ok {
		return fmt.Errorf("workflow already registered: %s", def.Name)
	}
	e.defs[def.Name] = def
	return nil
}

func (e *engine) Start(ctx context.Context, name, workflowID string, input any) (*Handle, error) {
	if workflowID == "" {
		return nil, errors.New("workflow id is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	def, ok := e.defs[name]
	if !ok {
		return nil, fmt.Errorf("unknown workflow: %s", name)
	}

	// Duplicate start while the run is in flight: attach.
	if h, ok := e.inflight[workflowID]; ok {
		return h, nil
	}

	existing, err := e.runs.GetRunByWorkflowID(workflowID)
	switch {
	case err == nil:
		if existing.Name != name {
			return nil, fmt.Errorf("workflow id %s belongs to workflow %s", workflowID, existing.Name)
		}
		if !existing.Status.Terminal() {
			// Interrupted by a crash: resume from the last checkpoint.
			// Steps already recorded in StepResults are not re-invoked.
			return e.launchLocked(ctx, def, existing), nil
		}
		if existing.Status == StatusFailed {
			// Retrying the failed operation resumes its checkpoints with
			// the caller's current input, so a retried request carries any
			// fields that changed since the failure. Recorded step results
			// still replay in preference to the new input.
			existing.Input = input
			return e.launchLocked(ctx, def, existing), nil
		}
		// Succeeded runs are closed. A new start with the same workflow id
		// is a new logical operation and begins a fresh run; only one run
		// per workflow id may be open at a time.

	case errors.Is(err, ErrRunNotFound):
		// Fall through to create a fresh run.

	default:
		return nil, err
	}

	run := &Run{
		ID:          uuid.NewString(),
		WorkflowID:  workflowID,
		Name:        def.Name,
		Status:      StatusQueued,
		Input:       input,
		StepResults: make(map[int]any),
		StartedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := e.runs.SaveRun(run); err != nil {
		if errors.Is(err, ErrDuplicateRun) {
			// Another open run for this workflow id reached the store
			// first. The engine assumes sole ownership of its run store
			// (see Config.Runs), so within one process this is unreachable;
			// it is kept as a safety net that resumes the stored run rather
			// than failing the caller.
			if existing, getErr := e.runs.GetRunByWorkflowID(workflowID); getErr == nil && !existing.Status.Terminal() {
				return e.launchLocked(ctx, def, existing), nil
			}
		}
		return nil, err
	}

	e.observer.OnRunStart(ctx, run)
	return e.launchLocked(ctx, def, run), nil
}

// launchLocked registers a handle for the run and begins executing it in
// the background. The caller must hold e.mu.
func (e *engine) launchLocked(ctx context.Context, def Definition, run *Run) *Handle {
	h := newHandle(run.WorkflowID)
	e.inflight[run.WorkflowID] = h

	// The run outlives the starter: it executes on a context detached
	// from the caller's cancellation, so a caller timeout never cancels
	// the run itself.
	runCtx := context.WithoutCancel(ctx)

	go func() {
		err := e.executeSteps(runCtx, def, run)

		e.mu.Lock()
		delete(e.inflight, run.WorkflowID)
		e.mu.Unlock()

		h.complete(run, err)
	}()

	return h
}

func (e *engine) Run(ctx context.Context, name, workflowID string, input any) (*Run, error) {
	h, err := e.Start(ctx, name, workflowID, input)
	if err != nil {
		return nil, err
	}
	return h.Result(ctx)
}

func (e *engine) GetRun(ctx context.Context, workflowID string) (*Run, error) {
	run, err := e.runs.GetRunByWorkflowID(workflowID)
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			return nil, fmt.Errorf("run not found: %s", workflowID)
		}
		return nil, err
	}
	return run, nil
}

func (e *engine) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	return e.runs.ListRuns(filter)
}

func (e *engine) ResumeInterrupted(ctx context.Context) (int, error) {
	resumed := 0
	for _, status := range []Status{StatusRunning, StatusQueued} {
		runs, err := e.runs.ListRuns(RunFilter{Status: status})
		if err != nil {
			return resumed, err
		}

		e.mu.Lock()
		for _, run := range runs {
			if _, ok := e.inflight[run.WorkflowID]; ok {
				continue
			}
			def, ok := e.defs[run.Name]
			if !ok {
				e.mu.Unlock()
				return resumed, fmt.Errorf("no definition registered for interrupted run %s (workflow %s)", run.ID, run.Name)
			}
			e.launchLocked(ctx, def, run)
			resumed++
		}
		e.mu.Unlock()
	}
	return resumed, nil
}

func (e *engine) executeSteps(ctx context.Context, def Definition, run *Run) error {
	if run.StepResults == nil {
		run.StepResults = make(map[int]any)
	}

	run.Status = StatusRunning
	run.Err = nil
	current := run.Input

	for i := 0; i < len(def.Steps); i++ {
		// Replay: a checkpointed step is never re-invoked; its recorded
		// result feeds the next step instead.
		if result, ok := run.StepResults[i]; ok {
			current = result
			continue
		}

		step := def.Steps[i]
		run.CurrentStep = i
		if err := e.runs.UpdateRun(run); err != nil {
			run.Status = StatusFailed
			run.Err = fmt.Errorf("record step %d start: %w", i, err)
			e.observer.OnRunFailed(ctx, run, run.Err)
			return run.Err
		}

		next, err := e.invokeStep(ctx, run, step, i, current)
		if err != nil {
			run.Status = StatusFailed
			run.Err = err
			// Best effort: the step failure is the error the caller gets.
			_ = e.runs.UpdateRun(run)
			e.observer.OnRunFailed(ctx, run, err)
			return err
		}

		// Checkpoint before moving on. If the checkpoint cannot be made
		// durable the run must not proceed: the next step could otherwise
		// repeat this one's side effect after a crash.
		current = next
		run.StepResults[i] = next
		run.CurrentStep = i + 1
		if err := e.runs.UpdateRun(run); err != nil {
			run.Status = StatusFailed
			run.Err = fmt.Errorf("checkpoint step %d: %w", i, err)
			e.observer.OnRunFailed(ctx, run, run.Err)
			return run.Err
		}
	}

	run.Status = StatusSucceeded
	run.Output = current
	run.CurrentStep = len(def.Steps)
	// If this write is lost the run resumes as interrupted and replays its
	// checkpoints to the same output without re-invoking any step.
	_ = e.runs.UpdateRun(run)

	e.observer.OnRunSucceeded(ctx, run)
	return nil
}

// invokeStep runs a single step under its retry policy. Retryable errors
// consume attempts with exponential backoff; non-retryable errors abort
// on first occurrence.
func (e *engine) invokeStep(ctx context.Context, run *Run, step StepDefinition, index int, input any) (any, error) {
	maxAttempts := 1
	var (
		backoff    time.Duration
		maxBackoff time.Duration
		multiplier float64
	)

	if step.Retry != nil {
		if step.Retry.MaxAttempts > 0 {
			maxAttempts = step.Retry.MaxAttempts
		}
		backoff = step.Retry.InitialBackoff
		maxBackoff = step.Retry.MaxBackoff
		multiplier = step.Retry.BackoffMultiplier
		if multiplier <= 0 {
			multiplier = 2.0
		}
	}

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		start := time.Now()
		e.observer.OnStepStart(ctx, run, step.Name, index)

		next, err := step.Fn(ctx, input)

		e.observer.OnStepCompleted(ctx, run, step.Name, index, err, time.Since(start))

		if err == nil {
			return next, nil
		}
		lastErr = err

		if !Retryable(err) {
			return nil, err
		}
		if attempt == maxAttempts {
			return nil, lastErr
		}

		if backoff > 0 {
			delay := backoff
			if maxBackoff > 0 && delay > maxBackoff {
				delay = maxBackoff
			}

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}

			nextBackoff := time.Duration(float64(backoff) * multiplier)
			if maxBackoff > 0 && nextBackoff > maxBackoff {
				backoff = maxBackoff
			} else {
				backoff = nextBackoff
			}
		}
	}

	return nil, lastErr
}
