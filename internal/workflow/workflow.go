// Package workflow implements the durable execution engine used by the
// provisioning service. A workflow is a named, ordered sequence of steps;
// a run is one checkpointed execution of a workflow, identified by a
// caller-supplied deterministic workflow id. After every completed step the
// run is persisted, so a crashed or re-started run replays recorded step
// results instead of re-invoking the steps that already happened.
package workflow

import (
	"context"
	"time"
)

// Status represents the lifecycle state of a workflow run.
type Status string

const (
	StatusQueued    Status = "QUEUED"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// Terminal reports whether the status is a terminal state.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// StepFunc is a single step in a workflow. Steps receive the previous
// step's output as input and must be safe to re-invoke with the same
// logical input; the engine guarantees a checkpointed step is never
// re-invoked within the same run.
type StepFunc func(ctx context.Context, input any) (any, error)

// StepDefinition describes a named step.
type StepDefinition struct {
	Name  string
	Fn    StepFunc
	Retry *RetryPolicy
}

// Definition describes a workflow as a sequence of steps.
type Definition struct {
	Name  string
	Steps []StepDefinition
}

// Run holds the durable state of one workflow execution.
type Run struct {
	// ID is the unique run instance id, assigned by the engine.
	ID string

	// WorkflowID is the caller-supplied deterministic identity of this
	// logical operation. Starting a workflow with a WorkflowID that is
	// already in flight attaches to the existing run.
	WorkflowID string

	// Name is the workflow definition name.
	Name string

	Status Status
	Output any
	Err    error

	// Input is the original input provided when the run was first
	// started. It is reused verbatim on resume.
	Input any

	// CurrentStep tracks progress through the workflow steps:
	// the index of the step currently (or next) executing, or
	// len(steps) after successful completion.
	CurrentStep int

	// StepResults records the output of each completed step, keyed by
	// step index. It is the checkpoint log consulted on replay.
	StepResults map[int]any

	StartedAt time.Time
	UpdatedAt time.Time
}

// RunFilter selects runs when listing. Zero values mean "no filter".
type RunFilter struct {
	WorkflowName string
	Status       Status
}

// Engine executes registered workflow definitions as durable runs.
type Engine interface {
	// RegisterWorkflow registers a definition by name.
	RegisterWorkflow(def Definition) error

	// Start begins (or attaches to) the run identified by workflowID and
	// returns a handle without waiting for completion. The run executes
	// on the engine's own context; cancelling ctx after Start returns
	// does not cancel the run.
	Start(ctx context.Context, name, workflowID string, input any) (*Handle, error)

	// Run is Start followed by Handle.Result.
	Run(ctx context.Context, name, workflowID string, input any) (*Run, error)

	// GetRun looks up a run by its workflow id.
	GetRun(ctx context.Context, workflowID string) (*Run, error)

	// ListRuns returns runs matching the filter.
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)

	// ResumeInterrupted re-executes runs that were persisted in a
	// non-terminal state, picking up from their last checkpoint. It is
	// meant to be called once on process startup, and returns the number
	// of runs resumed.
	ResumeInterrupted(ctx context.Context) (int, error)
}
