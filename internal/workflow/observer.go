package workflow

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Observer receives callbacks from the engine for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be
// done asynchronously so as not to delay run execution.
type Observer interface {
	// OnRunStart is called once when a run is first started, before the
	// first step executes. It is not called again on resume.
	OnRunStart(ctx context.Context, run *Run)

	// OnRunSucceeded is called when a run reaches StatusSucceeded.
	OnRunSucceeded(ctx context.Context, run *Run)

	// OnRunFailed is called when a run transitions to StatusFailed.
	OnRunFailed(ctx context.Context, run *Run, err error)

	// OnStepStart is called before invoking a step function, once per
	// attempt. stepIndex is the 0-based index into Definition.Steps.
	OnStepStart(ctx context.Context, run *Run, stepName string, stepIndex int)

	// OnStepCompleted is called after a step function returns, for both
	// successes and failures (err != nil).
	OnStepCompleted(ctx context.Context, run *Run, stepName string, stepIndex int, err error, duration time.Duration)
}

// NoopObserver is an Observer that does nothing. It is the default when
// no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(ctx context.Context, run *Run)                {}
func (NoopObserver) OnRunSucceeded(ctx context.Context, run *Run)            {}
func (NoopObserver) OnRunFailed(ctx context.Context, run *Run, err error)    {}
func (NoopObserver) OnStepStart(ctx context.Context, run *Run, n string, i int) {
}
func (NoopObserver) OnStepCompleted(ctx context.Context, run *Run, n string, i int, err error, d time.Duration) {
}

// LoggingObserver writes structured logs for run and step lifecycle
// events.
type LoggingObserver struct {
	logger zerolog.Logger
}

// NewLoggingObserver creates an Observer that logs lifecycle events with
// the given logger.
func NewLoggingObserver(logger zerolog.Logger) Observer {
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) OnRunStart(ctx context.Context, run *Run) {
	o.logger.Info().
		Str("workflow", run.Name).
		Str("workflow_id", run.WorkflowID).
		Str("run_id", run.ID).
		Msg("run started")
}

func (o *LoggingObserver) OnRunSucceeded(ctx context.Context, run *Run) {
	o.logger.Info().
		Str("workflow", run.Name).
		Str("workflow_id", run.WorkflowID).
		Str("run_id", run.ID).
		Msg("run succeeded")
}

func (o *LoggingObserver) OnRunFailed(ctx context.Context, run *Run, err error) {
	o.logger.Error().
		Err(err).
		Str("workflow", run.Name).
		Str("workflow_id", run.WorkflowID).
		Str("run_id", run.ID).
		Int("step", run.CurrentStep).
		Msg("run failed")
}

func (o *LoggingObserver) OnStepStart(ctx context.Context, run *Run, stepName string, stepIndex int) {
	o.logger.Debug().
		Str("workflow", run.Name).
		Str("run_id", run.ID).
		Str("step", stepName).
		Int("step_index", stepIndex).
		Msg("step started")
}

func (o *LoggingObserver) OnStepCompleted(ctx context.Context, run *Run, stepName string, stepIndex int, err error, duration time.Duration) {
	evt := o.logger.Debug()
	if err != nil {
		evt = o.logger.Warn().Err(err)
	}
	evt.
		Str("workflow", run.Name).
		Str("run_id", run.ID).
		Str("step", stepName).
		Int("step_index", stepIndex).
		Dur("duration", duration).
		Msg("step completed")
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer forwarding events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	switch len(filtered) {
	case 0:
		return NoopObserver{}
	case 1:
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnRunStart(ctx context.Context, run *Run) {
	for _, o := range c.observers {
		o.OnRunStart(ctx, run)
	}
}

func (c *CompositeObserver) OnRunSucceeded(ctx context.Context, run *Run) {
	for _, o := range c.observers {
		o.OnRunSucceeded(ctx, run)
	}
}

func (c *CompositeObserver) OnRunFailed(ctx context.Context, run *Run, err error) {
	for _, o := range c.observers {
		o.OnRunFailed(ctx, run, err)
	}
}

func (c *CompositeObserver) OnStepStart(ctx context.Context, run *Run, stepName string, stepIndex int) {
	for _, o := range c.observers {
		o.OnStepStart(ctx, run, stepName, stepIndex)
	}
}

func (c *CompositeObserver) OnStepCompleted(ctx context.Context, run *Run, stepName string, stepIndex int, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnStepCompleted(ctx, run, stepName, stepIndex, err, d)
	}
}
