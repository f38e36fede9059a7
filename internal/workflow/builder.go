package workflow

import "fmt"

// FlowBuilder provides a fluent API for defining workflows:
//
//	flow := workflow.NewFlow("create-account").
//	    StepWithRetry("create-payment-account", createStep, policy).
//	    StepWithRetry("save-account", saveStep, policy)
//
//	if err := flow.Register(engine); err != nil {
//	    return err
//	}
type FlowBuilder struct {
	def Definition
}

// NewFlow creates a new workflow builder with the given name.
func NewFlow(name string) *FlowBuilder {
	return &FlowBuilder{
		def: Definition{
			Name:  name,
			Steps: make([]StepDefinition, 0),
		},
	}
}

// Name returns the workflow name.
func (b *FlowBuilder) Name() string {
	return b.def.Name
}

// Definition returns the underlying Definition.
func (b *FlowBuilder) Definition() Definition {
	return b.def
}

// Step appends a basic step to the workflow.
func (b *FlowBuilder) Step(name string, fn StepFunc) *FlowBuilder {
	if name == "" {
		panic("workflow: step name must not be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("workflow: step %q has nil function", name))
	}

	b.def.Steps = append(b.def.Steps, StepDefinition{Name: name, Fn: fn})
	return b
}

// StepWithRetry appends a step that uses the given retry policy.
func (b *FlowBuilder) StepWithRetry(name string, fn StepFunc, retry RetryPolicy) *FlowBuilder {
	if name == "" {
		panic("workflow: step name must not be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("workflow: step %q has nil function", name))
	}

	// Copy so callers can mutate their RetryPolicy after the call
	// without affecting the stored definition.
	r := retry

	b.def.Steps = append(b.def.Steps, StepDefinition{Name: name, Fn: fn, Retry: &r})
	return b
}

// Register registers the built workflow with the given engine.
func (b *FlowBuilder) Register(eng Engine) error {
	return eng.RegisterWorkflow(b.def)
}

// MustRegister is like Register but panics on error. Useful during
// process initialization.
func (b *FlowBuilder) MustRegister(eng Engine) {
	if err := b.Register(eng); err != nil {
		panic(err)
	}
}
