package provision

import (
	"time"

	"github.com/lumapay/provision/internal/workflow"
)

// Workflow names. Workflow ids are deterministic per logical operation:
// the create workflow is keyed by the requested email, the update
// workflow by the target account id. A duplicate start with the same id
// attaches to the existing run instead of provisioning twice.
const (
	WorkflowCreateAccount = "create-account"
	WorkflowUpdateAccount = "update-account"
)

// activityRetry is the uniform per-activity retry policy: up to 5 total
// attempts with exponential backoff, short-circuited by non-retryable
// errors (provider rejections, store conflicts, validation).
func activityRetry() workflow.RetryPolicy {
	return workflow.Retry(5).
		WithExponentialBackoff(time.Second, 2.0, 30*time.Second).
		Policy()
}

// RegisterWorkflows registers the create-account and update-account
// procedures with the engine.
//
// create-account: CreatePaymentAccount -> SaveAccount
// update-account: UpdatePaymentAccount -> SaveAccount
func RegisterWorkflows(eng workflow.Engine, activities *Activities) error {
	return registerWorkflows(eng, activities, activityRetry())
}

func registerWorkflows(eng workflow.Engine, activities *Activities, retry workflow.RetryPolicy) error {
	create := workflow.NewFlow(WorkflowCreateAccount).
		StepWithRetry("create-payment-account", activities.createPaymentAccountStep, retry).
		StepWithRetry("save-account", activities.saveAccountStep, retry)

	update := workflow.NewFlow(WorkflowUpdateAccount).
		StepWithRetry("update-payment-account", activities.updatePaymentAccountStep, retry).
		StepWithRetry("save-account", activities.saveAccountStep, retry)

	if err := create.Register(eng); err != nil {
		return err
	}
	return update.Register(eng)
}
