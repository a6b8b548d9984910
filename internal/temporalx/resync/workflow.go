package resync

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Workflow runs the resync activity once. It is started with a cron schedule, so each
// interval is a fresh run with its own short history.
func Workflow(ctx workflow.Context) (Result, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    10 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    5 * time.Minute,
			MaximumAttempts:    3,
		},
	})
	var out Result
	if err := workflow.ExecuteActivity(ctx, ActivityFullResync).Get(ctx, &out); err != nil {
		return out, err
	}
	workflow.GetLogger(ctx).Info("Full resync finished", "skipped", out.Skipped, "retired", out.Retired, "failed", out.Failed)
	return out, nil
}
