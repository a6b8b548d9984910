package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/quizpages/internal/pkg/logger"
	"github.com/yungbote/quizpages/internal/temporalx"
	"github.com/yungbote/quizpages/internal/temporalx/resync"
	"github.com/yungbote/quizpages/internal/utils"
)

// Runner hosts the resync workflow on the configured task queue and keeps its cron
// schedule registered.
type Runner struct {
	log   *logger.Logger
	cfg   temporalx.Config
	tc    temporalsdkclient.Client
	pages resync.Resyncer
}

func NewRunner(log *logger.Logger, cfg temporalx.Config, tc temporalsdkclient.Client, pages resync.Resyncer) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if pages == nil {
		return nil, fmt.Errorf("temporal worker missing deps")
	}
	return &Runner{log: log.With("component", "TemporalWorker"), cfg: cfg, tc: tc, pages: pages}, nil
}

// Start polls the task queue until ctx is done. Startup is retried with backoff since
// Temporal often comes up after the app in local stacks.
func (r *Runner) Start(ctx context.Context) error {
	r.log.Info("Starting Temporal worker", "address", r.cfg.Address, "namespace", r.cfg.Namespace, "task_queue", r.cfg.TaskQueue)
	deadline := time.Now().Add(r.cfg.DialMaxWait)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		w := r.newWorker()
		err := w.Start()
		if err == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "task_queue", r.cfg.TaskQueue, "attempts", attempt)
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		if errors.As(err, &nfe) && r.cfg.AutoRegisterNamespace {
			if nerr := temporalx.EnsureNamespace(ctx, r.cfg, r.log); nerr != nil {
				r.log.Warn("Temporal namespace ensure failed", "namespace", r.cfg.Namespace, "error", nerr)
			}
		}
		if r.cfg.DialMaxWait <= 0 || time.Now().After(deadline) {
			return fmt.Errorf("temporal worker start (namespace=%s): %w", r.cfg.Namespace, err)
		}
		r.log.Warn("Temporal worker failed to start; retrying", "attempt", attempt, "error", err)
		time.Sleep(backoff(r.cfg, attempt))
	}
}

func (r *Runner) newWorker() worker.Worker {
	concurrency := utils.GetEnvAsInt("TEMPORAL_WORKER_CONCURRENCY", 2, r.log)
	if concurrency < 1 {
		concurrency = 1
	}
	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})
	acts := &resync.Activities{Log: r.log, Pages: r.pages}
	w.RegisterWorkflowWithOptions(resync.Workflow, workflow.RegisterOptions{Name: resync.WorkflowName})
	w.RegisterActivityWithOptions(acts.FullResync, activity.RegisterOptions{Name: resync.ActivityFullResync})
	return w
}

// EnsureSchedule starts the cron workflow that runs a full resync every interval. An
// already running schedule is left as is.
func (r *Runner) EnsureSchedule(ctx context.Context, interval time.Duration) error {
	run, err := r.tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:           resync.WorkflowID,
		TaskQueue:    r.cfg.TaskQueue,
		CronSchedule: CronEvery(interval),
	}, resync.WorkflowName)
	if err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			return nil
		}
		return fmt.Errorf("start resync schedule: %w", err)
	}
	r.log.Info("Resync schedule registered", "workflow_id", run.GetID(), "run_id", run.GetRunID(), "every", interval.String())
	return nil
}

// CronEvery renders interval as a Temporal cron spec.
func CronEvery(interval time.Duration) string {
	if interval < time.Minute {
		interval = time.Minute
	}
	return "@every " + interval.Truncate(time.Second).String()
}

func backoff(cfg temporalx.Config, attempt int) time.Duration {
	sleep := cfg.DialBackoff
	if sleep <= 0 {
		sleep = 250 * time.Millisecond
	}
	for i := 1; i < attempt; i++ {
		sleep *= 2
		if cfg.DialBackoffMax > 0 && sleep >= cfg.DialBackoffMax {
			return cfg.DialBackoffMax
		}
	}
	return sleep
}
