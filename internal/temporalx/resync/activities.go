package resync

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/quizpages/internal/pagegen"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

type Resyncer interface {
	FullResync(ctx context.Context) (pagegen.Summary, error)
}

type Activities struct {
	Log   *logger.Logger
	Pages Resyncer
}

// FullResync runs one safety-net pass. A held sync or a resync already running elsewhere
// is a skipped run, not a failure, so Temporal does not retry it.
func (a *Activities) FullResync(ctx context.Context) (Result, error) {
	if a == nil || a.Pages == nil {
		return Result{}, fmt.Errorf("resync: activity not configured")
	}
	sum, err := a.Pages.FullResync(ctx)
	switch {
	case errors.Is(err, pagegen.ErrSyncHeld):
		a.Log.Info("Scheduled resync skipped", "reason", "held")
		return Result{Skipped: true, Reason: "held"}, nil
	case errors.Is(err, pagegen.ErrResyncInProgress):
		a.Log.Info("Scheduled resync skipped", "reason", "in_progress")
		return Result{Skipped: true, Reason: "in_progress"}, nil
	case err != nil:
		return Result{}, err
	}
	return Result{
		Created:   sum.Created,
		Updated:   sum.Updated,
		Restored:  sum.Restored,
		Retired:   sum.Retired,
		Purged:    sum.Purged,
		Unchanged: sum.Unchanged,
		Failed:    sum.Failed,
	}, nil
}
