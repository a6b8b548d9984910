package pagegen

import (
	"context"
	"errors"
	"time"

	"github.com/yungbote/quizpages/internal/pkg/logger"
)

// Syncer is the part of Service the scheduler drives.
type Syncer interface {
	Held(ctx context.Context) (bool, time.Duration, error)
	LastFullSync(ctx context.Context) (time.Time, bool, error)
	FullResync(ctx context.Context) (Summary, error)
}

// Scheduler runs FullResync whenever the last one is older than the sync interval.
type Scheduler struct {
	sync     Syncer
	interval time.Duration
	tick     time.Duration
	now      func() time.Time
	log      *logger.Logger
}

func NewScheduler(s Syncer, cfg Config, baseLog *logger.Logger) *Scheduler {
	return &Scheduler{
		sync:     s,
		interval: cfg.SyncInterval,
		tick:     cfg.SyncTick,
		now:      time.Now,
		log:      baseLog.With("component", "PageGenScheduler"),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	go s.runLoop(ctx)
}

func (s *Scheduler) runLoop(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	s.log.Info("Scheduler started", "interval", s.interval.String(), "tick", s.tick.String())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scheduler stopping")
			return
		case <-ticker.C:
			s.safeRun(ctx)
		}
	}
}

func (s *Scheduler) safeRun(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Scheduled resync panicked", "panic", r)
		}
	}()
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("Scheduled resync failed", "error", err)
	}
}

// RunOnce runs a resync if one is due. It reports false without error when the sync is
// held, not yet due, or already running elsewhere.
func (s *Scheduler) RunOnce(ctx context.Context) (bool, error) {
	held, _, err := s.sync.Held(ctx)
	if err != nil {
		return false, err
	}
	if held {
		s.log.Debug("Sync held, skipping scheduled resync")
		return false, nil
	}
	last, ok, err := s.sync.LastFullSync(ctx)
	if err != nil {
		return false, err
	}
	if ok && s.now().Sub(last) < s.interval {
		return false, nil
	}
	if _, err := s.sync.FullResync(ctx); err != nil {
		if errors.Is(err, ErrResyncInProgress) || errors.Is(err, ErrSyncHeld) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
