package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/quizpages/internal/pkg/logger"
)

var ErrAlreadySubscribed = errors.New("event kind already has a handler")

type Handler func(ctx context.Context, ev Event) error

// Bus dispatches events synchronously to at most one handler per kind.
type Bus struct {
	log *logger.Logger

	mu       sync.RWMutex
	handlers map[Kind]Handler
}

func NewBus(baseLog *logger.Logger) *Bus {
	return &Bus{log: baseLog.With("component", "EventBus"), handlers: map[Kind]Handler{}}
}

func (b *Bus) Subscribe(kind Kind, h Handler) error {
	if !kind.Valid() {
		return fmt.Errorf("subscribe: unknown event kind %q", kind)
	}
	if h == nil {
		return fmt.Errorf("subscribe %s: nil handler", kind)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.handlers[kind]; ok {
		return fmt.Errorf("subscribe %s: %w", kind, ErrAlreadySubscribed)
	}
	b.handlers[kind] = h
	return nil
}

// Publish validates ev and runs its handler to completion. Events without a handler are
// dropped.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	b.mu.RLock()
	h := b.handlers[ev.Kind]
	b.mu.RUnlock()
	if h == nil {
		b.log.Debug("No handler for event", "kind", ev.Kind)
		return nil
	}
	if err := h(ctx, ev); err != nil {
		return fmt.Errorf("handle %s: %w", ev.Kind, err)
	}
	return nil
}
