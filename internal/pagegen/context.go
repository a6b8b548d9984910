package pagegen

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionRestored  Action = "restored"
	ActionRetired   Action = "retired"
	ActionUnchanged Action = "unchanged"
	ActionSkipped   Action = "skipped"
	ActionFailed    Action = "failed"
)

// Outcome is the result of reconciling one key. Retired and Purged count documents,
// including collapsed duplicates.
type Outcome struct {
	Key        Key
	Action     Action
	Reason     string
	DocumentID uint64
	Retired    int
	Purged     int
	Err        error
}

type KeyError struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

// Summary aggregates the outcomes of a batch for administrative callers.
type Summary struct {
	Created   int        `json:"created"`
	Updated   int        `json:"updated"`
	Restored  int        `json:"restored"`
	Retired   int        `json:"retired"`
	Purged    int        `json:"purged"`
	Unchanged int        `json:"unchanged"`
	Skipped   int        `json:"skipped"`
	Failed    int        `json:"failed"`
	Errors    []KeyError `json:"errors,omitempty"`
}

type RouteFlusher interface {
	Flush(ctx context.Context) (bool, error)
}

// ReconciliationContext is carried through one batch of reconciliation (an event, a
// sweep, a resync). It guards against re-entering a key already being reconciled in the
// batch, accumulates the Summary and flushes routes once on Close.
type ReconciliationContext struct {
	ID        uuid.UUID
	Trigger   string
	StartedAt time.Time

	flusher RouteFlusher

	mu       sync.Mutex
	inflight map[Key]struct{}
	summary  Summary
	closed   bool
}

func NewReconciliationContext(trigger string, flusher RouteFlusher) *ReconciliationContext {
	return &ReconciliationContext{
		ID:        uuid.New(),
		Trigger:   trigger,
		StartedAt: time.Now().UTC(),
		flusher:   flusher,
		inflight:  map[Key]struct{}{},
	}
}

// TryEnter marks key in flight. It returns false if it already is.
func (rc *ReconciliationContext) TryEnter(key Key) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if _, busy := rc.inflight[key]; busy {
		return false
	}
	rc.inflight[key] = struct{}{}
	return true
}

func (rc *ReconciliationContext) Leave(key Key) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.inflight, key)
}

func (rc *ReconciliationContext) Record(o Outcome) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	s := &rc.summary
	switch o.Action {
	case ActionCreated:
		s.Created++
	case ActionUpdated:
		s.Updated++
	case ActionRestored:
		s.Restored++
	case ActionUnchanged:
		s.Unchanged++
	case ActionSkipped:
		s.Skipped++
	case ActionFailed:
		s.Failed++
		ke := KeyError{}
		if o.Key != nil {
			ke.Key = o.Key.String()
		}
		if o.Err != nil {
			ke.Error = o.Err.Error()
		}
		s.Errors = append(s.Errors, ke)
	}
	s.Retired += o.Retired
	s.Purged += o.Purged
}

// AddRetired counts documents retired outside a keyed reconcile (orphans found by a sweep).
func (rc *ReconciliationContext) AddRetired(n int) {
	rc.mu.Lock()
	rc.summary.Retired += n
	rc.mu.Unlock()
}

func (rc *ReconciliationContext) Summary() Summary {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := rc.summary
	out.Errors = append([]KeyError(nil), rc.summary.Errors...)
	return out
}

// Close flushes stale routes once. Later calls are no-ops.
func (rc *ReconciliationContext) Close(ctx context.Context) error {
	rc.mu.Lock()
	if rc.closed {
		rc.mu.Unlock()
		return nil
	}
	rc.closed = true
	rc.mu.Unlock()
	if rc.flusher == nil {
		return nil
	}
	_, err := rc.flusher.Flush(ctx)
	return err
}

type rcKey struct{}

// WithReconciliation attaches rc to ctx so handlers reached from inside a batch join it.
func WithReconciliation(ctx context.Context, rc *ReconciliationContext) context.Context {
	return context.WithValue(ctx, rcKey{}, rc)
}

func ReconciliationFrom(ctx context.Context) *ReconciliationContext {
	if ctx == nil {
		return nil
	}
	rc, _ := ctx.Value(rcKey{}).(*ReconciliationContext)
	return rc
}
