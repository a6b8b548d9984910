package pagegen

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/quizpages/internal/data/repos"
	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/events"
	"github.com/yungbote/quizpages/internal/pkg/dbctx"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

// TriggerRouter turns classification events into the minimal set of keys to reconcile.
type TriggerRouter struct {
	nodes  Classification
	scopes ScopeLister
	cache  *SnapshotCache
	docs   repos.DocumentRepo
	ns     *Registrar
	rec    *Reconciler
	log    *logger.Logger
}

func NewTriggerRouter(nodes Classification, scopes ScopeLister, cache *SnapshotCache, docs repos.DocumentRepo, ns *Registrar, rec *Reconciler, baseLog *logger.Logger) *TriggerRouter {
	return &TriggerRouter{
		nodes:  nodes,
		scopes: scopes,
		cache:  cache,
		docs:   docs,
		ns:     ns,
		rec:    rec,
		log:    baseLog.With("component", "TriggerRouter"),
	}
}

// Register subscribes Handle to every event kind.
func (t *TriggerRouter) Register(bus *events.Bus) error {
	for _, k := range events.Kinds() {
		if err := bus.Subscribe(k, t.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle invalidates the snapshots ev affects, then reconciles each affected key. Per-key
// failures are recorded on the batch, not returned.
func (t *TriggerRouter) Handle(ctx context.Context, ev events.Event) error {
	keys, err := t.prepare(ctx, ev)
	if err != nil {
		return err
	}
	rc := ReconciliationFrom(ctx)
	if rc == nil {
		rc = NewReconciliationContext("event:"+string(ev.Kind), t.ns)
		ctx = WithReconciliation(ctx, rc)
		defer func() {
			if err := rc.Close(ctx); err != nil {
				t.log.Warn("Route flush failed", "kind", ev.Kind, "error", err)
			}
		}()
	}
	t.log.Debug("Routing event", "kind", ev.Kind, "keys", len(keys), "batch_id", rc.ID)
	t.rec.ReconcileAll(ctx, rc, keys)
	return nil
}

// AffectedKeys computes the keys ev touches without invalidating anything.
func (t *TriggerRouter) AffectedKeys(ctx context.Context, ev events.Event) ([]Key, error) {
	switch ev.Kind.Subject() {
	case "category":
		return t.categoryKeys(ctx, ev.CategoryID, ev.PreviousParentID, true)
	case "quiz_config":
		return t.categoryKeys(ctx, ev.CategoryID, nil, false)
	case "scope":
		return t.scopeKeys(ctx, ev.ScopeID)
	case "item":
		prev, cur, err := t.itemTags(ctx, ev)
		if err != nil {
			return nil, err
		}
		return t.itemKeys(ctx, prev, cur)
	}
	return nil, fmt.Errorf("unroutable event kind %q", ev.Kind)
}

func (t *TriggerRouter) prepare(ctx context.Context, ev events.Event) ([]Key, error) {
	switch ev.Kind.Subject() {
	case "category", "quiz_config":
		if err := t.cache.InvalidateTaxonomy(ctx); err != nil {
			return nil, fmt.Errorf("invalidate taxonomy: %w", err)
		}
	case "scope":
		if err := t.cache.InvalidateTaxonomy(ctx); err != nil {
			return nil, fmt.Errorf("invalidate taxonomy: %w", err)
		}
		if err := t.cache.InvalidateScope(ctx, ev.ScopeID); err != nil {
			return nil, fmt.Errorf("invalidate scope: %w", err)
		}
		if err := t.ns.MarkStale(ctx); err != nil {
			t.log.Warn("Failed to mark routes stale", "scope_id", ev.ScopeID, "error", err)
		}
	case "item":
		prev, cur, err := t.itemTags(ctx, ev)
		if err != nil {
			return nil, err
		}
		var scopes []uuid.UUID
		if prev != nil {
			scopes = append(scopes, prev.ScopeIDs...)
		}
		if cur != nil {
			scopes = append(scopes, cur.ScopeIDs...)
		}
		if err := t.cache.InvalidateItems(ctx, uniqueIDs(scopes)...); err != nil {
			return nil, fmt.Errorf("invalidate items: %w", err)
		}
		return t.itemKeys(ctx, prev, cur)
	}
	return t.AffectedKeys(ctx, ev)
}

// itemTags returns the tags an item had before the event and the tags it counts under now.
// The tag rows outlive an unpublish or soft delete, so they are folded into the previous
// tags; cur is nil once the item no longer counts.
func (t *TriggerRouter) itemTags(ctx context.Context, ev events.Event) (*events.Tags, *types.ItemTags, error) {
	cur, err := t.nodes.ItemTags(ctx, ev.ItemID)
	if err != nil {
		return nil, nil, fmt.Errorf("load item tags %s: %w", ev.ItemID, err)
	}
	assigned, err := t.nodes.AssignedTags(ctx, ev.ItemID)
	if err != nil {
		return nil, nil, fmt.Errorf("load assigned tags %s: %w", ev.ItemID, err)
	}
	if assigned == nil {
		return ev.Previous, cur, nil
	}
	prev := &events.Tags{}
	if ev.Previous != nil {
		prev.CategoryIDs = append(prev.CategoryIDs, ev.Previous.CategoryIDs...)
		prev.ScopeIDs = append(prev.ScopeIDs, ev.Previous.ScopeIDs...)
	}
	prev.CategoryIDs = uniqueIDs(append(prev.CategoryIDs, assigned.CategoryIDs...))
	prev.ScopeIDs = uniqueIDs(append(prev.ScopeIDs, assigned.ScopeIDs...))
	return prev, cur, nil
}

func (t *TriggerRouter) categoryKeys(ctx context.Context, categoryID uuid.UUID, previousParent *uuid.UUID, withParents bool) ([]Key, error) {
	enabled, err := t.scopes.List(ctx)
	if err != nil {
		return nil, err
	}
	cats := []uuid.UUID{categoryID}
	if withParents {
		if previousParent != nil && *previousParent != uuid.Nil {
			cats = append(cats, *previousParent)
		}
		// A deleted child hands its items to the parent, so read the row whatever its state.
		cur, err := t.nodes.CategoryIncludingDeleted(ctx, categoryID)
		if err != nil {
			return nil, fmt.Errorf("load category %s: %w", categoryID, err)
		}
		if cur != nil && cur.ParentID != nil && *cur.ParentID != uuid.Nil {
			cats = append(cats, *cur.ParentID)
		}
	}

	var keys []Key
	for _, c := range uniqueIDs(cats) {
		keys = append(keys, CategoryKey{CategoryID: c})
		for _, s := range enabled {
			keys = append(keys, ScopeCategoryKey{ScopeID: s, CategoryID: c})
		}
	}
	for _, s := range enabled {
		keys = append(keys, ScopeKey{ScopeID: s})
	}
	return dedupeKeys(keys), nil
}

func (t *TriggerRouter) scopeKeys(ctx context.Context, scopeID uuid.UUID) ([]Key, error) {
	keys := []Key{ScopeKey{ScopeID: scopeID}}
	cats, err := t.nodes.CategoriesInScope(ctx, scopeID)
	if err != nil {
		return nil, fmt.Errorf("categories in scope %s: %w", scopeID, err)
	}
	for _, c := range cats {
		keys = append(keys, ScopeCategoryKey{ScopeID: scopeID, CategoryID: c})
	}
	// Existing documents cover pairs whose items have since left the scope.
	docs, err := t.docs.ListByScope(dbctx.Context{Ctx: ctx}, scopeID)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if k, err := KeyFromAttrs(d.Attrs()); err == nil {
			keys = append(keys, k)
		}
	}
	return dedupeKeys(keys), nil
}

func (t *TriggerRouter) itemKeys(ctx context.Context, previous *events.Tags, current *types.ItemTags) ([]Key, error) {
	tree, err := t.cache.Tree(ctx)
	if err != nil {
		return nil, fmt.Errorf("load category tree: %w", err)
	}
	var cats, scopes []uuid.UUID
	if previous != nil {
		cats = append(cats, tree.Deepest(previous.CategoryIDs)...)
		scopes = append(scopes, previous.ScopeIDs...)
	}
	if current != nil {
		cats = append(cats, tree.Deepest(current.CategoryIDs)...)
		scopes = append(scopes, current.ScopeIDs...)
	}
	cats, scopes = uniqueIDs(cats), uniqueIDs(scopes)

	enabled, err := t.scopes.List(ctx)
	if err != nil {
		return nil, err
	}
	on := make(map[uuid.UUID]bool, len(enabled))
	for _, s := range enabled {
		on[s] = true
	}

	var keys []Key
	for _, c := range cats {
		keys = append(keys, CategoryKey{CategoryID: c})
	}
	for _, s := range scopes {
		if !on[s] {
			continue
		}
		for _, c := range cats {
			keys = append(keys, ScopeCategoryKey{ScopeID: s, CategoryID: c})
		}
		keys = append(keys, ScopeKey{ScopeID: s})
	}
	return dedupeKeys(keys), nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
