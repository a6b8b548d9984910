package pagegen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/quizpages/internal/data/repos"
	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/events"
	"github.com/yungbote/quizpages/internal/platform/kv"
	"github.com/yungbote/quizpages/internal/pkg/dbctx"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

const markerResyncLock = "pagegen:resync:lock"

type Deps struct {
	DB          *gorm.DB
	Categories  repos.CategoryRepo
	Scopes      repos.ScopeRepo
	Items       repos.ItemRepo
	QuizConfigs repos.QuizConfigRepo
	Documents   repos.DocumentRepo
	Settings    repos.SettingRepo
	KV          kv.Store
	Log         *logger.Logger
}

// Service is the entry point collaborators use: event handlers, the scheduler, the admin
// API and the CLI.
type Service struct {
	cfg      Config
	db       *gorm.DB
	kv       kv.Store
	settings repos.SettingRepo
	docs     repos.DocumentRepo
	nodes    Classification

	scopes  *EnabledScopes
	cache   *SnapshotCache
	eval    *Evaluator
	ns      *Registrar
	store   *Store
	rec     *Reconciler
	gc      *Collector
	trigger *TriggerRouter

	tracer trace.Tracer
	log    *logger.Logger
}

func NewService(cfg Config, d Deps) *Service {
	log := d.Log.With("service", "PageGenService")
	nodes := NewRepoClassification(d.Categories, d.Scopes, d.Items)
	rules := NewRepoQuizRules(d.QuizConfigs)

	scopes := NewEnabledScopes(d.Settings, d.KV, d.Log)
	cache := NewSnapshotCache(nodes, rules, d.KV, cfg.SnapshotCacheSize, d.Log)
	eval := NewEvaluator(cfg, nodes, cache, scopes)
	ns := NewRegistrar(cfg, d.Documents, nodes, scopes, d.KV, d.Log)
	store := NewStore(d.Documents, ns, d.Log)
	rec := NewReconciler(d.DB, cfg, eval, store, d.Log)
	gc := NewCollector(d.DB, cfg, d.Documents, nodes, eval, store, rec, d.KV, d.Log)
	trigger := NewTriggerRouter(nodes, scopes, cache, d.Documents, ns, rec, d.Log)

	return &Service{
		cfg:      cfg,
		db:       d.DB,
		kv:       d.KV,
		settings: d.Settings,
		docs:     d.Documents,
		nodes:    nodes,
		scopes:   scopes,
		cache:    cache,
		eval:     eval,
		ns:       ns,
		store:    store,
		rec:      rec,
		gc:       gc,
		trigger:  trigger,
		tracer:   otel.Tracer(tracerName),
		log:      log,
	}
}

func (s *Service) Config() Config { return s.cfg }

// RegisterTriggers subscribes the trigger router to bus.
func (s *Service) RegisterTriggers(bus *events.Bus) error { return s.trigger.Register(bus) }

// Evaluate reports the eligibility decision for key without writing anything.
func (s *Service) Evaluate(ctx context.Context, key Key) (Decision, error) {
	return s.eval.Eligible(ctx, key)
}

// Reconcile converges a single key and flushes routes if the batch marked them stale.
func (s *Service) Reconcile(ctx context.Context, key Key) Outcome {
	rc, ctx, done := s.begin(ctx, "reconcile")
	defer done()
	return s.rec.Reconcile(ctx, rc, key)
}

// ReconcileSlugs resolves slugs to a key and reconciles it: a category slug alone names a
// category key, a scope slug alone a scope key, both a (scope, category) key.
func (s *Service) ReconcileSlugs(ctx context.Context, scopeSlug, categorySlug string) (Outcome, error) {
	key, err := s.KeyForSlugs(ctx, scopeSlug, categorySlug)
	if err != nil {
		return Outcome{}, err
	}
	return s.Reconcile(ctx, key), nil
}

func (s *Service) KeyForSlugs(ctx context.Context, scopeSlug, categorySlug string) (Key, error) {
	var (
		scope *types.Scope
		cat   *types.Category
		err   error
	)
	if scopeSlug != "" {
		if scope, err = s.nodes.ScopeBySlug(ctx, scopeSlug); err != nil {
			return nil, err
		}
		if scope == nil {
			return nil, fmt.Errorf("scope %q: %w", scopeSlug, perrors.ErrNotFound)
		}
	}
	if categorySlug != "" {
		if cat, err = s.nodes.CategoryBySlug(ctx, categorySlug); err != nil {
			return nil, err
		}
		if cat == nil {
			return nil, fmt.Errorf("category %q: %w", categorySlug, perrors.ErrNotFound)
		}
	}
	switch {
	case scope != nil && cat != nil:
		return ScopeCategoryKey{ScopeID: scope.ID, CategoryID: cat.ID}, nil
	case scope != nil:
		return ScopeKey{ScopeID: scope.ID}, nil
	case cat != nil:
		return CategoryKey{CategoryID: cat.ID}, nil
	}
	return nil, fmt.Errorf("reconcile: scope or category slug required: %w", perrors.ErrInvalidArgument)
}

// Sweep runs the garbage collector on its own batch. Cached snapshots are dropped first
// so documents orphaned by missed events are judged on current state.
func (s *Service) Sweep(ctx context.Context) (Summary, error) {
	if err := s.cache.InvalidateTaxonomy(ctx); err != nil {
		s.log.Warn("Snapshot invalidation failed", "error", err)
	}
	rc, ctx, done := s.begin(ctx, "sweep")
	_, err := s.gc.Sweep(ctx, rc)
	done()
	return rc.Summary(), err
}

// FullResync is the safety net: sweep, then reconcile every known key. It holds a lease so
// it is never re-entered, including by its own side effects.
func (s *Service) FullResync(ctx context.Context) (Summary, error) {
	held, _, err := s.Held(ctx)
	if err != nil {
		return Summary{}, err
	}
	if held {
		resyncTotal.WithLabelValues("held").Inc()
		return Summary{}, ErrSyncHeld
	}
	ok, err := s.kv.SetNX(ctx, markerResyncLock, s.cfg.ResyncLockTTL)
	if err != nil {
		return Summary{}, fmt.Errorf("acquire resync lease: %w", err)
	}
	if !ok {
		resyncTotal.WithLabelValues("in_progress").Inc()
		return Summary{}, ErrResyncInProgress
	}
	defer func() {
		if err := s.kv.Delete(context.WithoutCancel(ctx), markerResyncLock); err != nil {
			s.log.Warn("Failed to release resync lease", "error", err)
		}
	}()

	start := time.Now()
	rc, ctx, done := s.begin(ctx, "full_resync")
	ctx, span := s.tracer.Start(ctx, "pagegen.full_resync", trace.WithAttributes(attribute.String("pagegen.batch_id", rc.ID.String())))
	defer span.End()
	s.log.Info("Full resync started", "batch_id", rc.ID)

	if err := s.cache.InvalidateTaxonomy(ctx); err != nil {
		s.log.Warn("Snapshot invalidation failed", "error", err)
	}
	if err := s.ns.MarkStale(ctx); err != nil {
		s.log.Warn("Failed to mark routes stale", "error", err)
	}
	if err := s.ensureContainers(ctx); err != nil {
		done()
		resyncTotal.WithLabelValues("error").Inc()
		return rc.Summary(), err
	}
	if _, err := s.gc.Sweep(ctx, rc); err != nil {
		s.log.Error("Sweep during full resync failed", "error", err)
	}

	keys, err := s.knownKeys(ctx)
	if err != nil {
		done()
		resyncTotal.WithLabelValues("error").Inc()
		return rc.Summary(), err
	}
	s.rec.ReconcileAll(ctx, rc, keys)
	done()

	now := time.Now().UTC()
	if err := s.settings.Put(dbctx.Context{Ctx: ctx}, types.SettingLastFullSync, now); err != nil {
		s.log.Error("Failed to stamp last full sync", "error", err)
	}
	sum := rc.Summary()
	resyncTotal.WithLabelValues("ok").Inc()
	resyncDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("pagegen.keys", len(keys)), attribute.Int("pagegen.failed", sum.Failed))
	s.log.Info("Full resync complete",
		"batch_id", rc.ID,
		"keys", len(keys),
		"created", sum.Created,
		"updated", sum.Updated,
		"restored", sum.Restored,
		"retired", sum.Retired,
		"purged", sum.Purged,
		"failed", sum.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sum, nil
}

func (s *Service) ensureContainers(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		for _, p := range []string{s.cfg.CategoryParentPath, s.cfg.ScopeCategoryParentPath, s.cfg.ScopeParentPath} {
			if _, err := s.ns.EnsureContainer(dbc, p); err != nil {
				return fmt.Errorf("ensure container %q: %w", p, err)
			}
		}
		return nil
	})
}

// knownKeys lists every live category key plus, for each enabled scope, its scope key and
// a pair key per category that has items in the scope.
func (s *Service) knownKeys(ctx context.Context) ([]Key, error) {
	tree, err := s.cache.Tree(ctx)
	if err != nil {
		return nil, fmt.Errorf("load category tree: %w", err)
	}
	var keys []Key
	for _, c := range tree.Categories() {
		keys = append(keys, CategoryKey{CategoryID: c.ID})
	}
	enabled, err := s.scopes.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, sid := range enabled {
		keys = append(keys, ScopeKey{ScopeID: sid})
		cats, err := s.nodes.CategoriesInScope(ctx, sid)
		if err != nil {
			return nil, fmt.Errorf("categories in scope %s: %w", sid, err)
		}
		for _, c := range cats {
			keys = append(keys, ScopeCategoryKey{ScopeID: sid, CategoryID: c})
		}
	}
	return dedupeKeys(keys), nil
}

// EnabledScopes returns the enabled scopes that still exist.
func (s *Service) EnabledScopes(ctx context.Context) ([]*types.Scope, error) {
	ids, err := s.scopes.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Scope, 0, len(ids))
	for _, id := range ids {
		sc, err := s.nodes.Scope(ctx, id)
		if err != nil {
			return nil, err
		}
		if sc != nil {
			out = append(out, sc)
		}
	}
	return out, nil
}

// SetEnabledScopes persists ids, marks routes stale and reconciles every scope whose
// membership in the list may have changed.
func (s *Service) SetEnabledScopes(ctx context.Context, ids []uuid.UUID) (Summary, error) {
	for _, id := range ids {
		sc, err := s.nodes.Scope(ctx, id)
		if err != nil {
			return Summary{}, err
		}
		if sc == nil {
			return Summary{}, fmt.Errorf("scope %s: %w", id, perrors.ErrNotFound)
		}
	}
	before, err := s.scopes.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	if err := s.scopes.Set(ctx, ids); err != nil {
		return Summary{}, err
	}

	rc, ctx, done := s.begin(ctx, "enabled_scopes")
	defer done()
	if err := s.ns.MarkStale(ctx); err != nil {
		s.log.Warn("Failed to mark routes stale", "error", err)
	}
	var keys []Key
	for _, sid := range uniqueIDs(append(before, ids...)) {
		sk, err := s.trigger.scopeKeys(ctx, sid)
		if err != nil {
			return rc.Summary(), err
		}
		keys = append(keys, sk...)
	}
	s.rec.ReconcileAll(ctx, rc, keys)
	return rc.Summary(), nil
}

// HoldSync suppresses sweeps and resyncs for ttl (the configured seed hold when ttl <= 0),
// for first-time setup before classification data is imported.
func (s *Service) HoldSync(ctx context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.cfg.SeedHoldTTL
	}
	if err := s.kv.Set(ctx, markerSeedHold, ttl); err != nil {
		return err
	}
	s.log.Info("Sync held", "ttl", ttl.String())
	return nil
}

func (s *Service) ReleaseHold(ctx context.Context) error {
	if err := s.kv.Delete(ctx, markerSeedHold); err != nil {
		return err
	}
	s.log.Info("Sync hold released")
	return nil
}

// Held reports whether the seed hold is set and for how much longer.
func (s *Service) Held(ctx context.Context) (bool, time.Duration, error) {
	ttl, err := s.kv.TTL(ctx, markerSeedHold)
	if err != nil {
		return false, 0, err
	}
	return ttl != 0, ttl, nil
}

func (s *Service) Resolve(ctx context.Context, path string) (*types.ManagedDocument, error) {
	return s.ns.Resolve(ctx, path)
}

func (s *Service) Routes(ctx context.Context) (*RouteTable, error) {
	return s.ns.Routes(ctx)
}

// LastFullSync returns when the last full resync finished; ok is false if never.
func (s *Service) LastFullSync(ctx context.Context) (time.Time, bool, error) {
	var ts time.Time
	ok, err := s.settings.Get(dbctx.Context{Ctx: ctx}, types.SettingLastFullSync, &ts)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	return ts, true, nil
}

type Status struct {
	LastFullSync    *time.Time     `json:"last_full_sync,omitempty"`
	Held            bool           `json:"held"`
	HoldRemaining   string         `json:"hold_remaining,omitempty"`
	ResyncRunning   bool           `json:"resync_running"`
	EnabledScopes   []*types.Scope `json:"enabled_scopes"`
	ActiveDocuments int64          `json:"active_documents"`
	SoftDeleted     int64          `json:"soft_deleted_documents"`
	RouteGeneration int64          `json:"route_generation"`
}

func (s *Service) Status(ctx context.Context) (Status, error) {
	var st Status
	if ts, ok, err := s.LastFullSync(ctx); err != nil {
		return st, err
	} else if ok {
		st.LastFullSync = &ts
	}
	held, ttl, err := s.Held(ctx)
	if err != nil {
		return st, err
	}
	st.Held = held
	if held && ttl > 0 {
		st.HoldRemaining = ttl.Round(time.Second).String()
	}
	if st.ResyncRunning, err = s.kv.Exists(ctx, markerResyncLock); err != nil {
		return st, err
	}
	if st.EnabledScopes, err = s.EnabledScopes(ctx); err != nil {
		return st, err
	}
	if st.ActiveDocuments, st.SoftDeleted, err = s.docs.CountByStatus(dbctx.Context{Ctx: ctx}); err != nil {
		return st, err
	}
	if st.RouteGeneration, err = s.kv.Current(ctx, versionRoutes); err != nil {
		return st, err
	}
	return st, nil
}

// begin joins the batch attached to ctx or starts a new one. done flushes routes only for a
// batch begin started; a joined batch is closed by its owner.
func (s *Service) begin(ctx context.Context, trigger string) (*ReconciliationContext, context.Context, func()) {
	if rc := ReconciliationFrom(ctx); rc != nil {
		return rc, ctx, func() {}
	}
	rc := NewReconciliationContext(trigger, s.ns)
	ctx = WithReconciliation(ctx, rc)
	return rc, ctx, func() {
		if err := rc.Close(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("Route flush failed", "batch_id", rc.ID, "error", err)
		}
	}
}
