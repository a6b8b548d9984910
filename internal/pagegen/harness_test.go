package pagegen

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/quizpages/internal/data/repos"
	pagerepo "github.com/yungbote/quizpages/internal/data/repos/pages"
	"github.com/yungbote/quizpages/internal/data/repos/testutil"
	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/events"
	"github.com/yungbote/quizpages/internal/platform/kv"
	"github.com/yungbote/quizpages/internal/pkg/dbctx"
)

type harness struct {
	t    *testing.T
	ctx  context.Context
	db   *gorm.DB
	kv   kv.Store
	cfg  Config
	svc  *Service
	bus  *events.Bus
	docs repos.DocumentRepo
	item repos.ItemRepo
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	store := kv.NewMemory()
	cfg := DefaultConfig()

	docs := repos.NewDocumentRepo(db, log)
	items := repos.NewItemRepo(db, log)
	svc := NewService(cfg, Deps{
		DB:          db,
		Categories:  repos.NewCategoryRepo(db, log),
		Scopes:      repos.NewScopeRepo(db, log),
		Items:       items,
		QuizConfigs: repos.NewQuizConfigRepo(db, log),
		Documents:   docs,
		Settings:    repos.NewSettingRepo(db, log),
		KV:          store,
		Log:         log,
	})
	bus := events.NewBus(log)
	require.NoError(t, svc.RegisterTriggers(bus))

	return &harness{
		t:    t,
		ctx:  context.Background(),
		db:   db,
		kv:   store,
		cfg:  cfg,
		svc:  svc,
		bus:  bus,
		docs: docs,
		item: items,
	}
}

func (h *harness) dbc() dbctx.Context { return dbctx.Context{Ctx: h.ctx} }

func (h *harness) active(key Key) []*types.ManagedDocument {
	h.t.Helper()
	rows, err := h.docs.ListByKey(h.dbc(), key.Attrs(), pagerepo.FilterActive)
	require.NoError(h.t, err)
	return rows
}

func (h *harness) softDeleted(key Key) []*types.ManagedDocument {
	h.t.Helper()
	rows, err := h.docs.ListByKey(h.dbc(), key.Attrs(), pagerepo.FilterSoftDeleted)
	require.NoError(h.t, err)
	return rows
}

func (h *harness) publish(ev events.Event) {
	h.t.Helper()
	require.NoError(h.t, h.bus.Publish(h.ctx, ev))
}

// stale drops cached snapshots after fixtures are written behind the event bus.
func (h *harness) stale() {
	h.t.Helper()
	require.NoError(h.t, h.svc.cache.InvalidateTaxonomy(h.ctx))
}

func (h *harness) enable(scopeIDs ...uuid.UUID) {
	h.t.Helper()
	require.NoError(h.t, h.svc.scopes.Set(h.ctx, scopeIDs))
}

// insertDoc writes a generated document for key directly, bypassing reconciliation.
func (h *harness) insertDoc(key Key, parentPath, slug string, deleted bool) *types.ManagedDocument {
	h.t.Helper()
	var (
		parentID *uint64
		path     = "/" + slug
	)
	if parentPath != "" {
		parent, err := h.svc.ns.EnsureContainer(h.dbc(), parentPath)
		require.NoError(h.t, err)
		parentID, path = &parent.ID, parent.Path+"/"+slug
	}
	attrs := key.Attrs()
	doc := &types.ManagedDocument{
		Role:          types.RoleGenerated,
		KeyKind:       attrs.Kind,
		KeyCategoryID: attrs.CategoryID,
		KeyScopeID:    attrs.ScopeID,
		ParentID:      parentID,
		Slug:          slug,
		Path:          path,
		Title:         "stale",
		Content:       "stale",
	}
	require.NoError(h.t, h.docs.Create(h.dbc(), doc))
	if deleted {
		_, err := h.docs.SoftDelete(h.dbc(), []uint64{doc.ID})
		require.NoError(h.t, err)
	}
	return doc
}
