package pagegen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/quizpages/internal/data/repos/testutil"
	types "github.com/yungbote/quizpages/internal/domain"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
)

func TestEnsureContainer(t *testing.T) {
	h := newHarness(t)

	leaf, err := h.svc.ns.EnsureContainer(h.dbc(), "/study/flash-cards/")
	require.NoError(t, err)
	require.NotNil(t, leaf)
	assert.Equal(t, "/study/flash-cards", leaf.Path)
	assert.Equal(t, "Flash Cards", leaf.Title)
	assert.Equal(t, types.RoleContainer, leaf.Role)
	require.NotNil(t, leaf.ParentID)

	again, err := h.svc.ns.EnsureContainer(h.dbc(), "study/flash-cards")
	require.NoError(t, err)
	assert.Equal(t, leaf.ID, again.ID)

	_, err = h.docs.SoftDelete(h.dbc(), []uint64{leaf.ID})
	require.NoError(t, err)
	restored, err := h.svc.ns.EnsureContainer(h.dbc(), "/study/flash-cards")
	require.NoError(t, err)
	assert.Equal(t, leaf.ID, restored.ID)
	got, err := h.docs.GetActiveByPath(h.dbc(), "/study/flash-cards")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, leaf.ID, got.ID)

	root, err := h.svc.ns.EnsureContainer(h.dbc(), "/")
	require.NoError(t, err)
	assert.Nil(t, root)
}

func TestRoutesFlush(t *testing.T) {
	h := newHarness(t)
	scope := testutil.SeedScope(t, h.db, "grade-5", "Grade 5")

	table, err := h.svc.Routes(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, table.Scopes)

	flushed, err := h.svc.ns.Flush(h.ctx)
	require.NoError(t, err)
	assert.False(t, flushed, "nothing marked stale")

	_, err = h.svc.SetEnabledScopes(h.ctx, []uuid.UUID{scope.ID})
	require.NoError(t, err)
	stale, err := h.kv.Exists(h.ctx, markerRouteFlush)
	require.NoError(t, err)
	assert.False(t, stale, "batch close flushes routes")

	table, err = h.svc.Routes(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]uuid.UUID{"grade-5": scope.ID}, table.Scopes)
	assert.Equal(t, []string{"/grade-5", "/grade-5/{category}"}, table.Patterns())
	assert.Equal(t, int64(1), table.Generation)
}

func TestResolve(t *testing.T) {
	h := newHarness(t)
	cat := testutil.SeedCategory(t, h.db, "planets", "Planets", nil)
	scope := testutil.SeedScope(t, h.db, "space", "Space")
	testutil.SeedItems(t, h.db, 5, true, []uuid.UUID{cat.ID}, []uuid.UUID{scope.ID})
	_, err := h.svc.SetEnabledScopes(h.ctx, []uuid.UUID{scope.ID})
	require.NoError(t, err)
	require.NoError(t, h.svc.Reconcile(h.ctx, CategoryKey{CategoryID: cat.ID}).Err)

	pair := h.active(ScopeCategoryKey{ScopeID: scope.ID, CategoryID: cat.ID})
	require.Len(t, pair, 1)
	landing := h.active(ScopeKey{ScopeID: scope.ID})
	require.Len(t, landing, 1)

	tests := []struct {
		path   string
		wantID uint64
	}{
		{path: "/space/planets", wantID: pair[0].ID},
		{path: "/space", wantID: landing[0].ID},
		{path: "/flashcards/planets", wantID: h.active(CategoryKey{CategoryID: cat.ID})[0].ID},
		{path: "/scope-flashcards/space-planets/", wantID: pair[0].ID},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			doc, err := h.svc.Resolve(h.ctx, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, doc.ID)
		})
	}

	_, err = h.svc.Resolve(h.ctx, "/space/comets")
	assert.ErrorIs(t, err, perrors.ErrNotFound)
	_, err = h.svc.Resolve(h.ctx, "/nowhere")
	assert.ErrorIs(t, err, perrors.ErrNotFound)
}
