package pagegen

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/quizpages/internal/data/repos/testutil"
)

func TestFullResync(t *testing.T) {
	h := newHarness(t)
	birds := testutil.SeedCategory(t, h.db, "birds", "Birds", nil)
	owls := testutil.SeedCategory(t, h.db, "owls", "Owls", &birds.ID)
	small := testutil.SeedCategory(t, h.db, "small", "Small", nil)
	scope := testutil.SeedScope(t, h.db, "night", "Night")
	off := testutil.SeedScope(t, h.db, "day", "Day")
	testutil.SeedItems(t, h.db, 5, true, []uuid.UUID{birds.ID, owls.ID}, []uuid.UUID{scope.ID, off.ID})
	testutil.SeedItems(t, h.db, 2, true, []uuid.UUID{small.ID}, []uuid.UUID{scope.ID})
	h.enable(scope.ID)
	ghost := h.insertDoc(CategoryKey{CategoryID: uuid.New()}, "/flashcards", "ghost", false)

	_, ok, err := h.svc.LastFullSync(h.ctx)
	require.NoError(t, err)
	require.False(t, ok)

	sum, err := h.svc.FullResync(h.ctx)
	require.NoError(t, err)
	assert.Zero(t, sum.Failed)
	assert.Equal(t, 3, sum.Created)
	assert.Equal(t, 1, sum.Retired)

	assert.Len(t, h.active(CategoryKey{CategoryID: owls.ID}), 1)
	assert.Empty(t, h.active(CategoryKey{CategoryID: birds.ID}), "items count toward their deepest category only")
	assert.Empty(t, h.active(CategoryKey{CategoryID: small.ID}))
	assert.Len(t, h.active(ScopeCategoryKey{ScopeID: scope.ID, CategoryID: owls.ID}), 1)
	assert.Len(t, h.active(ScopeKey{ScopeID: scope.ID}), 1)
	assert.Empty(t, h.active(ScopeKey{ScopeID: off.ID}))
	assert.Len(t, h.softDeleted(CategoryKey{CategoryID: *ghost.KeyCategoryID}), 1)

	last, ok, err := h.svc.LastFullSync(h.ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), last, time.Minute)

	sum, err = h.svc.FullResync(h.ctx)
	require.NoError(t, err)
	assert.Zero(t, sum.Created+sum.Updated+sum.Restored+sum.Retired+sum.Purged)
	assert.Equal(t, 7, sum.Unchanged)

	st, err := h.svc.Status(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.ActiveDocuments)
	assert.Equal(t, int64(1), st.SoftDeleted)
	assert.False(t, st.Held)
	assert.False(t, st.ResyncRunning)
	require.Len(t, st.EnabledScopes, 1)
	assert.Equal(t, scope.ID, st.EnabledScopes[0].ID)
}

func TestFullResyncGuards(t *testing.T) {
	h := newHarness(t)
	testutil.SeedCategory(t, h.db, "a", "A", nil)

	ok, err := h.kv.SetNX(h.ctx, markerResyncLock, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = h.svc.FullResync(h.ctx)
	require.ErrorIs(t, err, ErrResyncInProgress)
	require.NoError(t, h.kv.Delete(h.ctx, markerResyncLock))

	require.NoError(t, h.svc.HoldSync(h.ctx, time.Hour))
	held, ttl, err := h.svc.Held(h.ctx)
	require.NoError(t, err)
	assert.True(t, held)
	assert.Greater(t, ttl, 59*time.Minute)
	_, err = h.svc.FullResync(h.ctx)
	require.ErrorIs(t, err, ErrSyncHeld)

	require.NoError(t, h.svc.ReleaseHold(h.ctx))
	_, err = h.svc.FullResync(h.ctx)
	require.NoError(t, err)
	exists, err := h.kv.Exists(h.ctx, markerResyncLock)
	require.NoError(t, err)
	assert.False(t, exists, "lease released")
}

func TestSetEnabledScopes(t *testing.T) {
	h := newHarness(t)
	cat := testutil.SeedCategory(t, h.db, "maps", "Maps", nil)
	scope := testutil.SeedScope(t, h.db, "atlas", "Atlas")
	testutil.SeedItems(t, h.db, 5, true, []uuid.UUID{cat.ID}, []uuid.UUID{scope.ID})
	pair := ScopeCategoryKey{ScopeID: scope.ID, CategoryID: cat.ID}
	landing := ScopeKey{ScopeID: scope.ID}

	sum, err := h.svc.SetEnabledScopes(h.ctx, []uuid.UUID{scope.ID, scope.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Created)
	scopes, err := h.svc.EnabledScopes(h.ctx)
	require.NoError(t, err)
	require.Len(t, scopes, 1)
	assert.Len(t, h.active(pair), 1)
	assert.Len(t, h.active(landing), 1)

	sum, err = h.svc.SetEnabledScopes(h.ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Retired)
	assert.Empty(t, h.active(pair))
	assert.Empty(t, h.active(landing))

	_, err = h.svc.SetEnabledScopes(h.ctx, []uuid.UUID{uuid.New()})
	require.Error(t, err)
}

func TestJoinedBatchIsClosedByItsOwner(t *testing.T) {
	h := newHarness(t)
	scope := testutil.SeedScope(t, h.db, "grade-6", "Grade 6")
	cat := testutil.SeedCategory(t, h.db, "maps", "Maps", nil)

	outer := NewReconciliationContext("outer", h.svc.ns)
	ctx := WithReconciliation(h.ctx, outer)

	_, err := h.svc.SetEnabledScopes(ctx, []uuid.UUID{scope.ID})
	require.NoError(t, err)
	h.svc.Reconcile(ctx, CategoryKey{CategoryID: cat.ID})
	stale, err := h.kv.Exists(h.ctx, markerRouteFlush)
	require.NoError(t, err)
	assert.True(t, stale, "joined calls leave the flush to the outer batch")

	require.NoError(t, outer.Close(h.ctx))
	stale, err = h.kv.Exists(h.ctx, markerRouteFlush)
	require.NoError(t, err)
	assert.False(t, stale)

	table, err := h.svc.Routes(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]uuid.UUID{"grade-6": scope.ID}, table.Scopes)
}
