package pagegen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/quizpages/internal/data/repos/testutil"
	types "github.com/yungbote/quizpages/internal/domain"
)

func TestSweepRetiresIneligibleDocuments(t *testing.T) {
	h := newHarness(t)
	keep := testutil.SeedCategory(t, h.db, "mammals", "Mammals", nil)
	drop := testutil.SeedCategory(t, h.db, "insects", "Insects", nil)
	testutil.SeedItems(t, h.db, 5, false, []uuid.UUID{keep.ID}, nil)
	dropped := testutil.SeedItems(t, h.db, 5, false, []uuid.UUID{drop.ID}, nil)

	keepKey, dropKey := CategoryKey{CategoryID: keep.ID}, CategoryKey{CategoryID: drop.ID}
	require.Equal(t, ActionCreated, h.svc.Reconcile(h.ctx, keepKey).Action)
	require.Equal(t, ActionCreated, h.svc.Reconcile(h.ctx, dropKey).Action)

	// Unpublished without an event reaching the generator.
	require.NoError(t, h.item.SetStatus(h.dbc(), dropped[0].ID, "draft"))

	sum, err := h.svc.Sweep(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Retired)
	assert.Len(t, h.active(keepKey), 1)
	assert.Empty(t, h.active(dropKey))
	assert.Len(t, h.softDeleted(dropKey), 1)
}

func TestSweepRetiresOrphansAndCollapsesDuplicates(t *testing.T) {
	h := newHarness(t)
	cat := testutil.SeedCategory(t, h.db, "shapes", "Shapes", nil)
	testutil.SeedItems(t, h.db, 5, false, []uuid.UUID{cat.ID}, nil)
	key := CategoryKey{CategoryID: cat.ID}
	first := h.insertDoc(key, "/flashcards", "shapes", false)
	h.insertDoc(key, "/flashcards", "shapes-2", false)

	orphan := &types.ManagedDocument{
		Role:    types.RoleGenerated,
		KeyKind: string(KindScopeCategory),
		Slug:    "orphan",
		Path:    "/orphan",
		Title:   "Orphan",
	}
	require.NoError(t, h.docs.Create(h.dbc(), orphan))

	sum, err := h.svc.Sweep(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Retired)

	docs := h.active(key)
	require.Len(t, docs, 1)
	assert.Equal(t, first.ID, docs[0].ID)
	got, err := h.docs.GetByID(h.dbc(), orphan.ID, true)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.StatusSoftDeleted, got.Status())
}

func TestSweepGuards(t *testing.T) {
	t.Run("empty taxonomy", func(t *testing.T) {
		h := newHarness(t)
		key := CategoryKey{CategoryID: uuid.New()}
		h.insertDoc(key, "/flashcards", "kept", false)

		sum, err := h.svc.Sweep(h.ctx)
		require.NoError(t, err)
		assert.Zero(t, sum.Retired)
		assert.Len(t, h.active(key), 1)
	})

	t.Run("held", func(t *testing.T) {
		h := newHarness(t)
		testutil.SeedCategory(t, h.db, "any", "Any", nil)
		key := CategoryKey{CategoryID: uuid.New()}
		h.insertDoc(key, "/flashcards", "kept", false)
		require.NoError(t, h.svc.HoldSync(h.ctx, 0))

		_, err := h.svc.Sweep(h.ctx)
		require.ErrorIs(t, err, ErrSyncHeld)
		assert.Len(t, h.active(key), 1)

		require.NoError(t, h.svc.ReleaseHold(h.ctx))
		sum, err := h.svc.Sweep(h.ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Retired)
		assert.Empty(t, h.active(key))
	})
}
