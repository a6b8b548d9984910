package pagegen

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/quizpages/internal/data/repos/testutil"
	"github.com/yungbote/quizpages/internal/domain/classification"
	"github.com/yungbote/quizpages/internal/events"
)

func TestAffectedKeys(t *testing.T) {
	h := newHarness(t)
	animals := testutil.SeedCategory(t, h.db, "animals", "Animals", nil)
	dogs := testutil.SeedCategory(t, h.db, "dogs", "Dogs", &animals.ID)
	plants := testutil.SeedCategory(t, h.db, "plants", "Plants", nil)
	enabled := testutil.SeedScope(t, h.db, "grade-3", "Grade 3")
	disabled := testutil.SeedScope(t, h.db, "grade-4", "Grade 4")
	h.enable(enabled.ID)

	item := testutil.SeedItem(t, h.db, "poodle", true, []uuid.UUID{animals.ID, dogs.ID}, []uuid.UUID{enabled.ID, disabled.ID})

	tests := []struct {
		name string
		ev   events.Event
		want []Key
	}{
		{
			name: "item tagged with parent and child counts only the child",
			ev:   events.Event{Kind: events.ItemSaved, ItemID: item.ID},
			want: []Key{
				CategoryKey{CategoryID: dogs.ID},
				ScopeCategoryKey{ScopeID: enabled.ID, CategoryID: dogs.ID},
				ScopeKey{ScopeID: enabled.ID},
			},
		},
		{
			name: "previous tags are included",
			ev: events.Event{Kind: events.ItemTermsChanged, ItemID: item.ID, Previous: &events.Tags{
				CategoryIDs: []uuid.UUID{plants.ID},
			}},
			want: []Key{
				CategoryKey{CategoryID: dogs.ID},
				CategoryKey{CategoryID: plants.ID},
				ScopeCategoryKey{ScopeID: enabled.ID, CategoryID: dogs.ID},
				ScopeCategoryKey{ScopeID: enabled.ID, CategoryID: plants.ID},
				ScopeKey{ScopeID: enabled.ID},
			},
		},
		{
			name: "category move touches both parents",
			ev:   events.Event{Kind: events.CategoryUpdated, CategoryID: dogs.ID, PreviousParentID: &plants.ID},
			want: []Key{
				CategoryKey{CategoryID: dogs.ID},
				CategoryKey{CategoryID: plants.ID},
				CategoryKey{CategoryID: animals.ID},
				ScopeCategoryKey{ScopeID: enabled.ID, CategoryID: dogs.ID},
				ScopeCategoryKey{ScopeID: enabled.ID, CategoryID: plants.ID},
				ScopeCategoryKey{ScopeID: enabled.ID, CategoryID: animals.ID},
				ScopeKey{ScopeID: enabled.ID},
			},
		},
		{
			name: "quiz config touches only its category",
			ev:   events.Event{Kind: events.QuizConfigChanged, CategoryID: plants.ID},
			want: []Key{
				CategoryKey{CategoryID: plants.ID},
				ScopeCategoryKey{ScopeID: enabled.ID, CategoryID: plants.ID},
				ScopeKey{ScopeID: enabled.ID},
			},
		},
		{
			name: "scope event lists its pairs",
			ev:   events.Event{Kind: events.ScopeUpdated, ScopeID: disabled.ID},
			want: []Key{
				ScopeKey{ScopeID: disabled.ID},
				ScopeCategoryKey{ScopeID: disabled.ID, CategoryID: animals.ID},
				ScopeCategoryKey{ScopeID: disabled.ID, CategoryID: dogs.ID},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.svc.trigger.AffectedKeys(h.ctx, tt.ev)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestScopeDeletedRetiresItsDocuments(t *testing.T) {
	h := newHarness(t)
	cat := testutil.SeedCategory(t, h.db, "rivers", "Rivers", nil)
	scope := testutil.SeedScope(t, h.db, "geo", "Geo")
	testutil.SeedItems(t, h.db, 5, true, []uuid.UUID{cat.ID}, []uuid.UUID{scope.ID})
	h.enable(scope.ID)

	pair := ScopeCategoryKey{ScopeID: scope.ID, CategoryID: cat.ID}
	landing := ScopeKey{ScopeID: scope.ID}
	h.publish(events.Event{Kind: events.ScopeCreated, ScopeID: scope.ID})
	require.Len(t, h.active(pair), 1)
	require.Len(t, h.active(landing), 1)

	require.NoError(t, h.db.Delete(scope).Error)
	h.publish(events.Event{Kind: events.ScopeDeleted, ScopeID: scope.ID})
	assert.Empty(t, h.active(pair))
	assert.Empty(t, h.active(landing))
}

func TestItemEventsWithoutPreviousTagsRetire(t *testing.T) {
	tests := []struct {
		name   string
		kind   events.Kind
		mutate func(h *harness, itemID uuid.UUID) error
	}{
		{
			name: "unpublished",
			kind: events.ItemUnpublished,
			mutate: func(h *harness, itemID uuid.UUID) error {
				return h.item.SetStatus(h.dbc(), itemID, classification.ItemStatusDraft)
			},
		},
		{
			name: "deleted",
			kind: events.ItemDeleted,
			mutate: func(h *harness, itemID uuid.UUID) error {
				return h.item.SoftDelete(h.dbc(), itemID)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			animals := testutil.SeedCategory(t, h.db, "animals", "Animals", nil)
			key := CategoryKey{CategoryID: animals.ID}
			items := testutil.SeedItems(t, h.db, 5, false, []uuid.UUID{animals.ID}, nil)
			h.publish(events.Event{Kind: events.ItemSaved, ItemID: items[4].ID})
			created := h.active(key)
			require.Len(t, created, 1)

			require.NoError(t, tt.mutate(h, items[0].ID))
			ev := events.Event{Kind: tt.kind, ItemID: items[0].ID}
			keys, err := h.svc.trigger.AffectedKeys(h.ctx, ev)
			require.NoError(t, err)
			assert.Contains(t, keys, Key(key))

			h.publish(ev)
			assert.Empty(t, h.active(key))
			retired := h.softDeleted(key)
			require.Len(t, retired, 1)
			assert.Equal(t, created[0].ID, retired[0].ID)
		})
	}
}

func TestCategoryDeletedReevaluatesParent(t *testing.T) {
	h := newHarness(t)
	animals := testutil.SeedCategory(t, h.db, "animals", "Animals", nil)
	dogs := testutil.SeedCategory(t, h.db, "dogs", "Dogs", &animals.ID)
	items := testutil.SeedItems(t, h.db, 5, false, []uuid.UUID{animals.ID, dogs.ID}, nil)
	h.publish(events.Event{Kind: events.ItemSaved, ItemID: items[4].ID})

	parent, child := CategoryKey{CategoryID: animals.ID}, CategoryKey{CategoryID: dogs.ID}
	require.Len(t, h.active(child), 1)
	require.Empty(t, h.active(parent))

	require.NoError(t, h.db.Delete(dogs).Error)
	ev := events.Event{Kind: events.CategoryDeleted, CategoryID: dogs.ID}
	keys, err := h.svc.trigger.AffectedKeys(h.ctx, ev)
	require.NoError(t, err)
	assert.Contains(t, keys, Key(parent))

	h.publish(ev)
	assert.Empty(t, h.active(child))
	docs := h.active(parent)
	require.Len(t, docs, 1)
	assert.Equal(t, "/flashcards/animals", docs[0].Path)
}
