package pagegen

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/domain/classification"
)

type fakeNodes struct {
	cats    map[uuid.UUID]*types.Category
	scopes  map[uuid.UUID]*types.Scope
	inScope map[uuid.UUID][]uuid.UUID
}

func (f fakeNodes) Category(_ context.Context, id uuid.UUID) (*types.Category, error) {
	return f.cats[id], nil
}

func (f fakeNodes) Scope(_ context.Context, id uuid.UUID) (*types.Scope, error) {
	return f.scopes[id], nil
}

func (f fakeNodes) CategoriesInScope(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	return f.inScope[id], nil
}

type snapKey struct {
	cat   uuid.UUID
	scope uuid.UUID
}

type fakeSnaps map[snapKey]Snapshot

func (f fakeSnaps) Snapshot(_ context.Context, cat uuid.UUID, scope *uuid.UUID) (Snapshot, error) {
	k := snapKey{cat: cat}
	if scope != nil {
		k.scope = *scope
	}
	return f[k], nil
}

type fakeScopeSet map[uuid.UUID]bool

func (f fakeScopeSet) IsEnabled(_ context.Context, id uuid.UUID) (bool, error) { return f[id], nil }

func snap(total, images int, spec types.QuizSpec) Snapshot {
	return Snapshot{Total: total, ImageCapable: images, Spec: spec, WellFormed: spec.WellFormed()}
}

func TestEvaluator(t *testing.T) {
	strict := classification.StrictQuizSpec()
	textual := types.QuizSpec{PromptType: classification.MediaText, AnswerType: classification.MediaAudio}
	broken := types.QuizSpec{PromptType: classification.MediaText, AnswerType: classification.MediaText}

	cat := &types.Category{ID: uuid.New(), Slug: "cats", Name: "Cats"}
	dog := &types.Category{ID: uuid.New(), Slug: "dogs", Name: "dogs"}
	misc := &types.Category{ID: uuid.New(), Slug: "uncategorized", Name: "Misc"}
	on := &types.Scope{ID: uuid.New(), Slug: "on", Name: "On"}
	offScope := &types.Scope{ID: uuid.New(), Slug: "off", Name: "Off"}

	nodes := fakeNodes{
		cats:    map[uuid.UUID]*types.Category{cat.ID: cat, dog.ID: dog, misc.ID: misc},
		scopes:  map[uuid.UUID]*types.Scope{on.ID: on, offScope.ID: offScope},
		inScope: map[uuid.UUID][]uuid.UUID{on.ID: {dog.ID, cat.ID, misc.ID}},
	}
	snaps := fakeSnaps{
		{cat: cat.ID}:                     snap(5, 0, strict),
		{cat: dog.ID}:                     snap(4, 4, strict),
		{cat: cat.ID, scope: on.ID}:       snap(9, 4, strict),
		{cat: dog.ID, scope: on.ID}:       snap(5, 0, textual),
		{cat: misc.ID, scope: on.ID}:      snap(50, 50, strict),
		{cat: cat.ID, scope: offScope.ID}: snap(9, 9, strict),
	}
	eval := NewEvaluator(DefaultConfig(), nodes, snaps, fakeScopeSet{on.ID: true})

	tests := []struct {
		name     string
		key      Key
		eligible bool
		reason   string
	}{
		{"category meets minimum without images", CategoryKey{CategoryID: cat.ID}, true, ReasonEligible},
		{"category below minimum", CategoryKey{CategoryID: dog.ID}, false, ReasonBelowMinimum},
		{"category missing", CategoryKey{CategoryID: uuid.New()}, false, ReasonCategoryMissing},
		{"pair counts images under strict spec", ScopeCategoryKey{ScopeID: on.ID, CategoryID: cat.ID}, false, ReasonBelowMinimum},
		{"pair counts all items for text quizzes", ScopeCategoryKey{ScopeID: on.ID, CategoryID: dog.ID}, true, ReasonEligible},
		{"pair uncategorized", ScopeCategoryKey{ScopeID: on.ID, CategoryID: misc.ID}, false, ReasonUncategorized},
		{"pair disabled scope", ScopeCategoryKey{ScopeID: offScope.ID, CategoryID: cat.ID}, false, ReasonScopeDisabled},
		{"pair missing scope", ScopeCategoryKey{ScopeID: uuid.New(), CategoryID: cat.ID}, false, ReasonScopeMissing},
		{"scope with an eligible pair", ScopeKey{ScopeID: on.ID}, true, ReasonEligible},
		{"scope disabled", ScopeKey{ScopeID: offScope.ID}, false, ReasonScopeDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := eval.Eligible(context.Background(), tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.eligible, d.Eligible)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}

	t.Run("malformed quiz", func(t *testing.T) {
		snaps[snapKey{cat: cat.ID}] = snap(50, 50, broken)
		d, err := eval.Eligible(context.Background(), CategoryKey{CategoryID: cat.ID})
		require.NoError(t, err)
		assert.False(t, d.Eligible)
		assert.Equal(t, ReasonQuizMalformed, d.Reason)
	})

	t.Run("scope pairs", func(t *testing.T) {
		d, err := eval.Eligible(context.Background(), ScopeKey{ScopeID: on.ID})
		require.NoError(t, err)
		require.Len(t, d.Pairs, 1)
		assert.Equal(t, dog.ID, d.Pairs[0].Category.ID)
		assert.Equal(t, 5, d.Pairs[0].Count)
	})
}

func TestScopeCategoryMin(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5, cfg.ScopeCategoryMin())
	cfg.QuizMinItems = 8
	assert.Equal(t, 8, cfg.ScopeCategoryMin())
}
