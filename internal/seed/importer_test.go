package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/quizpages/internal/data/repos"
	"github.com/yungbote/quizpages/internal/data/repos/testutil"
	"github.com/yungbote/quizpages/internal/pagegen"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
	"github.com/yungbote/quizpages/internal/platform/kv"
)

func newImporter(t *testing.T) (*Importer, *pagegen.Service) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	cats := repos.NewCategoryRepo(db, log)
	scopes := repos.NewScopeRepo(db, log)
	items := repos.NewItemRepo(db, log)
	quiz := repos.NewQuizConfigRepo(db, log)
	svc := pagegen.NewService(pagegen.DefaultConfig(), pagegen.Deps{
		DB:          db,
		Categories:  cats,
		Scopes:      scopes,
		Items:       items,
		QuizConfigs: quiz,
		Documents:   repos.NewDocumentRepo(db, log),
		Settings:    repos.NewSettingRepo(db, log),
		KV:          kv.NewMemory(),
		Log:         log,
	})
	return NewImporter(db, cats, scopes, items, quiz, svc, log), svc
}

func TestImportClassroomFixture(t *testing.T) {
	ctx := context.Background()
	im, svc := newImporter(t)

	f, err := Load(strings.NewReader(classroomFixture))
	require.NoError(t, err)

	res, err := im.Import(ctx, f)
	require.NoError(t, err)
	require.Equal(t, 3, res.Categories)
	require.Equal(t, 1, res.Scopes)
	require.Equal(t, 11, res.Items)
	require.Equal(t, 1, res.QuizConfigs)
	require.Zero(t, res.Sync.Failed)

	held, _, err := svc.Held(ctx)
	require.NoError(t, err)
	require.False(t, held)

	_, ok, err := svc.LastFullSync(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	scopes, err := svc.EnabledScopes(ctx)
	require.NoError(t, err)
	require.Len(t, scopes, 1)
	require.Equal(t, "grade-2", scopes[0].Slug)

	landing, err := svc.Resolve(ctx, "/grade-2")
	require.NoError(t, err)
	require.NotNil(t, landing.KeyScopeID)
	require.Equal(t, scopes[0].ID, *landing.KeyScopeID)

	pair, err := svc.Resolve(ctx, "/grade-2/mammals")
	require.NoError(t, err)
	require.Equal(t, string(pagegen.KindScopeCategory), pair.KeyKind)

	// A second import reuses categories and scopes by slug.
	again, err := im.Import(ctx, &Fixture{Categories: f.Categories, Scopes: f.Scopes})
	require.NoError(t, err)
	require.Zero(t, again.Categories)
	require.Zero(t, again.Scopes)
}

func TestImportUnknownReferenceReleasesHold(t *testing.T) {
	ctx := context.Background()
	im, svc := newImporter(t)

	_, err := im.Import(ctx, &Fixture{
		Items: []ItemRow{{Title: "Orphan", Categories: []string{"missing"}}},
	})
	require.ErrorIs(t, err, perrors.ErrNotFound)

	held, _, err := svc.Held(ctx)
	require.NoError(t, err)
	require.False(t, held)

	_, ok, err := svc.LastFullSync(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLoadRejectsBadFixtures(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{name: "unknown field", yaml: "categories:\n  - slug: a\n    name: A\n    colour: red\n"},
		{name: "duplicate category", yaml: "categories:\n  - slug: a\n    name: A\n    children:\n      - slug: a\n        name: Again\n"},
		{name: "scope without name", yaml: "scopes:\n  - slug: grade-1\n"},
		{name: "negative count", yaml: "items:\n  - title: X\n    count: -1\n"},
		{name: "incomplete quiz", yaml: "quiz_configs:\n  - category: words\n    prompt: text\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoadEmpty(t *testing.T) {
	f, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, f.Categories)
}
