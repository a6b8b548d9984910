package pages

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/quizpages/internal/data/repos/testutil"
	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/pkg/dbctx"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
)

func TestDocumentRepo(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewDocumentRepo(db, testutil.Logger(t))

	root := &types.ManagedDocument{Role: types.RoleContainer, Slug: "flashcards", Path: "/flashcards", Title: "Flashcards"}
	if err := repo.Create(dbc, root); err != nil {
		t.Fatalf("Create container: %v", err)
	}
	catID := uuid.New()
	attrs := types.KeyAttrs{Kind: "category", CategoryID: &catID}

	newDoc := func(slug string) *types.ManagedDocument {
		return &types.ManagedDocument{
			Role:          types.RoleGenerated,
			KeyKind:       attrs.Kind,
			KeyCategoryID: attrs.CategoryID,
			ParentID:      testutil.PtrUint64(root.ID),
			Slug:          slug,
			Path:          "/flashcards/" + slug,
			Title:         "Animals",
		}
	}

	first := newDoc("animals")
	if err := repo.Create(dbc, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Active siblings cannot share a slug.
	if err := repo.Create(dbc, newDoc("animals")); !errors.Is(err, perrors.ErrConflict) {
		t.Fatalf("Create duplicate slug: expected ErrConflict, got %v", err)
	}

	slug, err := repo.UniqueSlug(dbc, &root.ID, "animals", 0)
	if err != nil || slug != "animals-2" {
		t.Fatalf("UniqueSlug: slug=%q err=%v", slug, err)
	}
	if slug, err := repo.UniqueSlug(dbc, &root.ID, "animals", first.ID); err != nil || slug != "animals" {
		t.Fatalf("UniqueSlug excluding self: slug=%q err=%v", slug, err)
	}
	second := newDoc("animals-2")
	if err := repo.Create(dbc, second); err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if slug, _ := repo.UniqueSlug(dbc, &root.ID, "animals", 0); slug != "animals-3" {
		t.Fatalf("UniqueSlug: expected animals-3, got %q", slug)
	}

	active, err := repo.ListByKey(dbc, attrs, FilterActive)
	if err != nil || len(active) != 2 || active[0].ID != first.ID {
		t.Fatalf("ListByKey active: err=%v len=%d", err, len(active))
	}
	other := uuid.New()
	if rows, _ := repo.ListByKey(dbc, types.KeyAttrs{Kind: "category", CategoryID: &other}, FilterAny); len(rows) != 0 {
		t.Fatalf("ListByKey other key: expected 0, got %d", len(rows))
	}

	n, err := repo.SoftDelete(dbc, []uint64{first.ID, second.ID})
	if err != nil || n != 2 {
		t.Fatalf("SoftDelete: n=%d err=%v", n, err)
	}
	// Soft-deleted slugs are free again.
	if slug, _ := repo.UniqueSlug(dbc, &root.ID, "animals", 0); slug != "animals" {
		t.Fatalf("UniqueSlug after delete: expected animals, got %q", slug)
	}
	if n, _ := repo.SoftDelete(dbc, []uint64{first.ID}); n != 0 {
		t.Fatalf("SoftDelete twice: expected 0, got %d", n)
	}

	deleted, err := repo.ListByKey(dbc, attrs, FilterSoftDeleted)
	if err != nil || len(deleted) != 2 || deleted[0].Status() != types.StatusSoftDeleted {
		t.Fatalf("ListByKey soft deleted: err=%v len=%d", err, len(deleted))
	}

	if err := repo.Restore(dbc, first.ID, map[string]interface{}{"title": "Animals!"}); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, err := repo.GetByID(dbc, first.ID, false)
	if err != nil || got == nil || got.Title != "Animals!" || got.Status() != types.StatusActive {
		t.Fatalf("GetByID after restore: err=%v got=%+v", err, got)
	}
	if byPath, _ := repo.GetActiveByPath(dbc, "/flashcards/animals"); byPath == nil || byPath.ID != first.ID {
		t.Fatalf("GetActiveByPath: got %+v", byPath)
	}

	if n, err := repo.Purge(dbc, []uint64{second.ID}); err != nil || n != 1 {
		t.Fatalf("Purge: n=%d err=%v", n, err)
	}
	if gone, _ := repo.GetByID(dbc, second.ID, true); gone != nil {
		t.Fatalf("Purge: row still present")
	}

	page, err := repo.ListActiveGenerated(dbc, 0, 10)
	if err != nil || len(page) != 1 || page[0].ID != first.ID {
		t.Fatalf("ListActiveGenerated: err=%v len=%d", err, len(page))
	}
	if page, _ := repo.ListActiveGenerated(dbc, first.ID, 10); len(page) != 0 {
		t.Fatalf("ListActiveGenerated after cursor: expected 0, got %d", len(page))
	}

	containers, err := repo.ListContainers(dbc, nil, "flashcards", FilterActive)
	if err != nil || len(containers) != 1 || containers[0].ID != root.ID {
		t.Fatalf("ListContainers: err=%v len=%d", err, len(containers))
	}

	act, del, err := repo.CountByStatus(dbc)
	if err != nil || act != 1 || del != 0 {
		t.Fatalf("CountByStatus: active=%d deleted=%d err=%v", act, del, err)
	}
}

func TestSettingRepo(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewSettingRepo(db, testutil.Logger(t))

	var scopes []string
	ok, err := repo.Get(dbc, types.SettingEnabledScopes, &scopes)
	if err != nil || ok {
		t.Fatalf("Get unset: ok=%v err=%v", ok, err)
	}

	if err := repo.Put(dbc, types.SettingEnabledScopes, []string{"a"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := repo.Put(dbc, types.SettingEnabledScopes, []string{"a", "b"}); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	ok, err = repo.Get(dbc, types.SettingEnabledScopes, &scopes)
	if err != nil || !ok || len(scopes) != 2 || scopes[1] != "b" {
		t.Fatalf("Get: ok=%v err=%v scopes=%v", ok, err, scopes)
	}

	if err := repo.Put(dbc, " ", 1); !errors.Is(err, perrors.ErrInvalidArgument) {
		t.Fatalf("Put empty key: expected ErrInvalidArgument, got %v", err)
	}
}
