package pagegen

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/quizpages/internal/data/repos"
	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/domain/classification"
	"github.com/yungbote/quizpages/internal/pkg/dbctx"
)

// Classification is the read side of the classification subsystem. Missing or
// soft-deleted nodes are reported as nil, never as errors.
type Classification interface {
	Category(ctx context.Context, id uuid.UUID) (*types.Category, error)
	// CategoryIncludingDeleted is Category without the soft-delete filter, for reading a
	// deleted node's last parent.
	CategoryIncludingDeleted(ctx context.Context, id uuid.UUID) (*types.Category, error)
	CategoryBySlug(ctx context.Context, slug string) (*types.Category, error)
	Scope(ctx context.Context, id uuid.UUID) (*types.Scope, error)
	ScopeBySlug(ctx context.Context, slug string) (*types.Scope, error)
	Tree(ctx context.Context) (*types.CategoryTree, error)
	CategoryCount(ctx context.Context) (int64, error)
	// ItemsInCategory lists live items tagged with categoryID (and scopeID when set).
	ItemsInCategory(ctx context.Context, categoryID uuid.UUID, scopeID *uuid.UUID) ([]types.ItemTags, error)
	CategoriesInScope(ctx context.Context, scopeID uuid.UUID) ([]uuid.UUID, error)
	ItemTags(ctx context.Context, itemID uuid.UUID) (*types.ItemTags, error)
	// AssignedTags returns an item's tag rows even when it is unpublished or deleted.
	AssignedTags(ctx context.Context, itemID uuid.UUID) (*types.ItemTags, error)
}

// QuizRules supplies per-category quiz configuration. ok is false when none is configured.
type QuizRules interface {
	QuizSpec(ctx context.Context, categoryID uuid.UUID) (spec types.QuizSpec, ok bool, err error)
}

type repoClassification struct {
	categories repos.CategoryRepo
	scopes     repos.ScopeRepo
	items      repos.ItemRepo
}

// NewRepoClassification reads classification state straight from the gorm repositories.
func NewRepoClassification(categories repos.CategoryRepo, scopes repos.ScopeRepo, items repos.ItemRepo) Classification {
	return &repoClassification{categories: categories, scopes: scopes, items: items}
}

func dbcOf(ctx context.Context) dbctx.Context { return dbctx.Context{Ctx: ctx} }

func (c *repoClassification) Category(ctx context.Context, id uuid.UUID) (*types.Category, error) {
	return c.categories.GetByID(dbcOf(ctx), id)
}

func (c *repoClassification) CategoryIncludingDeleted(ctx context.Context, id uuid.UUID) (*types.Category, error) {
	return c.categories.GetByIDIncludingDeleted(dbcOf(ctx), id)
}

func (c *repoClassification) CategoryBySlug(ctx context.Context, slug string) (*types.Category, error) {
	return c.categories.GetBySlug(dbcOf(ctx), slug)
}

func (c *repoClassification) Scope(ctx context.Context, id uuid.UUID) (*types.Scope, error) {
	return c.scopes.GetByID(dbcOf(ctx), id)
}

func (c *repoClassification) ScopeBySlug(ctx context.Context, slug string) (*types.Scope, error) {
	return c.scopes.GetBySlug(dbcOf(ctx), slug)
}

func (c *repoClassification) Tree(ctx context.Context) (*types.CategoryTree, error) {
	rows, err := c.categories.ListAll(dbcOf(ctx))
	if err != nil {
		return nil, err
	}
	return classification.NewTree(rows), nil
}

func (c *repoClassification) CategoryCount(ctx context.Context) (int64, error) {
	return c.categories.Count(dbcOf(ctx))
}

func (c *repoClassification) ItemsInCategory(ctx context.Context, categoryID uuid.UUID, scopeID *uuid.UUID) ([]types.ItemTags, error) {
	return c.items.TaggedInCategory(dbcOf(ctx), categoryID, scopeID)
}

func (c *repoClassification) CategoriesInScope(ctx context.Context, scopeID uuid.UUID) ([]uuid.UUID, error) {
	return c.items.CategoryIDsInScope(dbcOf(ctx), scopeID)
}

func (c *repoClassification) ItemTags(ctx context.Context, itemID uuid.UUID) (*types.ItemTags, error) {
	return c.items.Tags(dbcOf(ctx), itemID)
}

func (c *repoClassification) AssignedTags(ctx context.Context, itemID uuid.UUID) (*types.ItemTags, error) {
	return c.items.AssignedTags(dbcOf(ctx), itemID)
}

type repoQuizRules struct {
	configs repos.QuizConfigRepo
}

func NewRepoQuizRules(configs repos.QuizConfigRepo) QuizRules {
	return &repoQuizRules{configs: configs}
}

func (r *repoQuizRules) QuizSpec(ctx context.Context, categoryID uuid.UUID) (types.QuizSpec, bool, error) {
	row, err := r.configs.GetByCategory(dbcOf(ctx), categoryID)
	if err != nil {
		return types.QuizSpec{}, false, err
	}
	if row == nil {
		return types.QuizSpec{}, false, nil
	}
	return row.Spec(), true, nil
}
