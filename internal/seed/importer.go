package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/quizpages/internal/data/repos"
	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/domain/classification"
	"github.com/yungbote/quizpages/internal/pagegen"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
	"github.com/yungbote/quizpages/internal/pkg/dbctx"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

// Pages is what the importer needs from the generator.
type Pages interface {
	HoldSync(ctx context.Context, ttl time.Duration) error
	ReleaseHold(ctx context.Context) error
	SetEnabledScopes(ctx context.Context, ids []uuid.UUID) (pagegen.Summary, error)
	FullResync(ctx context.Context) (pagegen.Summary, error)
}

type Importer struct {
	db          *gorm.DB
	categories  repos.CategoryRepo
	scopes      repos.ScopeRepo
	items       repos.ItemRepo
	quizConfigs repos.QuizConfigRepo
	pages       Pages
	log         *logger.Logger
}

func NewImporter(db *gorm.DB, categories repos.CategoryRepo, scopes repos.ScopeRepo, items repos.ItemRepo, quizConfigs repos.QuizConfigRepo, pages Pages, baseLog *logger.Logger) *Importer {
	return &Importer{
		db:          db,
		categories:  categories,
		scopes:      scopes,
		items:       items,
		quizConfigs: quizConfigs,
		pages:       pages,
		log:         baseLog.With("service", "SeedImporter"),
	}
}

type Result struct {
	Categories  int             `json:"categories"`
	Scopes      int             `json:"scopes"`
	Items       int             `json:"items"`
	QuizConfigs int             `json:"quiz_configs"`
	Sync        pagegen.Summary `json:"sync"`
}

// Import writes f with generation held, then enables the fixture's scopes and runs a
// full resync. Categories and scopes that already exist are matched by slug and left
// as is; items are always created.
func (im *Importer) Import(ctx context.Context, f *Fixture) (Result, error) {
	var res Result
	if f == nil {
		return res, nil
	}
	if err := im.pages.HoldSync(ctx, 0); err != nil {
		return res, fmt.Errorf("hold sync: %w", err)
	}
	released := false
	defer func() {
		if !released {
			if err := im.pages.ReleaseHold(context.WithoutCancel(ctx)); err != nil {
				im.log.Warn("Failed to release sync hold", "error", err)
			}
		}
	}()

	var enabled []uuid.UUID
	err := im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		catIDs := map[string]uuid.UUID{}
		if err := im.importCategories(dbc, f.Categories, nil, catIDs, &res); err != nil {
			return err
		}
		scopeIDs := map[string]uuid.UUID{}
		if err := im.importScopes(dbc, f.Scopes, scopeIDs, &res); err != nil {
			return err
		}
		if err := im.importItems(dbc, f.Items, catIDs, scopeIDs, &res); err != nil {
			return err
		}
		for _, q := range f.QuizConfigs {
			cid, err := im.categoryID(dbc, q.Category, catIDs)
			if err != nil {
				return err
			}
			row := &types.QuizConfig{CategoryID: cid, PromptType: strings.TrimSpace(q.Prompt), AnswerType: strings.TrimSpace(q.Answer)}
			if err := im.quizConfigs.Upsert(dbc, row); err != nil {
				return fmt.Errorf("quiz config %s: %w", q.Category, err)
			}
			res.QuizConfigs++
		}
		for _, slug := range f.EnabledScopes {
			sid, err := im.scopeID(dbc, slug, scopeIDs)
			if err != nil {
				return err
			}
			enabled = append(enabled, sid)
		}
		return nil
	})
	if err != nil {
		return res, perrors.MapStore(err)
	}
	im.log.Info("Fixture imported", "categories", res.Categories, "scopes", res.Scopes, "items", res.Items, "quiz_configs", res.QuizConfigs)

	released = true
	if err := im.pages.ReleaseHold(ctx); err != nil {
		return res, fmt.Errorf("release hold: %w", err)
	}
	if f.EnabledScopes != nil {
		if _, err := im.pages.SetEnabledScopes(ctx, enabled); err != nil {
			return res, fmt.Errorf("enable scopes: %w", err)
		}
	}
	sum, err := im.pages.FullResync(ctx)
	if err != nil {
		return res, fmt.Errorf("full resync: %w", err)
	}
	res.Sync = sum
	return res, nil
}

func (im *Importer) importCategories(dbc dbctx.Context, nodes []CategoryNode, parent *uuid.UUID, ids map[string]uuid.UUID, res *Result) error {
	for _, n := range nodes {
		slug := strings.TrimSpace(n.Slug)
		existing, err := im.categories.GetBySlug(dbc, slug)
		if err != nil {
			return err
		}
		id := uuid.Nil
		if existing != nil {
			id = existing.ID
		} else {
			row := &types.Category{
				ID:             uuid.New(),
				Slug:           slug,
				Name:           strings.TrimSpace(n.Name),
				TranslatedName: strings.TrimSpace(n.TranslatedName),
				ParentID:       parent,
			}
			if err := im.categories.Create(dbc, []*types.Category{row}); err != nil {
				return fmt.Errorf("category %s: %w", slug, err)
			}
			id = row.ID
			res.Categories++
		}
		ids[slug] = id
		pid := id
		if err := im.importCategories(dbc, n.Children, &pid, ids, res); err != nil {
			return err
		}
	}
	return nil
}

func (im *Importer) importScopes(dbc dbctx.Context, rows []ScopeRow, ids map[string]uuid.UUID, res *Result) error {
	for _, s := range rows {
		slug := strings.TrimSpace(s.Slug)
		existing, err := im.scopes.GetBySlug(dbc, slug)
		if err != nil {
			return err
		}
		if existing != nil {
			ids[slug] = existing.ID
			continue
		}
		row := &types.Scope{ID: uuid.New(), Slug: slug, Name: strings.TrimSpace(s.Name), TranslatedName: strings.TrimSpace(s.TranslatedName)}
		if err := im.scopes.Create(dbc, []*types.Scope{row}); err != nil {
			return fmt.Errorf("scope %s: %w", slug, err)
		}
		ids[slug] = row.ID
		res.Scopes++
	}
	return nil
}

func (im *Importer) importItems(dbc dbctx.Context, rows []ItemRow, catIDs, scopeIDs map[string]uuid.UUID, res *Result) error {
	for _, it := range rows {
		cats := make([]uuid.UUID, 0, len(it.Categories))
		for _, slug := range it.Categories {
			id, err := im.categoryID(dbc, slug, catIDs)
			if err != nil {
				return err
			}
			cats = append(cats, id)
		}
		scopes := make([]uuid.UUID, 0, len(it.Scopes))
		for _, slug := range it.Scopes {
			id, err := im.scopeID(dbc, slug, scopeIDs)
			if err != nil {
				return err
			}
			scopes = append(scopes, id)
		}
		status := classification.ItemStatusPublished
		if it.Draft {
			status = classification.ItemStatusDraft
		}
		n := it.Count
		if n == 0 {
			n = 1
		}
		for i := 1; i <= n; i++ {
			title := strings.TrimSpace(it.Title)
			if it.Count > 0 {
				title = fmt.Sprintf("%s %d", title, i)
			}
			row := &types.Item{ID: uuid.New(), Title: title, ImageURL: it.ImageURL, AudioURL: it.AudioURL, Status: status}
			if err := im.items.Create(dbc, row, cats, scopes); err != nil {
				return fmt.Errorf("item %s: %w", title, err)
			}
			res.Items++
		}
	}
	return nil
}

func (im *Importer) categoryID(dbc dbctx.Context, slug string, known map[string]uuid.UUID) (uuid.UUID, error) {
	slug = strings.TrimSpace(slug)
	if id, ok := known[slug]; ok {
		return id, nil
	}
	row, err := im.categories.GetBySlug(dbc, slug)
	if err != nil {
		return uuid.Nil, err
	}
	if row == nil {
		return uuid.Nil, fmt.Errorf("category %q: %w", slug, perrors.ErrNotFound)
	}
	known[slug] = row.ID
	return row.ID, nil
}

func (im *Importer) scopeID(dbc dbctx.Context, slug string, known map[string]uuid.UUID) (uuid.UUID, error) {
	slug = strings.TrimSpace(slug)
	if id, ok := known[slug]; ok {
		return id, nil
	}
	row, err := im.scopes.GetBySlug(dbc, slug)
	if err != nil {
		return uuid.Nil, err
	}
	if row == nil {
		return uuid.Nil, fmt.Errorf("scope %q: %w", slug, perrors.ErrNotFound)
	}
	known[slug] = row.ID
	return row.ID, nil
}
