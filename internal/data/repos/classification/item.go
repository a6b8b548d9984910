package classification

import (
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/domain/classification"
	"github.com/yungbote/quizpages/internal/pkg/dbctx"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

const inChunk = 500

type ItemRepo interface {
	Create(dbc dbctx.Context, item *types.Item, categoryIDs, scopeIDs []uuid.UUID) error
	SetTags(dbc dbctx.Context, itemID uuid.UUID, categoryIDs, scopeIDs []uuid.UUID) error
	SetStatus(dbc dbctx.Context, itemID uuid.UUID, status string) error
	SoftDelete(dbc dbctx.Context, itemID uuid.UUID) error
	// Tags returns nil when the item is missing, deleted or unpublished.
	Tags(dbc dbctx.Context, itemID uuid.UUID) (*types.ItemTags, error)
	// AssignedTags reads the tag rows whatever the item's status, including after a soft
	// delete. It returns nil when the item has no tags.
	AssignedTags(dbc dbctx.Context, itemID uuid.UUID) (*types.ItemTags, error)
	// TaggedInCategory lists live published items tagged with categoryID (and scopeID when set),
	// each with its full category assignment so callers can resolve deepest categories.
	TaggedInCategory(dbc dbctx.Context, categoryID uuid.UUID, scopeID *uuid.UUID) ([]types.ItemTags, error)
	CategoryIDsInScope(dbc dbctx.Context, scopeID uuid.UUID) ([]uuid.UUID, error)
}

type itemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewItemRepo(db *gorm.DB, baseLog *logger.Logger) ItemRepo {
	return &itemRepo{db: db, log: baseLog.With("repo", "ItemRepo")}
}

func (r *itemRepo) Create(dbc dbctx.Context, item *types.Item, categoryIDs, scopeIDs []uuid.UUID) error {
	if item == nil {
		return nil
	}
	t := dbc.DB(r.db)
	err := t.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		return writeTags(tx, item.ID, categoryIDs, scopeIDs)
	})
	return perrors.MapStore(err)
}

func (r *itemRepo) SetTags(dbc dbctx.Context, itemID uuid.UUID, categoryIDs, scopeIDs []uuid.UUID) error {
	if itemID == uuid.Nil {
		return nil
	}
	err := dbc.DB(r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", itemID).Delete(&types.ItemCategory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", itemID).Delete(&types.ItemScope{}).Error; err != nil {
			return err
		}
		return writeTags(tx, itemID, categoryIDs, scopeIDs)
	})
	return perrors.MapStore(err)
}

func writeTags(tx *gorm.DB, itemID uuid.UUID, categoryIDs, scopeIDs []uuid.UUID) error {
	cats := make([]types.ItemCategory, 0, len(categoryIDs))
	for _, id := range dedupe(categoryIDs) {
		cats = append(cats, types.ItemCategory{ItemID: itemID, CategoryID: id})
	}
	if len(cats) > 0 {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cats).Error; err != nil {
			return err
		}
	}
	scopes := make([]types.ItemScope, 0, len(scopeIDs))
	for _, id := range dedupe(scopeIDs) {
		scopes = append(scopes, types.ItemScope{ItemID: itemID, ScopeID: id})
	}
	if len(scopes) > 0 {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&scopes).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *itemRepo) SetStatus(dbc dbctx.Context, itemID uuid.UUID, status string) error {
	return perrors.MapStore(dbc.DB(r.db).Model(&types.Item{}).Where("id = ?", itemID).Update("status", status).Error)
}

func (r *itemRepo) SoftDelete(dbc dbctx.Context, itemID uuid.UUID) error {
	return perrors.MapStore(dbc.DB(r.db).Where("id = ?", itemID).Delete(&types.Item{}).Error)
}

func (r *itemRepo) Tags(dbc dbctx.Context, itemID uuid.UUID) (*types.ItemTags, error) {
	if itemID == uuid.Nil {
		return nil, nil
	}
	t := dbc.DB(r.db)
	var item types.Item
	if err := t.Where("id = ? AND status = ?", itemID, classification.ItemStatusPublished).Limit(1).Find(&item).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	if item.ID == uuid.Nil {
		return nil, nil
	}
	out := &types.ItemTags{
		ItemID:       item.ID,
		ImageCapable: item.ImageCapable(),
		AudioCapable: item.AudioCapable(),
	}
	if err := t.Model(&types.ItemCategory{}).Where("item_id = ?", itemID).Order("category_id ASC").Pluck("category_id", &out.CategoryIDs).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	if err := t.Model(&types.ItemScope{}).Where("item_id = ?", itemID).Order("scope_id ASC").Pluck("scope_id", &out.ScopeIDs).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	return out, nil
}

func (r *itemRepo) AssignedTags(dbc dbctx.Context, itemID uuid.UUID) (*types.ItemTags, error) {
	if itemID == uuid.Nil {
		return nil, nil
	}
	t := dbc.DB(r.db)
	out := &types.ItemTags{ItemID: itemID}
	if err := t.Model(&types.ItemCategory{}).Where("item_id = ?", itemID).Order("category_id ASC").Pluck("category_id", &out.CategoryIDs).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	if err := t.Model(&types.ItemScope{}).Where("item_id = ?", itemID).Order("scope_id ASC").Pluck("scope_id", &out.ScopeIDs).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	if len(out.CategoryIDs) == 0 && len(out.ScopeIDs) == 0 {
		return nil, nil
	}
	return out, nil
}

type taggedRow struct {
	ID       uuid.UUID
	ImageURL string
	AudioURL string
}

func (r *itemRepo) TaggedInCategory(dbc dbctx.Context, categoryID uuid.UUID, scopeID *uuid.UUID) ([]types.ItemTags, error) {
	out := make([]types.ItemTags, 0)
	if categoryID == uuid.Nil {
		return out, nil
	}
	t := dbc.DB(r.db)
	q := t.Table("item").
		Select("item.id AS id, item.image_url AS image_url, item.audio_url AS audio_url").
		Joins("JOIN item_category ic ON ic.item_id = item.id AND ic.category_id = ?", categoryID).
		Where("item.deleted_at IS NULL AND item.status = ?", classification.ItemStatusPublished)
	if scopeID != nil {
		q = q.Joins("JOIN item_scope isc ON isc.item_id = item.id AND isc.scope_id = ?", *scopeID)
	}
	var rows []taggedRow
	if err := q.Order("item.id ASC").Scan(&rows).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	cats := map[uuid.UUID][]uuid.UUID{}
	for start := 0; start < len(ids); start += inChunk {
		end := start + inChunk
		if end > len(ids) {
			end = len(ids)
		}
		var links []types.ItemCategory
		if err := t.Where("item_id IN ?", ids[start:end]).Find(&links).Error; err != nil {
			return nil, perrors.MapStore(err)
		}
		for _, l := range links {
			cats[l.ItemID] = append(cats[l.ItemID], l.CategoryID)
		}
	}

	for _, row := range rows {
		item := types.Item{ImageURL: row.ImageURL, AudioURL: row.AudioURL}
		out = append(out, types.ItemTags{
			ItemID:       row.ID,
			ImageCapable: item.ImageCapable(),
			AudioCapable: item.AudioCapable(),
			CategoryIDs:  cats[row.ID],
		})
	}
	return out, nil
}

func (r *itemRepo) CategoryIDsInScope(dbc dbctx.Context, scopeID uuid.UUID) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0)
	if scopeID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).Table("item_category ic").
		Joins("JOIN item_scope isc ON isc.item_id = ic.item_id AND isc.scope_id = ?", scopeID).
		Joins("JOIN item ON item.id = ic.item_id").
		Where("item.deleted_at IS NULL AND item.status = ?", classification.ItemStatusPublished).
		Distinct("ic.category_id").
		Pluck("ic.category_id", &out).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
