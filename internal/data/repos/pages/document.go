package pages

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/pkg/dbctx"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

// Status filters for ListByKey and ListContainers.
const (
	FilterActive      = types.StatusActive
	FilterSoftDeleted = types.StatusSoftDeleted
	FilterAny         = ""
)

const maxSlugAttempts = 1000

type DocumentRepo interface {
	Create(dbc dbctx.Context, doc *types.ManagedDocument) error
	GetByID(dbc dbctx.Context, id uint64, includeDeleted bool) (*types.ManagedDocument, error)
	GetActiveByPath(dbc dbctx.Context, path string) (*types.ManagedDocument, error)

	// ListByKey returns generated documents tagged with attrs, lowest id first.
	ListByKey(dbc dbctx.Context, attrs types.KeyAttrs, status string) ([]*types.ManagedDocument, error)
	// ListActiveGenerated pages over active generated documents with id > afterID.
	ListActiveGenerated(dbc dbctx.Context, afterID uint64, limit int) ([]*types.ManagedDocument, error)
	ListByScope(dbc dbctx.Context, scopeID uuid.UUID) ([]*types.ManagedDocument, error)
	ListContainers(dbc dbctx.Context, parentID *uint64, slug string, status string) ([]*types.ManagedDocument, error)

	UpdateFields(dbc dbctx.Context, id uint64, fields map[string]interface{}) error
	Restore(dbc dbctx.Context, id uint64, fields map[string]interface{}) error
	SoftDelete(dbc dbctx.Context, ids []uint64) (int64, error)
	Purge(dbc dbctx.Context, ids []uint64) (int64, error)

	// UniqueSlug returns desired, or desired-2, desired-3, ... so that no other active
	// document under parentID uses it. excludeID is ignored when checking.
	UniqueSlug(dbc dbctx.Context, parentID *uint64, desired string, excludeID uint64) (string, error)
	CountByStatus(dbc dbctx.Context) (active int64, softDeleted int64, err error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(dbc dbctx.Context, doc *types.ManagedDocument) error {
	if doc == nil {
		return nil
	}
	if err := dbc.DB(r.db).Create(doc).Error; err != nil {
		return perrors.MapStore(fmt.Errorf("create document %q: %w", doc.Path, err))
	}
	return nil
}

func (r *documentRepo) GetByID(dbc dbctx.Context, id uint64, includeDeleted bool) (*types.ManagedDocument, error) {
	if id == 0 {
		return nil, nil
	}
	q := dbc.DB(r.db)
	if includeDeleted {
		q = q.Unscoped()
	}
	var row types.ManagedDocument
	if err := q.Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *documentRepo) GetActiveByPath(dbc dbctx.Context, path string) (*types.ManagedDocument, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	var row types.ManagedDocument
	if err := dbc.DB(r.db).Where("path = ?", path).Order("id ASC").Limit(1).Find(&row).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func withStatus(q *gorm.DB, status string) *gorm.DB {
	switch status {
	case FilterActive:
		return q
	case FilterSoftDeleted:
		return q.Unscoped().Where("deleted_at IS NOT NULL")
	default:
		return q.Unscoped()
	}
}

func whereKey(q *gorm.DB, attrs types.KeyAttrs) *gorm.DB {
	q = q.Where("role = ? AND key_kind = ?", types.RoleGenerated, attrs.Kind)
	if attrs.CategoryID != nil {
		q = q.Where("key_category_id = ?", *attrs.CategoryID)
	} else {
		q = q.Where("key_category_id IS NULL")
	}
	if attrs.ScopeID != nil {
		q = q.Where("key_scope_id = ?", *attrs.ScopeID)
	} else {
		q = q.Where("key_scope_id IS NULL")
	}
	return q
}

func whereParent(q *gorm.DB, parentID *uint64) *gorm.DB {
	if parentID == nil {
		return q.Where("parent_id IS NULL")
	}
	return q.Where("parent_id = ?", *parentID)
}

func (r *documentRepo) ListByKey(dbc dbctx.Context, attrs types.KeyAttrs, status string) ([]*types.ManagedDocument, error) {
	out := make([]*types.ManagedDocument, 0)
	if strings.TrimSpace(attrs.Kind) == "" {
		return out, nil
	}
	q := whereKey(withStatus(dbc.DB(r.db), status), attrs)
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	return out, nil
}

func (r *documentRepo) ListActiveGenerated(dbc dbctx.Context, afterID uint64, limit int) ([]*types.ManagedDocument, error) {
	if limit <= 0 {
		limit = 200
	}
	out := make([]*types.ManagedDocument, 0, limit)
	err := dbc.DB(r.db).
		Where("role = ? AND id > ?", types.RoleGenerated, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, perrors.MapStore(err)
	}
	return out, nil
}

func (r *documentRepo) ListByScope(dbc dbctx.Context, scopeID uuid.UUID) ([]*types.ManagedDocument, error) {
	out := make([]*types.ManagedDocument, 0)
	if scopeID == uuid.Nil {
		return out, nil
	}
	err := dbc.DB(r.db).Unscoped().
		Where("role = ? AND key_scope_id = ?", types.RoleGenerated, scopeID).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, perrors.MapStore(err)
	}
	return out, nil
}

func (r *documentRepo) ListContainers(dbc dbctx.Context, parentID *uint64, slug string, status string) ([]*types.ManagedDocument, error) {
	out := make([]*types.ManagedDocument, 0)
	q := withStatus(dbc.DB(r.db), status).Where("role = ? AND slug = ?", types.RoleContainer, slug)
	if err := whereParent(q, parentID).Order("id ASC").Find(&out).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	return out, nil
}

func (r *documentRepo) UpdateFields(dbc dbctx.Context, id uint64, fields map[string]interface{}) error {
	if id == 0 || len(fields) == 0 {
		return nil
	}
	err := dbc.DB(r.db).Model(&types.ManagedDocument{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		return perrors.MapStore(fmt.Errorf("update document %d: %w", id, err))
	}
	return nil
}

func (r *documentRepo) Restore(dbc dbctx.Context, id uint64, fields map[string]interface{}) error {
	if id == 0 {
		return nil
	}
	updates := map[string]interface{}{"deleted_at": nil}
	for k, v := range fields {
		updates[k] = v
	}
	err := dbc.DB(r.db).Unscoped().Model(&types.ManagedDocument{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return perrors.MapStore(fmt.Errorf("restore document %d: %w", id, err))
	}
	return nil
}

func (r *documentRepo) SoftDelete(dbc dbctx.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.ManagedDocument{})
	if res.Error != nil {
		return 0, perrors.MapStore(fmt.Errorf("soft delete documents: %w", res.Error))
	}
	return res.RowsAffected, nil
}

func (r *documentRepo) Purge(dbc dbctx.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Unscoped().Where("id IN ?", ids).Delete(&types.ManagedDocument{})
	if res.Error != nil {
		return 0, perrors.MapStore(fmt.Errorf("purge documents: %w", res.Error))
	}
	return res.RowsAffected, nil
}

func (r *documentRepo) UniqueSlug(dbc dbctx.Context, parentID *uint64, desired string, excludeID uint64) (string, error) {
	base := strings.TrimSpace(desired)
	if base == "" {
		return "", fmt.Errorf("unique slug: %w", perrors.ErrInvalidArgument)
	}
	candidate := base
	for n := 2; n <= maxSlugAttempts; n++ {
		var count int64
		q := whereParent(dbc.DB(r.db).Model(&types.ManagedDocument{}), parentID).
			Where("slug = ? AND id <> ?", candidate, excludeID)
		if err := q.Count(&count).Error; err != nil {
			return "", perrors.MapStore(err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return "", fmt.Errorf("unique slug %q: %w", base, perrors.ErrConflict)
}

func (r *documentRepo) CountByStatus(dbc dbctx.Context) (int64, int64, error) {
	var active, all int64
	if err := dbc.DB(r.db).Model(&types.ManagedDocument{}).Where("role = ?", types.RoleGenerated).Count(&active).Error; err != nil {
		return 0, 0, perrors.MapStore(err)
	}
	if err := dbc.DB(r.db).Unscoped().Model(&types.ManagedDocument{}).Where("role = ?", types.RoleGenerated).Count(&all).Error; err != nil {
		return 0, 0, perrors.MapStore(err)
	}
	return active, all - active, nil
}
