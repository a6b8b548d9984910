package classification

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/pkg/dbctx"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

type CategoryRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Category, error)
	// GetByIDIncludingDeleted also returns soft-deleted rows.
	GetByIDIncludingDeleted(dbc dbctx.Context, id uuid.UUID) (*types.Category, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.Category, error)
	ListAll(dbc dbctx.Context) ([]*types.Category, error)
	Count(dbc dbctx.Context) (int64, error)
	Create(dbc dbctx.Context, rows []*types.Category) error
	Update(dbc dbctx.Context, row *types.Category) error
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return &categoryRepo{db: db, log: baseLog.With("repo", "CategoryRepo")}
}

func (r *categoryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Category, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Category
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *categoryRepo) GetByIDIncludingDeleted(dbc dbctx.Context, id uuid.UUID) (*types.Category, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Category
	if err := dbc.DB(r.db).Unscoped().Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *categoryRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.Category, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var row types.Category
	if err := dbc.DB(r.db).Where("slug = ?", slug).Limit(1).Find(&row).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *categoryRepo) ListAll(dbc dbctx.Context) ([]*types.Category, error) {
	var out []*types.Category
	if err := dbc.DB(r.db).Order("name ASC, id ASC").Find(&out).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	return out, nil
}

func (r *categoryRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).Model(&types.Category{}).Count(&n).Error; err != nil {
		return 0, perrors.MapStore(err)
	}
	return n, nil
}

func (r *categoryRepo) Create(dbc dbctx.Context, rows []*types.Category) error {
	if len(rows) == 0 {
		return nil
	}
	return perrors.MapStore(dbc.DB(r.db).Create(&rows).Error)
}

func (r *categoryRepo) Update(dbc dbctx.Context, row *types.Category) error {
	if row == nil || row.ID == uuid.Nil {
		return nil
	}
	err := dbc.DB(r.db).Model(&types.Category{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
		"slug":            row.Slug,
		"name":            row.Name,
		"translated_name": row.TranslatedName,
		"parent_id":       row.ParentID,
	}).Error
	return perrors.MapStore(err)
}

func (r *categoryRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return perrors.MapStore(dbc.DB(r.db).Where("id = ?", id).Delete(&types.Category{}).Error)
}
