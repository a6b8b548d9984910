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

type ScopeRepo interface {
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Scope, error)
	GetBySlug(dbc dbctx.Context, slug string) (*types.Scope, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Scope, error)
	ListAll(dbc dbctx.Context) ([]*types.Scope, error)
	Create(dbc dbctx.Context, rows []*types.Scope) error
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error
}

type scopeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScopeRepo(db *gorm.DB, baseLog *logger.Logger) ScopeRepo {
	return &scopeRepo{db: db, log: baseLog.With("repo", "ScopeRepo")}
}

func (r *scopeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Scope, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Scope
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *scopeRepo) GetBySlug(dbc dbctx.Context, slug string) (*types.Scope, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	var row types.Scope
	if err := dbc.DB(r.db).Where("slug = ?", slug).Limit(1).Find(&row).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *scopeRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Scope, error) {
	out := make([]*types.Scope, 0)
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Order("slug ASC").Find(&out).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	return out, nil
}

func (r *scopeRepo) ListAll(dbc dbctx.Context) ([]*types.Scope, error) {
	var out []*types.Scope
	if err := dbc.DB(r.db).Order("slug ASC").Find(&out).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	return out, nil
}

func (r *scopeRepo) Create(dbc dbctx.Context, rows []*types.Scope) error {
	if len(rows) == 0 {
		return nil
	}
	return perrors.MapStore(dbc.DB(r.db).Create(&rows).Error)
}

func (r *scopeRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return perrors.MapStore(dbc.DB(r.db).Where("id = ?", id).Delete(&types.Scope{}).Error)
}
