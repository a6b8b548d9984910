package classification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/pkg/dbctx"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

type QuizConfigRepo interface {
	GetByCategory(dbc dbctx.Context, categoryID uuid.UUID) (*types.QuizConfig, error)
	Upsert(dbc dbctx.Context, row *types.QuizConfig) error
}

type quizConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizConfigRepo(db *gorm.DB, baseLog *logger.Logger) QuizConfigRepo {
	return &quizConfigRepo{db: db, log: baseLog.With("repo", "QuizConfigRepo")}
}

func (r *quizConfigRepo) GetByCategory(dbc dbctx.Context, categoryID uuid.UUID) (*types.QuizConfig, error) {
	if categoryID == uuid.Nil {
		return nil, nil
	}
	var row types.QuizConfig
	if err := dbc.DB(r.db).Where("category_id = ?", categoryID).Limit(1).Find(&row).Error; err != nil {
		return nil, perrors.MapStore(err)
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *quizConfigRepo) Upsert(dbc dbctx.Context, row *types.QuizConfig) error {
	if row == nil || row.CategoryID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"prompt_type", "answer_type", "updated_at"}),
		}).
		Create(row).Error
	return perrors.MapStore(err)
}
