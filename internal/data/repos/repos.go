package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/quizpages/internal/data/repos/classification"
	"github.com/yungbote/quizpages/internal/data/repos/pages"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

type CategoryRepo = classification.CategoryRepo
type ScopeRepo = classification.ScopeRepo
type ItemRepo = classification.ItemRepo
type QuizConfigRepo = classification.QuizConfigRepo

type DocumentRepo = pages.DocumentRepo
type SettingRepo = pages.SettingRepo

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return classification.NewCategoryRepo(db, baseLog)
}
func NewScopeRepo(db *gorm.DB, baseLog *logger.Logger) ScopeRepo {
	return classification.NewScopeRepo(db, baseLog)
}
func NewItemRepo(db *gorm.DB, baseLog *logger.Logger) ItemRepo {
	return classification.NewItemRepo(db, baseLog)
}
func NewQuizConfigRepo(db *gorm.DB, baseLog *logger.Logger) QuizConfigRepo {
	return classification.NewQuizConfigRepo(db, baseLog)
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return pages.NewDocumentRepo(db, baseLog)
}
func NewSettingRepo(db *gorm.DB, baseLog *logger.Logger) SettingRepo {
	return pages.NewSettingRepo(db, baseLog)
}
