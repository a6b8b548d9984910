package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/quizpages/internal/data/repos"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

type Repos struct {
	Category   repos.CategoryRepo
	Scope      repos.ScopeRepo
	Item       repos.ItemRepo
	QuizConfig repos.QuizConfigRepo
	Document   repos.DocumentRepo
	Setting    repos.SettingRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Category:   repos.NewCategoryRepo(db, log),
		Scope:      repos.NewScopeRepo(db, log),
		Item:       repos.NewItemRepo(db, log),
		QuizConfig: repos.NewQuizConfigRepo(db, log),
		Document:   repos.NewDocumentRepo(db, log),
		Setting:    repos.NewSettingRepo(db, log),
	}
}
