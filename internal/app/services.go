package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/quizpages/internal/events"
	"github.com/yungbote/quizpages/internal/pagegen"
	"github.com/yungbote/quizpages/internal/pkg/logger"
	"github.com/yungbote/quizpages/internal/seed"
	"github.com/yungbote/quizpages/internal/temporalx/temporalworker"
)

type Services struct {
	Pages     *pagegen.Service
	Bus       *events.Bus
	Scheduler *pagegen.Scheduler
	Temporal  *temporalworker.Runner
	Seed      *seed.Importer
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) (Services, error) {
	log.Info("Wiring services...")
	pages := pagegen.NewService(cfg.Pages, pagegen.Deps{
		DB:          db,
		Categories:  r.Category,
		Scopes:      r.Scope,
		Items:       r.Item,
		QuizConfigs: r.QuizConfig,
		Documents:   r.Document,
		Settings:    r.Setting,
		KV:          c.KV,
		Log:         log,
	})

	bus := events.NewBus(log)
	if err := pages.RegisterTriggers(bus); err != nil {
		return Services{}, fmt.Errorf("register page triggers: %w", err)
	}

	out := Services{
		Pages: pages,
		Bus:   bus,
		Seed:  seed.NewImporter(db, r.Category, r.Scope, r.Item, r.QuizConfig, pages, log),
	}
	switch cfg.Scheduler {
	case SchedulerTicker:
		out.Scheduler = pagegen.NewScheduler(pages, cfg.Pages, log)
	case SchedulerTemporal:
		runner, err := temporalworker.NewRunner(log, cfg.Temporal, c.Temporal, pages)
		if err != nil {
			return Services{}, err
		}
		out.Temporal = runner
	}
	return out, nil
}
