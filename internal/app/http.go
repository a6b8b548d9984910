package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/quizpages/internal/http"
	httpH "github.com/yungbote/quizpages/internal/http/handlers"
	httpMW "github.com/yungbote/quizpages/internal/http/middleware"
	"github.com/yungbote/quizpages/internal/observability"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Pages  *httpH.PagesHandler
	Event  *httpH.EventHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.Pinger{
		"db": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if clients.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return clients.Redis.Ping(ctx).Err() }
	}
	return Handlers{
		Health: httpH.NewHealthHandler(checks),
		Pages:  httpH.NewPagesHandler(log, services.Pages),
		Event:  httpH.NewEventHandler(log, services.Bus),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:             log,
		ServiceName:     cfg.ServiceName,
		CORSOrigins:     cfg.CORSOrigins,
		Metrics:         metrics,
		AdminMiddleware: httpMW.AdminToken(cfg.AdminToken),
		HealthHandler:   handlers.Health,
		PagesHandler:    handlers.Pages,
		EventHandler:    handlers.Event,
	})
}
