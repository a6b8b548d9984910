package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/quizpages/internal/http/handlers"
	httpMW "github.com/yungbote/quizpages/internal/http/middleware"
	"github.com/yungbote/quizpages/internal/observability"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins string
	Metrics     *observability.Metrics

	// AdminMiddleware guards /api/admin when set.
	AdminMiddleware gin.HandlerFunc

	HealthHandler *httpH.HealthHandler
	PagesHandler  *httpH.PagesHandler
	EventHandler  *httpH.EventHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	{
		if cfg.EventHandler != nil {
			api.POST("/events", cfg.EventHandler.Publish)
		}
	}

	admin := api.Group("/admin/pages")
	{
		if cfg.AdminMiddleware != nil {
			admin.Use(cfg.AdminMiddleware)
		}
		if cfg.PagesHandler != nil {
			admin.POST("/sync", cfg.PagesHandler.Sync)
			admin.POST("/sweep", cfg.PagesHandler.Sweep)
			admin.POST("/reconcile", cfg.PagesHandler.Reconcile)
			admin.GET("/scopes", cfg.PagesHandler.ListScopes)
			admin.PUT("/scopes", cfg.PagesHandler.SetScopes)
			admin.POST("/hold", cfg.PagesHandler.Hold)
			admin.DELETE("/hold", cfg.PagesHandler.Release)
			admin.GET("/status", cfg.PagesHandler.Status)
		}
	}

	// Generated pages live at dynamic paths, so resolution is the fallback.
	if cfg.PagesHandler != nil {
		r.NoRoute(cfg.PagesHandler.Resolve)
	}

	return r
}
