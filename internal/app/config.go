package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/quizpages/internal/pagegen"
	"github.com/yungbote/quizpages/internal/pkg/logger"
	"github.com/yungbote/quizpages/internal/temporalx"
	"github.com/yungbote/quizpages/internal/utils"
)

const (
	SchedulerTicker   = "ticker"
	SchedulerTemporal = "temporal"
	SchedulerOff      = "off"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string

	Port        string
	CORSOrigins string
	AdminToken  string
	KVPrefix    string

	// Scheduler picks what drives the periodic full resync.
	Scheduler string

	Pages    pagegen.Config
	Temporal temporalx.Config
}

func LoadConfig(log *logger.Logger) (Config, error) {
	pages, err := pagegen.LoadConfig()
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		ServiceName: utils.GetEnv("SERVICE_NAME", "quizpages", log),
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("VERSION", "dev", log),
		Port:        utils.GetEnv("PORT", "8080", log),
		CORSOrigins: utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log),
		AdminToken:  utils.GetEnv("ADMIN_TOKEN", "", log),
		KVPrefix:    utils.GetEnv("KV_PREFIX", "quizpages:", log),
		Scheduler:   strings.ToLower(utils.GetEnv("PAGEGEN_SCHEDULER", SchedulerTicker, log)),
		Pages:       pages,
		Temporal:    temporalx.LoadConfig(log),
	}
	switch cfg.Scheduler {
	case SchedulerTicker, SchedulerOff:
	case SchedulerTemporal:
		if !cfg.Temporal.Enabled() {
			return Config{}, fmt.Errorf("PAGEGEN_SCHEDULER=temporal requires TEMPORAL_ADDRESS")
		}
	default:
		return Config{}, fmt.Errorf("unknown PAGEGEN_SCHEDULER %q", cfg.Scheduler)
	}
	return cfg, nil
}
