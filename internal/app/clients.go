package app

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/quizpages/internal/clients/redis"
	"github.com/yungbote/quizpages/internal/platform/kv"
	"github.com/yungbote/quizpages/internal/pkg/logger"
	"github.com/yungbote/quizpages/internal/temporalx"
)

type Clients struct {
	Redis    *goredis.Client
	KV       kv.Store
	Temporal temporalsdkclient.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis backs the markers and versions when configured; a single replica can run on
	// process memory.
	rdb, err := redis.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	var store kv.Store
	if rdb != nil {
		store = redis.NewKVStore(rdb, cfg.KVPrefix, log)
	} else {
		log.Warn("REDIS_ADDR not set; using in-process markers (single replica only)")
		store = kv.NewMemory()
	}

	var tc temporalsdkclient.Client
	if cfg.Scheduler == SchedulerTemporal {
		tc, err = temporalx.NewClient(cfg.Temporal, log)
		if err != nil {
			if rdb != nil {
				_ = rdb.Close()
			}
			return Clients{}, fmt.Errorf("init temporal: %w", err)
		}
	}
	return Clients{Redis: rdb, KV: store, Temporal: tc}, nil
}

func (c Clients) Close() {
	if c.Temporal != nil {
		c.Temporal.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
