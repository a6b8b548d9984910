package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/quizpages/internal/platform/kv"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

const defaultPrefix = "quizpages:"

type kvStore struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
}

// NewKVStore backs kv.Store with redis so markers and versions are shared by every instance.
func NewKVStore(rdb goredis.UniversalClient, prefix string, log *logger.Logger) kv.Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &kvStore{log: log.With("service", "RedisKVStore"), rdb: rdb, prefix: prefix}
}

func (s *kvStore) k(key string) string { return s.prefix + key }

func (s *kvStore) SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.k(key), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

func (s *kvStore) Set(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.k(key), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *kvStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.k(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *kvStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.rdb.TTL(ctx, s.k(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl %s: %w", key, err)
	}
	switch {
	case d == -2:
		return 0, nil
	case d < 0:
		return -1, nil
	}
	return d, nil
}

func (s *kvStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.k(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *kvStore) Current(ctx context.Context, name string) (int64, error) {
	v, err := s.rdb.Get(ctx, s.k("version:"+name)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version %s: %w", name, err)
	}
	return v, nil
}

func (s *kvStore) Bump(ctx context.Context, name string) (int64, error) {
	v, err := s.rdb.Incr(ctx, s.k("version:"+name)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr version %s: %w", name, err)
	}
	return v, nil
}
