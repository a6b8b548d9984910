package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/quizpages/internal/pkg/logger"
)

func testStore(t *testing.T) *kvStore {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis kv tests")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	prefix := "quizpages-test:" + uuid.NewString() + ":"
	return NewKVStore(rdb, prefix, logger.Nop()).(*kvStore)
}

func TestKVStoreMarkers(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	ok, err := s.SetNX(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.SetNX(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := s.TTL(ctx, "lock")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Delete(ctx, "lock"))
	exists, err := s.Exists(ctx, "lock")
	require.NoError(t, err)
	assert.False(t, exists)

	ttl, err = s.TTL(ctx, "lock")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), ttl)
}

func TestKVStoreVersions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	v, err := s.Current(ctx, "items")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	v, err = s.Bump(ctx, "items")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	v, _ = s.Current(ctx, "items")
	assert.Equal(t, int64(1), v)
}
