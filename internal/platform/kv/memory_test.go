package kv

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryMarkers(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryWithClock(clock.Now)

	ok, err := s.SetNX(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held lease must not be re-acquired")

	ttl, err := s.TTL(ctx, "lock")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	clock.Advance(time.Minute)
	exists, err := s.Exists(ctx, "lock")
	require.NoError(t, err)
	assert.False(t, exists, "marker expires at its deadline")

	ok, err = s.SetNX(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "lock"))
	exists, _ = s.Exists(ctx, "lock")
	assert.False(t, exists)

	require.NoError(t, s.Set(ctx, "forever", 0))
	ttl, _ = s.TTL(ctx, "forever")
	assert.Equal(t, time.Duration(-1), ttl)
	ttl, _ = s.TTL(ctx, "missing")
	assert.Equal(t, time.Duration(0), ttl)
}

func TestMemoryVersions(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	v, err := s.Current(ctx, "items")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Bump(ctx, "items")
		}()
	}
	wg.Wait()

	v, _ = s.Current(ctx, "items")
	assert.Equal(t, int64(50), v)
	other, _ := s.Current(ctx, "taxonomy")
	assert.Equal(t, int64(0), other)
}
