package kv

import (
	"context"
	"sync"
	"time"
)

type memory struct {
	mu       sync.Mutex
	now      func() time.Time
	markers  map[string]time.Time // zero time: no expiry
	versions map[string]int64
}

// NewMemory returns a process-local Store.
func NewMemory() Store {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock is NewMemory with an injectable clock for tests.
func NewMemoryWithClock(now func() time.Time) Store {
	return &memory{
		now:      now,
		markers:  map[string]time.Time{},
		versions: map[string]int64{},
	}
}

func (m *memory) live(key string) (time.Time, bool) {
	exp, ok := m.markers[key]
	if !ok {
		return time.Time{}, false
	}
	if !exp.IsZero() && !m.now().Before(exp) {
		delete(m.markers, key)
		return time.Time{}, false
	}
	return exp, true
}

func (m *memory) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

func (m *memory) SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(key); ok {
		return false, nil
	}
	m.markers[key] = m.expiry(ttl)
	return true, nil
}

func (m *memory) Set(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers[key] = m.expiry(ttl)
	return nil
}

func (m *memory) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live(key)
	return ok, nil
}

func (m *memory) TTL(ctx context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.live(key)
	switch {
	case !ok:
		return 0, nil
	case exp.IsZero():
		return -1, nil
	}
	return exp.Sub(m.now()), nil
}

func (m *memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.markers, key)
	return nil
}

func (m *memory) Current(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[name], nil
}

func (m *memory) Bump(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[name]++
	return m.versions[name], nil
}
