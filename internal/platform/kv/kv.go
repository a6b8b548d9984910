// Package kv holds the short-lived state shared by reconciliation: TTL markers used as
// leases and debounce flags, and monotonically increasing version counters.
package kv

import (
	"context"
	"time"
)

// Markers are keys with an expiry. A zero ttl means no expiry.
type Markers interface {
	// SetNX sets key only if it is absent (or expired) and reports whether it did.
	SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	// TTL returns the remaining lifetime of key, 0 when absent, -1 when it never expires.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Delete(ctx context.Context, key string) error
}

// Versions are counters readers use to stamp cache entries. Unknown names read as 0.
type Versions interface {
	Current(ctx context.Context, name string) (int64, error)
	Bump(ctx context.Context, name string) (int64, error)
}

// Store is both.
type Store interface {
	Markers
	Versions
}
