// Package cache is the distributed cache behind the request pipeline's
// caching behaviour. Redis is used when configured, an in-process map otherwise.
package cache

import (
	"context"
	"time"
)

// Options sets entry lifetimes. Zero means no limit. Absolute is measured
// from the time of Set.
type Options struct {
	Sliding  time.Duration
	Absolute time.Duration
}

type Store interface {
	// Get reports a miss with ok=false and a nil error. A hit renews the
	// sliding window.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, opts Options) error
	// Refresh renews the sliding window without reading the value.
	Refresh(ctx context.Context, key string) error
	Remove(ctx context.Context, key string) error
	// RemoveByPrefix deletes every key starting with prefix and returns how many went.
	RemoveByPrefix(ctx context.Context, prefix string) (int, error)
}

// ttl is the time left before an entry expires: the sliding window capped by
// the remaining absolute lifetime. ok is false when neither limit applies.
func ttl(now time.Time, absolute time.Time, sliding time.Duration) (time.Duration, bool) {
	switch {
	case sliding > 0 && !absolute.IsZero():
		return min(sliding, absolute.Sub(now)), true
	case sliding > 0:
		return sliding, true
	case !absolute.IsZero():
		return absolute.Sub(now), true
	}
	return 0, false
}
