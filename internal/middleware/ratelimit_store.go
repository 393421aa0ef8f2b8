package middleware

import (
	"context"
	"time"

	"github.com/charlesng35/storedesk/internal/cache"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

type cacheRateStore struct {
	store cache.Store
}

// NewRateStore keeps fixed-window counters in a cache store. The sandbox uses the database
// store so counters survive restarts; tests use the in-memory store.
func NewRateStore(store cache.Store) RateStore {
	if store == nil {
		return nil
	}
	return &cacheRateStore{store: store}
}

func (s *cacheRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}
	count, ttl, err := s.store.IncrementWithTTL(ctx, "ratelimit:"+key, window)
	return int(count), ttl, err
}
