// Package cache wraps sturdyc behind the small get/set surface the API
// handlers use for cache-aside reads. A nil *Store is valid and means
// caching is disabled: every lookup misses and GetOrCompute degrades to
// always-recompute, so cache unavailability never fails a request.
package cache

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
)

type Config struct {
	// Capacity is the maximum number of entries. Default 1000.
	Capacity int
	// Shards controls concurrent access. Default 16.
	Shards int
	// TTL applies to every entry in this store. Keys that need a
	// different expiry live in their own Store; see NewHeavy /
	// NewProducts.
	TTL time.Duration
	// EvictionPercentage is how much to evict at capacity. Default 10.
	EvictionPercentage int
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = 1000
	}
	if c.Shards <= 0 {
		c.Shards = 16
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.EvictionPercentage <= 0 {
		c.EvictionPercentage = 10
	}
	return c
}

// Store memoizes expensive reads with per-store TTL.
type Store struct {
	client *sturdyc.Client[any]
}

func New(cfg Config) *Store {
	cfg = cfg.withDefaults()
	return &Store{client: sturdyc.New[any](cfg.Capacity, cfg.Shards, cfg.TTL, cfg.EvictionPercentage)}
}

// NewHeavy is the store behind the heavy-computation demo key.
func NewHeavy(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return New(Config{TTL: ttl})
}

// NewProducts is the store behind the all_products listing key.
func NewProducts(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return New(Config{TTL: ttl})
}

// Get returns the cached value, or absent once the TTL has elapsed.
func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return s.client.Get(key)
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if s == nil {
		return
	}
	s.client.Set(key, value)
}

func (s *Store) Delete(_ context.Context, key string) {
	if s == nil {
		return
	}
	s.client.Delete(key)
}

// GetOrCompute is the cache-aside read: check, compute on miss, store,
// return. sturdyc deduplicates concurrent misses on the same key, so
// the compute function runs at most once per expiry window.
func GetOrCompute[T any](ctx context.Context, s *Store, key string, compute func(context.Context) (T, error)) (T, error) {
	if s == nil {
		return compute(ctx)
	}
	v, err := s.client.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return compute(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		// A foreign value under our key: drop it and recompute.
		s.client.Delete(key)
		return compute(ctx)
	}
	return typed, nil
}
