package cachemanager

import (
	"context"
	"time"
)

type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetMultiple(ctx context.Context, keys []K) (map[K]V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}

// SweepingCacheManager is a CacheManager whose expired entries are collected
// explicitly rather than by a background janitor, so the caller learns what
// expired and can react (cancel timers, notify users).
type SweepingCacheManager[K comparable, V any] interface {
	CacheManager[K, V]
	Sweep(ctx context.Context) map[K]V
	ItemCount() int
}
