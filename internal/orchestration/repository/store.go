// Package repository holds the process-local correlation records of the
// orchestration engine. Every record lives in a TTL store keyed by its
// correlation key and is never persisted.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/zjrosen/namebridge/internal/cachemanager"
	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/log"
	"github.com/zjrosen/namebridge/internal/orchestration/types"
)

// Store is a TTL map from correlation key to record. Records are held by
// pointer, so a handler mutates a record in place without resetting its TTL.
//
// Expired records are invisible to Get but stay in memory until Sweep
// reports them; the engine sweeps on its own executor.
type Store[T any] struct {
	name  string
	ttl   time.Duration
	cache cachemanager.SweepingCacheManager[string, *T]
}

// NewStore creates a store backed by an in-memory cache without a janitor.
func NewStore[T any](name string, ttl time.Duration) *Store[T] {
	return NewStoreWithCache(name, ttl,
		cachemanager.NewInMemoryCacheManager[string, *T](name, ttl, cachemanager.NoCleanup))
}

// NewStoreWithCache creates a store over an existing cache.
func NewStoreWithCache[T any](name string, ttl time.Duration, cache cachemanager.SweepingCacheManager[string, *T]) *Store[T] {
	return &Store[T]{name: name, ttl: ttl, cache: cache}
}

// Name identifies the store in logs and metrics.
func (s *Store[T]) Name() string {
	return s.name
}

// TTL is the lifetime of a record from its last Put.
func (s *Store[T]) TTL() time.Duration {
	return s.ttl
}

// Get returns ErrRecordNotFound for absent and expired keys.
func (s *Store[T]) Get(ctx context.Context, key correlation.Key) (*T, error) {
	rec, ok := s.cache.Get(ctx, key.String())
	if !ok || rec == nil {
		return nil, fmt.Errorf("%s %s: %w", s.name, key, types.ErrRecordNotFound)
	}
	return rec, nil
}

// Has reports whether a live record exists for key.
func (s *Store[T]) Has(ctx context.Context, key correlation.Key) bool {
	_, err := s.Get(ctx, key)
	return err == nil
}

// Put inserts or replaces the record under key and restarts its TTL.
func (s *Store[T]) Put(ctx context.Context, key correlation.Key, rec *T) {
	s.cache.Set(ctx, key.String(), rec, s.ttl)
	log.Debug(log.CatOrch, "Stored correlation record", "store", s.name, "key", key.String())
}

// Delete removes key; absent keys are ignored.
func (s *Store[T]) Delete(ctx context.Context, key correlation.Key) {
	_ = s.cache.Delete(ctx, key.String())
}

// Take returns the record and removes it, so a second Take for the same key
// fails. Selections are consumed this way.
func (s *Store[T]) Take(ctx context.Context, key correlation.Key) (*T, error) {
	rec, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.Delete(ctx, key)
	return rec, nil
}

// Sweep removes expired records and returns them. Keys that no longer parse
// are dropped with a warning.
func (s *Store[T]) Sweep(ctx context.Context) map[correlation.Key]*T {
	expired := s.cache.Sweep(ctx)
	out := make(map[correlation.Key]*T, len(expired))
	for raw, rec := range expired {
		key, ok := correlation.Parse(raw)
		if !ok {
			log.Warn(log.CatOrch, "Swept record with unparseable key", "store", s.name, "key", raw)
			continue
		}
		out[key] = rec
	}
	return out
}

// Len counts stored records, including expired ones not yet swept.
func (s *Store[T]) Len() int {
	return s.cache.ItemCount()
}
