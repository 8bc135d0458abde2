// Package cachemanager provides the in-memory caches backing dispatch:
// a generic go-cache manager and the fingerprint-keyed chain store.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is a typed key/value cache.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetMultiple(ctx context.Context, keys []K) (map[K]V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Len() int
}
