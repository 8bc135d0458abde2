package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type key string

type exampleStruct struct {
	ID   int
	Name string
}

func newTestCache[V any]() *InMemoryCacheManager[key, V] {
	return NewInMemoryCacheManager[key, V]("test", NoExpiration, 0)
}

func TestNewInMemoryCacheManager(t *testing.T) {
	require.NotPanics(t, func() {
		NewInMemoryCacheManager[string, string]("test", time.Minute, time.Minute)
	})
}

func TestInMemoryCacheManager_GetExistingValue_StructType(t *testing.T) {
	cache := newTestCache[exampleStruct]()
	example := exampleStruct{Name: "apple"}
	cache.Set(context.Background(), "ex:1", example, NoExpiration)

	got, ok := cache.Get(context.Background(), "ex:1")
	require.True(t, ok)
	require.Equal(t, example, got)
}

func TestInMemoryCacheManager_GetWithNoExistingValue(t *testing.T) {
	cache := newTestCache[string]()

	got, ok := cache.Get(context.Background(), "food")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetWithExistingInvalidValueType(t *testing.T) {
	cache := newTestCache[string]()
	cache.cache.Set("food", 123, NoExpiration)

	got, ok := cache.Get(context.Background(), "food")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetExpired(t *testing.T) {
	cache := newTestCache[string]()
	cache.Set(context.Background(), "food", "apple", time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, ok := cache.Get(context.Background(), "food")
	require.False(t, ok)
}

func TestInMemoryCacheManager_GetMultipleWithNoKeysDoesNothing(t *testing.T) {
	cache := newTestCache[string]()

	got, ok := cache.GetMultiple(context.Background(), []key{})
	require.False(t, ok)
	require.Nil(t, got)
}

func TestInMemoryCacheManager_GetMultipleCacheHit(t *testing.T) {
	cache := newTestCache[string]()
	cache.cache.Set("food", "apple", NoExpiration)
	cache.cache.Set("drink", "juice", NoExpiration)

	got, ok := cache.GetMultiple(context.Background(), []key{"food", "drink", "missing"})
	require.True(t, ok)
	require.Equal(t, map[key]string{"food": "apple", "drink": "juice"}, got)
}

func TestInMemoryCacheManager_GetMultipleCacheMiss(t *testing.T) {
	cache := newTestCache[string]()

	got, ok := cache.GetMultiple(context.Background(), []key{"food", "drink"})
	require.False(t, ok)
	require.Nil(t, got)
}

func TestInMemoryCacheManager_GetMultipleWithExistingInvalidValueType(t *testing.T) {
	cache := newTestCache[string]()
	cache.cache.Set("food", "apple", NoExpiration)
	cache.cache.Set("drink", 123, NoExpiration)

	got, ok := cache.GetMultiple(context.Background(), []key{"food", "drink"})
	require.True(t, ok)
	require.Equal(t, map[key]string{"food": "apple"}, got)
}

func TestInMemoryCacheManager_DeleteWithNoKeysDoesNothing(t *testing.T) {
	cache := newTestCache[string]()
	require.NoError(t, cache.Delete(context.Background()))
}

func TestInMemoryCacheManager_DeleteExistingValue(t *testing.T) {
	cache := newTestCache[string]()
	cache.Set(context.Background(), "food", "apple", NoExpiration)
	require.Equal(t, 1, cache.Len())

	require.NoError(t, cache.Delete(context.Background(), "food", "missing"))

	got, ok := cache.Get(context.Background(), "food")
	require.False(t, ok)
	require.Equal(t, "", got)
	require.Equal(t, 0, cache.Len())
}
