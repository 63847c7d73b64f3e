package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServiceRoundTripAndMetrics(t *testing.T) {
	cache := newSettingCache(t)
	ctx := context.Background()

	var dest map[string]int
	hit, err := cache.Get(ctx, cache.Key("counts"), &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, cache.Key("counts"), map[string]int{"a": 1}, 0))
	hit, err = cache.Get(ctx, cache.Key("counts"), &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, dest["a"])

	snapshot := cache.metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
	assert.InDelta(t, 0.5, snapshot.CacheHitRatio, 0.0001)

	require.NoError(t, cache.Invalidate(ctx, cache.Key("*")))
	hit, err = cache.Get(ctx, cache.Key("counts"), &dest)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	cache := NewCacheService(nil, nil, "settings", time.Minute, nil, false)
	assert.False(t, cache.Enabled())
	assert.Equal(t, "settings:a:b", cache.Key("a", "b"))

	var dest string
	hit, err := cache.Get(context.Background(), "k", &dest)
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, cache.Set(context.Background(), "k", "v", 0))
	assert.NoError(t, cache.Delete(context.Background(), "k"))

	var nilCache *CacheService
	assert.Equal(t, "a", nilCache.Key("a"))
}
