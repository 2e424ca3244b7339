package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey_StableUnderUnicodeNormalization(t *testing.T) {
	// "é" as a single code point vs. "e" + combining acute accent.
	composed := "café"
	decomposed := "café"

	assert.Equal(t, CacheKey(composed), CacheKey(decomposed))
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache(2)
	ctx := context.Background()

	c.Set(ctx, "a", []float64{1}, 0)
	c.Set(ctx, "b", []float64{2}, 0)
	_, _ = c.Get(ctx, "a") // touch a, making b the LRU entry
	c.Set(ctx, "c", []float64{3}, 0)

	_, aOK := c.Get(ctx, "a")
	_, bOK := c.Get(ctx, "b")
	_, cOK := c.Get(ctx, "c")

	assert.True(t, aOK)
	assert.False(t, bOK)
	assert.True(t, cOK)
}

func TestLRUCache_ExpiresEntries(t *testing.T) {
	c := NewLRUCache(8)
	ctx := context.Background()

	c.Set(ctx, "k", []float64{1, 2, 3}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCache(client)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "missing")
	assert.False(t, ok)

	cache.Set(ctx, "k", []float64{0.1, 0.2, 0.3}, time.Minute)
	vec, ok := cache.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
}
