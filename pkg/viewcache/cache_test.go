package viewcache_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/dendrotime/pkg/viewcache"
)

func TestCache_GetPut(t *testing.T) {
	t.Parallel()

	cache := viewcache.New[int64, string](4)

	got, found := cache.Get(1)
	assert.False(t, found)
	assert.Empty(t, got)

	cache.Put(1, "first")
	cache.Put(1, "second")

	got, found = cache.Get(1)
	require.True(t, found)
	assert.Equal(t, "second", got)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	cache := viewcache.New[int64, int](3)

	cache.Put(1, 10)
	cache.Put(2, 20)
	cache.Put(3, 30)

	_, _ = cache.Get(1)

	cache.Put(4, 40)

	_, found := cache.Get(2)
	assert.False(t, found)
	assert.Equal(t, []int64{4, 1, 3}, cache.Keys())
	assert.Equal(t, int64(1), cache.Stats().Evictions)
}

func TestCache_Delete(t *testing.T) {
	t.Parallel()

	cache := viewcache.New[int64, int](0)

	cache.Put(7, 1)

	assert.True(t, cache.Delete(7))
	assert.False(t, cache.Delete(7))
	assert.Zero(t, cache.Len())
	assert.Equal(t, viewcache.DefaultMaxEntries, cache.Stats().MaxEntries)
}

func TestCache_Stats(t *testing.T) {
	t.Parallel()

	cache := viewcache.New[int64, int](2)

	assert.Zero(t, cache.Stats().HitRate())

	cache.Put(1, 1)
	_, _ = cache.Get(1)
	_, _ = cache.Get(2)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate(), 1e-12)
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	cache := viewcache.New[int64, int](8)

	var wg sync.WaitGroup

	for g := range 16 {
		wg.Add(1)

		go func(g int) {
			defer wg.Done()

			for i := range 100 {
				key := int64((g + i) % 12)
				cache.Put(key, i)
				_, _ = cache.Get(key)
			}
		}(g)
	}

	wg.Wait()

	assert.LessOrEqual(t, cache.Len(), 8)
}
