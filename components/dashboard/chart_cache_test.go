package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartCacheStoresEntry(t *testing.T) {
	cache := NewChartCache(time.Minute)
	calls := 0
	render := func() (string, error) {
		calls++
		return "html", nil
	}

	val1, err := cache.GetOrRender("radar", render)
	require.NoError(t, err)
	val2, err := cache.GetOrRender("radar", render)
	require.NoError(t, err)

	assert.Equal(t, "html", val1)
	assert.Equal(t, val1, val2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.Len())
}

func TestChartCacheExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	cache := NewChartCache(time.Minute)
	cache.now = func() time.Time { return now }
	calls := 0
	render := func() (string, error) {
		calls++
		return "fresh", nil
	}

	_, err := cache.GetOrRender("pnl", render)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 0, cache.Len())
	_, err = cache.GetOrRender("pnl", render)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestChartCacheSkipsFailedRenders(t *testing.T) {
	cache := NewChartCache(time.Minute)
	_, err := cache.GetOrRender("counters", func() (string, error) { return "", errors.New("boom") })
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestChartCacheDisabled(t *testing.T) {
	cache := NewChartCache(0)
	calls := 0
	for range 2 {
		_, _ = cache.GetOrRender("k", func() (string, error) { calls++; return "x", nil })
	}
	assert.Equal(t, 2, calls)
}

func TestPayloadHashIsStable(t *testing.T) {
	a := payloadHash(map[string]int{"foodics": 42, "talabat": 18})
	b := payloadHash(map[string]int{"talabat": 18, "foodics": 42})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, payloadHash(map[string]int{"foodics": 43, "talabat": 18}))
}

func TestChartCacheEvictsClosestToExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	cache := NewChartCache(time.Minute)
	cache.now = func() time.Time { return now }
	cache.limit = 2

	for _, key := range []string{"counters:1", "counters:2", "counters:3"} {
		_, err := cache.GetOrRender(key, func() (string, error) { return key, nil })
		require.NoError(t, err)
		now = now.Add(time.Second)
	}

	assert.Equal(t, 2, cache.Len())
	calls := 0
	_, err := cache.GetOrRender("counters:1", func() (string, error) { calls++; return "again", nil })
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "oldest entry was evicted")
}
