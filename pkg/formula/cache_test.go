package formula

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheReusesParsedTree(t *testing.T) {
	cache := NewCache()
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	version := NewVersion(7, start, nil)

	first, err := cache.Get(version, "A + B")
	require.NoError(t, err)
	second, err := cache.Get(version, "A + B")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheVersionsAreDistinct(t *testing.T) {
	cache := NewCache()
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	open, err := cache.Get(NewVersion(7, start, nil), "A")
	require.NoError(t, err)
	bounded, err := cache.Get(NewVersion(7, start, &end), "B")
	require.NoError(t, err)

	assert.NotSame(t, open, bounded)
	assert.Equal(t, 2, cache.Len())
}

func TestCacheReparsesChangedSource(t *testing.T) {
	cache := NewCache()
	version := NewVersion(1, time.Unix(0, 0), nil)

	before, err := cache.Get(version, "A")
	require.NoError(t, err)
	after, err := cache.Get(version, "A * 2")
	require.NoError(t, err)

	assert.NotSame(t, before, after)
	assert.Equal(t, "(A * 2)", after.String())
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	cache := NewCache()
	_, err := cache.Get(NewVersion(1, time.Unix(0, 0), nil), "A +")
	require.ErrorIs(t, err, ErrSyntax)
	assert.Equal(t, 0, cache.Len())
}

func TestCacheConcurrency(t *testing.T) {
	cache := NewCache()
	version := NewVersion(3, time.Unix(0, 0), nil)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Get(version, "A - B")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, cache.Len())
}
