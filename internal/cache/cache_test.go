package cache

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Works []string `json:"works"`
}

func setupTestCache(t *testing.T) *CacheDB {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	env := testutil.NewTestEnv(t)
	cache, err := NewCacheDB(filepath.Join(env.RootDir(), "test_cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	for _, schema := range AllCacheSchemas {
		require.NoError(t, cache.CreateTable(schema))
	}

	viper.Set("cache.ttl", "1h")
	return cache
}

func withGlobalCache(t *testing.T, cache *CacheDB) {
	t.Helper()

	oldCache := globalCache
	globalCache = cache
	globalCacheOnce = sync.Once{}
	globalCacheOnce.Do(func() {})

	t.Cleanup(func() {
		globalCache = oldCache
		globalCacheOnce = sync.Once{}
	})
}

func setCachedAt(t *testing.T, cache *CacheDB, key string, at time.Time) {
	t.Helper()

	_, err := cache.db.Exec("UPDATE "+TableOpenLibrary+" SET cached_at = ? WHERE cache_key = ?", at.UTC().Format(time.DateTime), key)
	require.NoError(t, err)
}

func TestGetOrFetch_CacheHit(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	require.NoError(t, cache.Set(TableOpenLibrary, "/isbn/1.json", `{"works":["/works/OL1W"]}`))

	fetchCalled := false
	result, fromCache, err := GetOrFetch(TableOpenLibrary, "/isbn/1.json", func() (testPayload, error) {
		fetchCalled = true
		return testPayload{}, nil
	})

	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.False(t, fetchCalled)
	assert.Equal(t, []string{"/works/OL1W"}, result.Works)
}

func TestGetOrFetch_CacheMissStoresResult(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	calls := 0
	fetch := func() (testPayload, error) {
		calls++
		return testPayload{Works: []string{"/works/OL2W"}}, nil
	}

	first, fromCache, err := GetOrFetch(TableOpenLibrary, "k", fetch)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, []string{"/works/OL2W"}, first.Works)

	second, fromCache, err := GetOrFetch(TableOpenLibrary, "k", fetch)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestGetOrFetch_ErrorsAreNotCached(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	_, _, err := GetOrFetch(TableOpenLibrary, "bad", func() (testPayload, error) {
		return testPayload{}, errors.New("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch data")

	_, found, err := cache.Get(TableOpenLibrary, "bad", time.Hour)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetOrFetchWithPolicy_SkipsStore(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	_, _, err := GetOrFetchWithPolicy(TableOpenLibrary, "empty", func() (testPayload, error) {
		return testPayload{}, nil
	}, func(p testPayload) bool { return len(p.Works) > 0 })
	require.NoError(t, err)

	_, found, err := cache.Get(TableOpenLibrary, "empty", time.Hour)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGet_ExpiredEntry(t *testing.T) {
	cache := setupTestCache(t)

	require.NoError(t, cache.Set(TableOpenLibrary, "old", `{}`))
	setCachedAt(t, cache, "old", time.Now().Add(-2*time.Hour))

	_, found, err := cache.Get(TableOpenLibrary, "old", time.Hour)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidTableNameRejected(t *testing.T) {
	cache := setupTestCache(t)

	_, _, err := cache.Get("users; DROP TABLE x", "k", time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache table name")

	require.Error(t, cache.Set("tmdb_cache", "k", "{}"))

	_, err = cache.InvalidateSource("nope")
	require.Error(t, err)
}

func TestInvalidateSourceAndClearExpired(t *testing.T) {
	cache := setupTestCache(t)

	require.NoError(t, cache.Set(TableOpenLibrary, "a", `{}`))
	require.NoError(t, cache.Set(TableOpenLibrary, "b", `{}`))
	setCachedAt(t, cache, "a", time.Now().Add(-48*time.Hour))

	pruned, err := cache.ClearExpired(TableOpenLibrary, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	deleted, err := cache.InvalidateSource(TableOpenLibrary)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestInvalidateCacheCmd(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	require.NoError(t, cache.Set(TableOpenLibrary, "a", `{}`))

	require.NoError(t, (&InvalidateCacheCmd{Source: "openlibrary"}).Run())
	_, found, err := cache.Get(TableOpenLibrary, "a", time.Hour)
	require.NoError(t, err)
	assert.False(t, found)

	err = (&InvalidateCacheCmd{Source: "tmdb"}).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid sources are: openlibrary")
}

func TestPruneCacheCmd(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	require.NoError(t, cache.Set(TableOpenLibrary, "stale", `{}`))
	setCachedAt(t, cache, "stale", time.Now().Add(-3*time.Hour))

	require.NoError(t, (&PruneCacheCmd{}).Run())

	_, found, err := cache.Get(TableOpenLibrary, "stale", 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEnabled(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	assert.False(t, Enabled())
	viper.Set("cache.enabled", true)
	assert.True(t, Enabled())
}
