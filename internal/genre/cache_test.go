// SPDX-License-Identifier: MIT

package genre

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genre_cache.json")

	c, err := OpenCache(path, 0)
	require.NoError(t, err)
	c.Put("YOASOBI", "夜に駆ける", "J-POP")
	require.NoError(t, err)
	require.NoError(t, c.Save())

	reopened, err := OpenCache(path, 0)
	require.NoError(t, err)
	g, ok := reopened.Get("YOASOBI", "夜に駆ける")
	assert.True(t, ok)
	assert.Equal(t, "J-POP", g)

	// Key is case-insensitive.
	g, ok = reopened.Get("yoasobi", "夜に駆ける")
	assert.True(t, ok)
	assert.Equal(t, "J-POP", g)
}

func TestCacheMissingFileIsEmpty(t *testing.T) {
	c, err := OpenCache(filepath.Join(t.TempDir(), "nope.json"), 0)
	require.NoError(t, err)
	_, ok := c.Get("a", "b")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genre_cache.json")
	c, err := OpenCache(path, time.Hour)
	require.NoError(t, err)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Put("artist", "song", "J-POP")

	_, ok := c.Get("artist", "song")
	assert.True(t, ok)

	c.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, ok = c.Get("artist", "song")
	assert.False(t, ok)

	// Save drops the expired entry entirely.
	require.NoError(t, c.Save())
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "artist|song")
}

func TestCacheSaveSkipsWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genre_cache.json")
	c, err := OpenCache(path, 0)
	require.NoError(t, err)
	require.NoError(t, c.Save())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
