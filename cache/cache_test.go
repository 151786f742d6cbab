package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_RoundTrip(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set("cover_tv_Show X_", "https://example.com/show-x.jpg"))

	value, ok := c.Get("cover_tv_Show X_")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/show-x.jpg", value)
}

func TestCache_MissingKey(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	_, ok := c.Get("cover_tv_Nothing_")
	assert.False(t, ok)
}

func TestCache_ExpiredEntryIsMissing(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	clock := time.Unix(1700000000, 0)
	c.now = func() time.Time { return clock }

	require.NoError(t, c.Set("artist_picture_Doja Cat", "https://example.com/artist.jpg"))

	clock = clock.Add(59 * time.Minute)
	_, ok := c.Get("artist_picture_Doja Cat")
	assert.True(t, ok)

	clock = clock.Add(2 * time.Minute)
	_, ok = c.Get("artist_picture_Doja Cat")
	assert.False(t, ok)
}

func TestCache_OverwriteReplacesValue(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set("key", "first"))
	require.NoError(t, c.Set("key", "second"))

	value, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "second", value)
}

func TestCache_KeysDoNotCollide(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set("cover_tv_X Files_", "tv"))
	require.NoError(t, c.Set("cover_movies_X Files_", "movie"))

	value, ok := c.Get("cover_tv_X Files_")
	require.True(t, ok)
	assert.Equal(t, "tv", value)
}

func TestCache_TornEntryIsMissing(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(c.path("torn"), []byte(`{"timestamp": 17`), 0644))

	_, ok := c.Get("torn")
	assert.False(t, ok)
}

func TestCache_PruneRemovesExpiredOnly(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	clock := time.Unix(1700000000, 0)
	c.now = func() time.Time { return clock }

	require.NoError(t, c.Set("old", "value"))
	clock = clock.Add(2 * time.Hour)
	require.NoError(t, c.Set("fresh", "value"))

	removed, err := c.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok := c.Get("fresh")
	assert.True(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCache_PruneSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep me"), 0644))

	removed, err := c.Prune()
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}
