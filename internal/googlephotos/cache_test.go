package googlephotos

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takeshy/wallframe/internal/photo"
)

func TestCache(t *testing.T) {
	t.Run("missing file yields an empty cache", func(t *testing.T) {
		c := NewCache(filepath.Join(t.TempDir(), "photo_cache.json"), nil)
		assert.Empty(t, c.Photos())
		require.NotNil(t, c.Photos())
		_, written := c.Age()
		assert.False(t, written)
	})

	t.Run("replace round-trips through load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "photo_cache.json")
		c := NewCache(path, nil)

		photos := []photo.Record{
			{URL: "https://lh3.googleusercontent.com/a=w2048-h1536", ID: "a", Source: photo.SourceRemote},
			{URL: "https://lh3.googleusercontent.com/b=w2048-h1536", ID: "b", Source: photo.SourceRemote},
		}
		require.NoError(t, c.Replace(photos))

		got := NewCache(path, nil).Load()
		assert.Equal(t, photos, got.Photos)
		assert.InDelta(t, time.Now().Unix(), got.LastUpdated, 5)

		age, written := c.Age()
		assert.True(t, written)
		assert.Less(t, age, time.Minute)
	})

	t.Run("replace with an empty selection clears the cache", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "photo_cache.json")
		c := NewCache(path, nil)
		require.NoError(t, c.Replace([]photo.Record{{ID: "a"}}))
		require.NoError(t, c.Replace(nil))
		assert.Empty(t, c.Photos())
	})

	t.Run("corrupt file is treated as empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "photo_cache.json")
		require.NoError(t, os.WriteFile(path, []byte("]["), 0o644))
		c := NewCache(path, nil)
		assert.Empty(t, c.Photos())
	})
}
