package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "40.71,-74.01", Key(40.7128, -74.0060))
	assert.Equal(t, "0.00,0.00", Key(0, 0))
	assert.Equal(t, "-33.87,151.21", Key(-33.8688, 151.2093))
}

func TestFormatCoords(t *testing.T) {
	assert.Equal(t, "40.7°N, 74.0°W", FormatCoords(40.7128, -74.0060))
	assert.Equal(t, "33.9°S, 151.2°E", FormatCoords(-33.8688, 151.2093))
}

func TestResolve(t *testing.T) {
	t.Run("same grid cell hits the service once", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			assert.Equal(t, "wallframe/1.0", r.Header.Get("User-Agent"))
			assert.Equal(t, "10", r.URL.Query().Get("zoom"))
			w.Write([]byte(`{"address":{"city":"New York","country":"United States"}}`))
		}))
		defer srv.Close()

		c := NewCache(filepath.Join(t.TempDir(), "geocache.json"), nil)
		c.SetEndpoint(srv.URL)

		got := c.Resolve(context.Background(), 40.7128, -74.0060)
		assert.Equal(t, "New York, United States", got)

		// Nearby coordinates fall in the same cell and must be
		// answered from the cache.
		got = c.Resolve(context.Background(), 40.7129, -74.0061)
		assert.Equal(t, "New York, United States", got)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("failed lookup is cached as a negative entry", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewCache(filepath.Join(t.TempDir(), "geocache.json"), nil)
		c.SetEndpoint(srv.URL)

		got := c.Resolve(context.Background(), 40.7128, -74.0060)
		assert.Equal(t, "40.7°N, 74.0°W", got)

		got = c.Resolve(context.Background(), 40.7128, -74.0060)
		assert.Equal(t, "40.7°N, 74.0°W", got)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("town is used when city is absent", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"address":{"town":"Banff","country":"Canada"}}`))
		}))
		defer srv.Close()

		c := NewCache(filepath.Join(t.TempDir(), "geocache.json"), nil)
		c.SetEndpoint(srv.URL)

		assert.Equal(t, "Banff, Canada", c.Resolve(context.Background(), 51.1784, -115.5708))
	})
}

func TestFlush(t *testing.T) {
	t.Run("entries survive a reload, negatives included", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("lat") == "40.712800" {
				w.Write([]byte(`{"address":{"city":"New York","country":"United States"}}`))
				return
			}
			w.Write([]byte(`{"address":{}}`))
		}))
		defer srv.Close()

		path := filepath.Join(t.TempDir(), "geocache.json")
		c := NewCache(path, nil)
		c.SetEndpoint(srv.URL)

		c.Resolve(context.Background(), 40.7128, -74.0060)
		c.Resolve(context.Background(), 0.0001, 0.0001)
		require.NoError(t, c.Flush())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var entries map[string]*string
		require.NoError(t, json.Unmarshal(data, &entries))
		require.Contains(t, entries, "40.71,-74.01")
		assert.Equal(t, "New York, United States", *entries["40.71,-74.01"])
		require.Contains(t, entries, "0.00,0.00")
		assert.Nil(t, entries["0.00,0.00"])

		// A reloaded cache answers both without network access.
		reloaded := NewCache(path, nil)
		reloaded.SetEndpoint("http://127.0.0.1:0")
		assert.Equal(t, "New York, United States", reloaded.Resolve(context.Background(), 40.7128, -74.0060))
		assert.Equal(t, "0.0°N, 0.0°E", reloaded.Resolve(context.Background(), 0.0001, 0.0001))
	})

	t.Run("clean cache does not touch disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "geocache.json")
		c := NewCache(path, nil)
		require.NoError(t, c.Flush())
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("corrupt cache file starts empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "geocache.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"address":{"city":"Lisbon","country":"Portugal"}}`))
		}))
		defer srv.Close()

		c := NewCache(path, nil)
		c.SetEndpoint(srv.URL)
		assert.Equal(t, "Lisbon, Portugal", c.Resolve(context.Background(), 38.72, -9.14))
	})
}
