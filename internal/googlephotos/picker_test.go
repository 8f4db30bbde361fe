package googlephotos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPicker(t *testing.T, baseURL string) (*Picker, *Cache) {
	t.Helper()
	dir := t.TempDir()

	tokenPath := filepath.Join(dir, "tokens.json")
	writeTokenRecord(t, tokenPath, TokenRecord{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	})

	auth := NewAuthenticator(tokenPath, nil)
	cache := NewCache(filepath.Join(dir, "photo_cache.json"), nil)
	p := NewPicker(auth, cache, nil)
	p.SetBaseURL(baseURL)
	return p, cache
}

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sessions", r.URL.Path)
		assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":"sess-1","pickerUri":"https://photos.google.com/pick/abc","pollingConfig":{"pollInterval":"5s"},"mediaItemsSet":false}`))
	}))
	defer srv.Close()

	p, _ := newTestPicker(t, srv.URL)
	session, err := p.CreateSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", session.ID)
	assert.Equal(t, "https://photos.google.com/pick/abc", session.PickerURI)
	assert.Equal(t, "5s", session.PollingConfig.PollInterval)
	assert.False(t, session.MediaItemsSet)
}

func TestPollSession(t *testing.T) {
	t.Run("reports selection state", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/sessions/sess-1", r.URL.Path)
			w.Write([]byte(`{"id":"sess-1","mediaItemsSet":true}`))
		}))
		defer srv.Close()

		p, _ := newTestPicker(t, srv.URL)
		session, err := p.PollSession(context.Background(), "sess-1")
		require.NoError(t, err)
		assert.True(t, session.MediaItemsSet)
	})

	t.Run("unauthenticated poll is rejected before the network", func(t *testing.T) {
		auth := NewAuthenticator(filepath.Join(t.TempDir(), "tokens.json"), nil)
		cache := NewCache(filepath.Join(t.TempDir(), "photo_cache.json"), nil)
		p := NewPicker(auth, cache, nil)
		p.SetBaseURL("http://127.0.0.1:0")

		_, err := p.PollSession(context.Background(), "sess-1")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestFetchPhotos(t *testing.T) {
	t.Run("pages are accumulated and the cache replaced", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/mediaItems", r.URL.Path)
			assert.Equal(t, "sess-1", r.URL.Query().Get("sessionId"))
			assert.Equal(t, "100", r.URL.Query().Get("pageSize"))
			if r.URL.Query().Get("pageToken") == "" {
				w.Write([]byte(`{"mediaItems":[{"id":"m1","createTime":"2021-05-04T10:00:00Z","type":"PHOTO","mediaFile":{"baseUrl":"https://lh3.googleusercontent.com/m1","filename":"one.jpg"}}],"nextPageToken":"page2"}`))
				return
			}
			assert.Equal(t, "page2", r.URL.Query().Get("pageToken"))
			w.Write([]byte(`{"mediaItems":[{"id":"m2","type":"PHOTO","mediaFile":{"baseUrl":"https://lh3.googleusercontent.com/m2","filename":"two.jpg"}}]}`))
		}))
		defer srv.Close()

		p, cache := newTestPicker(t, srv.URL)
		records, err := p.FetchPhotos(context.Background(), "sess-1")
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, "https://lh3.googleusercontent.com/m1=w2048-h1536", records[0].URL)
		assert.Equal(t, "May 4, 2021", records[0].Exif.Date)
		assert.Equal(t, "m2", records[1].ID)
		// Missing createTime leaves the date empty.
		assert.Empty(t, records[1].Exif.Date)

		cached := cache.Load()
		require.Len(t, cached.Photos, 2)
		assert.NotZero(t, cached.LastUpdated)
	})

	t.Run("a failed page discards the whole fetch", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("pageToken") == "" {
				w.Write([]byte(`{"mediaItems":[{"id":"m1","mediaFile":{"baseUrl":"https://lh3.googleusercontent.com/m1"}}],"nextPageToken":"page2"}`))
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		p, cache := newTestPicker(t, srv.URL)
		_, err := p.FetchPhotos(context.Background(), "sess-1")
		require.Error(t, err)

		// Nothing from the first page leaked into the cache.
		assert.Empty(t, cache.Photos())
		_, written := cache.Age()
		assert.False(t, written)
	})
}

func TestFetchImage(t *testing.T) {
	t.Run("refuses non-google hosts", func(t *testing.T) {
		p, _ := newTestPicker(t, "http://127.0.0.1:0")
		_, _, err := p.FetchImage(context.Background(), "https://evil.example.com/image")
		assert.Error(t, err)
	})

	t.Run("refuses plain http", func(t *testing.T) {
		p, _ := newTestPicker(t, "http://127.0.0.1:0")
		_, _, err := p.FetchImage(context.Background(), "http://lh3.googleusercontent.com/image")
		assert.Error(t, err)
	})
}
