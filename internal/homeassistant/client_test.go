package homeassistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeather(t *testing.T) {
	t.Run("maps the weather entity state", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/states/weather.home", r.URL.Path)
			assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
			w.Write([]byte(`{"state":"sunny","attributes":{"temperature":21.5,"temperature_unit":"°F"}}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "token", nil)
		weather, err := c.Weather(context.Background(), "weather.home")
		require.NoError(t, err)
		assert.Equal(t, "sunny", weather.Condition)
		require.NotNil(t, weather.Temperature)
		assert.Equal(t, 21.5, *weather.Temperature)
		assert.Equal(t, "°F", weather.TemperatureUnit)
	})

	t.Run("temperature unit defaults to celsius", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"state":"cloudy","attributes":{}}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "token", nil)
		weather, err := c.Weather(context.Background(), "weather.home")
		require.NoError(t, err)
		assert.Equal(t, "°C", weather.TemperatureUnit)
		assert.Nil(t, weather.Temperature)
	})

	t.Run("missing entity id fails without a call", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:0", "token", nil)
		_, err := c.Weather(context.Background(), "")
		assert.ErrorIs(t, err, ErrNoEntity)
	})

	t.Run("missing token fails without a call", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:0", "", nil)
		_, err := c.Weather(context.Background(), "weather.home")
		assert.ErrorIs(t, err, ErrNoToken)
	})
}

func TestMedia(t *testing.T) {
	t.Run("maps the media player state", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"state":"playing","attributes":{
				"media_title":"Song","media_artist":"Artist","media_album_name":"Album",
				"volume_level":0.4,"entity_picture":"/api/media_player_proxy/media_player.x?token=abc"}}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "token", nil)
		media, err := c.Media(context.Background(), "media_player.living_room")
		require.NoError(t, err)
		assert.Equal(t, "playing", media.State)
		assert.Equal(t, "Song", media.Title)
		assert.Equal(t, "Artist", media.Artist)
		require.NotNil(t, media.VolumeLevel)
		assert.Equal(t, 0.4, *media.VolumeLevel)
		// Relative entity pictures go through the local proxy.
		assert.Equal(t, "/api/media/image?url=%2Fapi%2Fmedia_player_proxy%2Fmedia_player.x%3Ftoken%3Dabc", media.ImageURL)
	})

	t.Run("absolute entity pictures pass through untouched", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"state":"playing","attributes":{"entity_picture":"https://cdn.example.com/art.jpg"}}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "token", nil)
		media, err := c.Media(context.Background(), "media_player.living_room")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/art.jpg", media.ImageURL)
	})
}

func TestCallMediaService(t *testing.T) {
	t.Run("posts the service call with merged body", func(t *testing.T) {
		var body map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/services/media_player/volume_set", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "token", nil)
		err := c.CallMediaService(context.Background(), "media_player.living_room", "volume_set",
			map[string]any{"volume_level": 0.6})
		require.NoError(t, err)
		assert.Equal(t, "media_player.living_room", body["entity_id"])
		assert.Equal(t, 0.6, body["volume_level"])
	})

	t.Run("upstream error statuses surface as errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "token", nil)
		err := c.CallMediaService(context.Background(), "media_player.living_room", "media_play_pause", nil)
		assert.Error(t, err)
	})
}

func TestFetchImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/media_player_proxy/x", r.URL.Path)
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token", nil)
	data, contentType, err := c.FetchImage(context.Background(), "/api/media_player_proxy/x")
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, []byte("png-bytes"), data)
}
