// Package homeassistant proxies weather and media-player state from
// the Home Assistant Supervisor API. All calls are stateless
// pass-throughs; failures degrade to nil results at the serving layer.
package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://supervisor/core"

	stateTimeout = 5 * time.Second
	imageTimeout = 10 * time.Second
)

var (
	// ErrNoToken means no Supervisor token is available; no call was made.
	ErrNoToken = errors.New("homeassistant: supervisor token not available")
	// ErrNoEntity means the required entity id is not configured.
	ErrNoEntity = errors.New("homeassistant: entity not configured")
)

// Client talks to the Supervisor core API with a bearer token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     *slog.Logger
}

// NewClient creates a client against baseURL using token.
func NewClient(baseURL, token string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: imageTimeout},
		log:     log,
	}
}

// NewFromEnv creates a client using the SUPERVISOR_TOKEN the addon
// runtime injects.
func NewFromEnv(log *slog.Logger) *Client {
	return NewClient(defaultBaseURL, os.Getenv("SUPERVISOR_TOKEN"), log)
}

// Weather is the trimmed-down weather entity state served to the client.
type Weather struct {
	Condition       string   `json:"condition"`
	Temperature     *float64 `json:"temperature"`
	TemperatureUnit string   `json:"temperature_unit"`
}

// MediaState is the current media player snapshot.
type MediaState struct {
	State       string   `json:"state"`
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Album       string   `json:"album"`
	ImageURL    string   `json:"image_url,omitempty"`
	VolumeLevel *float64 `json:"volume_level"`
}

type entityState struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes"`
}

// Weather fetches the state of the configured weather entity.
func (c *Client) Weather(ctx context.Context, entity string) (*Weather, error) {
	st, err := c.state(ctx, entity)
	if err != nil {
		return nil, err
	}

	w := &Weather{
		Condition:       st.State,
		TemperatureUnit: "°C",
	}
	if t, ok := st.Attributes["temperature"].(float64); ok {
		w.Temperature = &t
	}
	if unit, ok := st.Attributes["temperature_unit"].(string); ok && unit != "" {
		w.TemperatureUnit = unit
	}
	return w, nil
}

// Media fetches the state of the configured media player entity.
// Relative entity pictures are rewritten to the local image proxy so
// the browser never needs a Supervisor token.
func (c *Client) Media(ctx context.Context, entity string) (*MediaState, error) {
	st, err := c.state(ctx, entity)
	if err != nil {
		return nil, err
	}

	m := &MediaState{State: st.State}
	m.Title, _ = st.Attributes["media_title"].(string)
	m.Artist, _ = st.Attributes["media_artist"].(string)
	m.Album, _ = st.Attributes["media_album_name"].(string)
	if v, ok := st.Attributes["volume_level"].(float64); ok {
		m.VolumeLevel = &v
	}

	if picture, ok := st.Attributes["entity_picture"].(string); ok && picture != "" {
		if strings.HasPrefix(picture, "/") {
			m.ImageURL = "/api/media/image?url=" + url.QueryEscape(picture)
		} else {
			m.ImageURL = picture
		}
	}
	return m, nil
}

// CallMediaService invokes a media_player service for entity, merging
// extra into the request body.
func (c *Client) CallMediaService(ctx context.Context, entity, service string, extra map[string]any) error {
	if entity == "" {
		return ErrNoEntity
	}
	if c.token == "" {
		return ErrNoToken
	}

	body := map[string]any{"entity_id": entity}
	for k, v := range extra {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal service call: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, stateTimeout)
	defer cancel()

	u := c.baseURL + "/api/services/media_player/" + url.PathEscape(service)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call media_player/%s: %w", service, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("media_player/%s returned status %d", service, resp.StatusCode)
	}
	return nil
}

// FetchImage proxies an image path (e.g. album art) through the
// Supervisor, returning the bytes and content type.
func (c *Client) FetchImage(ctx context.Context, path string) ([]byte, string, error) {
	if c.token == "" {
		return nil, "", ErrNoToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return data, contentType, nil
}

func (c *Client) state(ctx context.Context, entity string) (*entityState, error) {
	if entity == "" {
		return nil, ErrNoEntity
	}
	if c.token == "" {
		return nil, ErrNoToken
	}

	ctx, cancel := context.WithTimeout(ctx, stateTimeout)
	defer cancel()

	u := c.baseURL + "/api/states/" + url.PathEscape(entity)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch state for %s: %w", entity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("state fetch for %s returned status %d", entity, resp.StatusCode)
	}

	var st entityState
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("parse state for %s: %w", entity, err)
	}
	return &st, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
}
