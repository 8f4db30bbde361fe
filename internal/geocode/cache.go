// Package geocode reverse-geocodes GPS coordinates through the
// OpenStreetMap Nominatim service, backed by a disk cache that holds
// one entry per ~1.1 km grid cell, including negative results.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultEndpoint = "https://nominatim.openstreetmap.org/reverse"
	userAgent       = "wallframe/1.0"
	requestTimeout  = 5 * time.Second
)

// Cache maps quantized coordinate keys to resolved place names. Lookups
// that fail are cached as null so a cell is queried at most once per
// process lifetime. External calls are paced to one per second.
type Cache struct {
	path     string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	log      *slog.Logger

	mu      sync.Mutex
	entries map[string]*string // nil value = negative entry
	dirty   bool
}

// NewCache loads the cache persisted at path. A missing or corrupt
// file starts an empty cache; a warning is logged for the corrupt case.
func NewCache(path string, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	c := &Cache{
		path:     path,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: requestTimeout},
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		log:      log,
		entries:  make(map[string]*string),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c
	}
	if err != nil {
		log.Warn("reading geocode cache failed", "path", path, "error", err)
		return c
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		log.Warn("geocode cache is corrupt, starting empty", "path", path, "error", err)
		c.entries = make(map[string]*string)
	}
	return c
}

// SetEndpoint overrides the Nominatim endpoint. Used by tests.
func (c *Cache) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

// Key quantizes a coordinate pair to the cache's grid cell key.
func Key(lat, lng float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lng)
}

// Resolve returns a display location for the coordinate pair: the
// cached or freshly resolved "City, Country" name, or the formatted
// coordinates when no name is resolvable. A cached key, including a
// cached negative, never touches the network or the rate limiter.
func (c *Cache) Resolve(ctx context.Context, lat, lng float64) string {
	key := Key(lat, lng)

	c.mu.Lock()
	defer c.mu.Unlock()

	place, ok := c.entries[key]
	if !ok {
		place = c.lookup(ctx, lat, lng)
		c.entries[key] = place
		c.dirty = true
	}

	if place == nil || *place == "" {
		return FormatCoords(lat, lng)
	}
	return *place
}

// lookup performs the single external reverse-geocoding call for a
// cell. Any failure returns nil, which the caller stores as a
// permanent negative entry. Called with c.mu held, which also makes
// the one-per-second pacing process-wide.
func (c *Cache) lookup(ctx context.Context, lat, lng float64) *string {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lng))
	q.Set("zoom", "10")
	q.Set("accept-language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("reverse geocoding failed", "lat", lat, "lng", lng, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("reverse geocoding failed", "lat", lat, "lng", lng, "status", resp.StatusCode)
		return nil
	}

	var body struct {
		Address struct {
			City         string `json:"city"`
			Town         string `json:"town"`
			Village      string `json:"village"`
			Hamlet       string `json:"hamlet"`
			Municipality string `json:"municipality"`
			Country      string `json:"country"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.log.Warn("reverse geocoding returned malformed response", "lat", lat, "lng", lng, "error", err)
		return nil
	}

	city := firstNonEmpty(
		body.Address.City,
		body.Address.Town,
		body.Address.Village,
		body.Address.Hamlet,
		body.Address.Municipality,
	)
	country := body.Address.Country

	var place string
	switch {
	case city != "" && country != "":
		place = city + ", " + country
	case city != "":
		place = city
	case country != "":
		place = country
	default:
		return nil
	}
	return &place
}

// Flush persists the cache to disk if any entries were added since the
// last flush. Writes go through a temp file rename so a crash cannot
// truncate the cache.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal geocode cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write geocode cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace geocode cache: %w", err)
	}

	c.dirty = false
	return nil
}

// FormatCoords renders a coordinate pair as a hemisphere-qualified
// string, e.g. "40.7°N, 74.0°W".
func FormatCoords(lat, lng float64) string {
	latDir := "N"
	if lat < 0 {
		latDir = "S"
	}
	lngDir := "E"
	if lng < 0 {
		lngDir = "W"
	}
	return fmt.Sprintf("%.1f°%s, %.1f°%s", math.Abs(lat), latDir, math.Abs(lng), lngDir)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
