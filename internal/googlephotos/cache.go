package googlephotos

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/takeshy/wallframe/internal/photo"
)

// CachedPhotos is the persisted remote photo list. It is replaced
// wholesale on every successful fetch, never merged.
type CachedPhotos struct {
	Photos      []photo.Record `json:"photos"`
	LastUpdated int64          `json:"last_updated"`
}

// Cache is the disk-backed remote photo cache. Staleness is reported
// through Age but never enforced: a stale list is served until an
// explicit fetch replaces it.
type Cache struct {
	path string
	log  *slog.Logger
	mu   sync.Mutex
}

// NewCache manages the photo cache persisted at path.
func NewCache(path string, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{path: path, log: log}
}

// Load reads the cache from disk. A missing or corrupt file yields an
// empty cache, with a warning logged for the corrupt case.
func (c *Cache) Load() CachedPhotos {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Photos returns the cached photo list, never nil.
func (c *Cache) Photos() []photo.Record {
	cached := c.Load()
	if cached.Photos == nil {
		return []photo.Record{}
	}
	return cached.Photos
}

// Replace overwrites the cache with photos and a fresh timestamp.
func (c *Cache) Replace(photos []photo.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached := CachedPhotos{
		Photos:      photos,
		LastUpdated: time.Now().Unix(),
	}
	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal photo cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write photo cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace photo cache: %w", err)
	}
	return nil
}

// Age returns how long ago the cache was last replaced, and false when
// it has never been written.
func (c *Cache) Age() (time.Duration, bool) {
	cached := c.Load()
	if cached.LastUpdated == 0 {
		return 0, false
	}
	return time.Since(time.Unix(cached.LastUpdated, 0)), true
}

func (c *Cache) load() CachedPhotos {
	var cached CachedPhotos

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return cached
	}
	if err != nil {
		c.log.Warn("reading photo cache failed", "path", c.path, "error", err)
		return cached
	}
	if err := json.Unmarshal(data, &cached); err != nil {
		c.log.Warn("photo cache is corrupt, treating as empty", "path", c.path, "error", err)
		return CachedPhotos{}
	}
	return cached
}

func decodeJSON(r io.Reader, out any) error {
	return json.NewDecoder(r).Decode(out)
}
