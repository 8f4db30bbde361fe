// Package config loads the runtime configuration from a JSON file,
// overlaying defaults for any absent key. The file is re-read on every
// Load call so edits take effect without a restart.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Source selector values for the photos_source option.
const (
	SourceMedia        = "media"
	SourceGooglePhotos = "google_photos"
)

// Config is the full option set. It is immutable per request: every
// caller gets a fresh copy from Load.
type Config struct {
	HomeAssistantURL         string `json:"home_assistant_url" mapstructure:"home_assistant_url"`
	PhotosFolder             string `json:"photos_folder" mapstructure:"photos_folder"`
	PhotosSource             string `json:"photos_source" mapstructure:"photos_source"`
	IdleTimeoutSeconds       int    `json:"idle_timeout_seconds" mapstructure:"idle_timeout_seconds"`
	SlideIntervalSeconds     int    `json:"slide_interval_seconds" mapstructure:"slide_interval_seconds"`
	ClockPosition            string `json:"clock_position" mapstructure:"clock_position"`
	WeatherEntity            string `json:"weather_entity" mapstructure:"weather_entity"`
	MediaPlayerEntity        string `json:"media_player_entity" mapstructure:"media_player_entity"`
	GoogleClientID           string `json:"google_client_id" mapstructure:"google_client_id"`
	GoogleClientSecret       string `json:"google_client_secret" mapstructure:"google_client_secret"`
	GoogleRedirectURI        string `json:"google_redirect_uri" mapstructure:"google_redirect_uri"`
	GooglePhotosRefreshHours int    `json:"google_photos_refresh_hours" mapstructure:"google_photos_refresh_hours"`
}

var defaults = map[string]any{
	"home_assistant_url":          "http://homeassistant:8123",
	"photos_folder":               "/media",
	"photos_source":               SourceMedia,
	"idle_timeout_seconds":        60,
	"slide_interval_seconds":      5,
	"clock_position":              "bottom-center",
	"weather_entity":              "",
	"media_player_entity":         "",
	"google_client_id":            "",
	"google_client_secret":        "",
	"google_redirect_uri":         "",
	"google_photos_refresh_hours": 24,
}

// Store reads and writes the configuration file. It keeps no in-memory
// copy of the options themselves.
type Store struct {
	path string
	log  *slog.Logger
}

// NewStore creates a store for the config file at path.
func NewStore(path string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{path: path, log: log}
}

// Load reads the configuration file, filling any absent key from the
// defaults. A missing file yields pure defaults; a corrupt file does
// the same with a logged warning.
func (s *Store) Load() Config {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("json")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("reading config failed, using defaults", "path", s.path, "error", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		s.log.Warn("decoding config failed, using defaults", "path", s.path, "error", err)
		return defaultConfig()
	}
	return cfg
}

// Save replaces the configuration file wholesale.
func (s *Store) Save(cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		HomeAssistantURL:         defaults["home_assistant_url"].(string),
		PhotosFolder:             defaults["photos_folder"].(string),
		PhotosSource:             defaults["photos_source"].(string),
		IdleTimeoutSeconds:       defaults["idle_timeout_seconds"].(int),
		SlideIntervalSeconds:     defaults["slide_interval_seconds"].(int),
		ClockPosition:            defaults["clock_position"].(string),
		GooglePhotosRefreshHours: defaults["google_photos_refresh_hours"].(int),
	}
}
