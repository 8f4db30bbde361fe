package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/takeshy/wallframe/internal/config"
	"github.com/takeshy/wallframe/internal/geocode"
	"github.com/takeshy/wallframe/internal/googlephotos"
	"github.com/takeshy/wallframe/internal/homeassistant"
	"github.com/takeshy/wallframe/internal/library"
	"github.com/takeshy/wallframe/internal/photo"
)

var (
	Version = "dev"

	dataDir   string
	staticDir string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:     "wallframe",
	Short:   "Photo screensaver backend for Home Assistant",
	Version: Version,
	Long: `wallframe serves a photo slideshow backend for a Home Assistant
screensaver. Photos come from a local media folder (with EXIF dates and
reverse-geocoded locations) or from photos the user picked via the
Google Photos picker.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Directory for config and cache files (default: /data if present, else ~/.wallframe)")
	rootCmd.PersistentFlags().StringVar(&staticDir, "static-dir", "static", "Directory with the frontend assets")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
}

// app bundles the wired components shared by the subcommands.
type app struct {
	log     *slog.Logger
	config  *config.Store
	library *library.Library
	scanner *photo.Scanner
	auth    *googlephotos.Authenticator
	picker  *googlephotos.Picker
	ha      *homeassistant.Client
}

// buildApp wires every component against the resolved data directory.
func buildApp() (*app, error) {
	log := newLogger()

	dir, err := resolveDataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	cfgStore := config.NewStore(filepath.Join(dir, "config.json"), log)
	geocoder := geocode.NewCache(filepath.Join(dir, "geocache.json"), log)
	scanner := photo.NewScanner(geocoder, log)
	auth := googlephotos.NewAuthenticator(filepath.Join(dir, "google_tokens.json"), log)
	remote := googlephotos.NewCache(filepath.Join(dir, "google_photos_cache.json"), log)
	picker := googlephotos.NewPicker(auth, remote, log)
	lib := library.New(cfgStore, scanner, auth, remote, log)

	return &app{
		log:     log,
		config:  cfgStore,
		library: lib,
		scanner: scanner,
		auth:    auth,
		picker:  picker,
		ha:      homeassistant.NewFromEnv(log),
	}, nil
}

// resolveDataDir prefers the flag, then the addon's /data volume, then
// a dot directory in the user's home.
func resolveDataDir() (string, error) {
	if dataDir != "" {
		return dataDir, nil
	}
	if info, err := os.Stat("/data"); err == nil && info.IsDir() {
		return "/data", nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".wallframe"), nil
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
