// Package library aggregates photos from the configured source and
// reports the library's overall state.
package library

import (
	"context"
	"log/slog"
	"time"

	"github.com/takeshy/wallframe/internal/config"
	"github.com/takeshy/wallframe/internal/googlephotos"
	"github.com/takeshy/wallframe/internal/photo"
)

// Library routes photo-list requests to exactly one source based on
// the configuration, which is re-read on every call.
type Library struct {
	config  *config.Store
	scanner *photo.Scanner
	auth    *googlephotos.Authenticator
	remote  *googlephotos.Cache
	log     *slog.Logger
}

// New wires the aggregator from its collaborators.
func New(cfg *config.Store, scanner *photo.Scanner, auth *googlephotos.Authenticator, remote *googlephotos.Cache, log *slog.Logger) *Library {
	if log == nil {
		log = slog.Default()
	}
	return &Library{config: cfg, scanner: scanner, auth: auth, remote: remote, log: log}
}

// Photos returns the current photo list from the configured source.
// The remote path reads the picker cache as-is; it never triggers a
// fetch and ignores staleness. The result is never nil.
func (l *Library) Photos(ctx context.Context) []photo.Record {
	cfg := l.config.Load()
	if cfg.PhotosSource == config.SourceGooglePhotos {
		return l.remote.Photos()
	}
	return l.scanner.Scan(ctx, cfg.PhotosFolder)
}

// Status is the informational snapshot surfaced by the status route.
// Stale means the remote cache is older than the configured refresh
// interval; it is advisory only.
type Status struct {
	Source        string `json:"source"`
	Authenticated bool   `json:"authenticated"`
	PhotoCount    int    `json:"photo_count"`
	LastUpdated   int64  `json:"last_updated,omitempty"`
	AgeSeconds    int64  `json:"age_seconds,omitempty"`
	Stale         bool   `json:"stale"`
}

// Status reports the library state without touching any photo source
// beyond the cheap cache read.
func (l *Library) Status(ctx context.Context) Status {
	cfg := l.config.Load()
	st := Status{
		Source:        cfg.PhotosSource,
		Authenticated: l.auth.Authorized(ctx),
	}

	cached := l.remote.Load()
	st.PhotoCount = len(cached.Photos)
	st.LastUpdated = cached.LastUpdated
	if cached.LastUpdated > 0 {
		age := time.Since(time.Unix(cached.LastUpdated, 0))
		st.AgeSeconds = int64(age.Seconds())
		st.Stale = age > time.Duration(cfg.GooglePhotosRefreshHours)*time.Hour
	}
	return st
}
