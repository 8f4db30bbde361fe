package photo

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// imageExtensions are the file extensions the scanner accepts, matched
// case-insensitively.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Geocoder resolves decimal GPS coordinates to a display location.
// Implementations are expected to cache aggressively; Flush persists
// any entries accumulated during a scan.
type Geocoder interface {
	Resolve(ctx context.Context, lat, lng float64) string
	Flush() error
}

// Scanner enumerates the direct children of a photo folder and builds
// enriched photo records for each image file.
type Scanner struct {
	geocoder Geocoder
	log      *slog.Logger
}

// NewScanner creates a scanner. geocoder may be nil, in which case GPS
// coordinates are dropped without resolution.
func NewScanner(geocoder Geocoder, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{geocoder: geocoder, log: log}
}

// Scan lists image files directly under folder, ordered ascending by
// URL. Missing folders, permission errors and unreadable entries all
// degrade to an empty (or shorter) list; Scan never returns an error.
func (s *Scanner) Scan(ctx context.Context, folder string) []Record {
	info, err := os.Stat(folder)
	if err != nil {
		s.log.Warn("photos folder does not exist", "folder", folder)
		return []Record{}
	}
	if !info.IsDir() {
		s.log.Warn("photos path is not a directory", "folder", folder)
		return []Record{}
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		s.log.Error("reading photos folder failed", "folder", folder, "error", err)
		return []Record{}
	}

	photos := make([]Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !imageExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		rec := Record{
			URL:      "/photos/" + name,
			Source:   SourceLocal,
			Filename: name,
		}

		meta := ExtractMeta(filepath.Join(folder, name))
		rec.Exif.Date = meta.Date
		if meta.Lat != nil && meta.Lng != nil && s.geocoder != nil {
			rec.Exif.Location = s.geocoder.Resolve(ctx, *meta.Lat, *meta.Lng)
		}

		photos = append(photos, rec)
	}

	if s.geocoder != nil {
		if err := s.geocoder.Flush(); err != nil {
			s.log.Warn("persisting geocode cache failed", "error", err)
		}
	}

	sort.Slice(photos, func(i, j int) bool { return photos[i].URL < photos[j].URL })

	s.log.Info("scanned photos folder", "folder", folder, "count", len(photos))
	return photos
}
