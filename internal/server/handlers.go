package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/takeshy/wallframe/internal/config"
	"github.com/takeshy/wallframe/internal/googlephotos"
	"github.com/takeshy/wallframe/internal/homeassistant"
)

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.config.Load())
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg config.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid config payload"})
		return
	}
	if err := s.config.Save(cfg); err != nil {
		s.log.Error("saving config failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save config"})
		return
	}
	s.writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePhotos(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.library.Photos(r.Context()))
}

// handlePhotoFile serves one photo from the configured folder. The
// route pattern only matches a single path segment, and the separator
// check below rejects anything that could escape the folder.
func (s *Server) handlePhotoFile(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if filename == "" || filename == "." || filename == ".." ||
		strings.ContainsAny(filename, `/\`) {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
		return
	}

	cfg := s.config.Load()
	f, err := os.Open(filepath.Join(cfg.PhotosFolder, filename))
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			s.log.Error("permission denied serving photo", "filename", filename)
			s.writeJSON(w, http.StatusForbidden, map[string]string{"error": "Permission denied"})
			return
		}
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
		return
	}
	http.ServeContent(w, r, filename, info.ModTime(), f)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	cfg := s.config.Load()
	weather, err := s.ha.Weather(r.Context(), cfg.WeatherEntity)
	if err != nil {
		s.logProxyError("weather", err)
		s.writeJSON(w, http.StatusOK, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, weather)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	cfg := s.config.Load()
	media, err := s.ha.Media(r.Context(), cfg.MediaPlayerEntity)
	if err != nil {
		s.logProxyError("media", err)
		s.writeJSON(w, http.StatusOK, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, media)
}

func (s *Server) handleMediaImage(w http.ResponseWriter, r *http.Request) {
	imagePath := r.URL.Query().Get("url")
	if imagePath == "" || !strings.HasPrefix(imagePath, "/api/") {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid image URL"})
		return
	}

	data, contentType, err := s.ha.FetchImage(r.Context(), imagePath)
	if err != nil {
		s.log.Error("fetching media image failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch image"})
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

func (s *Server) mediaServiceHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := s.config.Load()
		err := s.ha.CallMediaService(r.Context(), cfg.MediaPlayerEntity, service, nil)
		if err != nil {
			s.logProxyError(service, err)
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"ok": err == nil})
	}
}

func (s *Server) handleMediaVolume(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VolumeLevel *float64 `json:"volume_level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.VolumeLevel == nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "volume_level required"})
		return
	}

	volume := min(1.0, max(0.0, *body.VolumeLevel))
	cfg := s.config.Load()
	err := s.ha.CallMediaService(r.Context(), cfg.MediaPlayerEntity, "volume_set",
		map[string]any{"volume_level": volume})
	if err != nil {
		s.logProxyError("volume_set", err)
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": err == nil})
}

func (s *Server) handleGoogleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.library.Status(r.Context()))
}

func (s *Server) handleAuthURL(w http.ResponseWriter, r *http.Request) {
	authURL, err := s.auth.AuthURL(s.config.Load())
	if err != nil {
		s.logProxyError("auth-url", err)
		s.writeJSON(w, http.StatusOK, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"auth_url": authURL})
}

const callbackSuccessPage = `<!DOCTYPE html>
<html><body style="font-family: sans-serif; text-align: center; padding-top: 4em;">
<h1>Google Photos connected</h1>
<p>Authorization complete. You can close this window.</p>
</body></html>`

const callbackFailurePage = `<!DOCTYPE html>
<html><body style="font-family: sans-serif; text-align: center; padding-top: 4em;">
<h1>Authorization failed</h1>
<p>Please return to the settings page and try again.</p>
</body></html>`

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	err := s.auth.HandleCallback(r.Context(), s.config.Load(), q.Get("state"), q.Get("code"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err != nil {
		s.log.Warn("authorization callback failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(callbackFailurePage))
		return
	}
	w.Write([]byte(callbackSuccessPage))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.picker.CreateSession(r.Context())
	if err != nil {
		s.logProxyError("create-session", err)
		s.writeJSON(w, http.StatusOK, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handlePollSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.picker.PollSession(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logProxyError("poll-session", err)
		s.writeJSON(w, http.StatusOK, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleFetchPhotos(w http.ResponseWriter, r *http.Request) {
	records, err := s.picker.FetchPhotos(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logProxyError("fetch-photos", err)
		s.writeJSON(w, http.StatusOK, map[string]any{"photos": []any{}, "count": 0})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"photos": records, "count": len(records)})
}

func (s *Server) handleProxyImage(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url required"})
		return
	}

	data, contentType, err := s.picker.FetchImage(r.Context(), rawURL)
	if err != nil {
		s.log.Warn("proxying picker image failed", "error", err)
		s.writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Failed to fetch image"})
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// logProxyError logs degraded upstream failures. Expected "not set up
// yet" conditions stay at debug so they do not flood the log.
func (s *Server) logProxyError(op string, err error) {
	switch {
	case errors.Is(err, googlephotos.ErrUnauthenticated),
		errors.Is(err, googlephotos.ErrNoCredentials),
		errors.Is(err, homeassistant.ErrNoEntity),
		errors.Is(err, homeassistant.ErrNoToken):
		s.log.Debug("upstream not configured", "op", op, "error", err)
	default:
		s.log.Warn("upstream call failed, serving default", "op", op, "error", err)
	}
}
