// Package server exposes the photo library, Google Photos workflow and
// Home Assistant proxies over HTTP. Handlers translate component
// failures into benign defaults; requests are answered, never crashed.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/takeshy/wallframe/internal/config"
	"github.com/takeshy/wallframe/internal/googlephotos"
	"github.com/takeshy/wallframe/internal/homeassistant"
	"github.com/takeshy/wallframe/internal/library"
)

// Server holds the handler dependencies.
type Server struct {
	config    *config.Store
	library   *library.Library
	auth      *googlephotos.Authenticator
	picker    *googlephotos.Picker
	ha        *homeassistant.Client
	staticDir string
	log       *slog.Logger
}

// New wires a server from its collaborators. staticDir may be empty to
// disable static asset serving.
func New(cfg *config.Store, lib *library.Library, auth *googlephotos.Authenticator, picker *googlephotos.Picker, ha *homeassistant.Client, staticDir string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		config:    cfg,
		library:   lib,
		auth:      auth,
		picker:    picker,
		ha:        ha,
		staticDir: staticDir,
		log:       log,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleUpdateConfig)
	mux.HandleFunc("GET /api/photos", s.handlePhotos)
	mux.HandleFunc("GET /photos/{filename}", s.handlePhotoFile)

	mux.HandleFunc("GET /api/weather", s.handleWeather)
	mux.HandleFunc("GET /api/media", s.handleMedia)
	mux.HandleFunc("GET /api/media/image", s.handleMediaImage)
	mux.HandleFunc("POST /api/media/play_pause", s.mediaServiceHandler("media_play_pause"))
	mux.HandleFunc("POST /api/media/next", s.mediaServiceHandler("media_next_track"))
	mux.HandleFunc("POST /api/media/previous", s.mediaServiceHandler("media_previous_track"))
	mux.HandleFunc("POST /api/media/volume", s.handleMediaVolume)

	mux.HandleFunc("GET /api/googlephotos/status", s.handleGoogleStatus)
	mux.HandleFunc("GET /api/googlephotos/auth-url", s.handleAuthURL)
	mux.HandleFunc("GET /api/googlephotos/callback", s.handleCallback)
	mux.HandleFunc("POST /api/googlephotos/create-session", s.handleCreateSession)
	mux.HandleFunc("GET /api/googlephotos/poll-session/{id}", s.handlePollSession)
	mux.HandleFunc("POST /api/googlephotos/fetch-photos/{id}", s.handleFetchPhotos)
	mux.HandleFunc("GET /api/googlephotos/proxy-image", s.handleProxyImage)

	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}

	return corsMiddleware(mux)
}

// writeJSON renders v as the response body. nil renders as JSON null,
// matching the degrade-to-null policy of the proxy routes.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding response failed", "error", err)
	}
}
