// Package googlephotos manages the OAuth credential lifecycle and the
// picker-session protocol for the Google Photos Picker API, plus the
// disk cache the picked photo list lands in.
package googlephotos

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/takeshy/wallframe/internal/config"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
)

// Scopes requested during authorization. The picker scope only grants
// access to items the user explicitly selects.
var Scopes = []string{"https://www.googleapis.com/auth/photospicker.mediaitems.readonly"}

var (
	// ErrNoCredentials means client id or secret are absent from the
	// configuration; no network call was made.
	ErrNoCredentials = errors.New("googlephotos: client credentials not configured")
	// ErrStateMismatch means the callback carried a missing or wrong
	// state value. The attempt is terminal; a new flow must be started.
	ErrStateMismatch = errors.New("googlephotos: authorization state mismatch")
	// ErrUnauthenticated means no usable token exists.
	ErrUnauthenticated = errors.New("googlephotos: not authenticated")
)

// TokenRecord is the persisted OAuth token state. Exactly one record
// exists per process; absence of the backing file means
// "unauthenticated".
type TokenRecord struct {
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	TokenEndpoint string    `json:"token_endpoint"`
	ClientID      string    `json:"client_id"`
	ClientSecret  string    `json:"client_secret"`
	Scopes        []string  `json:"scopes"`
	Expiry        time.Time `json:"expiry"`
}

// Authenticator drives the two-phase authorization handshake and keeps
// the persisted token fresh. Refresh is mutually exclusive: concurrent
// expired-token callers serialize on one refresh.
type Authenticator struct {
	path     string
	endpoint oauth2.Endpoint
	log      *slog.Logger

	mu           sync.Mutex
	pendingState string
}

// NewAuthenticator manages the token record persisted at path.
func NewAuthenticator(path string, log *slog.Logger) *Authenticator {
	if log == nil {
		log = slog.Default()
	}
	return &Authenticator{
		path: path,
		endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: googleTokenURL,
		},
		log: log,
	}
}

// SetEndpoint overrides the OAuth endpoints. Used by tests.
func (a *Authenticator) SetEndpoint(endpoint oauth2.Endpoint) {
	a.endpoint = endpoint
}

// AuthURL builds the authorization URL for phase one of the handshake,
// binding it to a freshly generated opaque state value.
func (a *Authenticator) AuthURL(cfg config.Config) (string, error) {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return "", ErrNoCredentials
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	state := hex.EncodeToString(buf)

	a.mu.Lock()
	a.pendingState = state
	a.mu.Unlock()

	conf := a.oauthConfig(cfg)
	return conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// HandleCallback completes phase two: it validates the returned state,
// exchanges the authorization code for tokens and persists them.
func (a *Authenticator) HandleCallback(ctx context.Context, cfg config.Config, state, code string) error {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return ErrNoCredentials
	}

	a.mu.Lock()
	expected := a.pendingState
	a.pendingState = ""
	a.mu.Unlock()

	if state == "" || state != expected {
		return ErrStateMismatch
	}
	if code == "" {
		return fmt.Errorf("googlephotos: callback without authorization code")
	}

	conf := a.oauthConfig(cfg)
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	rec := &TokenRecord{
		AccessToken:   tok.AccessToken,
		RefreshToken:  tok.RefreshToken,
		TokenEndpoint: conf.Endpoint.TokenURL,
		ClientID:      cfg.GoogleClientID,
		ClientSecret:  cfg.GoogleClientSecret,
		Scopes:        Scopes,
		Expiry:        tok.Expiry,
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.save(rec)
}

// ValidToken returns a non-expired token record, silently refreshing
// an expired one when a refresh token is present. It returns (nil, nil)
// when unauthenticated and (nil, err) when a refresh attempt failed;
// a failed refresh leaves the stale record in place for a later retry.
func (a *Authenticator) ValidToken(ctx context.Context) (*TokenRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, err := a.load()
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	tok := &oauth2.Token{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		Expiry:       rec.Expiry,
		TokenType:    "Bearer",
	}
	if tok.Valid() {
		return rec, nil
	}
	if rec.RefreshToken == "" {
		return nil, nil
	}

	conf := &oauth2.Config{
		ClientID:     rec.ClientID,
		ClientSecret: rec.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: rec.TokenEndpoint},
		Scopes:       rec.Scopes,
	}
	fresh, err := conf.TokenSource(ctx, tok).Token()
	if err != nil {
		a.log.Warn("token refresh failed", "error", err)
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	rec.AccessToken = fresh.AccessToken
	rec.Expiry = fresh.Expiry
	if fresh.RefreshToken != "" {
		rec.RefreshToken = fresh.RefreshToken
	}
	if err := a.save(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Authorized reports whether a usable token is currently available.
func (a *Authenticator) Authorized(ctx context.Context) bool {
	rec, err := a.ValidToken(ctx)
	return err == nil && rec != nil
}

// load reads the persisted record. Called with a.mu held.
func (a *Authenticator) load() (*TokenRecord, error) {
	data, err := os.ReadFile(a.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token record: %w", err)
	}
	var rec TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		a.log.Warn("token record is corrupt, treating as unauthenticated", "path", a.path, "error", err)
		return nil, nil
	}
	return &rec, nil
}

// save persists the record with owner-only permissions. Called with
// a.mu held.
func (a *Authenticator) save(rec *TokenRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token record: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := os.WriteFile(a.path, data, 0o600); err != nil {
		return fmt.Errorf("write token record: %w", err)
	}
	return nil
}

func (a *Authenticator) oauthConfig(cfg config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
		Scopes:       Scopes,
		Endpoint:     a.endpoint,
	}
}
