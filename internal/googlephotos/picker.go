package googlephotos

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/takeshy/wallframe/internal/photo"
)

const (
	defaultPickerBaseURL = "https://photospicker.googleapis.com/v1"

	// photoSizeSuffix is appended to each item's base content URL to
	// request a render sized for the display.
	photoSizeSuffix = "=w2048-h1536"

	pickerTimeout = 10 * time.Second
	fetchPageSize = 100
)

// Session describes a picker session as returned by the remote API.
// PickerURI is where the user selects items; PollInterval hints how
// often the caller should re-poll.
type Session struct {
	ID            string        `json:"id"`
	PickerURI     string        `json:"pickerUri"`
	PollingConfig PollingConfig `json:"pollingConfig"`
	MediaItemsSet bool          `json:"mediaItemsSet"`
	ExpireTime    string        `json:"expireTime,omitempty"`
}

// PollingConfig is the remote side's polling hint.
type PollingConfig struct {
	PollInterval string `json:"pollInterval,omitempty"`
	TimeoutIn    string `json:"timeoutIn,omitempty"`
}

// Picker drives the three-step session workflow against the picker
// API. Each method is a single round-trip; polling loops belong to the
// caller.
type Picker struct {
	auth    *Authenticator
	cache   *Cache
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewPicker creates a picker client that authenticates through auth
// and writes fetched photo lists into cache.
func NewPicker(auth *Authenticator, cache *Cache, log *slog.Logger) *Picker {
	if log == nil {
		log = slog.Default()
	}
	return &Picker{
		auth:    auth,
		cache:   cache,
		baseURL: defaultPickerBaseURL,
		client:  &http.Client{Timeout: pickerTimeout},
		log:     log,
	}
}

// SetBaseURL overrides the picker API endpoint. Used by tests.
func (p *Picker) SetBaseURL(base string) {
	p.baseURL = base
}

// CreateSession opens a new picker session.
func (p *Picker) CreateSession(ctx context.Context) (*Session, error) {
	var session Session
	if err := p.do(ctx, http.MethodPost, p.baseURL+"/sessions", &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// PollSession reads the current state of a session.
func (p *Picker) PollSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	u := p.baseURL + "/sessions/" + url.PathEscape(sessionID)
	if err := p.do(ctx, http.MethodGet, u, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

type mediaItem struct {
	ID         string `json:"id"`
	CreateTime string `json:"createTime"`
	Type       string `json:"type"`
	MediaFile  struct {
		BaseURL  string `json:"baseUrl"`
		MimeType string `json:"mimeType"`
		Filename string `json:"filename"`
	} `json:"mediaFile"`
}

type mediaItemsPage struct {
	MediaItems    []mediaItem `json:"mediaItems"`
	NextPageToken string      `json:"nextPageToken"`
}

// FetchPhotos pages through every item the user selected in a
// completed session and replaces the photo cache wholesale with the
// result. A failure on any page discards everything accumulated so
// far; the cache is only written after the last page succeeded.
func (p *Picker) FetchPhotos(ctx context.Context, sessionID string) ([]photo.Record, error) {
	var records []photo.Record
	pageToken := ""

	for {
		q := url.Values{}
		q.Set("sessionId", sessionID)
		q.Set("pageSize", fmt.Sprintf("%d", fetchPageSize))
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var page mediaItemsPage
		if err := p.do(ctx, http.MethodGet, p.baseURL+"/mediaItems?"+q.Encode(), &page); err != nil {
			return nil, fmt.Errorf("fetch media items: %w", err)
		}

		for _, item := range page.MediaItems {
			records = append(records, mapMediaItem(item))
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	if err := p.cache.Replace(records); err != nil {
		return nil, err
	}

	p.log.Info("fetched picked photos", "session", sessionID, "count", len(records))
	return records, nil
}

// mapMediaItem converts a remote item to a photo record. The picker
// API does not expose locations, so only the date is filled in.
func mapMediaItem(item mediaItem) photo.Record {
	rec := photo.Record{
		URL:      item.MediaFile.BaseURL + photoSizeSuffix,
		Source:   photo.SourceRemote,
		ID:       item.ID,
		Filename: item.MediaFile.Filename,
	}
	if t, err := time.Parse(time.RFC3339, item.CreateTime); err == nil {
		rec.Exif.Date = t.Format(photo.DateFormat)
	}
	return rec
}

// FetchImage downloads a photo render from its content URL with the
// bearer token attached; base content URLs are not publicly
// accessible. Only googleusercontent hosts are allowed.
func (p *Picker) FetchImage(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" || !strings.HasSuffix(u.Hostname(), ".googleusercontent.com") {
		return nil, "", fmt.Errorf("refusing to proxy %q", rawURL)
	}

	rec, err := p.auth.ValidToken(ctx)
	if err != nil {
		return nil, "", err
	}
	if rec == nil {
		return nil, "", ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+rec.AccessToken)

	resp, err := p.client.Do(req)
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

// do performs one authenticated round-trip and decodes the JSON
// response into out.
func (p *Picker) do(ctx context.Context, method, rawURL string, out any) error {
	rec, err := p.auth.ValidToken(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+rec.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("picker API call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("picker API returned status %d: %s", resp.StatusCode, body)
	}
	if err := decodeJSON(resp.Body, out); err != nil {
		return fmt.Errorf("parse picker response: %w", err)
	}
	return nil
}
