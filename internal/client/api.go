package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry mirrors the server's entry document.
type Entry struct {
	ID            string  `json:"id"`
	UserID        string  `json:"userId"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Date          string  `json:"date"`
	Location      string  `json:"location"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Timestamp     int64   `json:"timestamp"`
	ImageBase64   string  `json:"imageBase64,omitempty"`
	AudioFileName string  `json:"audioFileName,omitempty"`
}

// HasLocation reports whether the entry carries coordinates.
func (e *Entry) HasLocation() bool { return e.Latitude != 0 || e.Longitude != 0 }

// NewEntry is the payload of a create call. ImagePath and AudioPath are local
// files attached as multipart parts when set.
type NewEntry struct {
	Title     string
	Content   string
	Location  string
	Latitude  float64
	Longitude float64
	ImagePath string
	AudioPath string
}

// EntryEdit is the payload of an update call. Setting ImageChanged or
// AudioChanged with an empty path clears the corresponding media.
type EntryEdit struct {
	Title     string
	Content   string
	Location  string
	Latitude  float64
	Longitude float64

	ImageChanged bool
	ImagePath    string
	AudioChanged bool
	AudioPath    string
}

// Session is the outcome of a successful login.
type Session struct {
	UserID      string
	AccessToken string
	ExpiresAt   time.Time
}

// API is an HTTP client for the chronicad server.
type API struct {
	baseURL string
	token   string
	hc      *http.Client
}

// NewAPI builds a client for the given server. token may be empty for the
// auth endpoints.
func NewAPI(baseURL, token string, timeout time.Duration) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		hc:      &http.Client{Timeout: timeout},
	}
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server: %s (HTTP %d)", e.Message, e.Status)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.Status == http.StatusUnauthorized
}

func (a *API) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error string `json:"error"`
		}
		msg := resp.Status
		if json.NewDecoder(resp.Body).Decode(&envelope) == nil && envelope.Error != "" {
			msg = envelope.Error
		}
		return &apiError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (a *API) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	ct := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		ct = "application/json"
	}
	return a.do(ctx, method, path, body, ct, out)
}

// Register creates an account and returns the new user ID.
func (a *API) Register(ctx context.Context, email, password string) (string, error) {
	var out struct {
		UserID string `json:"userId"`
	}
	err := a.doJSON(ctx, http.MethodPost, "/api/auth/register",
		map[string]string{"email": email, "password": password}, &out)
	return out.UserID, err
}

// Login authenticates and returns the session token.
func (a *API) Login(ctx context.Context, email, password string) (Session, error) {
	var out struct {
		UserID      string    `json:"userId"`
		AccessToken string    `json:"accessToken"`
		ExpiresAt   time.Time `json:"expiresAt"`
	}
	err := a.doJSON(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: out.UserID, AccessToken: out.AccessToken, ExpiresAt: out.ExpiresAt}, nil
}

// ListEntries returns the user's entries, newest first.
func (a *API) ListEntries(ctx context.Context) ([]Entry, error) {
	var out struct {
		Entries []Entry `json:"entries"`
	}
	err := a.doJSON(ctx, http.MethodGet, "/api/entries", nil, &out)
	return out.Entries, err
}

// GetEntry fetches a single entry.
func (a *API) GetEntry(ctx context.Context, id string) (*Entry, error) {
	var out struct {
		Entry Entry `json:"entry"`
	}
	if err := a.doJSON(ctx, http.MethodGet, "/api/entries/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

// CreateEntry submits a new entry. Media files ride along as multipart parts.
func (a *API) CreateEntry(ctx context.Context, n NewEntry) (*Entry, error) {
	var out struct {
		Entry Entry `json:"entry"`
	}

	if n.ImagePath == "" && n.AudioPath == "" {
		in := map[string]any{
			"title": n.Title, "content": n.Content, "location": n.Location,
			"latitude": n.Latitude, "longitude": n.Longitude,
		}
		if err := a.doJSON(ctx, http.MethodPost, "/api/entries", in, &out); err != nil {
			return nil, err
		}
		return &out.Entry, nil
	}

	fields := map[string]string{
		"title": n.Title, "content": n.Content, "location": n.Location,
		"latitude":  strconv.FormatFloat(n.Latitude, 'f', -1, 64),
		"longitude": strconv.FormatFloat(n.Longitude, 'f', -1, 64),
	}
	files := map[string]string{}
	if n.ImagePath != "" {
		files["photo"] = n.ImagePath
	}
	if n.AudioPath != "" {
		files["audio"] = n.AudioPath
	}
	body, ct, err := multipartBody(fields, files)
	if err != nil {
		return nil, err
	}
	if err := a.do(ctx, http.MethodPost, "/api/entries", body, ct, &out); err != nil {
		return nil, err
	}
	return &out.Entry, nil
}

// UpdateEntry submits an edit; untouched media stays as stored.
func (a *API) UpdateEntry(ctx context.Context, id string, e EntryEdit) error {
	fields := map[string]string{
		"title": e.Title, "content": e.Content, "location": e.Location,
		"latitude":  strconv.FormatFloat(e.Latitude, 'f', -1, 64),
		"longitude": strconv.FormatFloat(e.Longitude, 'f', -1, 64),
	}
	files := map[string]string{}
	if e.ImageChanged {
		fields["image_changed"] = "true"
		if e.ImagePath != "" {
			files["photo"] = e.ImagePath
		}
	}
	if e.AudioChanged {
		fields["audio_changed"] = "true"
		if e.AudioPath != "" {
			files["audio"] = e.AudioPath
		}
	}
	body, ct, err := multipartBody(fields, files)
	if err != nil {
		return err
	}
	return a.do(ctx, http.MethodPatch, "/api/entries/"+id, body, ct, nil)
}

// DeleteEntry removes an entry and its media.
func (a *API) DeleteEntry(ctx context.Context, id string) error {
	return a.doJSON(ctx, http.MethodDelete, "/api/entries/"+id, nil, nil)
}

// MapEntries returns only the entries that carry coordinates.
func (a *API) MapEntries(ctx context.Context) ([]Entry, error) {
	var out struct {
		Entries []Entry `json:"entries"`
	}
	err := a.doJSON(ctx, http.MethodGet, "/api/map/entries", nil, &out)
	return out.Entries, err
}

// Locate reverse-geocodes a coordinate pair into a display label.
func (a *API) Locate(ctx context.Context, lat, lng float64) (string, error) {
	var out struct {
		Label string `json:"label"`
	}
	err := a.doJSON(ctx, http.MethodPost, "/api/locate",
		map[string]float64{"latitude": lat, "longitude": lng}, &out)
	return out.Label, err
}

// DownloadAudio streams the entry's clip to dst and returns its path.
func (a *API) DownloadAudio(ctx context.Context, id, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/api/entries/"+id+"/audio", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &apiError{Status: resp.StatusCode, Message: "audio unavailable"}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, resp.Body)
	return err
}

func multipartBody(fields, files map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	for field, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, "", err
		}
		part, err := mw.CreateFormFile(field, filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, f)
		}
		f.Close()
		if err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
