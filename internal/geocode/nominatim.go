// Package geocode resolves coordinates into human-readable place labels.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Resolver turns a coordinate pair into a display label. Implementations
// never fail: when lookup is impossible the formatted coordinates are
// returned instead.
type Resolver interface {
	Reverse(ctx context.Context, lat, lng float64) string
}

// FallbackLabel formats coordinates for display when geocoding fails.
func FallbackLabel(lat, lng float64) string {
	return fmt.Sprintf("Lat: %.4f, Lng: %.4f", lat, lng)
}

// Nominatim reverse-geocodes through the OSM Nominatim HTTP API.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewNominatim constructs a resolver against the given API base URL.
func NewNominatim(baseURL, userAgent string) *Nominatim {
	return &Nominatim{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

type reverseResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Country string `json:"country"`
	} `json:"address"`
}

// Reverse resolves "locality, country" for the coordinates. Any transport,
// decode, or empty-result condition falls back to formatted coordinates; the
// caller's operation never fails on geocoding.
func (n *Nominatim) Reverse(ctx context.Context, lat, lng float64) string {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return FallbackLabel(lat, lng)
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return FallbackLabel(lat, lng)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FallbackLabel(lat, lng)
	}

	var rr reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return FallbackLabel(lat, lng)
	}

	locality := rr.Address.City
	if locality == "" {
		locality = rr.Address.Town
	}
	if locality == "" {
		locality = rr.Address.Village
	}
	if locality == "" || rr.Address.Country == "" {
		return FallbackLabel(lat, lng)
	}
	return locality + ", " + rr.Address.Country
}
