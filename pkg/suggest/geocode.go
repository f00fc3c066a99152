package suggest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"
)

// DefaultGeocodeLimit is the number of places requested per query.
const DefaultGeocodeLimit = 8

// maxGeocodeBody bounds how much of a response is read.
const maxGeocodeBody = 1 << 20

// GeocodeFetcher looks up places on a Nominatim-compatible search endpoint.
type GeocodeFetcher struct {
	endpoint  string
	userAgent string
	limit     int
	client    *http.Client
}

// NewGeocodeFetcher creates a fetcher for endpoint (e.g. ".../search").
// A nil client gets a default with a 5s timeout.
func NewGeocodeFetcher(endpoint, userAgent string, limit int, client *http.Client) *GeocodeFetcher {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if limit <= 0 {
		limit = DefaultGeocodeLimit
	}
	return &GeocodeFetcher{endpoint: endpoint, userAgent: userAgent, limit: limit, client: client}
}

// Fetch queries the endpoint and maps each place to an Option.
// Non-2xx responses and malformed bodies are errors.
func (f *GeocodeFetcher) Fetch(ctx context.Context, query string) ([]Option, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Option{}, nil
	}

	u, err := url.Parse(f.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid geocoder endpoint %q: %w", f.endpoint, err)
	}
	params := u.Query()
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(f.limit))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGeocodeBody))
	if err != nil {
		return nil, fmt.Errorf("reading geocoder response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("geocoder returned %s", resp.Status)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("geocoder returned malformed JSON")
	}

	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return nil, fmt.Errorf("geocoder returned %s, expected an array", result.Type)
	}

	opts := make([]Option, 0, len(result.Array()))
	seen := make(map[string]bool)
	for _, place := range result.Array() {
		name := place.Get("display_name").String()
		id := place.Get("place_id").String()
		if name == "" || id == "" || seen[id] {
			continue
		}
		seen[id] = true
		meta := map[string]string{}
		if t := place.Get("type").String(); t != "" {
			meta["subtitle"] = t
		}
		if lat, lon := place.Get("lat").String(), place.Get("lon").String(); lat != "" && lon != "" {
			meta["lat"], meta["lon"] = lat, lon
		}
		opts = append(opts, Option{ID: id, Name: name, Meta: meta})
	}
	log.Debugf("Geocoder returned %d places for '%s'", len(opts), query)
	return opts, nil
}
