// Package maps resolves venue addresses to coordinates.
package maps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

var (
	ErrNoResults     = errors.New("address not found")
	ErrNotConfigured = errors.New("geocoding not configured")
)

type Location struct {
	Lat              float64
	Lng              float64
	FormattedAddress string
}

// Geocoder turns a free-form address into a location.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Location, error)
}

// Client calls the Google Geocoding API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return NewClientWithURL("https://maps.googleapis.com/maps/api/geocode/json", apiKey)
}

func NewClientWithURL(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) Geocode(ctx context.Context, address string) (*Location, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding returned status %d", resp.StatusCode)
	}

	switch status := gjson.GetBytes(body, "status").String(); status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNoResults
	default:
		return nil, fmt.Errorf("geocoding failed: %s %s", status, gjson.GetBytes(body, "error_message").String())
	}

	first := gjson.GetBytes(body, "results.0")
	return &Location{
		Lat:              first.Get("geometry.location.lat").Float(),
		Lng:              first.Get("geometry.location.lng").Float(),
		FormattedAddress: first.Get("formatted_address").String(),
	}, nil
}
