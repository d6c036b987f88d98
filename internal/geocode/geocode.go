// Package geocode resolves GPS coordinates to address fields for the
// household address auto-fill. It is a convenience with independent failure
// handling: when the upstream service is down the client falls back to
// manual entry, nothing else in the app depends on it.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Address is the normalized reverse-geocoding result.
type Address struct {
	DisplayName string `json:"displayName"`
	Road        string `json:"road,omitempty"`
	HouseNumber string `json:"houseNumber,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Client calls a Nominatim-compatible reverse geocoding endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a geocoding client. An empty baseURL selects the public
// Nominatim instance.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Postcode    string `json:"postcode"`
		Country     string `json:"country"`
	} `json:"address"`
}

// Reverse resolves coordinates to an address.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Address, error) {
	endpoint := fmt.Sprintf("%s/reverse?%s", c.baseURL, url.Values{
		"format": {"jsonv2"},
		"lat":    {fmt.Sprintf("%f", lat)},
		"lon":    {fmt.Sprintf("%f", lng)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build reverse geocoding request: %w", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", "musa-backend")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reverse geocoding returned status %d", resp.StatusCode)
	}

	var raw nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode reverse geocoding response: %w", err)
	}

	city := raw.Address.City
	if city == "" {
		city = raw.Address.Town
	}
	if city == "" {
		city = raw.Address.Village
	}

	return &Address{
		DisplayName: raw.DisplayName,
		Road:        raw.Address.Road,
		HouseNumber: raw.Address.HouseNumber,
		City:        city,
		State:       raw.Address.State,
		PostalCode:  raw.Address.Postcode,
		Country:     raw.Address.Country,
	}, nil
}
