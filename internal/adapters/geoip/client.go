// Package geoip implements the IP geolocation provider client.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	portsrepo "github.com/storelens/multicurrency/internal/core/ports/repositories"
)

type lookupResponse struct {
	CountryCode string `json:"countryCode"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a geolocation client. An empty baseURL yields a client
// that locates nothing; callers fall back to the configured store country.
func NewClient(baseURL string) portsrepo.Geolocator {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// LocateCountry resolves an IP address to an ISO country code.
func (c *Client) LocateCountry(ctx context.Context, ip string) (string, error) {
	if c.baseURL == "" || ip == "" {
		return "", nil
	}

	endpoint := fmt.Sprintf("%s/lookup?ip=%s", c.baseURL, url.QueryEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build geolocation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geolocation provider returned status %d", resp.StatusCode)
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode geolocation response: %w", err)
	}
	return payload.CountryCode, nil
}
