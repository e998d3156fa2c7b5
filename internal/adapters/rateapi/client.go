// Package rateapi implements the upstream exchange-rate provider client.
package rateapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	portsrepo "github.com/storelens/multicurrency/internal/core/ports/repositories"
)

// ratesResponse is the provider's payload: rates keyed by currency code,
// each relative to the requested base.
type ratesResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a rate provider client. An empty baseURL yields a client
// whose fetches always fail; callers degrade to cached or placeholder rates.
func NewClient(baseURL string) portsrepo.RateProvider {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchRates requests the current rate table for a base currency.
func (c *Client) FetchRates(ctx context.Context, baseCurrency string) (map[string]decimal.Decimal, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("rate provider URL is not configured")
	}

	endpoint := fmt.Sprintf("%s/rates?base=%s", c.baseURL, url.QueryEscape(baseCurrency))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rate provider returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rate response: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("rate provider returned no rates for base %s", baseCurrency)
	}
	return payload.Rates, nil
}
