// Package coingecko is a minimal client for the CoinGecko simple price API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the public CoinGecko API root.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Quote is a single price point.
type Quote struct {
	Price     float64
	Change24h float64
	HasChange bool
}

// Client fetches prices from the CoinGecko API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a CoinGecko client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SimplePrice fetches the price of one coin in one currency.
// Returns an error when the coin or currency is missing from the response.
func (c *Client) SimplePrice(ctx context.Context, id, currency string, includeChange bool) (Quote, error) {
	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", currency)
	if includeChange {
		q.Set("include_24hr_change", "true")
	}
	reqURL := c.baseURL + "/simple/price?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return Quote{}, fmt.Errorf("price request returned status %d", resp.StatusCode)
	}

	var body map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Quote{}, fmt.Errorf("failed to decode price response: %w", err)
	}

	prices, ok := body[id]
	if !ok {
		return Quote{}, fmt.Errorf("coin %q missing from response", id)
	}
	price, ok := prices[currency]
	if !ok {
		return Quote{}, fmt.Errorf("currency %q missing from response", currency)
	}

	quote := Quote{Price: price}
	if change, ok := prices[currency+"_24h_change"]; ok {
		quote.Change24h = change
		quote.HasChange = true
	}
	return quote, nil
}
