// Package httpx is the small HTTP helper the API-backed providers share:
// GET with query parameters, bounded retries, and JSON decoding.
package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client wraps an http.Client with retry behavior tuned for status-bar
// polling: a few quick attempts, then give up until the next cycle.
type Client struct {
	hc         *http.Client
	retries    int
	retryDelay time.Duration
	headers    map[string]string
}

// NewClient returns a Client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		hc:         &http.Client{Timeout: timeout},
		retries:    3,
		retryDelay: time.Second,
		headers:    map[string]string{"User-Agent": "bar-pulse"},
	}
}

// SetHeader adds a header sent with every request.
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// GetJSON fetches rawURL with the given query parameters and decodes the
// response body into out. Non-2xx statuses and transport errors are
// retried up to the configured limit; ctx cancellation stops retrying.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("httpx: parse url: %w", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		lastErr = c.getOnce(ctx, u.String(), out)
		if lastErr == nil {
			return nil
		}
		if attempt < c.retries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
	}
	return lastErr
}

func (c *Client) getOnce(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpx: build request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("httpx: get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("httpx: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("httpx: decode body: %w", err)
	}
	return nil
}
