// Package httputil provides the hardened HTTP client, the injectable fetch
// capability provider adapters depend on, and input validation helpers.
package httputil

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0"

// maxBodySize caps response bodies read into memory.
const maxBodySize = 10 * 1024 * 1024

// NewClient creates a hardened HTTP client with secure defaults.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 5,
		},
	}
}

// Fetcher is the fetch capability injected into provider adapters. Keeping
// adapters behind this interface means retries, proxying and pacing are
// deployment concerns, not per-adapter code.
type Fetcher interface {
	// Fetch performs a GET and returns the response body. A non-2xx status
	// is returned as a *StatusError.
	Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

// Client is the default Fetcher: browser-like headers, HTTPS-only, bounded
// body reads, and per-host pacing when a Pacer is attached.
type Client struct {
	http  *http.Client
	pacer *Pacer
}

// NewFetcher wraps a hardened client into the Fetcher used in production.
// pacer may be nil to disable pacing entirely.
func NewFetcher(timeout time.Duration, pacer *Pacer) *Client {
	return &Client{http: NewClient(timeout), pacer: pacer}
}

// Fetch performs a GET request with standard browser-like headers.
func (c *Client) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if err := ValidateURL(url); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if c.pacer != nil {
		if err := c.pacer.Wait(ctx, req.URL.Host); err != nil {
			return nil, err
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return body, nil
}
