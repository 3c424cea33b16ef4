// Package infra provides shared infrastructure components used across
// the application: HTTP utilities, rate limiting, and the two-tier
// (memory + disk) cache with its cache-through composition.
package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout is the provider-level HTTP timeout.
const DefaultTimeout = 30 * time.Second

// HTTPClient is a pre-configured HTTP client with reasonable timeouts.
var HTTPClient = &http.Client{
	Timeout: DefaultTimeout,
}

// ErrHTTP wraps an HTTP error response with status code and body prefix.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// DoGet performs a GET request and returns the full response body.
// Non-2xx statuses return an *ErrHTTP carrying up to 1KB of the body.
func DoGet(ctx context.Context, url string, headers map[string]string) ([]byte, int, error) {
	return do(ctx, http.MethodGet, url, nil, headers)
}

// DoPost performs a POST request with the given body bytes.
func DoPost(ctx context.Context, url string, body []byte, headers map[string]string) ([]byte, int, error) {
	return do(ctx, http.MethodPost, url, body, headers)
}

func do(ctx context.Context, method, url string, body []byte, headers map[string]string) (out []byte, status int, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, status, err = nil, 0, fmt.Errorf("%s %s: panic: %v", method, url, r)
		}
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return b, resp.StatusCode, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(b),
		}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return b, resp.StatusCode, nil
}
