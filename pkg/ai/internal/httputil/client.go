// ABOUTME: Shared HTTP client with retry logic, JSON posting, and SSE streaming support
// ABOUTME: Exponential backoff on 429/5xx; non-2xx replies become *ai.APIError with the raw body

package httputil

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	pilog "github.com/mauromedda/toolagent-go/internal/log"
	"github.com/mauromedda/toolagent-go/pkg/ai"
	"github.com/mauromedda/toolagent-go/pkg/ai/internal/sse"
)

const (
	DefaultTimeout    = 2 * time.Minute
	defaultMaxRetries = 3
	baseBackoffMs     = 500
	maxBackoffMs      = 10000
	maxErrorBody      = 64 * 1024
)

// Client wraps an http.Client with retry logic and default headers.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	maxRetries int
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the overall per-request timeout. Non-positive values
// keep the default; the transport timeout is always finite.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxRetries sets how many times a 429/5xx reply is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// NewClient creates a new HTTP client with the given base URL and default headers.
// Proxy support comes from the stdlib's default transport (HTTP_PROXY, HTTPS_PROXY).
func NewClient(baseURL string, headers map[string]string, opts ...Option) *Client {
	if headers == nil {
		headers = make(map[string]string)
	}
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 60 * time.Second,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		baseURL:    baseURL,
		headers:    headers,
		maxRetries: defaultMaxRetries,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Do sends an HTTP request, retrying 429 and 5xx replies with backoff.
// The reply of the final attempt is returned as-is, whatever its status.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		req, err := c.buildRequest(ctx, method, path, body)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http request failed: %w", redactError(err))
		}

		if !isRetryable(resp.StatusCode) || attempt >= c.maxRetries {
			return resp, nil
		}

		wait := retryAfter(resp, attempt)
		resp.Body.Close()
		pilog.Debug("http: %s %s → %d, retry %d in %s", method, RedactURL(c.baseURL+path), resp.StatusCode, attempt+1, wait)

		if err := sleepWithContext(ctx, wait); err != nil {
			return nil, fmt.Errorf("context cancelled during retry backoff: %w", err)
		}
	}
}

// PostJSON marshals payload and POSTs it. Any non-2xx reply is converted
// into an *ai.APIError carrying the raw body.
func (c *Client) PostJSON(ctx context.Context, api ai.Api, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	pilog.Debug("http: POST %s", RedactURL(c.baseURL+path))
	resp, err := c.Do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	pilog.Debug("http: POST %s → %d", RedactURL(c.baseURL+path), resp.StatusCode)

	if err := CheckStatus(api, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// StreamSSE POSTs payload and returns an SSE reader over the reply body.
// The caller must close both the reader and the *http.Response.
func (c *Client) StreamSSE(ctx context.Context, api ai.Api, path string, payload any) (*sse.Reader, *http.Response, error) {
	resp, err := c.PostJSON(ctx, api, path, payload)
	if err != nil {
		return nil, nil, err
	}
	return sse.NewReader(resp.Body), resp, nil
}

// CheckStatus returns nil for 2xx replies. Otherwise it drains and closes
// the body and returns an *ai.APIError with the body attached.
func CheckStatus(api ai.Api, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &ai.APIError{Api: api, StatusCode: resp.StatusCode, Body: string(body)}
}

// buildRequest creates an http.Request with default headers applied.
func (c *Client) buildRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s %s: %w", method, RedactURL(c.baseURL+path), err)
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// redactError masks secrets in the URL that net/http embeds in its errors.
func redactError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = RedactURL(ue.URL)
	}
	return err
}

// isRetryable returns true for status codes that warrant a retry.
func isRetryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

// retryAfter honors a Retry-After header in seconds, capped at the max backoff.
func retryAfter(resp *http.Response, attempt int) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return min(time.Duration(secs)*time.Second, maxBackoffMs*time.Millisecond)
		}
	}
	return backoff(attempt)
}

// backoff returns the backoff duration for the given attempt using exponential backoff.
func backoff(attempt int) time.Duration {
	ms := float64(baseBackoffMs) * math.Pow(2, float64(attempt))
	if ms > maxBackoffMs {
		ms = maxBackoffMs
	}
	return time.Duration(ms) * time.Millisecond
}

// sleepWithContext waits for the given duration or until the context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
