// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"time"
)

const defaultUserAgent = "snow-search/1.0"

// Client is a thin http.Client wrapper that stamps every outbound request
// with a User-Agent and the caller's context.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

type Option func(*Client)

// WithTransport replaces the round tripper, e.g. for tests or proxies.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client whose calls are bounded by timeout. Zero means
// only the request context bounds a call.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.Do(req.WithContext(ctx))
}

// Timeout reports the per-call bound.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}
