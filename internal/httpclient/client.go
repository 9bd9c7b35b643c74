package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const defaultUserAgent = "go-vacancies/1.0 (support@go-vacancies.dev)"

// Options configures the API client.
type Options struct {
	UserAgent   string
	ProxyURL    string
	Timeout     time.Duration
	MinInterval time.Duration // minimum gap between two requests to the same host
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	if o.Timeout == 0 {
		o.Timeout = 15 * time.Second
	}
	return o
}

// Client wraps http.Client with identification headers and per-host pacing.
// It is constructed once and shared by every component that talks to the
// external API. Requests are attempted once; callers surface failures.
type Client struct {
	inner       *http.Client
	userAgent   string
	minInterval time.Duration

	mu      sync.Mutex
	nextReq map[string]time.Time
}

// New creates a Client with the given options.
func New(opts Options) (*Client, error) {
	opts = opts.withDefaults()

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	}

	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("httpclient: invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		inner:       &http.Client{Transport: transport, Timeout: opts.Timeout},
		userAgent:   opts.UserAgent,
		minInterval: opts.MinInterval,
		nextReq:     make(map[string]time.Time),
	}, nil
}

// NewWithHTTPClient wraps an existing http.Client, e.g. one returned by
// httptest.Server.Client().
func NewWithHTTPClient(inner *http.Client, opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		inner:       inner,
		userAgent:   opts.UserAgent,
		minInterval: opts.MinInterval,
		nextReq:     make(map[string]time.Time),
	}
}

// Do executes the request once, after waiting for the host's pacing slot.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.setHeaders(req)

	if err := c.pace(req.Context(), req.URL.Host); err != nil {
		return nil, err
	}

	resp, err := c.inner.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: request failed: %w", err)
	}
	return resp, nil
}

// Get builds and executes a GET request for rawURL.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: building request: %w", err)
	}
	return c.Do(req)
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.inner.CloseIdleConnections()
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	// hh.ru rejects requests without its own identification header.
	req.Header.Set("HH-User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7")
}

// pace reserves the next request slot for host and sleeps until it arrives.
func (c *Client) pace(ctx context.Context, host string) error {
	if c.minInterval <= 0 {
		return nil
	}

	c.mu.Lock()
	now := time.Now()
	slot := c.nextReq[host]
	if slot.Before(now) {
		slot = now
	}
	c.nextReq[host] = slot.Add(c.minInterval)
	c.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}

	slog.Debug("pacing request", "component", "httpclient", "host", host, "wait", wait.Round(time.Millisecond))
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
