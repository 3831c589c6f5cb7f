// Package apiclient is the rate-limited HTTP client shared by the lookup
// services.
package apiclient

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default number of requests per second.
	DefaultRateLimit = 3.0

	// DefaultUserAgent identifies requests to services that ask for it.
	DefaultUserAgent = "citeflow/1.0 (+https://github.com/matsen/citeflow)"

	maxBodySize = 16 << 20
)

// Client is a rate-limited HTTP client bound to one service.
type Client struct {
	service    string
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	header     http.Header
	query      url.Values
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if value != "" {
			c.header.Set(key, value)
		}
	}
}

// WithQuery adds a query parameter sent with every request, such as an API
// key or a contact email.
func WithQuery(key, value string) Option {
	return func(c *Client) {
		if value != "" {
			c.query.Set(key, value)
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return WithHeader("User-Agent", ua)
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the named service.
func New(service, baseURL string, opts ...Option) *Client {
	c := &Client{
		service:    service,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		baseURL:    strings.TrimRight(baseURL, "/"),
		header:     http.Header{},
		query:      url.Values{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	c.header.Set("User-Agent", DefaultUserAgent)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the service name used in errors.
func (c *Client) Service() string {
	return c.service
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get fetches path with the given query parameters and returns the body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	for k, vs := range c.query {
		q[k] = append([]string(nil), vs...)
	}
	for k, vs := range params {
		q[k] = append(q[k], vs...)
	}
	reqURL := c.baseURL + path
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range c.header {
		req.Header[k] = vs
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s: %w: %v", c.service, ErrNetworkError, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("http request", "service", c.service, "path", path,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	if err := CheckHTTPErrors(c.service, resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: reading body: %v", c.service, ErrNetworkError, err)
	}
	return body, nil
}

// GetJSON fetches path and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, v any) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s: %w: %v", c.service, ErrInvalidResponse, err)
	}
	return nil
}

// GetXML fetches path and decodes the XML body into v.
func (c *Client) GetXML(ctx context.Context, path string, params url.Values, v any) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s: %w: %v", c.service, ErrInvalidResponse, err)
	}
	return nil
}
