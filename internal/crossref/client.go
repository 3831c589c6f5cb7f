// Package crossref resolves citations against the CrossRef REST API.
package crossref

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/matsen/citeflow/internal/apiclient"
)

const (
	// BaseURL is the CrossRef REST API base URL.
	BaseURL = "https://api.crossref.org"

	// RateLimit keeps well inside the public pool's allowance.
	RateLimit = 5.0
)

// Client is a CrossRef API client.
type Client struct {
	api *apiclient.Client
}

// WithMailto identifies the caller for the CrossRef "polite" pool.
func WithMailto(email string) apiclient.Option {
	return apiclient.WithQuery("mailto", email)
}

// NewClient creates a new CrossRef client.
func NewClient(opts ...apiclient.Option) *Client {
	opts = append([]apiclient.Option{apiclient.WithRateLimit(RateLimit)}, opts...)
	return &Client{api: apiclient.New("crossref", BaseURL, opts...)}
}

// GetWork fetches the work registered under doi.
func (c *Client) GetWork(ctx context.Context, doi string) (*Work, error) {
	var resp workResponse
	if err := c.api.GetJSON(ctx, "/works/"+url.PathEscape(doi), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Message.DOI == "" {
		return nil, fmt.Errorf("crossref: %w: %s", apiclient.ErrNotFound, doi)
	}
	return &resp.Message, nil
}

// QueryBibliographic returns the best scoring works for a free-text citation.
func (c *Client) QueryBibliographic(ctx context.Context, query string, rows int) ([]Work, error) {
	if rows <= 0 {
		rows = 1
	}
	var resp listResponse
	params := url.Values{
		"query.bibliographic": {query},
		"rows":                {strconv.Itoa(rows)},
	}
	if err := c.api.GetJSON(ctx, "/works", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Message.Items) == 0 {
		return nil, fmt.Errorf("crossref: %w: %q", apiclient.ErrNotFound, query)
	}
	return resp.Message.Items, nil
}
