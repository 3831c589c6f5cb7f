// Package s2 looks up citations in the Semantic Scholar Graph API.
package s2

import (
	"context"
	"fmt"
	"net/url"

	"github.com/matsen/citeflow/internal/apiclient"
)

const (
	// BaseURL is the Semantic Scholar Graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// RateLimit is 1 request per second for unauthenticated use.
	RateLimit = 1.0

	// DefaultPaperFields are the fields requested for paper lookups.
	DefaultPaperFields = "title,authors,year,venue,publicationDate,publicationTypes,journal,externalIds,url"
)

// Client is a Semantic Scholar API client.
type Client struct {
	api *apiclient.Client
}

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) apiclient.Option {
	return apiclient.WithHeader("x-api-key", key)
}

// NewClient creates a new Semantic Scholar client.
func NewClient(opts ...apiclient.Option) *Client {
	opts = append([]apiclient.Option{apiclient.WithRateLimit(RateLimit)}, opts...)
	return &Client{api: apiclient.New("semantic-scholar", BaseURL, opts...)}
}

// GetPaper fetches a paper by its identifier.
func (c *Client) GetPaper(ctx context.Context, id PaperIdentifier) (*Paper, error) {
	var paper Paper
	params := url.Values{"fields": {DefaultPaperFields}}
	if err := c.api.GetJSON(ctx, "/paper/"+url.PathEscape(id.String()), params, &paper); err != nil {
		return nil, err
	}
	if paper.PaperID == "" {
		return nil, fmt.Errorf("semantic-scholar: %w: %s", apiclient.ErrNotFound, id)
	}
	return &paper, nil
}

// MatchTitle returns the paper whose title best matches title.
func (c *Client) MatchTitle(ctx context.Context, title string) (*Paper, error) {
	var resp matchResponse
	params := url.Values{"query": {title}, "fields": {DefaultPaperFields}}
	if err := c.api.GetJSON(ctx, "/paper/search/match", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || resp.Data[0].PaperID == "" {
		return nil, fmt.Errorf("semantic-scholar: %w: title %q", apiclient.ErrNotFound, title)
	}
	return &resp.Data[0], nil
}
