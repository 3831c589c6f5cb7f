// Package worldcat looks up books in the WorldCat OpenSearch catalog.
package worldcat

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/matsen/citeflow/internal/apiclient"
)

const (
	// BaseURL is the WorldCat catalog web service base URL.
	BaseURL = "https://www.worldcat.org/webservices/catalog"

	// RateLimit keeps within the basic wskey allowance.
	RateLimit = 2.0
)

// ErrNoKey is returned when the client has no wskey.
var ErrNoKey = errors.New("worldcat: no wskey configured")

// Client is a WorldCat OpenSearch client.
type Client struct {
	api   *apiclient.Client
	wskey string
}

// NewClient creates a WorldCat client authenticated with wskey.
func NewClient(wskey string, opts ...apiclient.Option) *Client {
	opts = append([]apiclient.Option{
		apiclient.WithRateLimit(RateLimit),
		apiclient.WithQuery("wskey", wskey),
	}, opts...)
	return &Client{api: apiclient.New("worldcat", BaseURL, opts...), wskey: wskey}
}

// SearchISBN returns the catalog entries for an ISBN.
func (c *Client) SearchISBN(ctx context.Context, isbn string) ([]Entry, error) {
	return c.search(ctx, "srw.bn="+isbn)
}

// SearchKeywords returns catalog entries matching title and author keywords.
func (c *Client) SearchKeywords(ctx context.Context, title, author string) ([]Entry, error) {
	q := fmt.Sprintf("srw.ti=%q", title)
	if author != "" {
		q += fmt.Sprintf(" and srw.au=%q", author)
	}
	return c.search(ctx, q)
}

func (c *Client) search(ctx context.Context, query string) ([]Entry, error) {
	if c.wskey == "" {
		return nil, ErrNoKey
	}
	var feed Feed
	params := url.Values{"q": {query}, "format": {"atom"}, "count": {"1"}}
	if err := c.api.GetXML(ctx, "/search/worldcat/opensearch", params, &feed); err != nil {
		return nil, err
	}
	if len(feed.Entries) == 0 {
		return nil, fmt.Errorf("worldcat: %w: %s", apiclient.ErrNotFound, strings.TrimSpace(query))
	}
	return feed.Entries, nil
}
