// Package isbndb resolves books through ISBNdb: a title search derives an
// ISBN, which is then resolved to a full record.
package isbndb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/matsen/citeflow/internal/apiclient"
)

const (
	// BaseURL is the ISBNdb v2 API base URL.
	BaseURL = "https://api2.isbndb.com"

	// RateLimit is 1 request per second on the basic plan.
	RateLimit = 1.0
)

// ErrNoKey is returned when the client has no API key.
var ErrNoKey = errors.New("isbndb: no API key configured")

// Client is an ISBNdb API client.
type Client struct {
	api    *apiclient.Client
	apiKey string
}

// NewClient creates an ISBNdb client authenticated with apiKey.
func NewClient(apiKey string, opts ...apiclient.Option) *Client {
	opts = append([]apiclient.Option{
		apiclient.WithRateLimit(RateLimit),
		apiclient.WithHeader("Authorization", apiKey),
	}, opts...)
	return &Client{api: apiclient.New("isbndb", BaseURL, opts...), apiKey: apiKey}
}

// Book fetches the record for an ISBN-10 or ISBN-13.
func (c *Client) Book(ctx context.Context, isbn string) (*Book, error) {
	if c.apiKey == "" {
		return nil, ErrNoKey
	}
	var resp bookResponse
	if err := c.api.GetJSON(ctx, "/book/"+url.PathEscape(isbn), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Book.ISBN13 == "" && resp.Book.ISBN == "" {
		return nil, fmt.Errorf("isbndb: %w: %s", apiclient.ErrNotFound, isbn)
	}
	return &resp.Book, nil
}

// SearchTitle returns up to pageSize books whose title matches title.
func (c *Client) SearchTitle(ctx context.Context, title string, pageSize int) ([]Book, error) {
	if c.apiKey == "" {
		return nil, ErrNoKey
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	var resp searchResponse
	params := url.Values{"page": {"1"}, "pageSize": {strconv.Itoa(pageSize)}, "column": {"title"}}
	if err := c.api.GetJSON(ctx, "/books/"+url.PathEscape(title), params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Books) == 0 {
		return nil, fmt.Errorf("isbndb: %w: title %q", apiclient.ErrNotFound, title)
	}
	return resp.Books, nil
}
