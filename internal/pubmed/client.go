// Package pubmed matches citations against PubMed: the citation matcher finds
// a PMID and E-utilities esummary supplies the record.
package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/matsen/citeflow/internal/apiclient"
)

const (
	// CitMatchURL is the PubMed citation matcher base URL.
	CitMatchURL = "https://pubmed.ncbi.nlm.nih.gov"

	// EUtilsURL is the NCBI E-utilities base URL.
	EUtilsURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// RateLimit is 3 requests per second without an API key.
	RateLimit = 3.0

	// KeyedRateLimit is 10 requests per second with an API key.
	KeyedRateLimit = 10.0
)

// Client talks to the citation matcher and E-utilities.
type Client struct {
	citmatch *apiclient.Client
	eutils   *apiclient.Client
}

// NewClient creates a PubMed client. apiKey may be empty. Options apply to
// both endpoints, so WithBaseURL points both at one test server.
func NewClient(apiKey string, opts ...apiclient.Option) *Client {
	limit := RateLimit
	if apiKey != "" {
		limit = KeyedRateLimit
	}
	citmatchOpts := append([]apiclient.Option{apiclient.WithRateLimit(limit)}, opts...)
	eutilsOpts := append([]apiclient.Option{
		apiclient.WithRateLimit(limit),
		apiclient.WithQuery("api_key", apiKey),
		apiclient.WithQuery("tool", "citeflow"),
	}, opts...)

	return &Client{
		citmatch: apiclient.New("pubmed", CitMatchURL, citmatchOpts...),
		eutils:   apiclient.New("pubmed", EUtilsURL, eutilsOpts...),
	}
}

// MatchCitation runs the heuristic citation matcher on raw citation text and
// returns the matched PMID.
func (c *Client) MatchCitation(ctx context.Context, text string) (string, error) {
	var resp citMatchResponse
	params := url.Values{"method": {"heuristic"}, "raw-text": {text}}
	if err := c.citmatch.GetJSON(ctx, "/api/citmatch", params, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("pubmed: %w: citation matcher reported failure", apiclient.ErrInvalidResponse)
	}
	if resp.Result.Count != 1 || len(resp.Result.UIDs) == 0 || resp.Result.UIDs[0].PubMed == "" {
		return "", fmt.Errorf("pubmed: %w: %d citation matches", apiclient.ErrNotFound, resp.Result.Count)
	}
	return resp.Result.UIDs[0].PubMed, nil
}

// Summary fetches the esummary record for pmid.
func (c *Client) Summary(ctx context.Context, pmid string) (*Summary, error) {
	var resp summaryResponse
	params := url.Values{"db": {"pubmed"}, "id": {pmid}, "retmode": {"json"}}
	if err := c.eutils.GetJSON(ctx, "/esummary.fcgi", params, &resp); err != nil {
		return nil, err
	}
	raw, ok := resp.Result[pmid]
	if !ok {
		return nil, fmt.Errorf("pubmed: %w: pmid %s", apiclient.ErrNotFound, pmid)
	}
	var s Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("pubmed: %w: %v", apiclient.ErrInvalidResponse, err)
	}
	if s.Error != "" || s.UID == "" {
		return nil, fmt.Errorf("pubmed: %w: pmid %s: %s", apiclient.ErrNotFound, pmid, s.Error)
	}
	return &s, nil
}
