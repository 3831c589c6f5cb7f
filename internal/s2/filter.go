package s2

import (
	"context"

	"github.com/matsen/citeflow/internal/apiclient"
	"github.com/matsen/citeflow/internal/filter"
	"github.com/matsen/citeflow/internal/metadata"
)

// FilterID identifies the Semantic Scholar lookup filter.
const FilterID = "semantic-scholar"

// NewFilter returns a lookup filter that resolves a description by DOI, PMID,
// a paper id found in its publisher id or URI, and by title match otherwise.
func NewFilter(client *Client) filter.Filter {
	return filter.New(FilterID, supports, func(ctx context.Context, d *metadata.Description) (*metadata.Description, error) {
		paper, err := lookup(ctx, client, d)
		if err != nil {
			return nil, apiclient.ToFilterError(FilterID, err)
		}
		return MapPaper(*paper), nil
	})
}

func supports(d *metadata.Description) bool {
	return d != nil && (d.HasStatement(metadata.PropDOI) ||
		d.HasStatement(metadata.PropPMID) ||
		d.HasStatement(metadata.PropArticleTitle) ||
		hasPaperID(d))
}

// paperID looks for an identifier Semantic Scholar resolves directly in the
// publisher id ("arXiv:2106.15928") or the URI.
func paperID(d *metadata.Description) (PaperIdentifier, bool) {
	if id, ok := ParsePaperID(d.String(metadata.PropPublisherID)); ok {
		return id, true
	}
	return PaperIDFromURI(d.String(metadata.PropURI))
}

func hasPaperID(d *metadata.Description) bool {
	_, ok := paperID(d)
	return ok
}

func lookup(ctx context.Context, client *Client, d *metadata.Description) (*Paper, error) {
	if doi := d.String(metadata.PropDOI); doi != "" {
		return client.GetPaper(ctx, PaperIdentifier{Type: "DOI", Value: doi})
	}
	if pmid := d.String(metadata.PropPMID); pmid != "" {
		return client.GetPaper(ctx, PaperIdentifier{Type: "PMID", Value: pmid})
	}
	if id, ok := paperID(d); ok {
		return client.GetPaper(ctx, id)
	}
	return client.MatchTitle(ctx, d.String(metadata.PropArticleTitle))
}
