package pubmed

import (
	"context"

	"github.com/matsen/citeflow/internal/apiclient"
	"github.com/matsen/citeflow/internal/filter"
	"github.com/matsen/citeflow/internal/metadata"
)

// FilterID identifies the PubMed lookup filter.
const FilterID = "pubmed"

// NewFilter returns a lookup filter for journal citations. A PMID already on
// the description is used directly; otherwise the citation matcher finds one.
func NewFilter(client *Client) filter.Filter {
	return filter.New(FilterID, supports, func(ctx context.Context, d *metadata.Description) (*metadata.Description, error) {
		pmid := d.String(metadata.PropPMID)
		if pmid == "" {
			var err error
			if pmid, err = client.MatchCitation(ctx, CitationText(d)); err != nil {
				return nil, apiclient.ToFilterError(FilterID, err)
			}
		}
		s, err := client.Summary(ctx, pmid)
		if err != nil {
			return nil, apiclient.ToFilterError(FilterID, err)
		}
		return MapSummary(*s), nil
	})
}

func supports(d *metadata.Description) bool {
	if d == nil {
		return false
	}
	if d.HasStatement(metadata.PropPMID) {
		return true
	}
	if d.String(metadata.PropGenre) == metadata.GenreBook {
		return false
	}
	return d.HasStatement(metadata.PropArticleTitle) &&
		(d.HasStatement(metadata.PropAuthors) || d.HasStatement(metadata.PropSource))
}
