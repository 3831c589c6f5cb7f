package crossref

import (
	"context"
	"fmt"
	"strings"

	"github.com/matsen/citeflow/internal/apiclient"
	"github.com/matsen/citeflow/internal/conflict"
	"github.com/matsen/citeflow/internal/filter"
	"github.com/matsen/citeflow/internal/metadata"
)

const (
	// FilterID identifies the CrossRef lookup filter.
	FilterID = "crossref"

	// MinTitleSimilarity is the title overlap a bibliographic query match
	// needs to be accepted.
	MinTitleSimilarity = 0.5
)

// NewFilter returns a lookup filter that resolves a description by DOI when
// present and by bibliographic query otherwise.
func NewFilter(client *Client) filter.Filter {
	return filter.New(FilterID, supports, func(ctx context.Context, d *metadata.Description) (*metadata.Description, error) {
		w, err := lookup(ctx, client, d)
		if err != nil {
			return nil, apiclient.ToFilterError(FilterID, err)
		}
		return MapWork(*w), nil
	})
}

func supports(d *metadata.Description) bool {
	return d != nil && (d.HasStatement(metadata.PropDOI) || d.HasStatement(metadata.PropArticleTitle))
}

func lookup(ctx context.Context, client *Client, d *metadata.Description) (*Work, error) {
	if doi := d.String(metadata.PropDOI); doi != "" {
		return client.GetWork(ctx, doi)
	}

	title := d.String(metadata.PropArticleTitle)
	works, err := client.QueryBibliographic(ctx, BibliographicQuery(d), 1)
	if err != nil {
		return nil, err
	}
	best := works[0]
	if sim := conflict.TitleSimilarity(title, first(best.Title)); sim < MinTitleSimilarity {
		return nil, fmt.Errorf("crossref: %w: best match %q is too far from %q (%.2f)",
			apiclient.ErrNotFound, first(best.Title), title, sim)
	}
	return &best, nil
}

// BibliographicQuery renders the parts of d CrossRef matches on: authors,
// title, source and year.
func BibliographicQuery(d *metadata.Description) string {
	var parts []string
	for _, a := range d.Composites(metadata.PropAuthors) {
		if s := a.String(metadata.PropSurname); s != "" {
			parts = append(parts, s)
		}
	}
	for _, prop := range []string{metadata.PropArticleTitle, metadata.PropSource} {
		if s := d.String(prop); s != "" {
			parts = append(parts, s)
		}
	}
	if year, _, _, ok := metadata.SplitDate(d.String(metadata.PropDate)); ok {
		parts = append(parts, fmt.Sprint(year))
	}
	return strings.Join(parts, " ")
}
