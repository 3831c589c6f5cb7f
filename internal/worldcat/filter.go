package worldcat

import (
	"context"

	"github.com/matsen/citeflow/internal/apiclient"
	"github.com/matsen/citeflow/internal/filter"
	"github.com/matsen/citeflow/internal/metadata"
)

// FilterID identifies the WorldCat lookup filter.
const FilterID = "worldcat"

// NewFilter returns a lookup filter for books, searching by ISBN when present
// and by title and first author otherwise.
func NewFilter(client *Client) filter.Filter {
	return filter.New(FilterID, supports, func(ctx context.Context, d *metadata.Description) (*metadata.Description, error) {
		var (
			entries []Entry
			err     error
		)
		if isbn := d.String(metadata.PropISBN); isbn != "" {
			entries, err = client.SearchISBN(ctx, isbn)
		} else {
			author := ""
			if authors := d.Composites(metadata.PropAuthors); len(authors) > 0 {
				author = authors[0].String(metadata.PropSurname)
			}
			entries, err = client.SearchKeywords(ctx, d.String(metadata.PropArticleTitle), author)
		}
		if err != nil {
			return nil, apiclient.ToFilterError(FilterID, err)
		}
		return MapEntry(entries[0]), nil
	})
}

func supports(d *metadata.Description) bool {
	if d == nil {
		return false
	}
	if d.HasStatement(metadata.PropISBN) {
		return true
	}
	return d.String(metadata.PropGenre) == metadata.GenreBook && d.HasStatement(metadata.PropArticleTitle)
}
