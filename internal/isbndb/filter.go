package isbndb

import (
	"context"
	"fmt"
	"strings"

	"github.com/matsen/citeflow/internal/apiclient"
	"github.com/matsen/citeflow/internal/filter"
	"github.com/matsen/citeflow/internal/metadata"
	"github.com/matsen/citeflow/internal/parser"
)

// Filter identifiers.
const (
	PathID       = "isbndb"
	DerivationID = "isbndb-derivation"
	ResolutionID = "isbndb-resolution"
)

// NewIdentifierPath chains ISBN derivation and resolution: description in,
// ISBN string in the middle, book description out.
func NewIdentifierPath(client *Client) *filter.Sequencer {
	return filter.NewSequencer(PathID, NewIsbnDerivationFilter(client), NewIsbnResolutionFilter(client))
}

// NewIsbnDerivationFilter returns a filter that finds the ISBN of a book
// description. An ISBN already present is passed through; otherwise the title
// is searched and the first result sharing an author or publisher is used.
func NewIsbnDerivationFilter(client *Client) filter.Filter {
	return filter.New(DerivationID, derivable, func(ctx context.Context, d *metadata.Description) (string, error) {
		if isbn := parser.NormalizeISBN(d.String(metadata.PropISBN)); parser.ValidISBN(isbn) {
			return isbn, nil
		}
		title := d.String(metadata.PropArticleTitle)
		books, err := client.SearchTitle(ctx, title, 20)
		if err != nil {
			return "", apiclient.ToFilterError(DerivationID, err)
		}
		for _, b := range books {
			if matchesBook(d, b) {
				if b.ISBN13 != "" {
					return b.ISBN13, nil
				}
				return b.ISBN, nil
			}
		}
		return "", fmt.Errorf("%w: no result for %q shares an author or publisher", apiclient.ErrNotFound, title)
	})
}

// NewIsbnResolutionFilter returns a filter that resolves an ISBN to a book
// description.
func NewIsbnResolutionFilter(client *Client) filter.Filter {
	return filter.New(ResolutionID, func(isbn string) bool {
		return parser.ValidISBN(parser.NormalizeISBN(isbn))
	}, func(ctx context.Context, isbn string) (*metadata.Description, error) {
		b, err := client.Book(ctx, parser.NormalizeISBN(isbn))
		if err != nil {
			return nil, apiclient.ToFilterError(ResolutionID, err)
		}
		return MapBook(*b), nil
	})
}

// derivable accepts descriptions with an ISBN, or a title plus an author or
// publisher that are not journal articles.
func derivable(d *metadata.Description) bool {
	if d == nil {
		return false
	}
	if d.HasStatement(metadata.PropISBN) {
		return true
	}
	if d.String(metadata.PropGenre) == metadata.GenreJournal {
		return false
	}
	return d.HasStatement(metadata.PropArticleTitle) &&
		(d.HasStatement(metadata.PropAuthors) || d.HasStatement(metadata.PropPublisherName))
}

func matchesBook(d *metadata.Description, b Book) bool {
	for _, a := range d.Composites(metadata.PropAuthors) {
		surname := strings.ToLower(a.String(metadata.PropSurname))
		for _, name := range b.Authors {
			if surname != "" && strings.Contains(strings.ToLower(name), surname) {
				return true
			}
		}
	}
	publisher := strings.ToLower(d.String(metadata.PropPublisherName))
	return publisher != "" && strings.Contains(strings.ToLower(b.Publisher), publisher)
}
