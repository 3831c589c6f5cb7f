package isbndb

import (
	"strings"

	"github.com/matsen/citeflow/internal/metadata"
)

// MapBook converts an ISBNdb record to a book description.
func MapBook(b Book) *metadata.Description {
	d := metadata.NewCitationDescription()
	add := func(prop string, v any, locale ...string) {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			return
		}
		_ = d.AddStatement(prop, v, locale...)
	}

	add(metadata.PropGenre, metadata.GenreBook)
	add(metadata.PropArticleTitle, b.Title, metadata.DefaultLocale)
	for _, a := range b.Authors {
		if n := metadata.ParsePersonName(a); n != nil {
			add(metadata.PropAuthors, n)
		}
	}
	add(metadata.PropPublisherName, b.Publisher)
	add(metadata.PropDate, metadata.NormalizeDate(b.DatePublished))
	add(metadata.PropEdition, b.Edition)
	if b.Pages > 0 {
		add(metadata.PropSize, b.Pages)
	}
	isbn := b.ISBN13
	if isbn == "" {
		isbn = b.ISBN
	}
	add(metadata.PropISBN, isbn)
	return d
}
