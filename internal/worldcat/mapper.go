package worldcat

import (
	"regexp"
	"strings"

	"github.com/matsen/citeflow/internal/metadata"
)

var (
	isbnURN     = regexp.MustCompile(`(?i)^urn:ISBN:([0-9X]{10,13})$`)
	oclcID      = regexp.MustCompile(`/oclc/(\d+)`)
	yearInField = regexp.MustCompile(`\d{4}`)
	// "Title / by Author" statement of responsibility
	responsibility = regexp.MustCompile(`\s*/\s*.*$`)
)

// MapEntry converts a catalog entry to a book description.
func MapEntry(e Entry) *metadata.Description {
	d := metadata.NewCitationDescription()
	add := func(prop string, v any, locale ...string) {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			return
		}
		_ = d.AddStatement(prop, v, locale...)
	}

	add(metadata.PropGenre, metadata.GenreBook)
	title := responsibility.ReplaceAllString(strings.TrimSpace(e.Title), "")
	add(metadata.PropArticleTitle, strings.TrimRight(title, " .:"), metadata.DefaultLocale)
	for _, a := range e.Authors {
		// Catalog names carry life dates: "Knuth, Donald E., 1938-"
		a = strings.TrimRight(yearInField.ReplaceAllString(a, ""), " ,-")
		if n := metadata.ParsePersonName(a); n != nil {
			add(metadata.PropAuthors, n)
		}
	}
	add(metadata.PropPublisherName, strings.TrimRight(e.Publisher, " ,."))
	if y := yearInField.FindString(e.Date); y != "" {
		add(metadata.PropDate, y)
	}
	for _, id := range e.Identifiers {
		if m := isbnURN.FindStringSubmatch(strings.TrimSpace(id)); m != nil {
			add(metadata.PropISBN, strings.ToUpper(m[1]))
			break
		}
	}
	if m := oclcID.FindStringSubmatch(e.ID); m != nil {
		add(metadata.PropPublisherID, "oclc:"+m[1])
	}
	if e.Link.Href != "" {
		add(metadata.PropURI, e.Link.Href)
	} else if strings.HasPrefix(e.ID, "http") {
		add(metadata.PropURI, e.ID)
	}
	return d
}
