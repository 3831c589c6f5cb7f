package crossref

import (
	"strings"

	"github.com/matsen/citeflow/internal/metadata"
)

// MapWork converts a CrossRef work to an nlm-citation description.
func MapWork(w Work) *metadata.Description {
	d := metadata.NewCitationDescription()
	add := func(prop string, v any, locale ...string) {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			return
		}
		_ = d.AddStatement(prop, v, locale...)
	}

	add(metadata.PropGenre, mapGenre(w.Type))
	add(metadata.PropArticleTitle, first(w.Title), metadata.DefaultLocale)
	add(metadata.PropSource, first(w.ContainerTitle), metadata.DefaultLocale)
	for _, a := range w.Author {
		if n := mapContrib(a); n != nil {
			add(metadata.PropAuthors, n)
		}
	}
	for _, e := range w.Editor {
		if n := mapContrib(e); n != nil {
			add(metadata.PropEditors, n)
		}
	}

	date := w.PublishedPrint
	if len(date.Parts) == 0 || len(date.Parts[0]) == 0 {
		date = w.Issued
	}
	add(metadata.PropDate, date.String())

	add(metadata.PropVolume, w.Volume)
	add(metadata.PropIssue, w.Issue)
	if fp, lp, ok := metadata.SplitPages(w.Page); ok {
		add(metadata.PropFirstPage, fp)
		add(metadata.PropLastPage, lp)
	}
	add(metadata.PropPublisherName, w.Publisher)
	add(metadata.PropPublisherLoc, w.PublisherLocation)
	add(metadata.PropDOI, strings.ToLower(w.DOI))
	if len(w.ISBN) > 0 {
		add(metadata.PropISBN, strings.ReplaceAll(w.ISBN[0], "-", ""))
	}
	add(metadata.PropURI, w.URL)
	return d
}

// String formats the first date as YYYY[-MM[-DD]].
func (dp DateParts) String() string {
	if len(dp.Parts) == 0 || len(dp.Parts[0]) == 0 {
		return ""
	}
	p := dp.Parts[0]
	year, month, day := p[0], 0, 0
	if len(p) > 1 {
		month = p[1]
	}
	if len(p) > 2 {
		day = p[2]
	}
	return metadata.FormatDate(year, month, day)
}

func mapContrib(c Contrib) *metadata.Description {
	if c.Family == "" {
		if c.Name == "" {
			return nil
		}
		return metadata.NewPersonName(nil, c.Name, "")
	}
	return metadata.NewPersonName(strings.Fields(c.Given), c.Family, c.Suffix)
}

func mapGenre(t string) string {
	switch t {
	case "journal-article":
		return metadata.GenreJournal
	case "book", "monograph", "edited-book", "reference-book":
		return metadata.GenreBook
	case "book-chapter", "book-section", "book-part":
		return metadata.GenreChapter
	case "proceedings-article", "proceedings":
		return metadata.GenreConfProc
	case "dissertation":
		return metadata.GenreThesis
	}
	return metadata.GenreUnknown
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
