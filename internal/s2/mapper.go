package s2

import (
	"strings"

	"github.com/matsen/citeflow/internal/metadata"
)

// Common name suffixes to keep apart from the last name.
var nameSuffixes = map[string]bool{
	"jr":   true,
	"jr.":  true,
	"sr":   true,
	"sr.":  true,
	"ii":   true,
	"iii":  true,
	"iv":   true,
	"v":    true,
	"phd":  true,
	"ph.d": true,
	"md":   true,
	"m.d":  true,
}

// MapPaper converts a Paper to an nlm-citation description.
func MapPaper(paper Paper) *metadata.Description {
	d := metadata.NewCitationDescription()
	add := func(prop string, v any, locale ...string) {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			return
		}
		_ = d.AddStatement(prop, v, locale...)
	}

	add(metadata.PropGenre, mapGenre(paper))
	add(metadata.PropArticleTitle, strings.TrimRight(paper.Title, "."), metadata.DefaultLocale)
	for _, a := range paper.Authors {
		given, last, suffix := splitAuthorName(a.Name)
		if last != "" {
			add(metadata.PropAuthors, metadata.NewPersonName(given, last, suffix))
		}
	}

	source := paper.Venue
	if paper.Journal != nil {
		if paper.Journal.Name != "" {
			source = paper.Journal.Name
		}
		add(metadata.PropVolume, strings.TrimSpace(paper.Journal.Volume))
		if first, last, ok := metadata.SplitPages(paper.Journal.Pages); ok {
			add(metadata.PropFirstPage, first)
			add(metadata.PropLastPage, last)
		}
	}
	add(metadata.PropSource, source, metadata.DefaultLocale)
	add(metadata.PropDate, parsePublicationDate(paper.Year, paper.PubDate))

	add(metadata.PropDOI, strings.ToLower(paper.ExternalIDs.DOI))
	add(metadata.PropPMID, paper.ExternalIDs.PubMed)
	add(metadata.PropPublisherID, paper.PaperID)
	add(metadata.PropURI, paper.URL)
	return d
}

func mapGenre(paper Paper) string {
	for _, t := range paper.PublicationTypes {
		switch t {
		case "Book":
			return metadata.GenreBook
		case "BookSection":
			return metadata.GenreChapter
		case "Conference":
			return metadata.GenreConfProc
		case "JournalArticle", "Review":
			return metadata.GenreJournal
		}
	}
	if paper.Journal != nil || paper.Venue != "" {
		return metadata.GenreJournal
	}
	return metadata.GenreUnknown
}

// splitAuthorName splits a full name into given names, last name and suffix.
// Surname particles ("van der Waals") stay with the last name.
//
// Known limitations:
// - Non-Western name formats may not be handled correctly
func splitAuthorName(name string) (given []string, last, suffix string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return nil, "", ""
	}
	if len(parts) == 1 {
		// Single name (e.g., "Madonna")
		return nil, parts[0], ""
	}

	if nameSuffixes[strings.ToLower(parts[len(parts)-1])] && len(parts) > 2 {
		suffix = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}

	i := len(parts) - 1
	for i > 1 && isParticle(parts[i-1]) {
		i--
	}
	return parts[:i], strings.Join(parts[i:], " "), suffix
}

func isParticle(s string) bool {
	switch strings.ToLower(s) {
	case "van", "von", "der", "den", "de", "del", "della", "di", "da", "du", "le", "la":
		return true
	}
	return false
}

// parsePublicationDate prefers the full YYYY-MM-DD date and falls back to the
// year.
func parsePublicationDate(year int, dateStr string) string {
	if d := metadata.NormalizeDate(dateStr); d != "" {
		return d
	}
	return metadata.FormatDate(year, 0, 0)
}
