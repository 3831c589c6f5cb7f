package pubmed

import (
	"strings"

	"github.com/matsen/citeflow/internal/metadata"
)

// MapSummary converts an esummary record to an nlm-citation description.
func MapSummary(s Summary) *metadata.Description {
	d := metadata.NewCitationDescription()
	add := func(prop string, v any, locale ...string) {
		if str, ok := v.(string); ok && strings.TrimSpace(str) == "" {
			return
		}
		_ = d.AddStatement(prop, v, locale...)
	}

	add(metadata.PropGenre, metadata.GenreJournal)
	add(metadata.PropArticleTitle, strings.TrimRight(strings.TrimSpace(s.Title), "."), metadata.DefaultLocale)
	add(metadata.PropSource, s.Source, metadata.DefaultLocale)
	for _, a := range s.Authors {
		if a.AuthType != "" && a.AuthType != "Author" {
			continue
		}
		if n := metadata.ParsePersonName(a.Name); n != nil {
			add(metadata.PropAuthors, n)
		}
	}
	add(metadata.PropDate, metadata.NormalizeDate(s.PubDate))
	add(metadata.PropVolume, s.Volume)
	add(metadata.PropIssue, s.Issue)
	if first, last, ok := metadata.SplitPages(s.Pages); ok {
		add(metadata.PropFirstPage, first)
		add(metadata.PropLastPage, last)
	}
	add(metadata.PropPMID, s.UID)
	for _, id := range s.ArticleIDs {
		if id.IDType == "doi" {
			add(metadata.PropDOI, strings.ToLower(id.Value))
		}
	}
	return d
}

// CitationText renders a description the way the citation matcher expects:
// first and last author, title and journal without punctuation, volume,
// issue, first page and year.
func CitationText(d *metadata.Description) string {
	var parts []string
	addItem := func(v string) {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	stripPunct := strings.NewReplacer(".", "", "(", "", ")", "")

	authors := d.Composites(metadata.PropAuthors)
	if len(authors) > 0 {
		faut := citName(authors[0])
		addItem(faut)
		if laut := citName(authors[len(authors)-1]); laut != faut {
			addItem(laut)
		}
	}
	addItem(stripPunct.Replace(d.String(metadata.PropArticleTitle)))
	addItem(stripPunct.Replace(d.String(metadata.PropSource)))
	addItem(d.String(metadata.PropVolume))
	addItem(d.String(metadata.PropIssue))
	addItem(d.String(metadata.PropFirstPage))
	if year, _, _, ok := metadata.SplitDate(d.String(metadata.PropDate)); ok {
		addItem(metadata.FormatDate(year, 0, 0))
	}
	return strings.Join(parts, " ")
}

// citName formats a name as "Surname AB".
func citName(n *metadata.Description) string {
	var initials strings.Builder
	for _, g := range n.Strings(metadata.PropGivenNames) {
		for _, r := range g {
			initials.WriteRune(r)
			break
		}
	}
	return strings.TrimSpace(n.String(metadata.PropSurname) + " " + initials.String())
}
