// Package parser turns raw citation strings into nlm-citation descriptions.
// Each parser is a filter from string to *metadata.Description; the parse
// stage runs them side by side and keeps the first that succeeds.
package parser

import (
	"errors"
	"regexp"
	"strings"

	"github.com/matsen/citeflow/internal/filter"
	"github.com/matsen/citeflow/internal/metadata"
)

// Parser filter identifiers, also used as source description ids.
const (
	RegexID     = "string-pattern"
	RuleID      = "rule-based"
	HeuristicID = "heuristic"
	BibTeXID    = "bibtex"
)

var (
	// ErrNoMatch indicates the text does not have the shape a parser expects.
	ErrNoMatch = errors.New("citation does not match the expected pattern")

	// ErrValidation indicates a match whose parts failed validation.
	ErrValidation = errors.New("parsed citation failed validation")
)

// DefaultParsers returns the parse stage filters in priority order.
func DefaultParsers() []filter.Filter {
	return []filter.Filter{
		NewRegexParser(),
		NewRuleParser(),
		NewHeuristicParser(),
		NewBibTeXParser(),
	}
}

// yearPattern matches a plausible publication year.
var yearPattern = regexp.MustCompile(`\b(1[5-9]\d{2}|20\d{2})[a-z]?\b`)

// builder accumulates statements on a citation description, skipping empty
// values.
type builder struct {
	d *metadata.Description
}

func newBuilder() *builder {
	return &builder{d: metadata.NewCitationDescription()}
}

func (b *builder) set(prop, value string) {
	value = strings.TrimSpace(value)
	if value == "" || b.d.HasStatement(prop) {
		return
	}
	_ = b.d.AddStatement(prop, value)
}

func (b *builder) setLocalized(prop, value string) {
	value = trimTitle(value)
	if value == "" || b.d.HasStatement(prop) {
		return
	}
	_ = b.d.AddStatement(prop, value, metadata.DefaultLocale)
}

func (b *builder) title(t string)  { b.setLocalized(metadata.PropArticleTitle, t) }
func (b *builder) source(s string) { b.setLocalized(metadata.PropSource, s) }

func (b *builder) genre(g string) {
	if !b.d.HasStatement(metadata.PropGenre) {
		_ = b.d.AddStatement(metadata.PropGenre, g)
	}
}

func (b *builder) date(year, month, day string) {
	if d := metadata.NormalizeDate(strings.TrimSpace(year + " " + month + " " + day)); d != "" {
		b.set(metadata.PropDate, d)
	}
}

// pages sets fpage and lpage from a page range.
func (b *builder) pages(s string) {
	first, last, ok := metadata.SplitPages(s)
	if !ok {
		return
	}
	b.set(metadata.PropFirstPage, first)
	b.set(metadata.PropLastPage, last)
}

func (b *builder) authors(names []string) {
	for _, n := range names {
		if pn := metadata.ParsePersonName(n); pn != nil {
			_ = b.d.AddStatement(metadata.PropAuthors, pn)
		}
	}
}

func (b *builder) editors(names []string) {
	for _, n := range names {
		if pn := metadata.ParsePersonName(n); pn != nil {
			_ = b.d.AddStatement(metadata.PropEditors, pn)
		}
	}
}

func (b *builder) hasTitle() bool {
	return b.d.HasStatement(metadata.PropArticleTitle)
}

func (b *builder) result() *metadata.Description {
	if !b.d.HasStatement(metadata.PropGenre) {
		b.genre(inferGenre(b.d))
	}
	return b.d
}

// inferGenre guesses a genre from the statements present.
func inferGenre(d *metadata.Description) string {
	switch {
	case d.HasStatement(metadata.PropISBN) || d.HasStatement(metadata.PropPublisherName):
		return metadata.GenreBook
	case d.HasStatement(metadata.PropSource):
		return metadata.GenreJournal
	case d.HasStatement(metadata.PropURI):
		return metadata.GenreWeb
	}
	return metadata.GenreUnknown
}

func trimTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, " .,;:")
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return strings.TrimSpace(s)
}

func nonEmpty(text string) bool {
	return strings.TrimSpace(text) != ""
}
