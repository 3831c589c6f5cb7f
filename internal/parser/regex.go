package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/matsen/citeflow/internal/filter"
	"github.com/matsen/citeflow/internal/metadata"
)

var (
	// apaYear detects the parenthesized year that marks an APA citation.
	apaYear = regexp.MustCompile(`\((?:1[5-9]\d{2}|20\d{2})[a-z]?[,)]`)

	// Authors (Year[, Month Day]). Title. Rest
	apaPattern = regexp.MustCompile(`^(?P<authors>.*?)\s*\((?P<year>\d{4})[a-z]?(?:,\s*(?P<date>[^)]*))?\)\.?\s+(?P<title>.+?[.?!])(?:\s+(?P<rest>.+))?$`)

	// Source, Volume(Issue), Pages.
	apaJournal = regexp.MustCompile(`^(?P<source>[^,]+?)(?:,\s*(?P<volume>\d+)(?:\s*\((?P<issue>[^)]+)\))?)?(?:,\s*(?:pp?\.\s*)?(?P<pages>[A-Za-z]?\d+(?:\s*[-–—]+\s*[A-Za-z]?\d+)?))?\.?$`)

	// In E. Editor (Ed.), Book title (pp. 1-10). Publisher.
	apaChapter = regexp.MustCompile(`^In\s+(?:(?P<editors>.+?)\s*\(Eds?\.\),\s*)?(?P<source>[^(]+?)(?:\s*\(pp?\.\s*(?P<pages>[^)]+)\))?\.\s*(?P<publisher>.*)$`)

	// City, ST: Publisher.
	publisherPattern = regexp.MustCompile(`^(?P<loc>\p{Lu}[\p{L} .,'-]*?):\s*(?P<publisher>[^:]+?)\.?$`)

	apaInitials = regexp.MustCompile(`^(?:\p{Lu}\p{Ll}?\.\s*-?\s*)*\p{Lu}\.?$`)
)

// NewRegexParser returns the pattern parser for APA style citations:
// "Smith, J. (2020). Title. Journal, 12(3), 45-67."
func NewRegexParser() filter.Filter {
	return filter.New(RegexID, func(text string) bool {
		return apaYear.MatchString(text)
	}, parseAPA)
}

func parseAPA(_ context.Context, text string) (*metadata.Description, error) {
	ids, rest := ExtractIdentifiers(text)
	m := apaPattern.FindStringSubmatch(rest)
	if m == nil {
		return nil, fmt.Errorf("%w: not an author-date citation", ErrNoMatch)
	}
	group := func(name string) string {
		return strings.TrimSpace(m[apaPattern.SubexpIndex(name)])
	}

	b := newBuilder()
	b.authors(splitAPAAuthors(group("authors")))
	b.title(group("title"))
	month, day := splitMonthDay(group("date"))
	b.date(group("year"), month, day)
	if !b.hasTitle() {
		return nil, fmt.Errorf("%w: missing title", ErrValidation)
	}

	parseAPARest(b, group("rest"))
	ids.apply(b.d)
	return b.result(), nil
}

// parseAPARest interprets whatever follows the title: a journal reference,
// a chapter in an edited book, or a publisher for a book.
func parseAPARest(b *builder, rest string) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return
	}

	if m := apaChapter.FindStringSubmatch(rest); m != nil {
		b.genre(metadata.GenreChapter)
		b.editors(splitAPAAuthors(strings.TrimSpace(m[apaChapter.SubexpIndex("editors")])))
		b.source(m[apaChapter.SubexpIndex("source")])
		b.pages(m[apaChapter.SubexpIndex("pages")])
		setPublisher(b, m[apaChapter.SubexpIndex("publisher")])
		return
	}

	if setPublisher(b, rest) {
		b.genre(metadata.GenreBook)
		return
	}

	if m := apaJournal.FindStringSubmatch(rest); m != nil {
		b.genre(metadata.GenreJournal)
		b.source(m[apaJournal.SubexpIndex("source")])
		b.set(metadata.PropVolume, m[apaJournal.SubexpIndex("volume")])
		b.set(metadata.PropIssue, m[apaJournal.SubexpIndex("issue")])
		b.pages(m[apaJournal.SubexpIndex("pages")])
		return
	}

	// Unrecognized tail, keep it as the source.
	b.source(rest)
}

// setPublisher records a "City: Publisher" statement when s has that shape.
func setPublisher(b *builder, s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if m := publisherPattern.FindStringSubmatch(s); m != nil {
		b.set(metadata.PropPublisherLoc, m[publisherPattern.SubexpIndex("loc")])
		b.set(metadata.PropPublisherName, strings.TrimRight(m[publisherPattern.SubexpIndex("publisher")], "."))
		return true
	}
	return false
}

// splitAPAAuthors splits "Smith, J. A., Jones, B., & Brown, C." into
// "Surname, Initials" strings. Tokens that are not followed by initials are
// taken as whole names.
func splitAPAAuthors(s string) []string {
	s = strings.ReplaceAll(s, "&", ",")
	s = strings.ReplaceAll(s, " and ", ", ")
	s = strings.ReplaceAll(s, "et al.", "")
	s = strings.ReplaceAll(s, "…", ",")
	s = strings.ReplaceAll(s, "...", ",")

	var tokens []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}

	var names []string
	for i := 0; i < len(tokens); i++ {
		name := tokens[i]
		if i+1 < len(tokens) && apaInitials.MatchString(tokens[i+1]) {
			name += ", " + tokens[i+1]
			i++
			if i+1 < len(tokens) && isSuffix(tokens[i+1]) {
				name += ", " + tokens[i+1]
				i++
			}
		}
		names = append(names, name)
	}
	return names
}

func isSuffix(s string) bool {
	switch strings.ToLower(strings.TrimRight(s, ".")) {
	case "jr", "sr", "ii", "iii", "iv":
		return true
	}
	return false
}

// splitMonthDay splits "March 5" or "Mar" into its parts.
func splitMonthDay(s string) (string, string) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	}
	return fields[0], fields[1]
}
