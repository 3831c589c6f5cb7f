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
	// Authors. Title. Source. Year[ Mon[ Day]][;Volume[(Issue)]][:Pages].
	vancouverPattern = regexp.MustCompile(`^(?P<authors>[^.]+?)\.\s+(?P<title>[^.?!]+[.?!])\s+(?P<source>[^.;]+?)\.?\s+(?P<year>\d{4})(?:\s+(?P<month>[A-Za-z]{3})(?:\s+(?P<day>\d{1,2}))?)?(?:\s*;\s*(?P<volume>[^(:;]*)(?:\((?P<issue>[^)]+)\))?)?(?:\s*:\s*(?P<pages>[A-Za-z]?\d+(?:\s*[-–]\s*[A-Za-z]?\d+)?))?\.?$`)

	// Surname followed by up to four capital initials: "van der Berg JA".
	vancouverAuthor = regexp.MustCompile(`^\p{Lu}[\p{L}'’\- ]*\s+\p{Lu}{1,4}$`)
)

// NewRuleParser returns the rule-based parser for Vancouver style citations:
// "Smith J, Jones AB. Title. J Med. 2020;12(3):45-67."
// Matches are validated: every author must have the surname-initials form and
// the year must follow the source.
func NewRuleParser() filter.Filter {
	return filter.New(RuleID, func(text string) bool {
		return yearPattern.MatchString(text)
	}, parseVancouver)
}

func parseVancouver(_ context.Context, text string) (*metadata.Description, error) {
	ids, rest := ExtractIdentifiers(text)
	rest = strings.ReplaceAll(rest, "[Internet]", "")
	rest = cleanSpaces(rest)

	m := vancouverPattern.FindStringSubmatch(rest)
	if m == nil {
		return nil, fmt.Errorf("%w: not a Vancouver citation", ErrNoMatch)
	}
	group := func(name string) string {
		return strings.TrimSpace(m[vancouverPattern.SubexpIndex(name)])
	}

	authors, err := splitVancouverAuthors(group("authors"))
	if err != nil {
		return nil, err
	}

	b := newBuilder()
	b.genre(metadata.GenreJournal)
	b.authors(authors)
	b.title(group("title"))
	b.source(group("source"))
	b.date(group("year"), group("month"), group("day"))
	b.set(metadata.PropVolume, group("volume"))
	b.set(metadata.PropIssue, group("issue"))
	b.pages(group("pages"))
	ids.apply(b.d)
	return b.result(), nil
}

func splitVancouverAuthors(s string) ([]string, error) {
	var names []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.EqualFold(part, "et al") {
			continue
		}
		if !vancouverAuthor.MatchString(part) {
			return nil, fmt.Errorf("%w: author %q is not in surname-initials form", ErrValidation, part)
		}
		names = append(names, part)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no authors", ErrValidation)
	}
	return names, nil
}
