package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/matsen/citeflow/internal/filter"
	"github.com/matsen/citeflow/internal/metadata"
)

var (
	sentenceBreak = regexp.MustCompile(`[.?!]\s+`)
	bareYear      = regexp.MustCompile(`^\(?(?:1[5-9]\d{2}|20\d{2})[a-z]?\)?[.,]?$`)
	volIssuePages = regexp.MustCompile(`(?P<volume>\d+)\s*(?:\((?P<issue>[^)]+)\))?\s*[:,]\s*(?:pp?\.\s*)?(?P<pages>[A-Za-z]?\d+\s*[-–—]+\s*[A-Za-z]?\d+)`)
	volumeLabel   = regexp.MustCompile(`(?i)\bvol(?:ume)?\.?\s*(\d+)`)
	issueLabel    = regexp.MustCompile(`(?i)\b(?:no|issue)\.?\s*(\d+)`)
	pagesLabel    = regexp.MustCompile(`(?i)\bpp?\.\s*([A-Za-z]?\d+(?:\s*[-–—]+\s*[A-Za-z]?\d+)?)`)
	editionLabel  = regexp.MustCompile(`(?i)\b(\d+)(?:st|nd|rd|th)\s+ed(?:ition|\.)?`)
	thesisWords   = regexp.MustCompile(`(?i)\b(?:thesis|dissertation)\b`)
	confWords     = regexp.MustCompile(`(?i)\b(?:proceedings|conference|symposium|workshop)\b`)
	parenYear     = regexp.MustCompile(`\(\s*(?:1[5-9]\d{2}|20\d{2})[a-z]?\s*\)`)
)

// Words ending in a period that do not end a sentence.
var abbreviations = map[string]bool{
	"al": true, "vol": true, "no": true, "pp": true, "p": true, "eds": true, "ch": true, "st": true, "dr": true, "jr": true, "sr": true,
	"inc": true, "univ": true, "dept": true,
}

// NewHeuristicParser returns the fallback parser for free-form citations.
// It splits the text into sentences and classifies them by shape. BibTeX
// entries are left to the BibTeX parser.
func NewHeuristicParser() filter.Filter {
	return filter.New(HeuristicID, func(text string) bool {
		return nonEmpty(text) && !entryStartRegex.MatchString(text)
	}, parseHeuristic)
}

func parseHeuristic(_ context.Context, text string) (*metadata.Description, error) {
	ids, rest := ExtractIdentifiers(text)
	b := newBuilder()

	year := ""
	if m := yearPattern.FindStringSubmatch(rest); m != nil {
		year = m[1]
	}

	var segments []string
	for _, s := range splitSentences(rest) {
		if bareYear.MatchString(s) {
			continue
		}
		segments = append(segments, s)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no title found", ErrNoMatch)
	}

	if len(segments) > 1 && looksLikeNames(stripYear(segments[0])) {
		b.authors(splitHeuristicAuthors(stripYear(segments[0])))
		segments = segments[1:]
	}

	b.title(stripYear(segments[0]))
	if !b.hasTitle() {
		return nil, fmt.Errorf("%w: no title found", ErrNoMatch)
	}
	for _, s := range segments[1:] {
		classifySegment(b, s)
	}

	b.date(year, "", "")
	ids.apply(b.d)
	if thesisWords.MatchString(rest) {
		b.genre(metadata.GenreThesis)
	}
	return b.result(), nil
}

// classifySegment records what a sentence after the title describes.
func classifySegment(b *builder, s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}

	if strings.HasPrefix(s, "In ") {
		b.genre(metadata.GenreChapter)
		src := strings.TrimPrefix(s, "In ")
		if m := pagesLabel.FindStringSubmatchIndex(src); m != nil {
			b.pages(src[m[2]:m[3]])
			src = src[:m[0]]
		}
		b.source(strings.Trim(stripYear(src), " ,("))
		return
	}

	if setPublisher(b, stripYear(s)) {
		b.genre(metadata.GenreBook)
		return
	}

	if m := volIssuePages.FindStringSubmatchIndex(s); m != nil {
		b.genre(metadata.GenreJournal)
		b.set(metadata.PropVolume, s[m[2]:m[3]])
		if m[4] >= 0 {
			b.set(metadata.PropIssue, s[m[4]:m[5]])
		}
		b.pages(s[m[6]:m[7]])
		b.source(strings.Trim(stripYear(s[:m[0]]), " ,;"))
		return
	}

	matched := false
	if m := volumeLabel.FindStringSubmatch(s); m != nil {
		b.set(metadata.PropVolume, m[1])
		matched = true
	}
	if m := issueLabel.FindStringSubmatch(s); m != nil {
		b.set(metadata.PropIssue, m[1])
		matched = true
	}
	if m := pagesLabel.FindStringSubmatch(s); m != nil {
		b.pages(m[1])
		matched = true
	}
	if m := editionLabel.FindStringSubmatch(s); m != nil {
		b.set(metadata.PropEdition, m[1])
		b.genre(metadata.GenreBook)
		matched = true
	}
	if confWords.MatchString(s) {
		b.genre(metadata.GenreConfProc)
		b.setLocalized(metadata.PropConfName, stripYear(s))
		return
	}
	if !matched && !b.d.HasStatement(metadata.PropSource) {
		b.source(stripYear(s))
	}
}

// splitSentences splits at sentence punctuation, ignoring initials and
// common abbreviations.
func splitSentences(s string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceBreak.FindAllStringIndex(s, -1) {
		word := lastWord(s[start:loc[0]])
		if len([]rune(word)) == 1 && unicode.IsUpper([]rune(word)[0]) {
			continue
		}
		if abbreviations[strings.ToLower(word)] {
			continue
		}
		if seg := strings.TrimSpace(s[start : loc[0]+1]); seg != "" {
			out = append(out, seg)
		}
		start = loc[1]
	}
	if seg := strings.TrimSpace(s[start:]); seg != "" {
		out = append(out, seg)
	}
	return out
}

func lastWord(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '(' || r == '-'
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// stripYear removes a parenthesized or trailing year from s.
func stripYear(s string) string {
	s = parenYear.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	fields := strings.Fields(s)
	if n := len(fields); n > 1 && bareYear.MatchString(fields[n-1]) {
		s = strings.Join(fields[:n-1], " ")
	}
	return strings.Trim(s, " ,.;")
}

// looksLikeNames reports whether s reads as an author list: short
// capitalized tokens separated by commas, "and" or "&".
func looksLikeNames(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range splitHeuristicAuthors(s) {
		words := strings.Fields(part)
		if len(words) == 0 || len(words) > 5 {
			return false
		}
		for _, w := range words {
			w = strings.Trim(w, ",.")
			if w == "" || surnameParticle(w) {
				continue
			}
			if !unicode.IsUpper([]rune(w)[0]) {
				return false
			}
		}
	}
	return true
}

func surnameParticle(w string) bool {
	switch strings.ToLower(w) {
	case "van", "von", "der", "den", "de", "del", "di", "da", "du", "le", "la", "et", "al":
		return true
	}
	return false
}

// splitHeuristicAuthors splits an author block that may use either
// "Surname, I." pairs or "Given Surname" entries.
func splitHeuristicAuthors(s string) []string {
	s = strings.ReplaceAll(s, "et al", "")
	return splitAPAAuthors(s)
}
