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

// Match entry start: @type{key,
var entryStartRegex = regexp.MustCompile(`^\s*@(\w+)\s*\{\s*([^,\s]*)\s*,`)

// NewBibTeXParser returns a parser for citations pasted as a single BibTeX
// entry.
func NewBibTeXParser() filter.Filter {
	return filter.New(BibTeXID, func(text string) bool {
		return entryStartRegex.MatchString(text)
	}, parseBibTeX)
}

// BibTeXEntry is one parsed BibTeX entry with lower-cased field names.
type BibTeXEntry struct {
	Type   string
	Key    string
	Fields map[string]string
}

// ParseBibTeXEntry parses a single @type{key, field = {value}, ...} entry.
// Values may be braced, quoted or bare; nested braces are kept balanced and
// then stripped.
func ParseBibTeXEntry(text string) (*BibTeXEntry, error) {
	m := entryStartRegex.FindStringSubmatchIndex(text)
	if m == nil {
		return nil, fmt.Errorf("%w: missing @type{key, header", ErrNoMatch)
	}
	entry := &BibTeXEntry{
		Type:   strings.ToLower(text[m[2]:m[3]]),
		Key:    text[m[4]:m[5]],
		Fields: make(map[string]string),
	}

	s := text[m[1]:]
	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == ',' })
		if s == "" {
			return nil, fmt.Errorf("%w: unterminated entry", ErrNoMatch)
		}
		if s[0] == '}' {
			return entry, nil
		}
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			return nil, fmt.Errorf("%w: field without value near %q", ErrNoMatch, truncate(s, 20))
		}
		name := strings.ToLower(strings.TrimSpace(s[:eq]))
		s = strings.TrimLeftFunc(s[eq+1:], unicode.IsSpace)

		value, rest, err := readBibTeXValue(s)
		if err != nil {
			return nil, err
		}
		entry.Fields[name] = cleanBibTeXValue(value)
		s = rest
	}
}

func readBibTeXValue(s string) (string, string, error) {
	if s == "" {
		return "", "", fmt.Errorf("%w: unexpected end of entry", ErrNoMatch)
	}
	switch s[0] {
	case '{':
		depth := 0
		for i, r := range s {
			switch r {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return s[1:i], s[i+1:], nil
				}
			}
		}
		return "", "", fmt.Errorf("%w: unbalanced braces", ErrNoMatch)
	case '"':
		if end := strings.IndexByte(s[1:], '"'); end >= 0 {
			return s[1 : end+1], s[end+2:], nil
		}
		return "", "", fmt.Errorf("%w: unterminated quote", ErrNoMatch)
	}
	end := strings.IndexAny(s, ",}")
	if end < 0 {
		end = len(s)
	}
	return strings.TrimSpace(s[:end]), s[end:], nil
}

var (
	latexCommand  = regexp.MustCompile(`\\[a-zA-Z]+\s*|\\.`)
	nameSeparator = regexp.MustCompile(`\s+and\s+`)
)

func cleanBibTeXValue(v string) string {
	v = strings.NewReplacer(`\&`, "&", `\%`, "%", `\_`, "_", `\$`, "$", "--", "-").Replace(v)
	v = latexCommand.ReplaceAllString(v, "")
	v = strings.NewReplacer("{", "", "}", "").Replace(v)
	return strings.Join(strings.Fields(v), " ")
}

func parseBibTeX(_ context.Context, text string) (*metadata.Description, error) {
	entry, err := ParseBibTeXEntry(text)
	if err != nil {
		return nil, err
	}
	f := entry.Fields

	b := newBuilder()
	b.genre(bibtexGenre(entry.Type))
	b.title(f["title"])
	switch entry.Type {
	case "incollection", "inbook", "inproceedings", "conference":
		b.source(f["booktitle"])
	default:
		b.source(f["journal"])
	}
	if entry.Type == "inproceedings" || entry.Type == "conference" {
		b.setLocalized(metadata.PropConfName, f["booktitle"])
	}
	b.authors(splitBibTeXNames(f["author"]))
	b.editors(splitBibTeXNames(f["editor"]))
	b.date(f["year"], f["month"], "")
	b.set(metadata.PropVolume, f["volume"])
	b.set(metadata.PropIssue, f["number"])
	b.pages(f["pages"])
	b.set(metadata.PropEdition, f["edition"])
	b.set(metadata.PropSeries, f["series"])
	b.set(metadata.PropPublisherName, firstNonEmpty(f["publisher"], f["school"], f["institution"]))
	b.set(metadata.PropPublisherLoc, f["address"])
	if doi := NormalizeDOI(f["doi"]); doi != "" {
		b.set(metadata.PropDOI, doi)
	}
	b.set(metadata.PropPMID, f["pmid"])
	if isbn := NormalizeISBN(f["isbn"]); ValidISBN(isbn) {
		b.set(metadata.PropISBN, isbn)
	}
	if u := f["url"]; urlPattern.MatchString(u) {
		b.set(metadata.PropURI, u)
	}
	if entry.Key != "" {
		b.set(metadata.PropPublisherID, entry.Key)
	}

	if !b.hasTitle() {
		return nil, fmt.Errorf("%w: entry %q has no title", ErrValidation, entry.Key)
	}
	return b.result(), nil
}

func bibtexGenre(entryType string) string {
	switch entryType {
	case "article":
		return metadata.GenreJournal
	case "book", "booklet":
		return metadata.GenreBook
	case "incollection", "inbook":
		return metadata.GenreChapter
	case "inproceedings", "conference", "proceedings":
		return metadata.GenreConfProc
	case "phdthesis", "mastersthesis":
		return metadata.GenreThesis
	case "online", "webpage", "electronic":
		return metadata.GenreWeb
	}
	return metadata.GenreUnknown
}

// splitBibTeXNames splits an "A and B and C" name list.
func splitBibTeXNames(s string) []string {
	if s == "" {
		return nil
	}
	var names []string
	for _, n := range nameSeparator.Split(s, -1) {
		if n = strings.TrimSpace(n); n != "" && !strings.EqualFold(n, "others") {
			names = append(names, n)
		}
	}
	return names
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// truncate shortens s to at most n runes, appending "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
