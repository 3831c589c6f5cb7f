// Package export converts citations to BibTeX.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/matsen/citeflow/internal/citation"
	"github.com/matsen/citeflow/internal/metadata"
)

// ToBibTeX converts a citation to a BibTeX entry. A citation without a
// working description is exported as @misc with its text as a note.
func ToBibTeX(c citation.Citation) string {
	d := c.Description
	var b strings.Builder
	field := func(name, value string) {
		if value != "" {
			b.WriteString(fmt.Sprintf("  %s = {%s},\n", name, value))
		}
	}

	if d == nil {
		b.WriteString(fmt.Sprintf("@misc{%s,\n", CitationKey(c)))
		field("note", escapeLatex(c.Text()))
		b.WriteString("}\n")
		return b.String()
	}

	entryType := determineEntryType(d)
	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, CitationKey(c)))

	field("author", formatNames(d.Composites(metadata.PropAuthors)))
	field("editor", formatNames(d.Composites(metadata.PropEditors)))
	field("title", escapeLatex(d.String(metadata.PropArticleTitle)))

	source := escapeLatex(d.String(metadata.PropSource))
	switch entryType {
	case "article":
		field("journal", source)
	case "incollection":
		field("booktitle", source)
	case "inproceedings":
		if conf := d.String(metadata.PropConfName); conf != "" {
			source = escapeLatex(conf)
		}
		field("booktitle", source)
	case "phdthesis":
		field("school", escapeLatex(d.String(metadata.PropPublisherName)))
	case "misc":
		field("howpublished", source)
	}

	if year, month, _, ok := metadata.SplitDate(d.String(metadata.PropDate)); ok {
		field("year", strconv.Itoa(year))
		if month > 0 {
			field("month", strconv.Itoa(month))
		}
	}
	field("volume", d.String(metadata.PropVolume))
	field("number", d.String(metadata.PropIssue))
	field("pages", formatPages(d))
	if entryType != "phdthesis" {
		field("publisher", escapeLatex(d.String(metadata.PropPublisherName)))
	}
	field("address", escapeLatex(d.String(metadata.PropPublisherLoc)))
	field("edition", d.String(metadata.PropEdition))
	field("series", escapeLatex(d.String(metadata.PropSeries)))
	field("doi", d.String(metadata.PropDOI))
	field("isbn", d.String(metadata.PropISBN))
	field("pmid", d.String(metadata.PropPMID))
	field("url", d.String(metadata.PropURI))

	b.WriteString("}\n")
	return b.String()
}

// ToBibTeXList converts multiple citations to BibTeX format.
func ToBibTeXList(citations []citation.Citation) string {
	var entries []string
	for _, c := range citations {
		entries = append(entries, ToBibTeX(c))
	}
	return strings.Join(entries, "\n")
}

// CitationKey returns the BibTeX key of a citation: the key the citation was
// imported with, otherwise FirstAuthorSurnameYear folded to ASCII,
// otherwise a key derived from the owner and sequence number.
func CitationKey(c citation.Citation) string {
	if c.Description != nil {
		if key := c.Description.String(metadata.PropPublisherID); key != "" && !strings.Contains(key, ":") {
			return key
		}
		authors := c.Description.Composites(metadata.PropAuthors)
		if len(authors) > 0 {
			surname := asciiKey(authors[0].String(metadata.PropSurname))
			if surname != "" {
				year, _, _, _ := metadata.SplitDate(c.Description.String(metadata.PropDate))
				if year > 0 {
					return surname + strconv.Itoa(year)
				}
				return surname
			}
		}
	}
	if owner := asciiKey(c.AssocID); owner != "" {
		return fmt.Sprintf("%s-%d", owner, c.Seq)
	}
	return fmt.Sprintf("cite%d", c.Seq)
}

// asciiKey strips diacritics and everything that is not an ASCII letter or
// digit.
func asciiKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range folded {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// determineEntryType returns the BibTeX entry type for a description's genre.
func determineEntryType(d *metadata.Description) string {
	switch d.String(metadata.PropGenre) {
	case metadata.GenreJournal:
		return "article"
	case metadata.GenreBook:
		return "book"
	case metadata.GenreChapter:
		return "incollection"
	case metadata.GenreConfProc:
		return "inproceedings"
	case metadata.GenreThesis:
		return "phdthesis"
	}
	if d.HasStatement(metadata.PropSource) && d.HasStatement(metadata.PropVolume) {
		return "article"
	}
	return "misc"
}

// formatNames formats names in BibTeX style: "Last, First and Last, First"
func formatNames(names []*metadata.Description) string {
	var formatted []string
	for _, n := range names {
		last := n.String(metadata.PropSurname)
		if suffix := n.String(metadata.PropSuffix); suffix != "" {
			last += ", " + suffix
		}
		first := strings.Join(n.Strings(metadata.PropGivenNames), " ")
		if first != "" {
			formatted = append(formatted, escapeLatex(fmt.Sprintf("%s, %s", last, first)))
		} else {
			formatted = append(formatted, escapeLatex(last))
		}
	}
	return strings.Join(formatted, " and ")
}

func formatPages(d *metadata.Description) string {
	first, last := d.String(metadata.PropFirstPage), d.String(metadata.PropLastPage)
	if first == "" || last == "" {
		return first
	}
	return first + "--" + last
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Order matters: & must be first (before other escapes that might produce &)
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
