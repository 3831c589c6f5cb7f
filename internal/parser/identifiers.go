package parser

import (
	"regexp"
	"strings"

	"github.com/matsen/citeflow/internal/metadata"
	"github.com/matsen/citeflow/internal/pdf"
)

var (
	pmidPattern = regexp.MustCompile(`(?i)\bPMID:?\s*(\d{1,9})\b`)
	isbnPattern = regexp.MustCompile(`(?i)\bISBN(?:-1[03])?:?\s*([0-9][0-9\- ]{8,15}[0-9X])\b`)
	urlPattern  = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"]+`)
	doiLabel    = regexp.MustCompile(`(?i)\b(?:doi:\s*|https?://(?:dx\.)?doi\.org/)`)
	dotRun      = regexp.MustCompile(`\.(?:\s*\.)+`)

	// Phrases that introduce a URL or access date.
	accessPhrase = regexp.MustCompile(`(?i)\s*(?:available (?:from|at|online)|retrieved from|accessed|cited)\s*:?\s*`)
)

// Identifiers are the machine-readable identifiers found in a citation.
type Identifiers struct {
	DOI  string
	PMID string
	ISBN string
	URL  string
}

// ExtractIdentifiers finds identifiers in text and returns them with the
// text stripped of them.
func ExtractIdentifiers(text string) (Identifiers, string) {
	var ids Identifiers
	rest := text

	if doi := pdf.FindDOI(text); doi != "" {
		ids.DOI = doi
		rest = doiLabel.ReplaceAllString(rest, "")
		rest = strings.Replace(rest, doi, "", 1)
	}
	if m := pmidPattern.FindStringSubmatch(rest); m != nil {
		ids.PMID = m[1]
		rest = strings.Replace(rest, m[0], "", 1)
	}
	if m := isbnPattern.FindStringSubmatch(rest); m != nil {
		if isbn := NormalizeISBN(m[1]); ValidISBN(isbn) {
			ids.ISBN = isbn
			rest = strings.Replace(rest, m[0], "", 1)
		}
	}
	for _, u := range urlPattern.FindAllString(rest, -1) {
		u = strings.TrimRight(u, ".,;)")
		if strings.Contains(strings.ToLower(u), "doi.org") {
			continue
		}
		if ids.URL == "" {
			ids.URL = u
		}
		rest = strings.Replace(rest, u, "", 1)
	}
	if ids.URL != "" {
		rest = accessPhrase.ReplaceAllString(rest, " ")
	}
	return ids, cleanSpaces(rest)
}

// apply adds the identifiers to d.
func (ids Identifiers) apply(d *metadata.Description) {
	if ids.DOI != "" {
		_ = d.AddStatement(metadata.PropDOI, ids.DOI)
	}
	if ids.PMID != "" {
		_ = d.AddStatement(metadata.PropPMID, ids.PMID)
	}
	if ids.ISBN != "" {
		_ = d.AddStatement(metadata.PropISBN, ids.ISBN)
	}
	if ids.URL != "" {
		_ = d.AddStatement(metadata.PropURI, ids.URL)
	}
}

// NormalizeISBN removes hyphens and spaces and upper-cases a check digit X.
func NormalizeISBN(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		}
	}
	return b.String()
}

// ValidISBN reports whether a normalized ISBN-10 or ISBN-13 has a correct
// check digit.
func ValidISBN(isbn string) bool {
	switch len(isbn) {
	case 10:
		sum := 0
		for i, r := range isbn {
			var d int
			switch {
			case r == 'X' && i == 9:
				d = 10
			case r >= '0' && r <= '9':
				d = int(r - '0')
			default:
				return false
			}
			sum += (10 - i) * d
		}
		return sum%11 == 0
	case 13:
		sum := 0
		for i, r := range isbn {
			if r < '0' || r > '9' {
				return false
			}
			d := int(r - '0')
			if i%2 == 1 {
				d *= 3
			}
			sum += d
		}
		return sum%10 == 0
	}
	return false
}

// NormalizeDOI normalizes a DOI to a consistent format for comparison.
// It removes common URL prefixes (https://doi.org/, DOI:) and converts to lowercase.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "https://dx.doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(strings.TrimSpace(doi))
}

func cleanSpaces(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = dotRun.ReplaceAllString(s, ".")
	s = strings.ReplaceAll(s, " .", ".")
	s = strings.ReplaceAll(s, " ,", ",")
	return strings.TrimSpace(strings.TrimRight(s, " ,;"))
}
