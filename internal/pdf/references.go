package pdf

import (
	"regexp"
	"strings"
)

// referenceHeading matches a line that starts the reference section.
var referenceHeading = regexp.MustCompile(`(?im)^\s*(?:\d+\.?\s*)?(references|bibliography|literature cited|works cited|reference list)\s*:?\s*$`)

// sectionAfterReferences matches headings that usually follow the references.
var sectionAfterReferences = regexp.MustCompile(`(?im)^\s*(?:appendix|supplementary (?:material|information)|acknowledg(?:e)?ments|author contributions|figure legends|tables?)\b.*$`)

// ExtractReferences returns the text of the last reference section heading
// up to the next trailing section, or "" if there is none.
func ExtractReferences(text string) string {
	locs := referenceHeading.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return ""
	}
	// The last heading wins: tables of contents also list "References"
	body := text[locs[len(locs)-1][1]:]

	if end := sectionAfterReferences.FindStringIndex(body); end != nil {
		body = body[:end[0]]
	}
	return strings.TrimSpace(body)
}
