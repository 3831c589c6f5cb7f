package pdf

import (
	"regexp"
	"strings"
)

// doiPattern matches "10.<registrant>/<suffix>" up to whitespace or a
// character that cannot end a DOI in running text.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// FindDOI returns the first DOI in text, or "".
func FindDOI(text string) string {
	if dois := FindDOIs(text); len(dois) > 0 {
		return dois[0]
	}
	return ""
}

// FindDOIs returns the distinct DOIs in text in order of appearance, with
// trailing sentence punctuation removed. DOIs compare case-insensitively.
func FindDOIs(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range doiPattern.FindAllString(text, -1) {
		m = strings.TrimRight(m, ".,;:)")
		key := strings.ToLower(m)
		if !plausibleDOI(m) || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

// plausibleDOI requires a non-empty suffix after the registrant.
func plausibleDOI(doi string) bool {
	_, suffix, ok := strings.Cut(doi, "/")
	return ok && len(doi) >= 10 && strings.TrimSpace(suffix) != ""
}
