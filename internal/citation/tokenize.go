package citation

import (
	"regexp"
	"strings"
)

// listMarker matches leading list numbering such as "[12]", "12." or "12)".
var listMarker = regexp.MustCompile(`^\s*(?:\[\d{1,3}\]|\d{1,3}[.)])\s+`)

// Tokenize splits a raw citation list into one string per citation. Blank
// lines separate entries, list numbering is stripped, and indented lines are
// joined to the entry above them.
func Tokenize(raw string) []string {
	var out []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			entry := strings.Join(current, " ")
			if entry = strings.TrimSpace(entry); entry != "" {
				out = append(out, entry)
			}
		}
		current = nil
	}

	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		continuation := len(current) > 0 && (line[0] == ' ' || line[0] == '\t') && !listMarker.MatchString(line)
		if !continuation {
			flush()
		}
		line = listMarker.ReplaceAllString(line, "")
		current = append(current, strings.Join(strings.Fields(line), " "))
	}
	flush()
	return out
}
