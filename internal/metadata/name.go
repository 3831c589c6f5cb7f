package metadata

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Common name suffixes to keep apart from the surname.
var nameSuffixes = map[string]bool{
	"jr":   true,
	"jr.":  true,
	"sr":   true,
	"sr.":  true,
	"ii":   true,
	"iii":  true,
	"iv":   true,
	"phd":  true,
	"ph.d": true,
	"md":   true,
	"m.d":  true,
}

// Surname particles kept with the surname ("van der Waals").
var surnamePrefixes = map[string]bool{
	"van": true, "von": true, "der": true, "den": true, "de": true,
	"del": true, "della": true, "di": true, "da": true, "du": true,
	"le": true, "la": true, "dos": true, "das": true, "ter": true,
}

// NewPersonName builds an nlm-name description.
func NewPersonName(given []string, surname, suffix string) *Description {
	d := NewDescription(NameSchema, "", "")
	for _, g := range given {
		if g = strings.TrimSpace(g); g != "" {
			_ = d.AddStatement(PropGivenNames, g)
		}
	}
	if surname != "" {
		_ = d.AddStatement(PropSurname, surname)
	}
	if suffix != "" {
		_ = d.AddStatement(PropSuffix, suffix)
	}
	return d
}

// ParsePersonName splits a single author string into an nlm-name description.
// Handles "Surname, Given", "Surname AB" (Vancouver initials) and
// "Given Middle Surname [Suffix]".
//
// Known limitations:
// - Non-Western name order is not detected
// - Corporate authors are returned as a bare surname
func ParsePersonName(name string) *Description {
	name = strings.Join(strings.Fields(name), " ")
	name = strings.Trim(name, " ,;")
	if name == "" {
		return nil
	}

	// "Surname, Given" or "Surname, Given, Jr."
	if parts := strings.Split(name, ","); len(parts) >= 2 {
		surname := strings.TrimSpace(parts[0])
		given := strings.TrimSpace(parts[1])
		suffix := ""
		if len(parts) > 2 && nameSuffixes[strings.ToLower(strings.TrimSpace(parts[2]))] {
			suffix = strings.TrimSpace(parts[2])
		}
		return NewPersonName(splitGivenNames(given), surname, suffix)
	}

	fields := strings.Fields(name)
	if len(fields) == 1 {
		return NewPersonName(nil, fields[0], "")
	}

	suffix := ""
	if last := strings.ToLower(fields[len(fields)-1]); nameSuffixes[last] && len(fields) > 2 {
		suffix = fields[len(fields)-1]
		fields = fields[:len(fields)-1]
	}

	// Vancouver: "Smith JA" - trailing all-caps initials block
	if last := fields[len(fields)-1]; isInitialsBlock(last) && len(fields) >= 2 {
		surname := strings.Join(fields[:len(fields)-1], " ")
		return NewPersonName(splitGivenNames(last), surname, suffix)
	}

	// Western order, keeping surname particles together
	i := len(fields) - 1
	for i > 1 && surnamePrefixes[strings.ToLower(fields[i-1])] {
		i--
	}
	return NewPersonName(splitGivenNames(strings.Join(fields[:i], " ")), strings.Join(fields[i:], " "), suffix)
}

// isInitialsBlock reports whether s looks like "JA" or "J.A." (at most 3 letters).
func isInitialsBlock(s string) bool {
	letters := 0
	for _, r := range s {
		switch {
		case r == '.':
		case unicode.IsUpper(r):
			letters++
		default:
			return false
		}
	}
	return letters > 0 && letters <= 3
}

// splitGivenNames splits "J. A." / "JA" / "John Andrew" into separate given names.
func splitGivenNames(given string) []string {
	given = strings.TrimSpace(given)
	if given == "" {
		return nil
	}
	if isInitialsBlock(strings.ReplaceAll(given, " ", "")) {
		var out []string
		for _, r := range given {
			if unicode.IsUpper(r) {
				out = append(out, string(r)+".")
			}
		}
		return out
	}
	return strings.Fields(given)
}

// FormatPersonName renders an nlm-name description as "Surname, G. N.".
func FormatPersonName(d *Description) string {
	if d == nil {
		return ""
	}
	surname := d.String(PropSurname)
	given := strings.Join(d.Strings(PropGivenNames), " ")
	out := surname
	if given != "" {
		if out != "" {
			out += ", "
		}
		out += given
	}
	if suffix := d.String(PropSuffix); suffix != "" {
		out += ", " + suffix
	}
	return out
}

// FormatDate formats a year with optional month and day as YYYY[-MM[-DD]].
// A zero year yields an empty string.
func FormatDate(year, month, day int) string {
	if year <= 0 {
		return ""
	}
	out := pad(year, 4)
	if month >= 1 && month <= 12 {
		out += "-" + pad(month, 2)
		if day >= 1 && day <= 31 {
			out += "-" + pad(day, 2)
		}
	}
	return out
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// SplitDate parses a YYYY[-MM[-DD]] date. Missing parts are returned as 0.
func SplitDate(s string) (year, month, day int, ok bool) {
	parts := strings.Split(s, "-")
	if len(parts) == 0 || len(parts) > 3 || len(parts[0]) != 4 {
		return 0, 0, 0, false
	}
	var err error
	if year, err = strconv.Atoi(parts[0]); err != nil || year <= 0 {
		return 0, 0, 0, false
	}
	if len(parts) >= 2 {
		if len(parts[1]) != 2 {
			return 0, 0, 0, false
		}
		if month, err = strconv.Atoi(parts[1]); err != nil || month < 1 || month > 12 {
			return 0, 0, 0, false
		}
	}
	if len(parts) == 3 {
		if len(parts[2]) != 2 {
			return 0, 0, 0, false
		}
		if day, err = strconv.Atoi(parts[2]); err != nil || day < 1 || day > 31 {
			return 0, 0, 0, false
		}
	}
	return year, month, day, true
}

// NormalizeDate accepts "2020", "2020-3-5", "2020/03/05" or "2020 Mar 5" and
// returns YYYY[-MM[-DD]]. It returns "" when no year can be found.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/' || r == ' ' || r == ',' || r == '.'
	})
	if len(fields) == 0 {
		return ""
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil || year < 1000 || year > 9999 {
		return ""
	}
	month, day := 0, 0
	if len(fields) >= 2 {
		month = parseMonth(fields[1])
	}
	if month > 0 && len(fields) >= 3 {
		if d, err := strconv.Atoi(fields[2]); err == nil {
			day = d
		}
	}
	return FormatDate(year, month, day)
}

var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

func parseMonth(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 12 {
			return n
		}
		return 0
	}
	if len(s) >= 3 {
		return monthNames[strings.ToLower(s[:3])]
	}
	return 0
}

// pageRange matches "45-67", "45–67", "45--67" and "e123-e130".
var pageRange = regexp.MustCompile(`^([A-Za-z]?\d+)\s*(?:[-–—]+\s*([A-Za-z]?\d+))?$`)

// SplitPages splits a page range into first and last page, expanding
// abbreviated ranges ("123-9" -> "123", "129"). ok is false when s is not a
// page range.
func SplitPages(s string) (first, last string, ok bool) {
	s = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), "."))
	m := pageRange.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	first, last = m[1], m[2]
	if len(last) < len(first) && isDigits(last) && isDigits(first) {
		last = first[:len(first)-len(last)] + last
	}
	return first, last, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
