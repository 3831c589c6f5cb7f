package conflict

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/surgebase/porter2"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/matsen/citeflow/internal/metadata"
)

// Field completeness weights (higher = more important)
var completenessWeights = map[string]int{
	metadata.PropArticleTitle:  5,
	metadata.PropAuthors:       4,
	metadata.PropSource:        3,
	metadata.PropDate:          2,
	metadata.PropDOI:           1,
	metadata.PropPMID:          1,
	metadata.PropISBN:          1,
	metadata.PropVolume:        1,
	metadata.PropFirstPage:     1,
	metadata.PropPublisherName: 1,
}

// Properties never reported as conflicts: free-form notes owned by the user.
var ignoredProperties = map[string]bool{
	metadata.PropComment:    true,
	metadata.PropAnnotation: true,
	metadata.PropAccessDate: true,
}

// Resolve describes how a candidate relates to the working description.
func Resolve(source string, working, candidate *metadata.Description) ResolutionPlan {
	plan := ResolutionPlan{
		Source:         source,
		WorkingScore:   Completeness(working),
		CandidateScore: Completeness(candidate),
		TitleMatch: TitleSimilarity(
			stringValue(working, metadata.PropArticleTitle),
			stringValue(candidate, metadata.PropArticleTitle),
		),
	}

	if working == nil || working.IsEmpty() {
		plan.Action = ActionTakeCandidate
		plan.Reason = "working description is empty"
		return plan
	}

	plan.Missing = Missing(working, candidate)
	plan.Conflicts = Diff(working, candidate)

	switch {
	case len(plan.Conflicts) > 0:
		plan.Action = ActionConflict
		plan.Reason = "true conflicts on: " + conflictFieldNames(plan.Conflicts)
	case len(plan.Missing) > 0:
		plan.Action = ActionFillMissing
		plan.Reason = "candidate adds: " + strings.Join(plan.Missing, ", ")
	default:
		plan.Action = ActionKeepWorking
		plan.Reason = "candidate adds nothing"
	}
	return plan
}

// Diff returns the properties set in both descriptions whose values differ
// after normalization (case, diacritics and punctuation are ignored).
func Diff(working, candidate *metadata.Description) []FieldConflict {
	if working == nil || candidate == nil {
		return nil
	}
	var conflicts []FieldConflict
	for _, prop := range working.Schema().PropertyNames() {
		if ignoredProperties[prop] || !working.HasStatement(prop) || !candidate.HasStatement(prop) {
			continue
		}
		w := DisplayValue(working, prop)
		c := DisplayValue(candidate, prop)
		if normalize(w) == normalize(c) {
			continue
		}
		conflicts = append(conflicts, FieldConflict{Property: prop, Working: w, Candidate: c})
	}
	return conflicts
}

// Missing returns the properties the candidate sets that the working
// description lacks, in schema order.
func Missing(working, candidate *metadata.Description) []string {
	if candidate == nil {
		return nil
	}
	var out []string
	for _, prop := range candidate.Schema().PropertyNames() {
		if !candidate.HasStatement(prop) {
			continue
		}
		if working == nil || !working.HasStatement(prop) {
			out = append(out, prop)
		}
	}
	return out
}

// Merge copies the properties the working description lacks from the
// candidate. Existing working values are never overwritten; properties where
// the two disagree are returned as conflicts.
func Merge(working, candidate *metadata.Description) (*metadata.Description, []FieldConflict, error) {
	if working == nil {
		return candidate.Clone(), nil, nil
	}
	merged := working.Clone()
	if candidate == nil {
		return merged, nil, nil
	}

	batch := make(map[string]any)
	for _, prop := range Missing(working, candidate) {
		p, _ := candidate.Schema().Property(prop)
		if p.Kind == metadata.KindComposite {
			batch[prop] = candidate.Composites(prop)
		} else {
			batch[prop] = candidate.Statement(prop)
		}
	}
	if err := merged.SetStatements(batch, metadata.ReplaceNothing); err != nil {
		return nil, nil, fmt.Errorf("merging candidate: %w", err)
	}
	return merged, Diff(working, candidate), nil
}

// Completeness returns a weighted score of the fields a description sets.
// Higher scores indicate more complete metadata.
func Completeness(d *metadata.Description) int {
	if d == nil {
		return 0
	}
	score := 0
	for prop, w := range completenessWeights {
		if d.HasStatement(prop) {
			score += w
		}
	}
	return score
}

// DisplayValue renders a property as a single string for comparison and
// display. Names are rendered "Surname, G." and joined with "; ".
func DisplayValue(d *metadata.Description, prop string) string {
	p, ok := d.Schema().Property(prop)
	if !ok {
		return ""
	}
	switch p.Kind {
	case metadata.KindComposite:
		var names []string
		for _, c := range d.Composites(prop) {
			names = append(names, metadata.FormatPersonName(c))
		}
		return strings.Join(names, "; ")
	case metadata.KindInteger:
		if n, ok := d.Int(prop); ok {
			return strconv.Itoa(n)
		}
		return ""
	}
	if p.Cardinality == metadata.Many {
		return strings.Join(d.Strings(prop), "; ")
	}
	return d.String(prop)
}

func stringValue(d *metadata.Description, prop string) string {
	if d == nil {
		return ""
	}
	return d.String(prop)
}

// normalize folds case and diacritics and drops punctuation and extra spaces.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = cases.Fold().String(folded)

	var b strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TitleSimilarity returns the Jaccard similarity of the stemmed word sets of
// two titles, in [0, 1].
func TitleSimilarity(a, b string) float64 {
	sa, sb := stemSet(a), stemSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for w := range sa {
		if sb[w] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

func stemSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(normalize(s)) {
		out[porter2.Stem(w)] = true
	}
	return out
}

// conflictFieldNames returns a comma-separated list of properties with conflicts.
func conflictFieldNames(conflicts []FieldConflict) string {
	var names []string
	for _, c := range conflicts {
		names = append(names, c.Property)
	}
	return strings.Join(names, ", ")
}

// Truncate shortens s for display.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
