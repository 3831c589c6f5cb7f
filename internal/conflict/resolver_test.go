package conflict

import (
	"testing"

	"github.com/matsen/citeflow/internal/metadata"
)

func newDesc(t *testing.T, title, source, date string, surnames ...string) *metadata.Description {
	t.Helper()
	d := metadata.NewCitationDescription()
	if title != "" {
		if err := d.AddStatement(metadata.PropArticleTitle, title, metadata.DefaultLocale); err != nil {
			t.Fatal(err)
		}
	}
	if source != "" {
		if err := d.AddStatement(metadata.PropSource, source, metadata.DefaultLocale); err != nil {
			t.Fatal(err)
		}
	}
	if date != "" {
		if err := d.AddStatement(metadata.PropDate, date); err != nil {
			t.Fatal(err)
		}
	}
	for _, s := range surnames {
		if err := d.AddStatement(metadata.PropAuthors, metadata.NewPersonName([]string{"J."}, s, "")); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func TestDiff_IgnoresCaseAndDiacritics(t *testing.T) {
	working := newDesc(t, "Café society: a study", "", "", "Müller")
	candidate := newDesc(t, "CAFE SOCIETY - A Study", "", "", "Muller")

	if conflicts := Diff(working, candidate); len(conflicts) != 0 {
		t.Errorf("expected no conflicts, got %+v", conflicts)
	}
}

func TestDiff_ReportsTrueConflicts(t *testing.T) {
	working := newDesc(t, "Title One", "Nature", "2020", "Chen")
	candidate := newDesc(t, "Title One", "Science", "2020", "Chen", "Patel")

	conflicts := Diff(working, candidate)
	if len(conflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %+v", conflicts)
	}
	// Schema order: authors come before source
	if conflicts[0].Property != metadata.PropAuthors {
		t.Errorf("conflicts[0].Property = %q, want %q", conflicts[0].Property, metadata.PropAuthors)
	}
	if conflicts[1].Working != "Nature" || conflicts[1].Candidate != "Science" {
		t.Errorf("source conflict = %+v", conflicts[1])
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		working   *metadata.Description
		candidate *metadata.Description
		want      ResolutionAction
	}{
		{
			name:      "empty working",
			working:   metadata.NewCitationDescription(),
			candidate: newDesc(t, "Title", "", ""),
			want:      ActionTakeCandidate,
		},
		{
			name:      "candidate fills gaps",
			working:   newDesc(t, "Title", "", ""),
			candidate: newDesc(t, "Title", "Nature", "2020"),
			want:      ActionFillMissing,
		},
		{
			name:      "conflict",
			working:   newDesc(t, "Title", "Nature", ""),
			candidate: newDesc(t, "Other", "Nature", ""),
			want:      ActionConflict,
		},
		{
			name:      "nothing new",
			working:   newDesc(t, "Title", "Nature", "2020"),
			candidate: newDesc(t, "Title", "", ""),
			want:      ActionKeepWorking,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Resolve("crossref", tt.working, tt.candidate)
			if plan.Action != tt.want {
				t.Errorf("Action = %s, want %s (%s)", plan.Action, tt.want, plan.Reason)
			}
			if plan.Source != "crossref" {
				t.Errorf("Source = %q, want crossref", plan.Source)
			}
		})
	}
}

func TestMerge_NeverOverwrites(t *testing.T) {
	working := newDesc(t, "User Title", "", "", "Chen")
	candidate := newDesc(t, "Service Title", "Nature", "2021-05", "Chen", "Patel")

	merged, conflicts, err := Merge(working, candidate)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got := merged.String(metadata.PropArticleTitle); got != "User Title" {
		t.Errorf("title = %q, want %q", got, "User Title")
	}
	if got := merged.String(metadata.PropSource); got != "Nature" {
		t.Errorf("source = %q, want %q", got, "Nature")
	}
	if got := merged.String(metadata.PropDate); got != "2021-05" {
		t.Errorf("date = %q, want %q", got, "2021-05")
	}
	if got := len(merged.Composites(metadata.PropAuthors)); got != 1 {
		t.Errorf("len(authors) = %d, want 1", got)
	}
	if len(conflicts) != 2 {
		t.Errorf("expected title and author conflicts, got %+v", conflicts)
	}
	if working.HasStatement(metadata.PropSource) {
		t.Error("Merge mutated the working description")
	}
}

func TestCompleteness(t *testing.T) {
	low := newDesc(t, "Title", "", "")
	high := newDesc(t, "Title", "Nature", "2020", "Chen")

	if Completeness(low) != 5 {
		t.Errorf("Completeness(low) = %d, want 5", Completeness(low))
	}
	if Completeness(high) != 14 {
		t.Errorf("Completeness(high) = %d, want 14", Completeness(high))
	}
	if Completeness(nil) != 0 {
		t.Error("Completeness(nil) != 0")
	}
}

func TestTitleSimilarity(t *testing.T) {
	if got := TitleSimilarity("Running genes", "run gene"); got != 1 {
		t.Errorf("TitleSimilarity(stemmed match) = %v, want 1", got)
	}
	if got := TitleSimilarity("alpha beta", "gamma delta"); got != 0 {
		t.Errorf("TitleSimilarity(disjoint) = %v, want 0", got)
	}
	if got := TitleSimilarity("", "x"); got != 0 {
		t.Errorf("TitleSimilarity(empty) = %v, want 0", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdefgh", 6); got != "abc..." {
		t.Errorf("Truncate = %q, want %q", got, "abc...")
	}
	if got := Truncate("abc", 6); got != "abc" {
		t.Errorf("Truncate = %q, want %q", got, "abc")
	}
}
