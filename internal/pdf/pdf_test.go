package pdf

import "testing"

func TestFindDOI(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"See doi:10.1038/nature12373.", "10.1038/nature12373"},
		{"https://doi.org/10.1093/molbev/msu300)", "10.1093/molbev/msu300"},
		{"no identifier here", ""},
		{"10.12/short", ""},
	}

	for _, tt := range tests {
		if got := FindDOI(tt.text); got != tt.want {
			t.Errorf("FindDOI(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestFindDOIs(t *testing.T) {
	text := "[1] doi:10.1038/nature12373. [2] 10.1093/molbev/msu300; [3] https://doi.org/10.1038/NATURE12373"
	got := FindDOIs(text)
	if len(got) != 2 || got[0] != "10.1038/nature12373" || got[1] != "10.1093/molbev/msu300" {
		t.Errorf("FindDOIs() = %v", got)
	}
}

func TestExtractReferences(t *testing.T) {
	text := `Contents
1. Introduction
References

1 Introduction
Body text citing [1].

References
[1] Smith J. A paper. Nature. 2020;1:1-2.
[2] Jones A. Another. Science. 2019.

Appendix A
Extra material.`

	got := ExtractReferences(text)
	want := "[1] Smith J. A paper. Nature. 2020;1:1-2.\n[2] Jones A. Another. Science. 2019."
	if got != want {
		t.Errorf("ExtractReferences =\n%q\nwant\n%q", got, want)
	}

	if got := ExtractReferences("no section at all"); got != "" {
		t.Errorf("ExtractReferences(no heading) = %q, want empty", got)
	}
}
