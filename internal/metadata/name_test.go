package metadata

import (
	"reflect"
	"testing"
)

func TestParsePersonName(t *testing.T) {
	tests := []struct {
		input     string
		wantGiven []string
		wantLast  string
		wantSuff  string
	}{
		{"Smith, J.", []string{"J."}, "Smith", ""},
		{"Smith, John A.", []string{"John", "A."}, "Smith", ""},
		{"Smith JA", []string{"J.", "A."}, "Smith", ""},
		{"John Smith", []string{"John"}, "Smith", ""},
		{"Martin Luther King Jr.", []string{"Martin", "Luther"}, "King", "Jr."},
		{"Johannes van der Waals", []string{"Johannes"}, "van der Waals", ""},
		{"Madonna", nil, "Madonna", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d := ParsePersonName(tt.input)
			if d == nil {
				t.Fatal("ParsePersonName returned nil")
			}
			if got := d.Strings(PropGivenNames); !reflect.DeepEqual(got, tt.wantGiven) {
				t.Errorf("given = %v, want %v", got, tt.wantGiven)
			}
			if got := d.String(PropSurname); got != tt.wantLast {
				t.Errorf("surname = %q, want %q", got, tt.wantLast)
			}
			if got := d.String(PropSuffix); got != tt.wantSuff {
				t.Errorf("suffix = %q, want %q", got, tt.wantSuff)
			}
		})
	}

	if ParsePersonName("  ") != nil {
		t.Error("expected nil for blank name")
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2020", "2020"},
		{"2020-3-5", "2020-03-05"},
		{"2020/03", "2020-03"},
		{"2020 Mar 5", "2020-03-05"},
		{"2020 Spring", "2020"},
		{"March 2020", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeDate(tt.input); got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSplitDate(t *testing.T) {
	y, m, d, ok := SplitDate("2021-07-09")
	if !ok || y != 2021 || m != 7 || d != 9 {
		t.Errorf("SplitDate = %d %d %d %v", y, m, d, ok)
	}
	for _, bad := range []string{"21", "2021-7", "2021-13", "2021-01-32", "x"} {
		if _, _, _, ok := SplitDate(bad); ok {
			t.Errorf("SplitDate(%q) ok = true, want false", bad)
		}
	}
}
