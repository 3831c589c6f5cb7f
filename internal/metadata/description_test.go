package metadata

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestNewSchema_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		props []Property
	}{
		{"no properties", nil},
		{"bad name", []Property{{Name: "Bad Name", Kind: KindString}}},
		{"bad kind", []Property{{Name: "title", Kind: "blob"}}},
		{"composite without schema", []Property{{Name: "author", Kind: KindComposite}}},
		{"empty vocabulary", []Property{{Name: "genre", Kind: KindVocabulary}}},
		{"translatable composite", []Property{{Name: "author", Kind: KindComposite, Composite: "x", Translatable: true}}},
		{"duplicate", []Property{{Name: "title", Kind: KindString}, {Name: "title", Kind: KindString}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSchema("test", tt.props...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSchema_Immutable(t *testing.T) {
	vocab := []string{"a", "b"}
	s := MustSchema("test", Property{Name: "kind", Kind: KindVocabulary, Vocabulary: vocab})
	vocab[0] = "changed"

	p, _ := s.Property("kind")
	if p.Vocabulary[0] != "a" {
		t.Errorf("schema vocabulary changed through caller slice: %v", p.Vocabulary)
	}

	p.Vocabulary[1] = "mutated"
	p2, _ := s.Property("kind")
	if p2.Vocabulary[1] != "b" {
		t.Errorf("schema vocabulary changed through returned property: %v", p2.Vocabulary)
	}
}

func TestAddStatement(t *testing.T) {
	d := NewCitationDescription()

	if err := d.AddStatement(PropArticleTitle, "A Title", DefaultLocale); err != nil {
		t.Fatalf("AddStatement(title): %v", err)
	}
	if err := d.AddStatement(PropDate, "2020-03"); err != nil {
		t.Fatalf("AddStatement(date): %v", err)
	}
	if err := d.AddStatement(PropAuthors, NewPersonName([]string{"J."}, "Smith", "")); err != nil {
		t.Fatalf("AddStatement(author 1): %v", err)
	}
	if err := d.AddStatement(PropAuthors, NewPersonName([]string{"A."}, "Jones", "")); err != nil {
		t.Fatalf("AddStatement(author 2): %v", err)
	}

	if got := d.String(PropArticleTitle); got != "A Title" {
		t.Errorf("title = %q, want %q", got, "A Title")
	}
	if got := len(d.Composites(PropAuthors)); got != 2 {
		t.Errorf("len(authors) = %d, want 2", got)
	}
}

func TestAddStatement_Errors(t *testing.T) {
	tests := []struct {
		name   string
		prop   string
		value  any
		locale []string
		check  func(error) bool
	}{
		{"unknown property", "shoe-size", "42", nil, IsUnknownProperty},
		{"missing locale", PropArticleTitle, "x", nil, func(err error) bool { return errors.Is(err, ErrLocale) }},
		{"locale on plain property", PropVolume, "3", []string{"en"}, func(err error) bool { return errors.Is(err, ErrLocale) }},
		{"bad date", PropDate, "March 2020", nil, func(err error) bool { return errors.Is(err, ErrValueKind) }},
		{"bad vocabulary", PropGenre, "magazine", nil, func(err error) bool { return errors.Is(err, ErrValueKind) }},
		{"bad uri", PropURI, "not a uri", nil, func(err error) bool { return errors.Is(err, ErrValueKind) }},
		{"wrong composite schema", PropAuthors, NewCitationDescription(), nil, func(err error) bool { return errors.Is(err, ErrValueKind) }},
		{"integer as string", PropSize, "300", nil, func(err error) bool { return errors.Is(err, ErrValueKind) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewCitationDescription()
			err := d.AddStatement(tt.prop, tt.value, tt.locale...)
			if err == nil {
				t.Fatal("expected error")
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("error %T is not a *ValidationError", err)
			}
			if !tt.check(err) {
				t.Errorf("unexpected error cause: %v", err)
			}
			if !d.IsEmpty() {
				t.Error("failed AddStatement changed the description")
			}
		})
	}
}

func TestAddStatement_Cardinality(t *testing.T) {
	d := NewCitationDescription()
	if err := d.AddStatement(PropVolume, "12"); err != nil {
		t.Fatalf("first AddStatement: %v", err)
	}
	err := d.AddStatement(PropVolume, "13")
	if !IsCardinality(err) {
		t.Fatalf("expected CardinalityError, got %v", err)
	}
	if got := d.String(PropVolume); got != "12" {
		t.Errorf("volume = %q, want %q", got, "12")
	}

	// One value per locale is allowed for translatable properties
	if err := d.AddStatement(PropArticleTitle, "Title", "en"); err != nil {
		t.Fatalf("AddStatement(en): %v", err)
	}
	if err := d.AddStatement(PropArticleTitle, "Titel", "de"); err != nil {
		t.Fatalf("AddStatement(de): %v", err)
	}
	if !IsCardinality(d.AddStatement(PropArticleTitle, "Other", "en")) {
		t.Error("expected CardinalityError for second en title")
	}
}

func TestSetStatements_AllOrNothing(t *testing.T) {
	d := NewCitationDescription()
	if err := d.SetStatements(map[string]any{
		PropArticleTitle: map[string]any{"en": "Original"},
		PropVolume:       "1",
	}, ReplaceAll); err != nil {
		t.Fatalf("SetStatements: %v", err)
	}
	before := d.AllData()

	tests := []struct {
		name  string
		batch map[string]any
		mode  ReplaceMode
	}{
		{"unknown key", map[string]any{PropIssue: "2", "bogus": "x"}, ReplaceProperty},
		{"unknown key replace all", map[string]any{PropIssue: "2", "bogus": "x"}, ReplaceAll},
		{"conflict with replace nothing", map[string]any{PropIssue: "2", PropVolume: "9"}, ReplaceNothing},
		{"bad value late in batch", map[string]any{PropIssue: "2", PropURI: "nope"}, ReplaceProperty},
		{"too many values", map[string]any{PropIssue: []any{"2", "3"}}, ReplaceProperty},
		{"translatable without locale map", map[string]any{PropSource: "Journal"}, ReplaceProperty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.SetStatements(tt.batch, tt.mode); err == nil {
				t.Fatal("expected error")
			}
			if after := d.AllData(); !reflect.DeepEqual(before, after) {
				t.Errorf("AllData changed after failed batch:\nbefore %v\nafter  %v", before, after)
			}
		})
	}
}

func TestSetStatements_Modes(t *testing.T) {
	newDesc := func() *Description {
		d := NewCitationDescription()
		_ = d.AddStatement(PropVolume, "1")
		_ = d.AddStatement(PropIssue, "2")
		return d
	}

	t.Run("ReplaceNothing adds new keys", func(t *testing.T) {
		d := newDesc()
		if err := d.SetStatements(map[string]any{PropFirstPage: "10"}, ReplaceNothing); err != nil {
			t.Fatalf("SetStatements: %v", err)
		}
		if d.String(PropVolume) != "1" || d.String(PropFirstPage) != "10" {
			t.Errorf("unexpected data: %v", d.AllData())
		}
	})

	t.Run("ReplaceProperty overwrites only given keys", func(t *testing.T) {
		d := newDesc()
		if err := d.SetStatements(map[string]any{PropVolume: "7"}, ReplaceProperty); err != nil {
			t.Fatalf("SetStatements: %v", err)
		}
		if d.String(PropVolume) != "7" || d.String(PropIssue) != "2" {
			t.Errorf("unexpected data: %v", d.AllData())
		}
	})

	t.Run("ReplaceAll clears", func(t *testing.T) {
		d := newDesc()
		if err := d.SetStatements(map[string]any{PropVolume: "7"}, ReplaceAll); err != nil {
			t.Fatalf("SetStatements: %v", err)
		}
		if d.HasStatement(PropIssue) {
			t.Error("issue should have been cleared")
		}
	})
}

func TestRemoveStatement(t *testing.T) {
	d := NewCitationDescription()
	_ = d.AddStatement(PropVolume, "1")
	if !d.RemoveStatement(PropVolume) {
		t.Error("RemoveStatement() = false, want true")
	}
	if d.RemoveStatement(PropVolume) {
		t.Error("second RemoveStatement() = true, want false")
	}
}

func TestClone_Independent(t *testing.T) {
	d := NewCitationDescription()
	_ = d.AddStatement(PropAuthors, NewPersonName([]string{"J."}, "Smith", ""))
	c := d.Clone()
	_ = c.AddStatement(PropAuthors, NewPersonName([]string{"A."}, "Jones", ""))

	if len(d.Composites(PropAuthors)) != 1 {
		t.Error("mutating clone changed original")
	}
	if !d.Equal(d.Clone()) {
		t.Error("clone should equal original")
	}
}

func TestDescriptionJSONRoundTrip(t *testing.T) {
	d := NewDescription(CitationSchema, "citation", "c1")
	_ = d.AddStatement(PropGenre, GenreJournal)
	_ = d.AddStatement(PropArticleTitle, "A Title", "en")
	_ = d.AddStatement(PropAuthors, NewPersonName([]string{"J.", "A."}, "Smith", ""))
	_ = d.AddStatement(PropSize, 12)
	_ = d.AddStatement(PropComment, "first")
	_ = d.AddStatement(PropComment, "second")

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := DefaultRegistry().Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.Equal(d) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", got.AllData(), d.AllData())
	}
	if got.AssocKind != "citation" || got.AssocID != "c1" {
		t.Errorf("association = %s/%s, want citation/c1", got.AssocKind, got.AssocID)
	}
}
