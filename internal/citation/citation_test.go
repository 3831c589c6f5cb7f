package citation

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/matsen/citeflow/internal/metadata"
)

func TestStateOrder(t *testing.T) {
	if !(Unparsed < Parsed && Parsed < LookedUp) {
		t.Fatal("states are not ordered")
	}
	if got := LookedUp.Advance(Parsed); got != LookedUp {
		t.Errorf("LookedUp.Advance(Parsed) = %s, want looked-up", got)
	}
	if got := Unparsed.Advance(Parsed); got != Parsed {
		t.Errorf("Unparsed.Advance(Parsed) = %s, want parsed", got)
	}
	if _, err := ParseState("done"); err == nil {
		t.Error("ParseState(done) should fail")
	}
	if State(7).Valid() {
		t.Error("State(7).Valid() = true")
	}
}

func TestCitationJSON(t *testing.T) {
	c := Citation{
		ID:        "c1",
		AssocKind: "article",
		AssocID:   "a1",
		Seq:       2,
		RawText:   "raw",
		State:     Parsed,
		Errors:    []string{"rule-based: failed"},
	}
	c.Description = metadata.NewDescription(metadata.CitationSchema, AssocKind, "c1")
	_ = c.Description.AddStatement(metadata.PropArticleTitle, "Title", metadata.DefaultLocale)
	_ = c.Description.AddStatement(metadata.PropAuthors, metadata.NewPersonName([]string{"J."}, "Smith", ""))
	src := metadata.NewDescription(metadata.CitationSchema, SourceAssocKind, "string-pattern")
	_ = src.AddStatement(metadata.PropVolume, "3")
	c.SourceDescriptions = []*metadata.Description{src}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Citation
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.ID != c.ID || got.State != Parsed || got.Seq != 2 || !reflect.DeepEqual(got.Errors, c.Errors) {
		t.Errorf("fields lost: %+v", got)
	}
	if !got.Description.Equal(c.Description) {
		t.Error("description lost in round trip")
	}
	if len(got.SourceDescriptions) != 1 || got.SourceDescriptions[0].AssocID != "string-pattern" {
		t.Errorf("source descriptions = %v", got.SourceDescriptions)
	}
}

func TestClone_DeepCopies(t *testing.T) {
	c := Citation{ID: "c1", Description: metadata.NewCitationDescription(), Errors: []string{"a"}}
	cp := c.Clone()
	_ = cp.Description.AddStatement(metadata.PropVolume, "1")
	cp.Errors[0] = "b"

	if c.Description.HasStatement(metadata.PropVolume) || c.Errors[0] != "a" {
		t.Error("Clone shares state with the original")
	}
}

func TestTokenize(t *testing.T) {
	raw := "1. Smith J. First paper. Nature. 2020.\n" +
		"2) Jones A. Second paper\n" +
		"   continued on the next line. Science. 2019.\n" +
		"\n" +
		"[3] Brown B. Third.\r\n" +
		"   \n" +
		"Plain entry without number"

	want := []string{
		"Smith J. First paper. Nature. 2020.",
		"Jones A. Second paper continued on the next line. Science. 2019.",
		"Brown B. Third.",
		"Plain entry without number",
	}
	if got := Tokenize(raw); !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize =\n%q\nwant\n%q", got, want)
	}
	if got := Tokenize("  \n\n"); len(got) != 0 {
		t.Errorf("Tokenize(blank) = %q, want empty", got)
	}
}
