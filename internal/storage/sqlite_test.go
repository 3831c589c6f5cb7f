package storage

import (
	"path/filepath"
	"testing"

	"github.com/matsen/citeflow/internal/citation"
	"github.com/matsen/citeflow/internal/metadata"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testCitation(id string, seq int, title string) citation.Citation {
	c := citation.Citation{
		ID:        id,
		AssocKind: "article",
		AssocID:   "a1",
		Seq:       seq,
		RawText:   "Smith J. " + title + ". J Test. 2020;1:1-2.",
		State:     citation.Parsed,
		Errors:    []string{"rule-based: no match"},
	}
	c.Description = metadata.NewDescription(metadata.CitationSchema, citation.AssocKind, id)
	_ = c.Description.AddStatement(metadata.PropArticleTitle, title, metadata.DefaultLocale)
	_ = c.Description.AddStatement(metadata.PropAuthors, metadata.NewPersonName([]string{"J."}, "Smith", ""))
	src := metadata.NewDescription(metadata.CitationSchema, citation.SourceAssocKind, "string-pattern")
	_ = src.AddStatement(metadata.PropArticleTitle, title, metadata.DefaultLocale)
	c.SourceDescriptions = []*metadata.Description{src}
	return c
}

func TestSaveAndGetCitation(t *testing.T) {
	db := setupTestDB(t)
	want := testCitation("c1", 1, "Deep learning")
	want.EditedText = "edited"

	id, err := db.SaveCitation(want)
	if err != nil {
		t.Fatalf("SaveCitation() error = %v", err)
	}
	if id != "c1" {
		t.Errorf("id = %q, want c1", id)
	}

	got, err := db.GetCitation("c1")
	if err != nil {
		t.Fatalf("GetCitation() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetCitation() returned nil")
	}
	if got.EditedText != "edited" || got.State != citation.Parsed || got.Seq != 1 {
		t.Errorf("got %+v", got)
	}
	if len(got.Errors) != 1 || got.Errors[0] != "rule-based: no match" {
		t.Errorf("Errors = %v", got.Errors)
	}
	if !got.Description.Equal(want.Description) {
		t.Errorf("Description = %v, want %v", got.Description.AllData(), want.Description.AllData())
	}
	if len(got.SourceDescriptions) != 1 || got.SourceDescriptions[0].AssocID != "string-pattern" {
		t.Errorf("SourceDescriptions = %v", got.SourceDescriptions)
	}

	missing, err := db.GetCitation("nope")
	if err != nil || missing != nil {
		t.Errorf("GetCitation(nope) = %v, %v; want nil, nil", missing, err)
	}
}

func TestSaveCitation_AssignsID(t *testing.T) {
	db := setupTestDB(t)
	c := testCitation("", 1, "Untitled")
	id, err := db.SaveCitation(c)
	if err != nil {
		t.Fatalf("SaveCitation() error = %v", err)
	}
	if len(id) != 36 {
		t.Errorf("id = %q, want a UUID", id)
	}
}

func TestSaveCitation_ReplacesDescriptions(t *testing.T) {
	db := setupTestDB(t)
	c := testCitation("c1", 1, "First")
	if _, err := db.SaveCitation(c); err != nil {
		t.Fatal(err)
	}
	c.Description = nil
	c.SourceDescriptions = nil
	c.State = citation.Unparsed
	if _, err := db.SaveCitation(c); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetCitation("c1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != nil || len(got.SourceDescriptions) != 0 || got.State != citation.Unparsed {
		t.Errorf("stale data after replace: %+v", got)
	}
}

func TestLoadCitationsForOwner(t *testing.T) {
	db := setupTestDB(t)
	for _, c := range []citation.Citation{
		testCitation("b", 2, "Second"),
		testCitation("a", 1, "First"),
	} {
		if _, err := db.SaveCitation(c); err != nil {
			t.Fatal(err)
		}
	}
	other := testCitation("x", 1, "Other owner")
	other.AssocID = "a2"
	if _, err := db.SaveCitation(other); err != nil {
		t.Fatal(err)
	}

	got, err := db.LoadCitationsForOwner("article", "a1")
	if err != nil {
		t.Fatalf("LoadCitationsForOwner() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("citations = %v, want [a b]", got)
	}
	if got[1].Description.String(metadata.PropArticleTitle) != "Second" {
		t.Errorf("descriptions not loaded: %v", got[1].Description)
	}

	if n, _ := db.Count(); n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}

func TestDeleteCitation(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.SaveCitation(testCitation("c1", 1, "Gone")); err != nil {
		t.Fatal(err)
	}

	deleted, err := db.DeleteCitation("c1")
	if err != nil || !deleted {
		t.Fatalf("DeleteCitation() = %v, %v; want true", deleted, err)
	}
	deleted, err = db.DeleteCitation("c1")
	if err != nil || deleted {
		t.Errorf("second DeleteCitation() = %v, %v; want false", deleted, err)
	}
	if results, _ := db.Search("Gone", 10); len(results) != 0 {
		t.Errorf("deleted citation still searchable: %v", results)
	}
}

func TestPersistIntermediateResults(t *testing.T) {
	db := setupTestDB(t)
	c := testCitation("c1", 1, "Title")
	if _, err := db.SaveCitation(c); err != nil {
		t.Fatal(err)
	}

	a := metadata.NewDescription(metadata.CitationSchema, citation.SourceAssocKind, "crossref")
	_ = a.AddStatement(metadata.PropDOI, "10.1/a")
	b := metadata.NewDescription(metadata.CitationSchema, citation.SourceAssocKind, "pubmed")
	_ = b.AddStatement(metadata.PropPMID, "123")
	if err := db.PersistIntermediateResults(c, []*metadata.Description{a, b}); err != nil {
		t.Fatalf("PersistIntermediateResults() error = %v", err)
	}

	got, err := db.GetCitation("c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.SourceDescriptions) != 2 ||
		got.SourceDescriptions[0].AssocID != "crossref" ||
		got.SourceDescriptions[1].String(metadata.PropPMID) != "123" {
		t.Errorf("SourceDescriptions = %v", got.SourceDescriptions)
	}
}

func TestSearch(t *testing.T) {
	db := setupTestDB(t)
	for _, c := range []citation.Citation{
		testCitation("c1", 1, "Deep learning for proteins"),
		testCitation("c2", 2, "Statistical genomics"),
	} {
		if _, err := db.SaveCitation(c); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.Search("genomics", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "c2" {
		t.Errorf("Search(genomics) = %v, want [c2]", got)
	}
}

func TestRebuildFromJSONL(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.SaveCitation(testCitation("stale", 1, "Stale")); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "citations.jsonl")
	if err := WriteAll(path, []citation.Citation{testCitation("c1", 1, "One"), testCitation("c2", 2, "Two")}); err != nil {
		t.Fatal(err)
	}

	n, err := db.RebuildFromJSONL(path)
	if err != nil {
		t.Fatalf("RebuildFromJSONL() error = %v", err)
	}
	if n != 2 {
		t.Errorf("rebuilt %d, want 2", n)
	}
	if c, _ := db.GetCitation("stale"); c != nil {
		t.Error("stale citation survived rebuild")
	}
	all, err := db.ListAll(0)
	if err != nil || len(all) != 2 {
		t.Errorf("ListAll() = %v, %v", all, err)
	}
}

func TestReplaceOwnerCitations(t *testing.T) {
	db := setupTestDB(t)
	for i, title := range []string{"Old one", "Old two"} {
		if _, err := db.SaveCitation(testCitation("old"+title[4:], i+1, title)); err != nil {
			t.Fatal(err)
		}
	}
	other := testCitation("x1", 1, "Other owner")
	other.AssocID = "a2"
	if _, err := db.SaveCitation(other); err != nil {
		t.Fatal(err)
	}

	fresh := citation.Citation{AssocKind: "article", AssocID: "a1", Seq: 1, RawText: "New ref.", State: citation.Unparsed}
	ids, err := db.ReplaceOwnerCitations("article", "a1", []citation.Citation{fresh})
	if err != nil {
		t.Fatalf("ReplaceOwnerCitations() error = %v", err)
	}
	if len(ids) != 1 || ids[0] == "" {
		t.Fatalf("ids = %v, want one generated id", ids)
	}

	got, err := db.LoadCitationsForOwner("article", "a1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != ids[0] || got[0].RawText != "New ref." {
		t.Errorf("owner citations = %+v", got)
	}
	if results, _ := db.Search("Old", 10); len(results) != 0 {
		t.Errorf("replaced citations still searchable: %v", results)
	}
	if kept, _ := db.LoadCitationsForOwner("article", "a2"); len(kept) != 1 {
		t.Errorf("other owner has %d citations, want 1", len(kept))
	}
}

func TestImportThroughDB(t *testing.T) {
	db := setupTestDB(t)
	p := citation.NewProcessor(citation.WithRepository(db))

	if _, err := p.Import("article", "a1", "1. First ref.\n2. Second ref."); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	got, err := p.Import("article", "a1", "[1] Only ref.")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	stored, err := db.LoadCitationsForOwner("article", "a1")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 || stored[0].ID != got[0].ID || stored[0].RawText != "Only ref." {
		t.Errorf("stored = %+v, want only the second import", stored)
	}
}
