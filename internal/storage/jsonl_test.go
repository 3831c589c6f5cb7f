package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/citeflow/internal/citation"
	"github.com/matsen/citeflow/internal/metadata"
)

func TestReadAll_NonExistentFile(t *testing.T) {
	citations, err := ReadAll("/nonexistent/path/citations.jsonl")
	if err != nil {
		t.Fatalf("ReadAll() error = %v (should return nil for nonexistent file)", err)
	}
	if len(citations) != 0 {
		t.Errorf("ReadAll() returned %v, want empty", citations)
	}
}

func TestReadAll_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citations.jsonl")
	content := `{"id":"c1","assoc_kind":"article","assoc_id":"a1","seq":1,"raw_text":"Raw","state":"unparsed"}` + "\n\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	citations, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(citations) != 1 || citations[0].RawText != "Raw" || citations[0].State != citation.Unparsed {
		t.Errorf("ReadAll() = %+v", citations)
	}
}

func TestReadAll_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citations.jsonl")
	content := `{"id":"c1","raw_text":"ok","state":"parsed"}` + "\n" + `{"id":"c2","state":"finished"}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadAll(path); err == nil {
		t.Error("ReadAll() should reject an unknown state")
	}
}

func TestWriteAllAppendReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citations.jsonl")
	first := testCitation("c1", 1, "One")
	if err := WriteAll(path, []citation.Citation{first}); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := Append(path, testCitation("c2", 2, "Two")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d citations, want 2", len(got))
	}
	if got[1].Description.String(metadata.PropArticleTitle) != "Two" {
		t.Errorf("second title = %q", got[1].Description.String(metadata.PropArticleTitle))
	}
	if !got[0].Description.Equal(first.Description) {
		t.Error("description changed across the JSONL round trip")
	}
	if i, ok := FindByID(got, "c2"); !ok || i != 1 {
		t.Errorf("FindByID(c2) = %d, %v", i, ok)
	}
}

func TestAppendNew_SkipsExistingIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citations.jsonl")
	if err := WriteAll(path, []citation.Citation{testCitation("c1", 1, "One")}); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	batch := []citation.Citation{
		testCitation("c1", 1, "One again"),
		testCitation("c2", 2, "Two"),
		testCitation("c2", 2, "Two repeated"),
	}
	added, skipped, err := AppendNew(path, batch)
	if err != nil {
		t.Fatalf("AppendNew() error = %v", err)
	}
	if added != 1 || skipped != 2 {
		t.Errorf("added, skipped = %d, %d, want 1, 2", added, skipped)
	}

	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d citations, want 2", len(got))
	}
	if got[0].Description.String(metadata.PropArticleTitle) != "One" {
		t.Errorf("existing citation was rewritten: %q", got[0].Description.String(metadata.PropArticleTitle))
	}
}

func TestAppendNew_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.jsonl")
	added, skipped, err := AppendNew(path, []citation.Citation{testCitation("c1", 1, "One")})
	if err != nil || added != 1 || skipped != 0 {
		t.Errorf("AppendNew() = %d, %d, %v; want 1, 0, nil", added, skipped, err)
	}
}
