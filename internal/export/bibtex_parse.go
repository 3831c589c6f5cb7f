package export

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/matsen/citeflow/internal/citation"
	"github.com/matsen/citeflow/internal/metadata"
	"github.com/matsen/citeflow/internal/parser"
)

// BibTeXIndex indexes existing BibTeX entries for deduplication.
type BibTeXIndex struct {
	// Keys maps citation keys to true for existence check
	Keys map[string]bool
	// DOIs maps DOI values to citation keys
	DOIs map[string]string
}

// NewBibTeXIndex creates an empty BibTeX index.
func NewBibTeXIndex() *BibTeXIndex {
	return &BibTeXIndex{
		Keys: make(map[string]bool),
		DOIs: make(map[string]string),
	}
}

// HasEntry returns true if the entry already exists (by DOI or key).
// DOI is the primary match; citation key is the fallback if no DOI.
func (idx *BibTeXIndex) HasEntry(key, doi string) bool {
	if doi != "" {
		if _, exists := idx.DOIs[parser.NormalizeDOI(doi)]; exists {
			return true
		}
	}
	return idx.Keys[key]
}

// Add records an entry in the index.
func (idx *BibTeXIndex) Add(key, doi string) {
	idx.Keys[key] = true
	if doi = parser.NormalizeDOI(doi); doi != "" {
		idx.DOIs[doi] = key
	}
}

// Entries start at an @ that begins a line.
var entryBoundary = regexp.MustCompile(`(?m)^\s*@`)

// ParseBibTeXFile builds an index from an existing .bib file.
// Returns an empty index if the file doesn't exist or is empty. Entries that
// fail to parse are skipped.
func ParseBibTeXFile(path string) (*BibTeXIndex, error) {
	idx := NewBibTeXIndex()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}

	text := string(data)
	starts := entryBoundary.FindAllStringIndex(text, -1)
	for i, loc := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		entry, err := parser.ParseBibTeXEntry(text[loc[0]:end])
		if err != nil || entry.Key == "" {
			continue
		}
		idx.Add(entry.Key, entry.Fields["doi"])
	}
	return idx, nil
}

// AppendToBibFile appends BibTeX content to a file.
func AppendToBibFile(path, content string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	// Ensure we start on a new line
	_, err = file.WriteString("\n" + content)
	return err
}

// AppendCitations appends the citations not yet present in the .bib file at
// path, matching by DOI first and then by key. It returns how many entries
// were added and skipped.
func AppendCitations(path string, citations []citation.Citation) (added, skipped int, err error) {
	idx, err := ParseBibTeXFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("reading %s: %w", path, err)
	}

	var entries []string
	for _, c := range citations {
		key, doi := CitationKey(c), ""
		if c.Description != nil {
			doi = c.Description.String(metadata.PropDOI)
		}
		if idx.HasEntry(key, doi) {
			skipped++
			continue
		}
		idx.Add(key, doi)
		entries = append(entries, ToBibTeX(c))
	}
	if len(entries) == 0 {
		return 0, skipped, nil
	}
	if err := AppendToBibFile(path, strings.Join(entries, "\n")); err != nil {
		return 0, skipped, fmt.Errorf("writing %s: %w", path, err)
	}
	return len(entries), skipped, nil
}
