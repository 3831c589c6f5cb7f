// Package storage handles citation persistence in JSONL and SQLite formats.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/citeflow/internal/citation"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines.
// Citations carry their candidate descriptions, so lines can be long.
const MaxJSONLLineCapacity = 4 * 1024 * 1024

// ReadAll reads all citations from a JSONL file.
func ReadAll(path string) ([]citation.Citation, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Missing file reads as empty
		}
		return nil, fmt.Errorf("opening citations file: %w", err)
	}
	defer f.Close()

	var citations []citation.Citation
	scanner := bufio.NewScanner(f)

	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var c citation.Citation
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		citations = append(citations, c)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading citations file: %w", err)
	}

	return citations, nil
}

// Append adds a citation to the end of a JSONL file.
func Append(path string, c citation.Citation) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening citations file for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding citation: %w", err)
	}
	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing citation: %w", err)
	}
	return nil
}

// AppendNew appends the citations whose IDs are not already in the JSONL
// file at path. It returns how many were added and skipped.
func AppendNew(path string, citations []citation.Citation) (added, skipped int, err error) {
	existing, err := ReadAll(path)
	if err != nil {
		return 0, 0, err
	}
	for _, c := range citations {
		if _, found := FindByID(existing, c.ID); found {
			skipped++
			continue
		}
		if err := Append(path, c); err != nil {
			return added, skipped, err
		}
		existing = append(existing, c)
		added++
	}
	return added, skipped, nil
}

// WriteAll writes all citations to a JSONL file, replacing existing content.
func WriteAll(path string, citations []citation.Citation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating citations file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, c := range citations {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encoding citation %d: %w", i, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("writing citation %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing citations file: %w", err)
	}
	return nil
}

// FindByID searches for a citation by ID.
func FindByID(citations []citation.Citation, id string) (int, bool) {
	for i, c := range citations {
		if c.ID == id {
			return i, true
		}
	}
	return -1, false
}
