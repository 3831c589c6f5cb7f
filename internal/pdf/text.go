// Package pdf extracts text, reference lists and DOIs from PDF documents.
package pdf

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText extracts all text from the first N pages of a PDF.
// maxPages <= 0 reads every page.
func ExtractText(filePath string, maxPages int) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// ExtractReferenceList reads a PDF and returns its reference section, ready
// for citation tokenizing. It returns "" when no section heading is found.
func ExtractReferenceList(filePath string) (string, error) {
	text, err := ExtractText(filePath, 0)
	if err != nil {
		return "", err
	}
	return ExtractReferences(text), nil
}
