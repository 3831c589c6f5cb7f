package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/matsen/citeflow/internal/citation"
	"github.com/matsen/citeflow/internal/conflict"
	"github.com/matsen/citeflow/internal/metadata"
)

// Constants for output formatting.
const (
	ListTextMaxLen   = 70 // Citation text in list output
	DetailTextMaxLen = 60 // Candidate values in conflict output
	TextWrapWidth    = 68 // Wrap width for detail views
)

var (
	idColor      = color.New(color.FgCyan)
	labelColor   = color.New(color.Bold)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputCompactJSON writes a value as one line of JSON to stdout.
func outputCompactJSON(v any) error {
	return json.NewEncoder(os.Stdout).Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		errorColor.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Count  int    `json:"count,omitempty"`
	Path   string `json:"path,omitempty"`
}

// AcceptResult is the response for accept.
type AcceptResult struct {
	Citation  citation.Citation        `json:"citation"`
	Conflicts []conflict.FieldConflict `json:"conflicts"`
}

// stateColor picks the color of a citation state label.
func stateColor(s citation.State) *color.Color {
	switch s {
	case citation.LookedUp:
		return successColor
	case citation.Parsed:
		return warnColor
	}
	return errorColor
}

// printCitationLine prints a one-line summary of a citation.
func printCitationLine(c citation.Citation) {
	text := c.Text()
	if c.Description != nil {
		if title := c.Description.String(metadata.PropArticleTitle); title != "" {
			text = title
		}
	}
	fmt.Printf("%3d. %s [%s] %s\n", c.Seq, idColor.Sprint(c.ID),
		stateColor(c.State).Sprint(c.State), truncateString(text, ListTextMaxLen))
}

// printCitationHuman prints a citation with its working description, source
// candidates and errors.
func printCitationHuman(c citation.Citation) {
	fmt.Printf("%s %s\n", labelColor.Sprint("ID:"), idColor.Sprint(c.ID))
	fmt.Printf("%s %s %s #%d\n", labelColor.Sprint("Owner:"), c.AssocKind, c.AssocID, c.Seq)
	fmt.Printf("%s %s\n", labelColor.Sprint("State:"), stateColor(c.State).Sprint(c.State))
	fmt.Printf("%s %s\n", labelColor.Sprint("Text:"), wrapText(c.RawText, TextWrapWidth, "      "))
	if c.EditedText != "" {
		fmt.Printf("%s %s\n", labelColor.Sprint("Edited:"), wrapText(c.EditedText, TextWrapWidth, "        "))
	}
	if c.Description != nil {
		fmt.Println(labelColor.Sprint("Description:"))
		printDescription(c.Description, "  ")
	}
	for _, src := range c.SourceDescriptions {
		fmt.Printf("%s %s\n", labelColor.Sprint("Candidate from"), idColor.Sprint(src.AssocID))
		printDescription(src, "  ")
	}
	for _, e := range c.Errors {
		errorColor.Printf("! %s\n", e)
	}
}

func printDescription(d *metadata.Description, indent string) {
	for _, prop := range d.Schema().PropertyNames() {
		if !d.HasStatement(prop) {
			continue
		}
		fmt.Printf("%s%-22s %s\n", indent, prop+":", conflict.DisplayValue(d, prop))
	}
}

// printConflictsHuman prints the resolution plan of each candidate.
func printConflictsHuman(plans []conflict.ResolutionPlan) {
	if len(plans) == 0 {
		fmt.Println("No candidates to compare.")
		return
	}
	for _, p := range plans {
		c := successColor
		if p.Action == conflict.ActionConflict {
			c = errorColor
		}
		fmt.Printf("%s %s (score %d vs %d, title match %.2f)\n", idColor.Sprint(p.Source),
			c.Sprint(p.Action), p.CandidateScore, p.WorkingScore, p.TitleMatch)
		fmt.Printf("  %s\n", p.Reason)
		for _, fc := range p.Conflicts {
			fmt.Printf("  %s: %q -> %q\n", fc.Property,
				truncateString(fc.Working, DetailTextMaxLen), truncateString(fc.Candidate, DetailTextMaxLen))
		}
	}
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	return conflict.Truncate(s, maxLen)
}

// wrapText wraps text to the specified width with indentation on subsequent lines.
func wrapText(text string, width int, indent string) string {
	if len(text) <= width {
		return text
	}

	var lines []string
	words := strings.Fields(text)
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
		} else if currentLine.Len()+1+len(word) <= width {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
		}
	}
	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return strings.Join(lines, "\n"+indent)
}
