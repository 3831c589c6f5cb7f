package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/citeflow/internal/citation"
	"github.com/matsen/citeflow/internal/clipboard"
	"github.com/matsen/citeflow/internal/pdf"
)

var (
	importPDF     bool
	importProcess bool
	importPaste   bool
)

func init() {
	importCmd.Flags().BoolVar(&importPDF, "pdf", false, "Read the reference list from a PDF")
	importCmd.Flags().BoolVar(&importPaste, "clipboard", false, "Read the citation list from the clipboard")
	importCmd.Flags().BoolVar(&importProcess, "process", false, "Parse and look up the citations after import")
	addOwnerKindFlag(importCmd)
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <owner> [file]",
	Short: "Replace an owner's citations with a raw citation list",
	Long: `Replace an owner's citations with a raw citation list.

The list holds one citation per line; numbering such as [1], 1. or 1) is
stripped and indented lines continue the previous citation. Existing
citations of the owner are deleted first.

Usage:
  cite import paper-42 refs.txt
  cite import paper-42 - < refs.txt
  cite import paper-42 --clipboard
  cite import paper-42 article.pdf --pdf --process`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runImport,
}

// ImportResult is the response of the import command.
type ImportResult struct {
	Owner     string              `json:"owner"`
	Kind      string              `json:"kind"`
	Imported  int                 `json:"imported"`
	Citations []citation.Citation `json:"citations"`
}

func runImport(cmd *cobra.Command, args []string) error {
	owner := args[0]
	var raw string
	switch {
	case importPaste:
		requireClipboard()
		text, err := clipboard.Paste()
		if err != nil {
			exitWithError(ExitError, "reading clipboard: %v", err)
		}
		raw = text
	case len(args) == 2:
		raw = readCitationList(args[1])
	default:
		exitWithError(ExitConfigError, "a file, \"-\" or --clipboard is required")
	}

	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()
	proc := newProcessor(cfg, db)

	citations, err := proc.Import(ownerKind, owner, raw)
	if err != nil {
		exitWithError(ExitError, "importing citations: %v", err)
	}

	if importProcess {
		for i, c := range citations {
			citations[i], _ = proc.Process(cmd.Context(), c)
		}
	}

	if humanOutput {
		successColor.Printf("Imported %d citations for %s %s\n", len(citations), ownerKind, owner)
		for _, c := range citations {
			printCitationLine(c)
		}
		return nil
	}
	return outputJSON(ImportResult{Owner: owner, Kind: ownerKind, Imported: len(citations), Citations: citations})
}

// readCitationList returns the raw citation text of a file, stdin ("-") or
// the reference section of a PDF.
func readCitationList(path string) string {
	if importPDF {
		text, err := pdf.ExtractReferenceList(path)
		if err != nil {
			exitWithError(ExitDataError, "reading PDF: %v", err)
		}
		if text == "" {
			exitWithError(ExitDataError, "no reference section found in %s", path)
		}
		return text
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		exitWithError(ExitError, "reading %s: %v", path, err)
	}
	if len(data) == 0 {
		exitWithError(ExitDataError, "no citations in %s", path)
	}
	return string(data)
}
