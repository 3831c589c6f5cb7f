package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/citeflow/internal/citation"
	"github.com/matsen/citeflow/internal/clipboard"
	"github.com/matsen/citeflow/internal/export"
	"github.com/matsen/citeflow/internal/storage"
)

var (
	exportBibTeX bool
	exportJSONL  bool
	exportOutput string
	exportAppend bool
	exportCopy   bool
)

func init() {
	exportCmd.Flags().BoolVar(&exportBibTeX, "bibtex", false, "Export as BibTeX (default)")
	exportCmd.Flags().BoolVar(&exportJSONL, "jsonl", false, "Export as JSONL")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
	exportCmd.Flags().BoolVar(&exportAppend, "append", false, "Append to an existing output file, skipping duplicates")
	exportCmd.Flags().BoolVar(&exportCopy, "copy", false, "Copy BibTeX to the clipboard instead of printing it")
	addOwnerKindFlag(exportCmd)
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [owner]",
	Short: "Export citations as BibTeX or JSONL",
	Long: `Export the citations of an owner, or all citations when no owner is given.

With --append, BibTeX entries whose DOI or key already appear in the output
file are skipped; with --jsonl --append, citations whose ID is already in the
file are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportBibTeX && exportJSONL {
		exitWithError(ExitConfigError, "--bibtex and --jsonl are mutually exclusive")
	}
	if exportAppend && exportOutput == "" {
		exitWithError(ExitConfigError, "--append requires an --output file")
	}
	if exportCopy {
		requireClipboard()
	}

	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	var citations []citation.Citation
	var err error
	if len(args) == 1 {
		citations, err = db.LoadCitationsForOwner(ownerKind, args[0])
	} else {
		citations, err = db.ListAll(0)
	}
	if err != nil {
		exitWithError(ExitError, "loading citations: %v", err)
	}

	switch {
	case exportAppend:
		appendFn := export.AppendCitations
		if exportJSONL {
			appendFn = storage.AppendNew
		}
		added, skipped, err := appendFn(exportOutput, citations)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			successColor.Printf("Appended %d entries to %s (%d already present)\n", added, exportOutput, skipped)
			return nil
		}
		return outputJSON(AppendResult{Path: exportOutput, Added: added, Skipped: skipped})

	case exportJSONL:
		if exportOutput == "" {
			for _, c := range citations {
				if err := outputCompactJSON(c); err != nil {
					return err
				}
			}
			return nil
		}
		if err := storage.WriteAll(exportOutput, citations); err != nil {
			exitWithError(ExitError, "writing %s: %v", exportOutput, err)
		}

	default:
		content := export.ToBibTeXList(citations)
		if exportCopy {
			if err := clipboard.Copy(content); err != nil {
				exitWithError(ExitError, "copying to clipboard: %v", err)
			}
			if humanOutput {
				successColor.Printf("Copied %d entries to the clipboard\n", len(citations))
				return nil
			}
			return outputJSON(StatusResponse{Status: "copied", Count: len(citations)})
		}
		if exportOutput == "" {
			fmt.Print(content)
			return nil
		}
		if err := os.WriteFile(exportOutput, []byte(content), 0644); err != nil {
			exitWithError(ExitError, "writing %s: %v", exportOutput, err)
		}
	}

	if humanOutput {
		successColor.Printf("Exported %d citations to %s\n", len(citations), exportOutput)
		return nil
	}
	return outputJSON(StatusResponse{Status: "exported", Count: len(citations), Path: exportOutput})
}

// requireClipboard exits with a config error when no clipboard command is
// installed.
func requireClipboard() {
	if !clipboard.IsAvailable() {
		exitWithError(ExitConfigError, "no clipboard command found; %s", clipboard.Hint())
	}
}

// AppendResult is the response for export --append.
type AppendResult struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
}
