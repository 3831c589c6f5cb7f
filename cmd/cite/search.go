package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/citeflow/internal/citation"
)

var searchLimit int

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of results")
	rootCmd.AddCommand(searchCmd, rebuildCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over citation text, titles and authors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		db := mustOpenDatabase(cfg)
		defer db.Close()

		results, err := db.Search(args[0], searchLimit)
		if err != nil {
			exitWithError(ExitError, "searching: %v", err)
		}
		if humanOutput {
			if len(results) == 0 {
				fmt.Println("No matches.")
			}
			for _, c := range results {
				printCitationLine(c)
			}
			return nil
		}
		if results == nil {
			results = []citation.Citation{}
		}
		return outputJSON(results)
	},
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild <file.jsonl>",
	Short: "Replace the database contents with citations from a JSONL export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		db := mustOpenDatabase(cfg)
		defer db.Close()

		n, err := db.RebuildFromJSONL(args[0])
		if err != nil {
			exitWithError(ExitDataError, "rebuilding from %s: %v", args[0], err)
		}
		if humanOutput {
			successColor.Printf("Rebuilt database with %d citations\n", n)
			return nil
		}
		return outputJSON(StatusResponse{Status: "rebuilt", Count: n, Path: args[0]})
	},
}
