package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/citeflow/internal/citation"
)

var listLimit int

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum citations to list when no owner is given (0 = all)")
	addOwnerKindFlag(listCmd)
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [owner]",
	Short: "List citations of an owner, or all citations",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	var citations []citation.Citation
	var err error
	if len(args) == 1 {
		citations, err = db.LoadCitationsForOwner(ownerKind, args[0])
	} else {
		citations, err = db.ListAll(listLimit)
	}
	if err != nil {
		exitWithError(ExitError, "listing citations: %v", err)
	}

	if humanOutput {
		if len(citations) == 0 {
			fmt.Println("No citations.")
		}
		for _, c := range citations {
			printCitationLine(c)
		}
		return nil
	}
	if citations == nil {
		citations = []citation.Citation{}
	}
	return outputJSON(citations)
}
