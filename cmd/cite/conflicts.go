package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/citeflow/internal/conflict"
)

func init() {
	rootCmd.AddCommand(conflictsCmd, acceptCmd)
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <id>",
	Short: "Compare each lookup candidate with the working description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		db := mustOpenDatabase(cfg)
		defer db.Close()

		c := mustGetCitation(db, args[0])
		plans := newProcessor(cfg, nil).Conflicts(c)
		if humanOutput {
			printConflictsHuman(plans)
			return nil
		}
		if plans == nil {
			plans = []conflict.ResolutionPlan{}
		}
		return outputJSON(plans)
	},
}

var acceptCmd = &cobra.Command{
	Use:   "accept <id> <filter-id>",
	Short: "Fill missing fields from one lookup candidate",
	Long: `Copy the properties the working description lacks from the candidate
produced by the given filter. Properties that already have values are kept
and reported as conflicts.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		db := mustOpenDatabase(cfg)
		defer db.Close()

		c := mustGetCitation(db, args[0])
		next, conflicts, err := newProcessor(cfg, nil).AcceptMissing(c, args[1])
		if err != nil {
			exitWithError(ExitNotFound, "%v", err)
		}
		mustSave(db, next)

		if humanOutput {
			successColor.Printf("Accepted missing fields from %s\n", args[1])
			for _, fc := range conflicts {
				warnColor.Printf("  kept %s: %q (candidate %q)\n", fc.Property,
					truncateString(fc.Working, DetailTextMaxLen), truncateString(fc.Candidate, DetailTextMaxLen))
			}
			return nil
		}
		if conflicts == nil {
			conflicts = []conflict.FieldConflict{}
		}
		return outputJSON(AcceptResult{Citation: next, Conflicts: conflicts})
	},
}
