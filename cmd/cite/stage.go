package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/citeflow/internal/citation"
	"github.com/matsen/citeflow/internal/filter"
)

func init() {
	addOwnerKindFlag(processCmd)
	rootCmd.AddCommand(parseCmd, lookupCmd, processCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <id>",
	Short: "Parse an unparsed citation into a description",
	Long: `Run every parser on the citation text. The first parser in registration
order that produces a description wins; the others are kept as candidates.

Exits with code 5 when no parser produced usable output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd.Context(), args[0], func(p *citation.Processor, ctx context.Context, c citation.Citation) (citation.Citation, error) {
			return p.Parse(ctx, c)
		})
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <id>",
	Short: "Look up a parsed citation in the configured services",
	Long: `Query every configured lookup service that supports the citation's
description. The first service in registration order that finds a match wins;
all matches are kept as candidates. Lookup always re-runs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd.Context(), args[0], func(p *citation.Processor, ctx context.Context, c citation.Citation) (citation.Citation, error) {
			return p.Lookup(ctx, c)
		})
	},
}

var processCmd = &cobra.Command{
	Use:   "process <owner>",
	Short: "Parse and look up every citation of an owner",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

type stageFunc func(p *citation.Processor, ctx context.Context, c citation.Citation) (citation.Citation, error)

// StageResult is the response of the parse and lookup commands.
type StageResult struct {
	Citation citation.Citation `json:"citation"`
	Error    string            `json:"error,omitempty"`
}

func runStage(ctx context.Context, id string, run stageFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	c := mustGetCitation(db, id)
	next, err := run(newProcessor(cfg, db), ctx, c)
	if errors.Is(err, citation.ErrAlreadyParsed) {
		exitWithError(ExitDataError, "citation %s is already %s", id, c.State)
	}
	mustSave(db, next)

	if humanOutput {
		printCitationHuman(next)
	} else {
		res := StageResult{Citation: next}
		if err != nil {
			res.Error = err.Error()
		}
		outputJSON(res)
	}

	switch {
	case err == nil:
		return nil
	case filter.IsNoCandidate(err):
		db.Close()
		os.Exit(ExitNoCandidate)
	default:
		db.Close()
		os.Exit(ExitError)
	}
	return nil
}

// ProcessResult is the response of the process command.
type ProcessResult struct {
	Owner     string        `json:"owner"`
	Processed int           `json:"processed"`
	LookedUp  int           `json:"looked_up"`
	Failed    int           `json:"failed"`
	Citations []StageResult `json:"citations"`
}

// summarizeProcess counts a citation as looked up only when its last stage
// succeeded.
func summarizeProcess(owner string, results []citation.Result) ProcessResult {
	res := ProcessResult{Owner: owner, Processed: len(results), Citations: []StageResult{}}
	for _, r := range results {
		sr := StageResult{Citation: r.Citation}
		if r.Err != nil {
			sr.Error = r.Err.Error()
		}
		if r.Failed() {
			res.Failed++
		} else {
			res.LookedUp++
		}
		res.Citations = append(res.Citations, sr)
	}
	return res
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := newProcessor(cfg, db).ProcessOwner(ctx, ownerKind, args[0])
	if err != nil {
		exitWithError(ExitError, "processing citations: %v", err)
	}
	res := summarizeProcess(args[0], results)

	if humanOutput {
		for _, r := range res.Citations {
			printCitationLine(r.Citation)
			if r.Error != "" {
				warnColor.Printf("     %s\n", r.Error)
			}
		}
		successColor.Printf("%d of %d citations looked up", res.LookedUp, res.Processed)
		if res.Failed > 0 {
			warnColor.Printf(", %d need attention", res.Failed)
		}
		fmt.Println()
		return nil
	}
	return outputJSON(res)
}
