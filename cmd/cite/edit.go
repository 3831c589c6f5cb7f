package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/citeflow/internal/citation"
	"github.com/matsen/citeflow/internal/metadata"
)

var (
	editText    string
	editSet     []string
	editReplace bool
	editClear   bool
)

func init() {
	editCmd.Flags().StringVar(&editText, "text", "", "Replace the edited citation text")
	editCmd.Flags().StringArrayVar(&editSet, "set", nil, "Set a property: --set prop=value (repeatable; authors as \"Surname, Given\")")
	editCmd.Flags().BoolVar(&editReplace, "replace", false, "Overwrite properties that already have values")
	editCmd.Flags().BoolVar(&editClear, "clear", false, "Clear the description before applying --set")
	rootCmd.AddCommand(editCmd, deleteCmd)
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Manually edit a citation's text or description",
	Long: `Manually edit a citation. Edits bypass the parse and lookup stages and
never change the citation's state. A batch of --set flags is applied
all-or-nothing.

Usage:
  cite edit 3f2a... --text "Smith J. Corrected title. J Med. 2020;1:1-2."
  cite edit 3f2a... --set volume=12 --set "person-group[author]=Smith, John" --replace`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	c := mustGetCitation(db, args[0])

	var edit citation.Edit
	if cmd.Flags().Changed("text") {
		edit.EditedText = &editText
	}
	stmts, err := parseSetFlags(editSet)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	edit.Statements = stmts
	switch {
	case editClear:
		edit.Mode = metadata.ReplaceAll
	case editReplace:
		edit.Mode = metadata.ReplaceProperty
	default:
		edit.Mode = metadata.ReplaceNothing
	}

	next, err := newProcessor(cfg, nil).Update(c, edit)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	mustSave(db, next)

	if humanOutput {
		printCitationHuman(next)
		return nil
	}
	return outputJSON(next)
}

// parseSetFlags converts prop=value flags into a statement batch typed by
// the citation schema.
func parseSetFlags(flags []string) (map[string]any, error) {
	stmts := make(map[string]any)
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: want prop=value", f)
		}
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		p, ok := metadata.CitationSchema.Property(name)
		if !ok {
			return nil, fmt.Errorf("unknown property %q (valid: %s)", name,
				strings.Join(metadata.CitationSchema.PropertyNames(), ", "))
		}

		var v any = value
		switch p.Kind {
		case metadata.KindInteger:
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("property %s wants an integer, got %q", name, value)
			}
			v = n
		case metadata.KindComposite:
			n := metadata.ParsePersonName(value)
			if n == nil {
				return nil, fmt.Errorf("cannot parse name %q", value)
			}
			v = n
		case metadata.KindDate:
			if v = metadata.NormalizeDate(value); v == "" {
				return nil, fmt.Errorf("cannot parse date %q", value)
			}
		}

		if p.Translatable {
			byLocale, _ := stmts[name].(map[string]any)
			if byLocale == nil {
				byLocale = map[string]any{}
			}
			byLocale[metadata.DefaultLocale] = appendValue(byLocale[metadata.DefaultLocale], v, p.Cardinality)
			stmts[name] = byLocale
			continue
		}
		stmts[name] = appendValue(stmts[name], v, p.Cardinality)
	}
	return stmts, nil
}

// appendValue accumulates repeated --set flags for Many properties. For One
// properties the last flag wins.
func appendValue(existing, v any, card metadata.Cardinality) any {
	if card != metadata.Many {
		return v
	}
	vs, _ := existing.([]any)
	return append(vs, v)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a citation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mustLoadConfig()
		db := mustOpenDatabase(cfg)
		defer db.Close()

		deleted, err := db.DeleteCitation(args[0])
		if err != nil {
			exitWithError(ExitError, "deleting citation: %v", err)
		}
		if !deleted {
			exitWithError(ExitNotFound, "citation not found: %s", args[0])
		}
		if humanOutput {
			successColor.Printf("Deleted %s\n", args[0])
			return nil
		}
		return outputJSON(StatusResponse{Status: "deleted", ID: args[0]})
	},
}
