// Package main provides the cite CLI entry point.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/citeflow/internal/citation"
	"github.com/matsen/citeflow/internal/config"
	"github.com/matsen/citeflow/internal/lookup"
	"github.com/matsen/citeflow/internal/parser"
	"github.com/matsen/citeflow/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
	configPath  string
	dbPath      string
	ownerKind   string

	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cite",
	Short: "Turn raw citation lists into structured metadata",
	Long: `cite parses raw bibliographic citations and cross-references them
against CrossRef, PubMed, WorldCat, ISBNdb and Semantic Scholar.

Each citation moves through the states unparsed, parsed and looked-up.
Candidates from every parser and lookup service are kept so conflicts with
manual edits can be reviewed.

All commands output JSON by default. Use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
}

func init() {
	// Load .env file if present (for CITE_* keys)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline and HTTP activity to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/cite/config.yml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (overrides db_path)")
	rootCmd.Version = Version
}

// addOwnerKindFlag registers --kind on commands that take an owner.
func addOwnerKindFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ownerKind, "kind", "document", "Kind of object that owns the citations")
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if dbPath != "" {
		cfg.DBPath = config.ExpandPath(dbPath)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(cfg *config.Config) *storage.DB {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		exitWithError(ExitConfigError, "creating database directory: %v", err)
	}
	db, err := storage.OpenDB(cfg.DBPath)
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustGetCitation loads a citation by id, exits if it does not exist.
func mustGetCitation(db *storage.DB, id string) citation.Citation {
	c, err := db.GetCitation(id)
	if err != nil {
		exitWithError(ExitError, "loading citation: %v", err)
	}
	if c == nil {
		exitWithError(ExitNotFound, "citation not found: %s", id)
	}
	return *c
}

// mustSave persists a citation, exits on error.
func mustSave(db *storage.DB, c citation.Citation) {
	if _, err := db.SaveCitation(c); err != nil {
		exitWithError(ExitError, "saving citation %s: %v", c.ID, err)
	}
}

// newProcessor wires the parsers, the configured lookup services and the
// database into a processor.
func newProcessor(cfg *config.Config, db *storage.DB) *citation.Processor {
	opts := []citation.Option{
		citation.WithParsers(parser.DefaultParsers()...),
		citation.WithLookups(lookup.DefaultServices(cfg, logger)...),
		citation.WithLogger(logger),
		citation.WithTimeout(cfg.LookupTimeout),
		citation.WithConcurrency(cfg.MaxConcurrency),
	}
	if db != nil {
		opts = append(opts, citation.WithRepository(db))
	}
	return citation.NewProcessor(opts...)
}
