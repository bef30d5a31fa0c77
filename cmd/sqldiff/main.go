package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tordrt/sqldiff"
	"github.com/tordrt/sqldiff/internal/config"
	"golang.org/x/term"
)

// exitCode is returned by main after a successful run.
var exitCode int

var rootCmd = &cobra.Command{
	Use:   "sqldiff [flags] <source.xml> <target.xml>",
	Short: "Compare two MySQL schema dumps and print the SQL that reconciles them",
	Long: `sqldiff reads two "mysqldump --xml --no-data" dumps and prints the statements that add
the structure of the source to the target. With --mirror it also prints the DROP
statements that make the target an exact copy of the source.`,
	Version: sqldiff.Version,
	Args:    cobra.ExactArgs(2),
	RunE:    run,
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Snapshot foreign key metadata of a live server into a SQLite catalog",
	Long: `catalog copies the foreign key constraints of one schema into a SQLite file.
Pass the file to --fk-catalog to resolve foreign keys without a server.`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

func init() {
	rootCmd.Flags().AddFlagSet(newFlagSet())

	catalogCmd.Flags().String("fk-dsn", "", "MySQL DSN to read constraints from, e.g. user:pass@tcp(localhost:3306)/shop")
	catalogCmd.Flags().String("fk-schema", "", "Schema to snapshot (default: database of the DSN)")
	catalogCmd.Flags().String("out", "", "SQLite catalog file to write")
	catalogCmd.Flags().Bool("verbose", false, "Log progress to stderr")
	_ = catalogCmd.MarkFlagRequired("fk-dsn")
	_ = catalogCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(catalogCmd)
}

// newFlagSet defines the flags of the compare command.
func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("sqldiff", pflag.ContinueOnError)
	fs.String("config", "", "Config file (YAML or JSON)")
	fs.String("database-type", "mysql", "Dump dialect")
	fs.Bool("mirror", false, "Also print statements that drop what the source lacks")
	fs.Bool("only-sql", false, "Print only the statements")
	fs.String("colors", config.ColorsAuto, "Colorize output: auto, always or never")
	fs.Lookup("colors").NoOptDefVal = config.ColorsAlways
	fs.StringP("include", "i", "", "Only compare these tables (comma-separated)")
	fs.StringP("exclude", "x", "", "Never compare these tables (comma-separated)")
	fs.StringP("format", "f", "text", "Output format: text or markdown")
	fs.StringP("output", "o", "", "Output file (default: stdout)")
	fs.StringP("output-dir", "d", "", "Output directory for one file per table")
	fs.String("on-error", "abort", "What to do when a statement cannot be generated: abort or skip")
	fs.String("fk-dsn", "", "MySQL DSN used to resolve foreign keys")
	fs.String("fk-schema", "", "Schema holding the foreign keys (default: database of the DSN)")
	fs.String("fk-catalog", "", "SQLite catalog written by 'sqldiff catalog'")
	fs.Bool("no-fk-cache", false, "Query the foreign key source for every key")
	fs.BoolP("verbose", "v", false, "Log progress to stderr")
	fs.Bool("detailed-exitcode", false, "Exit with status 2 when there are statements to run")
	return fs
}

// loadConfig merges the config file, the environment and explicitly set
// flags, in that order.
func loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if path, _ := fs.GetString("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	config.LoadFromEnv(cfg)
	applyFlags(fs, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(fs *pflag.FlagSet, cfg *config.Config) {
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	boolean := func(name string, dst *bool) {
		if fs.Changed(name) {
			*dst, _ = fs.GetBool(name)
		}
	}
	list := func(name string, dst *[]string) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*dst = config.SplitList(v)
		}
	}

	str("database-type", &cfg.DatabaseType)
	boolean("mirror", &cfg.Mirror)
	boolean("only-sql", &cfg.OnlySQL)
	str("colors", &cfg.Colors)
	list("include", &cfg.Include)
	list("exclude", &cfg.Exclude)
	str("format", &cfg.Format)
	str("output-dir", &cfg.OutputDir)
	str("on-error", &cfg.OnError)
	str("fk-dsn", &cfg.ForeignKeys.DSN)
	str("fk-schema", &cfg.ForeignKeys.Schema)
	str("fk-catalog", &cfg.ForeignKeys.Catalog)
	if noCache, _ := fs.GetBool("no-fk-cache"); noCache {
		cfg.ForeignKeys.Cache = false
	}
}

// resolveColors decides whether to colorize. Auto colorizes only a terminal.
func resolveColors(mode string, terminal bool) bool {
	switch mode {
	case config.ColorsAlways:
		return true
	case config.ColorsNever:
		return false
	default:
		return terminal
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fs := cmd.Flags()

	cfg, err := loadConfig(fs)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	verbose, _ := fs.GetBool("verbose")
	logger := newLogger(os.Stderr, verbose)

	outputFile, _ := fs.GetString("output")
	if cfg.OutputDir != "" && outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}

	lookup, closeLookup, err := sqldiff.OpenForeignKeyLookup(ctx, sqldiff.ForeignKeyOptions{
		DSN:     cfg.ForeignKeys.DSN,
		Catalog: cfg.ForeignKeys.Catalog,
		Schema:  cfg.ForeignKeys.Schema,
		Cache:   cfg.ForeignKeys.Cache,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := closeLookup(); err != nil {
			logger.Warn("failed to close foreign key source", "error", err)
		}
	}()

	result, err := sqldiff.Compare(ctx, args[0], args[1], &sqldiff.Options{
		DatabaseType: cfg.DatabaseType,
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
		Mirror:       cfg.Mirror,
		OnError:      cfg.OnError,
		ForeignKeys:  lookup,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	// Single-file output
	writer := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Warn("failed to close output file", "error", err)
			}
		}()
		writer = f
	}

	terminal := writer == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
	err = sqldiff.FormatResult(result, &sqldiff.OutputOptions{
		Writer:    writer,
		OutputDir: cfg.OutputDir,
		Format:    cfg.Format,
		OnlySQL:   cfg.OnlySQL,
		Colors:    resolveColors(cfg.Colors, terminal),
	})
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if detailed, _ := fs.GetBool("detailed-exitcode"); detailed && result.HasChanges() {
		exitCode = 2
	}
	return nil
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	fs := cmd.Flags()
	dsn, _ := fs.GetString("fk-dsn")
	schemaName, _ := fs.GetString("fk-schema")
	out, _ := fs.GetString("out")
	verbose, _ := fs.GetBool("verbose")
	logger := newLogger(os.Stderr, verbose)

	n, err := sqldiff.SnapshotCatalog(cmd.Context(), dsn, schemaName, out)
	if err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	logger.Info("catalog written", "path", out, "foreign_keys", n)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}
