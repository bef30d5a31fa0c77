// Package sqldiff compares two database schema dumps and produces the SQL
// statements that reconcile them.
//
// The source dump describes the schema you want; the target dump describes the
// schema you have. A forward diff lists the statements that add whatever the
// source has and the target lacks. A mirror diff additionally lists the
// destructive statements that make the target an exact copy of the source.
//
// # Quick Start
//
//	result, err := sqldiff.Compare(
//		context.Background(),
//		"dumps/development.xml",
//		"dumps/production.xml",
//		&sqldiff.Options{Mirror: true},
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = sqldiff.FormatResult(result, &sqldiff.OutputOptions{Writer: os.Stdout})
//
// # Dumps
//
// Dumps are produced with mysqldump:
//
//	mysqldump --xml --no-data shop > shop.xml
//
// # Foreign keys
//
// A dump does not say which keys are foreign keys. Supply a lookup through
// Options.ForeignKeys, usually from OpenForeignKeyLookup, to get foreign keys
// rendered as CONSTRAINT definitions. Without one every key is a plain,
// unique or fulltext index.
package sqldiff

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tordrt/sqldiff/internal/db"
	"github.com/tordrt/sqldiff/internal/diff"
	"github.com/tordrt/sqldiff/internal/formatter"
	"github.com/tordrt/sqldiff/internal/mysql"
	"github.com/tordrt/sqldiff/internal/schema"
)

// Version is printed at the top of text reports.
const Version = "0.3.0"

// Options configures a comparison.
//
// All fields are optional. If not specified:
//   - DatabaseType: "mysql"
//   - Include/Exclude: every table is compared
//   - OnError: "abort"
//   - ForeignKeys: no key is treated as a foreign key
//   - Logger: logging is discarded
type Options struct {
	// DatabaseType selects the dump dialect. Only "mysql" is supported.
	DatabaseType string

	// Include limits the comparison to these tables.
	Include []string

	// Exclude removes these tables from the comparison. A table listed in
	// both Include and Exclude is excluded.
	Exclude []string

	// Mirror appends DROP statements for everything the target has and the
	// source lacks.
	Mirror bool

	// OnError decides what happens when one statement cannot be generated:
	// "abort" fails the comparison, "skip" leaves the statement out and
	// records the error in Result.Skipped.
	OnError string

	// ForeignKeys classifies and resolves foreign keys while parsing.
	ForeignKeys schema.ForeignKeyLookup

	Logger *slog.Logger
}

// Result holds the outcome of a comparison.
type Result struct {
	Source  string
	Target  string
	Mirror  bool
	Changes []schema.Change
	// Skipped holds the errors of statements left out under OnError "skip".
	Skipped []error
}

// HasChanges reports whether at least one statement was produced.
func (r *Result) HasChanges() bool {
	return r != nil && len(r.Changes) > 0
}

// OutputOptions configures result formatting.
//
// If OutputDir is set, one <table>.sql file per table is written there along
// with an overview, and Writer is ignored. Otherwise the report goes to Writer,
// or os.Stdout if Writer is nil.
type OutputOptions struct {
	Writer    io.Writer
	OutputDir string

	// Format is "text" (default) or "markdown".
	Format string

	// OnlySQL drops the version line, preamble and rules from text output.
	OnlySQL bool

	// Colors paints text output by statement kind.
	Colors bool
}

// Compare parses both dumps and diffs them.
//
// Returns an error if:
//   - DatabaseType or OnError is invalid
//   - A dump cannot be read or parsed
//   - A statement cannot be generated and OnError is "abort"
func Compare(ctx context.Context, sourcePath, targetPath string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	policy, err := diff.ParsePolicy(opts.OnError)
	if err != nil {
		return nil, err
	}

	parse, err := dialectParser(opts.DatabaseType, opts.ForeignKeys, logger)
	if err != nil {
		return nil, err
	}

	filter := schema.NewFilter(opts.Include, opts.Exclude)
	source, err := parse(ctx, sourcePath, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to read source dump: %w", err)
	}
	target, err := parse(ctx, targetPath, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to read target dump: %w", err)
	}

	return compareDatabases(source, target, opts.Mirror, policy, logger, sourcePath, targetPath)
}

func compareDatabases(source, target schema.Database, mirror bool, policy diff.Policy, logger *slog.Logger, sourcePath, targetPath string) (*Result, error) {
	engine := diff.NewEngine(diff.WithPolicy(policy), diff.WithLogger(logger))

	combined := &diff.Result{}
	forward, err := engine.Forward(source, target)
	if err != nil {
		return nil, err
	}
	combined.Append(forward)

	if mirror {
		mirrored, err := engine.Mirror(target, source)
		if err != nil {
			return nil, err
		}
		combined.Append(mirrored)
	}

	logger.Info("comparison finished",
		"source", source.Name(), "target", target.Name(),
		"statements", len(combined.Changes), "skipped", len(combined.Skipped))

	return &Result{
		Source:  sourcePath,
		Target:  targetPath,
		Mirror:  mirror,
		Changes: combined.Changes,
		Skipped: combined.Skipped,
	}, nil
}

type parseFunc func(ctx context.Context, path string, filter schema.Filter) (schema.Database, error)

func dialectParser(dbType string, lookup schema.ForeignKeyLookup, logger *slog.Logger) (parseFunc, error) {
	switch dbType {
	case "", "mysql":
		p := mysql.NewParser(mysql.WithForeignKeyLookup(lookup), mysql.WithParserLogger(logger))
		return func(ctx context.Context, path string, filter schema.Filter) (schema.Database, error) {
			d, err := p.ParseFile(ctx, path, filter)
			if err != nil {
				return nil, err
			}
			return d, nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// FormatResult writes a result in the requested format.
func FormatResult(result *Result, opts *OutputOptions) error {
	if opts == nil {
		opts = &OutputOptions{}
	}
	format := opts.Format
	if format == "" {
		format = "text"
	}
	if !formatter.ValidFormat(format) {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", format)
	}

	report := &formatter.Report{
		Version: "sqldiff " + Version,
		Source:  result.Source,
		Target:  result.Target,
		Mirror:  result.Mirror,
		Changes: result.Changes,
	}

	// Multi-file output
	if opts.OutputDir != "" {
		return formatter.NewMultiFileFormatter(opts.OutputDir, format).Format(report)
	}

	// Single-file output
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}
	if format == "markdown" {
		return formatter.NewMarkdownFormatter(writer).Format(report)
	}
	return formatter.NewTextFormatter(writer, formatter.NewColorizer(opts.Colors), opts.OnlySQL).Format(report)
}

// ForeignKeyOptions selects the source of foreign key metadata.
type ForeignKeyOptions struct {
	// DSN of a live MySQL server.
	DSN string
	// Catalog is a SQLite file written by SnapshotCatalog.
	Catalog string
	// Schema to query. Defaults to the DSN database; required with Catalog.
	Schema string
	// Cache memoises answers for the lifetime of the lookup.
	Cache bool
}

// OpenForeignKeyLookup connects to the configured metadata source. The
// returned close function must be called when parsing is done. With neither
// DSN nor Catalog set the lookup reports no foreign keys.
func OpenForeignKeyLookup(ctx context.Context, opts ForeignKeyOptions) (schema.ForeignKeyLookup, func() error, error) {
	var (
		lookup  schema.ForeignKeyLookup
		closeFn = func() error { return nil }
	)

	switch {
	case opts.DSN != "" && opts.Catalog != "":
		return nil, nil, fmt.Errorf("only one of DSN or Catalog can be specified")

	case opts.DSN != "":
		schemaName := opts.Schema
		if schemaName == "" {
			name, err := db.ParseDatabaseName(opts.DSN)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to determine database name: %w (please specify Schema)", err)
			}
			schemaName = name
		}
		client, err := db.NewMySQLClient(ctx, opts.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MySQL: %w", err)
		}
		lookup = db.NewMySQLForeignKeyLookup(client, schemaName)
		closeFn = client.Close

	case opts.Catalog != "":
		if opts.Schema == "" {
			return nil, nil, fmt.Errorf("schema is required when reading a catalog")
		}
		if _, err := os.Stat(opts.Catalog); err != nil {
			return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		client, err := db.NewSQLiteClient(ctx, opts.Catalog)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		lookup = db.NewCatalogForeignKeyLookup(client, opts.Schema)
		closeFn = client.Close

	default:
		return schema.NoForeignKeys{}, closeFn, nil
	}

	if opts.Cache {
		lookup = db.NewCachedLookup(lookup)
	}
	return lookup, closeFn, nil
}

// SnapshotCatalog copies the foreign key metadata of one schema on a live
// MySQL server into a SQLite catalog at path, for use without a server.
// It returns the number of foreign key columns captured.
func SnapshotCatalog(ctx context.Context, dsn, schemaName, path string) (int, error) {
	if schemaName == "" {
		name, err := db.ParseDatabaseName(dsn)
		if err != nil {
			return 0, fmt.Errorf("failed to determine database name: %w", err)
		}
		schemaName = name
	}

	source, err := db.NewMySQLClient(ctx, dsn)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	defer func() { _ = source.Close() }()

	catalog, err := db.NewSQLiteClient(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = catalog.Close() }()

	return db.SnapshotForeignKeys(ctx, source, schemaName, catalog)
}
