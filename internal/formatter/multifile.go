package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tordrt/sqldiff/internal/schema"
)

const (
	formatMarkdown = "markdown"
	formatText     = "text"
)

// MultiFileFormatter writes one <table>.sql file per table plus an overview
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text" or "markdown", used for the overview
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes the report to multiple files
func (f *MultiFileFormatter) Format(r *Report) error {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(r); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, table := range r.Tables() {
		if err := f.writeTableFile(table, r.ChangesFor(table)); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", table, err)
		}
	}

	return nil
}

func (f *MultiFileFormatter) writeOverview(r *Report) error {
	filename := filepath.Join(f.OutputDir, "_overview"+f.getFileExtension())

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	tables := r.Tables()
	sort.Strings(tables)

	if f.OutputFormat == formatMarkdown {
		_, _ = fmt.Fprintf(file, "# Schema Diff Overview\n\n")
		_, _ = fmt.Fprintf(file, "%s\n\n", r.preamble())
		_, _ = fmt.Fprintf(file, "%s\n\n", summarize(r.Changes))
		_, _ = fmt.Fprintf(file, "Each table has a corresponding file: `<table_name>.sql`\n\n")
		_, _ = fmt.Fprintf(file, "## Tables\n\n")
		for _, table := range tables {
			_, _ = fmt.Fprintf(file, "- **%s** (%s)\n", table, summarize(r.ChangesFor(table)))
		}
		return nil
	}

	_, _ = fmt.Fprintf(file, "SCHEMA DIFF OVERVIEW\n")
	_, _ = fmt.Fprintf(file, "%s\n", r.preamble())
	_, _ = fmt.Fprintf(file, "Each table has a file: <table_name>.sql\n\n")
	for _, table := range tables {
		_, _ = fmt.Fprintf(file, "%s (%s)\n", table, summarize(r.ChangesFor(table)))
	}
	return nil
}

// writeTableFile writes the statements of a single table to its own file
func (f *MultiFileFormatter) writeTableFile(table string, changes []schema.Change) error {
	file, err := os.Create(filepath.Join(f.OutputDir, table+".sql"))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	for _, c := range changes {
		if _, err := fmt.Fprintf(file, "-- %s\n%s\n", c.Kind, c.SQL); err != nil {
			return err
		}
	}
	return nil
}

func (f *MultiFileFormatter) getFileExtension() string {
	if f.OutputFormat == formatMarkdown {
		return ".md"
	}
	return ".txt"
}

// ValidFormat reports whether format names a supported output format.
func ValidFormat(format string) bool {
	return format == formatText || format == formatMarkdown
}
