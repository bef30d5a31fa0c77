package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/sqldiff/internal/schema"
)

// MarkdownFormatter formats a diff report as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the report in markdown format
func (f *MarkdownFormatter) Format(r *Report) error {
	if len(r.Changes) == 0 {
		return nil
	}

	_, _ = fmt.Fprintln(f.writer, "# Schema Diff")
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintf(f.writer, "%s\n\n", r.preamble())
	_, _ = fmt.Fprintf(f.writer, "%s\n\n", summarize(r.Changes))

	for _, table := range r.Tables() {
		f.FormatTable(table, r.ChangesFor(table))
	}
	return nil
}

// FormatTable writes one table section (exported for use by multifile formatter)
func (f *MarkdownFormatter) FormatTable(table string, changes []schema.Change) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", table)
	_, _ = fmt.Fprintln(f.writer, "```sql")
	for _, c := range changes {
		_, _ = fmt.Fprintln(f.writer, c.SQL)
	}
	_, _ = fmt.Fprintln(f.writer, "```")
	_, _ = fmt.Fprintln(f.writer)
}

// summarize counts statements per kind, e.g. "3 statements (2 add, 1 change, 0 delete)".
func summarize(changes []schema.Change) string {
	counts := make(map[schema.ChangeKind]int)
	for _, c := range changes {
		counts[c.Kind]++
	}
	noun := "statements"
	if len(changes) == 1 {
		noun = "statement"
	}
	return fmt.Sprintf("%d %s (%d add, %d change, %d delete)", len(changes), noun,
		counts[schema.ChangeAdd], counts[schema.ChangeChange], counts[schema.ChangeDelete])
}
