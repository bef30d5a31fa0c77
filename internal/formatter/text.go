// Package formatter renders diff results for humans.
package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/sqldiff/internal/schema"
)

const ruleWidth = 80

// Report is everything a formatter needs to render one comparison.
type Report struct {
	Version string
	Source  string
	Target  string
	Mirror  bool
	Changes []schema.Change
}

// Tables returns the table names of the report in first-seen order.
func (r *Report) Tables() []string {
	seen := make(map[string]bool)
	var tables []string
	for _, c := range r.Changes {
		if !seen[c.Table] {
			seen[c.Table] = true
			tables = append(tables, c.Table)
		}
	}
	return tables
}

// ChangesFor returns the changes belonging to table, in order.
func (r *Report) ChangesFor(table string) []schema.Change {
	var out []schema.Change
	for _, c := range r.Changes {
		if c.Table == table {
			out = append(out, c)
		}
	}
	return out
}

func (r *Report) preamble() string {
	if r.Mirror {
		return "Run the following queries to make <target> the same as <source>:"
	}
	return "Run the following queries to add information to <target>:"
}

// TextFormatter writes statements as plain text
type TextFormatter struct {
	writer  io.Writer
	colors  *Colorizer
	onlySQL bool
}

// NewTextFormatter creates a new text formatter. A nil colorizer disables colours.
func NewTextFormatter(w io.Writer, colors *Colorizer, onlySQL bool) *TextFormatter {
	return &TextFormatter{writer: w, colors: colors, onlySQL: onlySQL}
}

// Format writes the report. Nothing is written when there are no changes.
func (f *TextFormatter) Format(r *Report) error {
	if len(r.Changes) == 0 {
		return nil
	}

	lines := make([]string, 0, len(r.Changes))
	for _, c := range r.Changes {
		lines = append(lines, f.colors.Format(c))
	}
	body := strings.Join(lines, "\n")

	if f.onlySQL {
		_, err := fmt.Fprintln(f.writer, body)
		return err
	}

	rule := strings.Repeat("=", ruleWidth)
	_, err := fmt.Fprintf(f.writer, "%s\n%s\n%s\n%s\n%s\n", r.Version, r.preamble(), rule, body, rule)
	return err
}
