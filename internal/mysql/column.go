package mysql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tordrt/sqldiff/internal/schema"
)

// defaultExpression matches default values that must not be quoted.
var defaultExpression = regexp.MustCompile(`(?i)^(current_timestamp|localtimestamp|now)(\(\d*\))?$`)

// Column is a MySQL column.
type Column struct {
	// Type is the column type as printed by MySQL, e.g. "int(10) unsigned".
	Type string
	// Nullable is nil when the dump does not say.
	Nullable *bool
	// Default is nil when the column has no default.
	Default *string
	// KeyHint is the Key attribute of the dump (PRI, UNI, MUL).
	KeyHint   string
	Attribute string
	Charset   string
	Collation string

	name          string
	autoIncrement bool
	table         *Table
}

// NewColumn creates a detached column.
func NewColumn(name, typ string) *Column {
	return &Column{name: name, Type: typ}
}

// Name returns the column name
func (c *Column) Name() string {
	return c.name
}

// Table returns the owning table, or nil when detached
func (c *Column) Table() schema.Table {
	if c.table == nil {
		return nil
	}
	return c.table
}

// AutoIncrement reports whether the column is AUTO_INCREMENT
func (c *Column) AutoIncrement() bool {
	return c.autoIncrement
}

// SetAutoIncrement sets the AUTO_INCREMENT flag
func (c *Column) SetAutoIncrement(v bool) {
	c.autoIncrement = v
}

// SetNullable sets an explicit nullability.
func (c *Column) SetNullable(v bool) {
	c.Nullable = &v
}

// SetDefault sets the default value.
func (c *Column) SetDefault(v string) {
	c.Default = &v
}

// Position returns the zero-based position of the column in its table, or -1
// for a detached column.
func (c *Column) Position() int {
	if c.table == nil {
		return -1
	}
	return c.table.columns.Position(c.name)
}

// Previous returns the column right before this one.
func (c *Column) Previous() (*Column, bool) {
	if c.table == nil {
		return nil, false
	}
	return c.table.columns.At(c.Position() - 1)
}

// Next returns the column right after this one.
func (c *Column) Next() (*Column, bool) {
	if c.table == nil {
		return nil, false
	}
	return c.table.columns.At(c.Position() + 1)
}

// Definition renders the column as it appears inside CREATE TABLE.
func (c *Column) Definition() string {
	var b strings.Builder
	fmt.Fprintf(&b, "`%s` %s", c.name, c.Type)
	if c.Charset != "" {
		b.WriteString(" CHARACTER SET " + c.Charset)
	}
	if c.Collation != "" {
		b.WriteString(" COLLATE " + c.Collation)
	}
	if c.Attribute != "" {
		b.WriteString(" " + c.Attribute)
	}
	if c.Nullable != nil && !*c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		b.WriteString(" DEFAULT " + quoteDefault(*c.Default))
	}
	if c.autoIncrement {
		b.WriteString(" AUTO_INCREMENT")
	}
	return b.String()
}

func quoteDefault(v string) string {
	if defaultExpression.MatchString(v) {
		return v
	}
	return quoteString(v)
}

func quoteString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
