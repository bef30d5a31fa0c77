// Package mysql implements the schema model, dump parser and statement
// generator for MySQL.
package mysql

import (
	"fmt"

	sderrors "github.com/tordrt/sqldiff/internal/errors"
	"github.com/tordrt/sqldiff/internal/schema"
)

// Database is a MySQL database parsed from a dump.
type Database struct {
	name   string
	tables *schema.OrderedMap[*Table]
}

// NewDatabase creates an empty database.
func NewDatabase(name string) *Database {
	return &Database{
		name:   name,
		tables: schema.NewOrderedMap[*Table](),
	}
}

// Name returns the database name
func (d *Database) Name() string {
	return d.name
}

// AddTable registers t under its name.
func (d *Database) AddTable(t *Table) error {
	if !d.tables.Add(t.name, t) {
		return sderrors.NewValidationError(sderrors.CodeDuplicateName,
			fmt.Sprintf("database %s already has a table named %s", d.name, t.name))
	}
	t.db = d
	return nil
}

// RemoveTable removes the named table and reports whether it existed
func (d *Database) RemoveTable(name string) bool {
	t, ok := d.tables.Get(name)
	if !ok {
		return false
	}
	d.tables.Delete(name)
	t.db = nil
	return true
}

// Tables returns the tables in dump order
func (d *Database) Tables() []schema.Table {
	tables := make([]schema.Table, 0, d.tables.Len())
	for _, t := range d.tables.Values() {
		tables = append(tables, t)
	}
	return tables
}

// Table returns the named table
func (d *Database) Table(name string) (schema.Table, bool) {
	t, ok := d.tables.Get(name)
	if !ok {
		return nil, false
	}
	return t, true
}

// MySQLTable returns the concrete table stored under name.
func (d *Database) MySQLTable(name string) (*Table, bool) {
	return d.tables.Get(name)
}

// Clone returns a deep copy sharing no entities with d.
func (d *Database) Clone() *Database {
	out := NewDatabase(d.name)
	for _, t := range d.tables.Values() {
		_ = out.AddTable(t.clone())
	}
	return out
}

func (t *Table) clone() *Table {
	out := NewTable(t.name)
	out.Options = t.Options
	for _, c := range t.columns.Values() {
		cc := *c
		cc.table = nil
		if c.Nullable != nil {
			v := *c.Nullable
			cc.Nullable = &v
		}
		if c.Default != nil {
			v := *c.Default
			cc.Default = &v
		}
		_ = out.AddColumn(&cc)
	}
	for _, i := range t.indexes.Values() {
		ci := &Index{name: i.name, typ: i.typ}
		for _, c := range i.columns {
			if col, ok := out.columns.Get(c.name); ok {
				ci.columns = append(ci.columns, col)
			}
		}
		if i.foreignKey != nil {
			fk := *i.foreignKey
			ci.foreignKey = &fk
		}
		_ = out.AddIndex(ci)
	}
	return out
}
