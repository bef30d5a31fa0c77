// Package schema defines the dialect-neutral schema model the diff engine
// works against.
package schema

// Database is a named set of tables in insertion order.
type Database interface {
	Name() string
	Tables() []Table
	Table(name string) (Table, bool)
}

// Table is a table of one dialect, able to render the statements that
// create, alter and drop it.
type Table interface {
	Name() string
	Database() Database

	// Columns returns the columns in position order.
	Columns() []Column
	Column(name string) (Column, bool)
	ColumnAt(position int) (Column, bool)

	// Indexes returns the indexes in insertion order.
	Indexes() []Index
	Index(key string) (Index, bool)
	RemoveIndex(key string) bool

	CreateTableSQL() (string, error)
	DropTableSQL() string
	AddColumnSQL(c Column) (string, error)
	ChangeColumnSQL(c Column) (string, error)
	DropColumnSQL(c Column) string
	AddIndexSQL(i Index) (string, error)
	ChangeIndexSQL(i Index) (string, error)
	DropIndexSQL(i Index) string

	// ExtraChanges returns dialect specific statements needed to make this
	// table match source beyond its columns and indexes.
	ExtraChanges(source Table) ([]Change, error)
}

// Column is a single table column. Its identity for diffing is its name.
type Column interface {
	Name() string
	Table() Table
	Position() int
	AutoIncrement() bool
	Definition() string
}

// Index is a table index. Its identity for diffing is its lookup key, which
// equals its name unless the name is empty.
type Index interface {
	Key() string
	Name() string
	Table() Table
	Primary() bool
	Definition() (string, error)

	// Signature describes the index structure without rendering it.
	Signature() string
}
