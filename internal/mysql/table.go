package mysql

import (
	"fmt"
	"strconv"
	"strings"

	sderrors "github.com/tordrt/sqldiff/internal/errors"
	"github.com/tordrt/sqldiff/internal/schema"
)

// TableOptions are the table level options rendered after CREATE TABLE.
// Zero values are left out of the statement.
type TableOptions struct {
	Engine         string
	AutoIncrement  int64
	DefaultCharset string
	Collation      string
	Comment        string
	Checksum       bool
	DelayKeyWrite  bool
	FixedRowFormat bool
}

// Table is a MySQL table.
type Table struct {
	Options TableOptions

	name    string
	columns *schema.OrderedMap[*Column]
	indexes *schema.OrderedMap[*Index]
	db      *Database
}

// NewTable creates an empty detached table.
func NewTable(name string) *Table {
	return &Table{
		name:    name,
		columns: schema.NewOrderedMap[*Column](),
		indexes: schema.NewOrderedMap[*Index](),
	}
}

// Name returns the table name
func (t *Table) Name() string {
	return t.name
}

// Database returns the owning database, or nil when detached
func (t *Table) Database() schema.Database {
	if t.db == nil {
		return nil
	}
	return t.db
}

// AddColumn appends c at the end of the table.
func (t *Table) AddColumn(c *Column) error {
	if !t.columns.Add(c.name, c) {
		return sderrors.NewValidationError(sderrors.CodeDuplicateName,
			fmt.Sprintf("table %s already has a column named %s", t.name, c.name))
	}
	c.table = t
	return nil
}

// RemoveColumn removes the named column. Later columns move one position left.
func (t *Table) RemoveColumn(name string) bool {
	c, ok := t.columns.Get(name)
	if !ok {
		return false
	}
	t.columns.Delete(name)
	c.table = nil
	return true
}

// Columns returns the columns in position order
func (t *Table) Columns() []schema.Column {
	cols := make([]schema.Column, 0, t.columns.Len())
	for _, c := range t.columns.Values() {
		cols = append(cols, c)
	}
	return cols
}

// Column returns the named column
func (t *Table) Column(name string) (schema.Column, bool) {
	c, ok := t.columns.Get(name)
	if !ok {
		return nil, false
	}
	return c, true
}

// ColumnAt returns the column at a zero-based position
func (t *Table) ColumnAt(position int) (schema.Column, bool) {
	c, ok := t.columns.At(position)
	if !ok {
		return nil, false
	}
	return c, true
}

// MySQLColumn returns the concrete column stored under name.
func (t *Table) MySQLColumn(name string) (*Column, bool) {
	return t.columns.Get(name)
}

// AddIndex registers i under its lookup key.
func (t *Table) AddIndex(i *Index) error {
	if !t.indexes.Add(i.Key(), i) {
		return sderrors.NewValidationError(sderrors.CodeDuplicateName,
			fmt.Sprintf("table %s already has an index named %s", t.name, i.Key()))
	}
	i.table = t
	return nil
}

// RemoveIndex removes the index stored under key and reports whether it existed
func (t *Table) RemoveIndex(key string) bool {
	i, ok := t.indexes.Get(key)
	if !ok {
		return false
	}
	t.indexes.Delete(key)
	i.table = nil
	return true
}

// Indexes returns the indexes in insertion order
func (t *Table) Indexes() []schema.Index {
	idxs := make([]schema.Index, 0, t.indexes.Len())
	for _, i := range t.indexes.Values() {
		idxs = append(idxs, i)
	}
	return idxs
}

// Index returns the index stored under key
func (t *Table) Index(key string) (schema.Index, bool) {
	i, ok := t.indexes.Get(key)
	if !ok {
		return nil, false
	}
	return i, true
}

// MySQLIndex returns the concrete index stored under key.
func (t *Table) MySQLIndex(key string) (*Index, bool) {
	return t.indexes.Get(key)
}

// CreateTableSQL renders the full CREATE TABLE statement.
func (t *Table) CreateTableSQL() (string, error) {
	defs := make([]string, 0, t.columns.Len()+t.indexes.Len())
	for _, c := range t.columns.Values() {
		defs = append(defs, c.Definition())
	}
	for _, i := range t.indexes.Values() {
		def, err := i.Definition()
		if err != nil {
			return "", fmt.Errorf("failed to render index %s of table %s: %w", i.Key(), t.name, err)
		}
		defs = append(defs, def)
	}

	stmt := fmt.Sprintf("CREATE TABLE `%s` (\n%s\n)", t.name, strings.Join(defs, ",\n"))
	if opts := t.renderOptions(); opts != "" {
		stmt += " " + opts
	}
	return stmt + ";", nil
}

func (t *Table) renderOptions() string {
	var opts []string
	o := t.Options
	if o.Engine != "" {
		opts = append(opts, "ENGINE="+o.Engine)
	}
	if o.AutoIncrement != 0 {
		opts = append(opts, "AUTO_INCREMENT="+strconv.FormatInt(o.AutoIncrement, 10))
	}
	if o.DefaultCharset != "" {
		opts = append(opts, "DEFAULT CHARSET="+o.DefaultCharset)
	}
	if o.Collation != "" {
		opts = append(opts, "COLLATE="+o.Collation)
	}
	if o.Comment != "" {
		opts = append(opts, "COMMENT="+quoteString(o.Comment))
	}
	if o.Checksum {
		opts = append(opts, "CHECKSUM=1")
	}
	if o.DelayKeyWrite {
		opts = append(opts, "DELAY_KEY_WRITE=1")
	}
	if o.FixedRowFormat {
		opts = append(opts, "ROW_FORMAT=FIXED")
	}
	return strings.Join(opts, " ")
}

// DropTableSQL renders DROP TABLE
func (t *Table) DropTableSQL() string {
	return fmt.Sprintf("DROP TABLE `%s`;", t.name)
}

// AddColumnSQL renders an ADD COLUMN statement for c into this table.
// An auto-increment column carries its own PRIMARY KEY, so the first primary
// index of c's table is removed from that table.
func (t *Table) AddColumnSQL(c schema.Column) (string, error) {
	def := c.Definition()
	owner := c.Table()

	if c.AutoIncrement() {
		def += " PRIMARY KEY"
		if owner != nil {
			for _, i := range owner.Indexes() {
				if i.Primary() {
					if !owner.RemoveIndex(i.Key()) {
						return "", sderrors.NewGenerationError(sderrors.CodePrimaryKeyFold,
							fmt.Sprintf("primary index of table %s is not stored under %s", owner.Name(), i.Key()))
					}
					break
				}
			}
		}
	}

	var placement string
	pos := c.Position()
	if owner != nil && pos > 0 {
		if prev, ok := owner.ColumnAt(pos - 1); ok {
			placement = fmt.Sprintf(" AFTER `%s`", prev.Name())
		}
	} else if pos == 0 {
		placement = " FIRST"
	}

	return fmt.Sprintf("ALTER TABLE `%s` ADD %s%s;", t.name, def, placement), nil
}

// ChangeColumnSQL renders a CHANGE statement redefining c in this table.
func (t *Table) ChangeColumnSQL(c schema.Column) (string, error) {
	return fmt.Sprintf("ALTER TABLE `%s` CHANGE `%s` %s;", t.name, c.Name(), c.Definition()), nil
}

// DropColumnSQL renders a DROP statement for c
func (t *Table) DropColumnSQL(c schema.Column) string {
	return fmt.Sprintf("ALTER TABLE `%s` DROP `%s`;", t.name, c.Name())
}

// AddIndexSQL renders an ADD statement for i
func (t *Table) AddIndexSQL(i schema.Index) (string, error) {
	def, err := i.Definition()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE `%s` ADD %s;", t.name, def), nil
}

// ChangeIndexSQL drops the index and re-adds it in one statement.
func (t *Table) ChangeIndexSQL(i schema.Index) (string, error) {
	def, err := i.Definition()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE `%s` DROP %s, ADD %s;", t.name, dropTarget(i), def), nil
}

// DropIndexSQL renders DROP PRIMARY KEY or DROP INDEX for i
func (t *Table) DropIndexSQL(i schema.Index) string {
	return fmt.Sprintf("ALTER TABLE `%s` DROP %s;", t.name, dropTarget(i))
}

func dropTarget(i schema.Index) string {
	if i.Primary() {
		return "PRIMARY KEY"
	}
	return fmt.Sprintf("INDEX `%s`", i.Name())
}

// ExtraChanges reports an engine switch when source names an engine this
// table does not use.
func (t *Table) ExtraChanges(source schema.Table) ([]schema.Change, error) {
	src, ok := source.(*Table)
	if !ok {
		return nil, nil
	}

	var changes []schema.Change
	if src.Options.Engine != "" && src.Options.Engine != t.Options.Engine {
		changes = append(changes, schema.Change{
			SQL:   fmt.Sprintf("ALTER TABLE `%s` ENGINE = %s;", t.name, src.Options.Engine),
			Kind:  schema.ChangeChange,
			Table: t.name,
		})
	}
	return changes, nil
}
