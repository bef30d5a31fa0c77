package mysql

import (
	"fmt"
	"strings"

	sderrors "github.com/tordrt/sqldiff/internal/errors"
	"github.com/tordrt/sqldiff/internal/schema"
)

// IndexType is the closed set of MySQL index kinds.
type IndexType int

const (
	IndexPrimary IndexType = iota + 1
	IndexUnique
	IndexKey
	IndexFulltext
	IndexForeign
)

// Lookup keys used for indexes without a name. They never appear in SQL.
const (
	PrimaryKeyName = "PK"
	ForeignKeyName = "FK"
)

var indexTypeNames = map[IndexType]string{
	IndexPrimary:  "PRIMARY KEY",
	IndexUnique:   "UNIQUE KEY",
	IndexKey:      "KEY",
	IndexFulltext: "FULLTEXT KEY",
	IndexForeign:  "FOREIGN KEY",
}

// String returns the SQL keyword of the type
func (t IndexType) String() string {
	if s, ok := indexTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("IndexType(%d)", int(t))
}

// Valid reports whether t is one of the known index types.
func (t IndexType) Valid() bool {
	_, ok := indexTypeNames[t]
	return ok
}

// ParseIndexType maps SQL text such as "UNIQUE KEY" to an IndexType.
func ParseIndexType(s string) (IndexType, error) {
	for t, name := range indexTypeNames {
		if strings.EqualFold(s, name) {
			return t, nil
		}
	}
	return 0, sderrors.NewValidationError(sderrors.CodeUnknownIndexType, "unknown index type: "+s)
}

// Index is a MySQL index.
type Index struct {
	name       string
	typ        IndexType
	columns    []*Column
	foreignKey *schema.ForeignKey
	table      *Table
}

// NewIndex creates an index. An invalid type is rejected.
func NewIndex(name string, typ IndexType) (*Index, error) {
	i := &Index{name: name}
	if err := i.SetType(typ); err != nil {
		return nil, err
	}
	return i, nil
}

// Name returns the declared name, empty for unnamed indexes
func (i *Index) Name() string {
	return i.name
}

// Key returns the name the index is stored under in its table.
func (i *Index) Key() string {
	if i.name != "" {
		return i.name
	}
	switch i.typ {
	case IndexPrimary:
		return PrimaryKeyName
	case IndexForeign:
		return ForeignKeyName
	}
	return ""
}

// Type returns the index type
func (i *Index) Type() IndexType {
	return i.typ
}

// SetType changes the index type. An invalid type leaves the index unchanged.
// An index attached to a table is re-keyed there when its lookup key changes;
// a key already taken by another index is rejected.
func (i *Index) SetType(t IndexType) error {
	if !t.Valid() {
		return sderrors.NewValidationError(sderrors.CodeUnknownIndexType, "unknown index type: "+t.String())
	}
	oldKey := i.Key()
	prev := i.typ
	i.typ = t
	if i.table == nil || i.Key() == oldKey {
		return nil
	}
	if !i.table.indexes.Rename(oldKey, i.Key()) {
		newKey := i.Key()
		i.typ = prev
		return sderrors.NewValidationError(sderrors.CodeDuplicateName,
			fmt.Sprintf("table %s already has an index named %s", i.table.name, newKey))
	}
	return nil
}

// SetTypeName is SetType for SQL text.
func (i *Index) SetTypeName(name string) error {
	t, err := ParseIndexType(name)
	if err != nil {
		return err
	}
	return i.SetType(t)
}

// Primary reports whether this is a PRIMARY KEY
func (i *Index) Primary() bool {
	return i.typ == IndexPrimary
}

// Table returns the owning table, or nil when detached
func (i *Index) Table() schema.Table {
	if i.table == nil {
		return nil
	}
	return i.table
}

// Columns returns the member columns in index order.
func (i *Index) Columns() []*Column {
	return i.columns
}

// AddColumn appends c to the index.
func (i *Index) AddColumn(c *Column) {
	i.columns = append(i.columns, c)
}

// ForeignKey returns the resolved foreign key details
func (i *Index) ForeignKey() *schema.ForeignKey {
	return i.foreignKey
}

// SetForeignKey sets the resolved foreign key details
func (i *Index) SetForeignKey(fk *schema.ForeignKey) {
	i.foreignKey = fk
}

// Definition renders the index as it appears inside CREATE TABLE.
func (i *Index) Definition() (string, error) {
	if i.typ == IndexForeign {
		if i.foreignKey == nil {
			return "", sderrors.NewGenerationError(sderrors.CodeUnresolvedForeignKey,
				fmt.Sprintf("foreign key %q has no resolved details", i.Key()))
		}
		return foreignKeyDefinition(i.foreignKey), nil
	}

	var b strings.Builder
	b.WriteString(i.typ.String())
	if i.typ != IndexPrimary && i.name != "" {
		fmt.Fprintf(&b, " `%s`", i.name)
	}
	fmt.Fprintf(&b, " (%s)", quoteNames(i.columnNames()))
	return b.String(), nil
}

// Signature describes the index by type, key and column names
func (i *Index) Signature() string {
	return fmt.Sprintf("%s %s (%s)", i.typ, i.Key(), strings.Join(i.columnNames(), ","))
}

func (i *Index) columnNames() []string {
	names := make([]string, 0, len(i.columns))
	for _, c := range i.columns {
		names = append(names, c.Name())
	}
	return names
}

func foreignKeyDefinition(fk *schema.ForeignKey) string {
	ref := fmt.Sprintf("`%s`", fk.ReferencedTable)
	if fk.Schema != "" {
		ref = fmt.Sprintf("`%s`.%s", fk.Schema, ref)
	}
	return fmt.Sprintf("CONSTRAINT `%s` FOREIGN KEY (`%s`) REFERENCES %s (`%s`) ON DELETE %s ON UPDATE %s",
		fk.Constraint, fk.Column, ref, fk.ReferencedColumn, fk.DeleteRule, fk.UpdateRule)
}

func quoteNames(names []string) string {
	quoted := make([]string, len(names))
	for n, name := range names {
		quoted[n] = "`" + name + "`"
	}
	return strings.Join(quoted, ", ")
}
