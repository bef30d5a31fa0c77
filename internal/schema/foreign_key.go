package schema

import "context"

// ForeignKey holds the resolved details of a foreign key constraint.
type ForeignKey struct {
	Schema           string
	Table            string
	Constraint       string
	Column           string
	ReferencedTable  string
	ReferencedColumn string
	DeleteRule       string
	UpdateRule       string
}

// ForeignKeyLookup answers foreign key questions about keys found in a dump.
type ForeignKeyLookup interface {
	IsForeignKey(ctx context.Context, table, key string) (bool, error)
	// ForeignKey returns nil, nil when the key has no resolvable details.
	ForeignKey(ctx context.Context, table, key string) (*ForeignKey, error)
}

// NoForeignKeys is a lookup that never reports a foreign key.
type NoForeignKeys struct{}

// IsForeignKey always returns false
func (NoForeignKeys) IsForeignKey(context.Context, string, string) (bool, error) {
	return false, nil
}

// ForeignKey always returns nil
func (NoForeignKeys) ForeignKey(context.Context, string, string) (*ForeignKey, error) {
	return nil, nil
}
