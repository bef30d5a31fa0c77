package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tordrt/sqldiff/internal/schema"
)

const informationSchemaPrefix = "information_schema."

// ForeignKeyLookup answers foreign key questions from information_schema
// style tables, either on a live MySQL server or in a SQLite catalog.
type ForeignKeyLookup struct {
	db         *sql.DB
	schemaName string
	prefix     string
}

// NewMySQLForeignKeyLookup queries information_schema of a live server.
func NewMySQLForeignKeyLookup(client *MySQLClient, schemaName string) *ForeignKeyLookup {
	return &ForeignKeyLookup{
		db:         client.GetDB(),
		schemaName: schemaName,
		prefix:     informationSchemaPrefix,
	}
}

// NewCatalogForeignKeyLookup queries a catalog written by SnapshotForeignKeys.
func NewCatalogForeignKeyLookup(client *SQLiteClient, schemaName string) *ForeignKeyLookup {
	return &ForeignKeyLookup{
		db:         client.GetDB(),
		schemaName: schemaName,
		prefix:     "",
	}
}

// IsForeignKey reports whether key on table is a foreign key constraint.
func (l *ForeignKeyLookup) IsForeignKey(ctx context.Context, table, key string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(kcu.referenced_table_name)
		FROM %skey_column_usage kcu
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.constraint_name = ?
	`, l.prefix)

	var count int
	if err := l.db.QueryRowContext(ctx, query, l.schemaName, table, key).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count foreign key columns: %w", err)
	}
	return count > 0, nil
}

// ForeignKey returns the details of a foreign key, or nil when key is not one.
// Composite keys resolve to their first column.
func (l *ForeignKeyLookup) ForeignKey(ctx context.Context, table, key string) (*schema.ForeignKey, error) {
	query := fmt.Sprintf(`
		SELECT
			kcu.constraint_name,
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name,
			rc.delete_rule,
			rc.update_rule
		FROM %[1]skey_column_usage kcu
		JOIN %[1]sreferential_constraints rc
			ON rc.constraint_schema = kcu.table_schema
			AND rc.table_name = kcu.table_name
			AND rc.constraint_name = kcu.constraint_name
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.constraint_name = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.ordinal_position
		LIMIT 1
	`, l.prefix)

	fk := &schema.ForeignKey{Schema: l.schemaName, Table: table}
	err := l.db.QueryRowContext(ctx, query, l.schemaName, table, key).Scan(
		&fk.Constraint,
		&fk.Column,
		&fk.ReferencedTable,
		&fk.ReferencedColumn,
		&fk.DeleteRule,
		&fk.UpdateRule,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch foreign key %s.%s: %w", table, key, err)
	}
	return fk, nil
}
