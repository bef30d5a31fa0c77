package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tordrt/sqldiff/internal/schema"
)

// catalogSchema mirrors the information_schema columns the lookup reads.
const catalogSchema = `
	CREATE TABLE IF NOT EXISTS key_column_usage (
		table_schema            TEXT NOT NULL,
		table_name              TEXT NOT NULL,
		constraint_name         TEXT NOT NULL,
		column_name             TEXT NOT NULL,
		ordinal_position        INTEGER NOT NULL,
		referenced_table_schema TEXT,
		referenced_table_name   TEXT,
		referenced_column_name  TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_kcu_constraint
		ON key_column_usage (table_schema, table_name, constraint_name);
	CREATE TABLE IF NOT EXISTS referential_constraints (
		constraint_schema     TEXT NOT NULL,
		constraint_name       TEXT NOT NULL,
		table_name            TEXT NOT NULL,
		referenced_table_name TEXT NOT NULL,
		update_rule           TEXT NOT NULL,
		delete_rule           TEXT NOT NULL
	);
`

// InitCatalog creates the catalog tables if they do not exist.
func (c *SQLiteClient) InitCatalog(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, catalogSchema); err != nil {
		return fmt.Errorf("failed to create catalog tables: %w", err)
	}
	return nil
}

// InsertForeignKey records a single column foreign key in the catalog.
func (c *SQLiteClient) InsertForeignKey(ctx context.Context, fk schema.ForeignKey) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertKeyColumnUsage,
		fk.Schema, fk.Table, fk.Constraint, fk.Column, 1, fk.Schema, fk.ReferencedTable, fk.ReferencedColumn); err != nil {
		return fmt.Errorf("failed to insert key column usage: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertReferentialConstraint,
		fk.Schema, fk.Constraint, fk.Table, fk.ReferencedTable, fk.UpdateRule, fk.DeleteRule); err != nil {
		return fmt.Errorf("failed to insert referential constraint: %w", err)
	}
	return tx.Commit()
}

const (
	insertKeyColumnUsage = `
		INSERT INTO key_column_usage (
			table_schema, table_name, constraint_name, column_name, ordinal_position,
			referenced_table_schema, referenced_table_name, referenced_column_name
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	insertReferentialConstraint = `
		INSERT INTO referential_constraints (
			constraint_schema, constraint_name, table_name, referenced_table_name, update_rule, delete_rule
		) VALUES (?, ?, ?, ?, ?, ?)`
)

// SnapshotForeignKeys copies the foreign key metadata of one schema from a
// live MySQL server into a catalog. Rows previously captured for the same
// schema are replaced. It returns the number of key columns copied.
func SnapshotForeignKeys(ctx context.Context, source *MySQLClient, schemaName string, catalog *SQLiteClient) (int, error) {
	return copyForeignKeys(ctx, source.GetDB(), informationSchemaPrefix, schemaName, catalog)
}

func copyForeignKeys(ctx context.Context, src *sql.DB, prefix, schemaName string, catalog *SQLiteClient) (int, error) {
	if err := catalog.InitCatalog(ctx); err != nil {
		return 0, err
	}

	keyColumns, err := readKeyColumns(ctx, src, prefix, schemaName)
	if err != nil {
		return 0, fmt.Errorf("failed to read key columns: %w", err)
	}
	constraints, err := readConstraints(ctx, src, prefix, schemaName)
	if err != nil {
		return 0, fmt.Errorf("failed to read referential constraints: %w", err)
	}

	tx, err := catalog.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM key_column_usage WHERE table_schema = ?`, schemaName); err != nil {
		return 0, fmt.Errorf("failed to clear key columns: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM referential_constraints WHERE constraint_schema = ?`, schemaName); err != nil {
		return 0, fmt.Errorf("failed to clear referential constraints: %w", err)
	}

	for _, k := range keyColumns {
		if _, err := tx.ExecContext(ctx, insertKeyColumnUsage,
			schemaName, k.table, k.constraint, k.column, k.position, k.refSchema, k.refTable, k.refColumn); err != nil {
			return 0, fmt.Errorf("failed to insert key column usage: %w", err)
		}
	}
	for _, r := range constraints {
		if _, err := tx.ExecContext(ctx, insertReferentialConstraint,
			schemaName, r.constraint, r.table, r.refTable, r.updateRule, r.deleteRule); err != nil {
			return 0, fmt.Errorf("failed to insert referential constraint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit catalog: %w", err)
	}
	return len(keyColumns), nil
}

type keyColumnRow struct {
	table      string
	constraint string
	column     string
	position   int
	refSchema  sql.NullString
	refTable   sql.NullString
	refColumn  sql.NullString
}

type constraintRow struct {
	constraint string
	table      string
	refTable   string
	updateRule string
	deleteRule string
}

func readKeyColumns(ctx context.Context, src *sql.DB, prefix, schemaName string) ([]keyColumnRow, error) {
	query := fmt.Sprintf(`
		SELECT
			kcu.table_name,
			kcu.constraint_name,
			kcu.column_name,
			kcu.ordinal_position,
			kcu.referenced_table_schema,
			kcu.referenced_table_name,
			kcu.referenced_column_name
		FROM %skey_column_usage kcu
		WHERE kcu.table_schema = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.table_name, kcu.constraint_name, kcu.ordinal_position
	`, prefix)

	rows, err := src.QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []keyColumnRow
	for rows.Next() {
		var r keyColumnRow
		if err := rows.Scan(&r.table, &r.constraint, &r.column, &r.position, &r.refSchema, &r.refTable, &r.refColumn); err != nil {
			return nil, err
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

func readConstraints(ctx context.Context, src *sql.DB, prefix, schemaName string) ([]constraintRow, error) {
	query := fmt.Sprintf(`
		SELECT
			rc.constraint_name,
			rc.table_name,
			rc.referenced_table_name,
			rc.update_rule,
			rc.delete_rule
		FROM %sreferential_constraints rc
		WHERE rc.constraint_schema = ?
		ORDER BY rc.table_name, rc.constraint_name
	`, prefix)

	rows, err := src.QueryContext(ctx, query, schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []constraintRow
	for rows.Next() {
		var r constraintRow
		if err := rows.Scan(&r.constraint, &r.table, &r.refTable, &r.updateRule, &r.deleteRule); err != nil {
			return nil, err
		}
		out = append(out, r)
	}

	return out, rows.Err()
}
