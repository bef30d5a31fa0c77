//go:build integration
// +build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/tordrt/sqldiff/internal/db"
	"github.com/tordrt/sqldiff/internal/schema"
)

const testSchema = "testdb"

// fixture tables match internal/mysql/testdata/shop.xml
var fixtureStatements = []string{
	"SET FOREIGN_KEY_CHECKS = 0",
	"DROP TABLE IF EXISTS orders",
	"DROP TABLE IF EXISTS users",
	"SET FOREIGN_KEY_CHECKS = 1",
	`CREATE TABLE users (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(200) NULL UNIQUE
	) ENGINE=InnoDB`,
	`CREATE TABLE orders (
		id INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id INT UNSIGNED NOT NULL,
		total DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		KEY idx_user_total (user_id, total),
		CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users (id)
			ON DELETE CASCADE ON UPDATE RESTRICT
	) ENGINE=InnoDB`,
}

// connectMySQL opens the test server and loads the fixture tables
func connectMySQL(t *testing.T) *db.MySQLClient {
	t.Helper()
	ctx := context.Background()

	// Use environment variable if set, otherwise use default test connection string
	connString := os.Getenv("MYSQL_TEST_URL")
	if connString == "" {
		connString = "root:testpassword@tcp(localhost:3306)/" + testSchema
	}

	client, err := db.NewMySQLClient(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect to MySQL: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	for _, stmt := range fixtureStatements {
		if _, err := client.GetDB().ExecContext(ctx, stmt); err != nil {
			t.Fatalf("Failed to load fixture: %v\n%s", err, stmt)
		}
	}
	return client
}

// verifyOrdersForeignKey checks the details resolved for orders.fk_orders_user
func verifyOrdersForeignKey(t *testing.T, lookup schema.ForeignKeyLookup) {
	t.Helper()
	ctx := context.Background()

	isFK, err := lookup.IsForeignKey(ctx, "orders", "fk_orders_user")
	if err != nil {
		t.Fatalf("IsForeignKey failed: %v", err)
	}
	if !isFK {
		t.Fatal("Expected fk_orders_user to be a foreign key")
	}

	for _, key := range []string{"PRIMARY", "idx_user_total"} {
		isFK, err := lookup.IsForeignKey(ctx, "orders", key)
		if err != nil {
			t.Fatalf("IsForeignKey(%s) failed: %v", key, err)
		}
		if isFK {
			t.Errorf("Expected %s not to be a foreign key", key)
		}
	}

	fk, err := lookup.ForeignKey(ctx, "orders", "fk_orders_user")
	if err != nil {
		t.Fatalf("ForeignKey failed: %v", err)
	}
	want := schema.ForeignKey{
		Schema:           testSchema,
		Table:            "orders",
		Constraint:       "fk_orders_user",
		Column:           "user_id",
		ReferencedTable:  "users",
		ReferencedColumn: "id",
		DeleteRule:       "CASCADE",
		UpdateRule:       "RESTRICT",
	}
	if fk == nil || *fk != want {
		t.Errorf("Expected foreign key %+v, got %+v", want, fk)
	}

	fk, err = lookup.ForeignKey(ctx, "orders", "idx_user_total")
	if err != nil {
		t.Fatalf("ForeignKey(idx_user_total) failed: %v", err)
	}
	if fk != nil {
		t.Errorf("Expected no foreign key for idx_user_total, got %+v", fk)
	}
}
