package mysql

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sderrors "github.com/tordrt/sqldiff/internal/errors"
	"github.com/tordrt/sqldiff/internal/schema"
)

type stubLookup struct {
	keys  map[string]*schema.ForeignKey
	err   error
	calls int
}

func (s *stubLookup) IsForeignKey(_ context.Context, table, key string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.keys[table+"."+key]
	return ok, nil
}

func (s *stubLookup) ForeignKey(_ context.Context, table, key string) (*schema.ForeignKey, error) {
	return s.keys[table+"."+key], nil
}

func parseShop(t *testing.T, opts ...ParserOption) *Database {
	t.Helper()
	db, err := NewParser(opts...).ParseFile(context.Background(), "testdata/shop.xml", schema.Filter{})
	require.NoError(t, err)
	return db
}

func TestParser_Tables(t *testing.T) {
	db := parseShop(t)

	assert.Equal(t, "shop", db.Name())
	var names []string
	for _, tbl := range db.Tables() {
		names = append(names, tbl.Name())
	}
	assert.Equal(t, []string{"users", "orders", "logs"}, names)
}

func TestParser_Columns(t *testing.T) {
	db := parseShop(t)
	users, ok := db.MySQLTable("users")
	require.True(t, ok)

	id, ok := users.MySQLColumn("id")
	require.True(t, ok)
	assert.Equal(t, 0, id.Position())
	assert.True(t, id.AutoIncrement())
	assert.Equal(t, "PRI", id.KeyHint)
	require.NotNil(t, id.Nullable)
	assert.False(t, *id.Nullable)

	name, _ := users.MySQLColumn("name")
	assert.Nil(t, name.Default, "empty default must mean no default")
	assert.Equal(t, 1, name.Position())

	email, _ := users.MySQLColumn("email")
	require.NotNil(t, email.Nullable)
	assert.True(t, *email.Nullable)

	updated, _ := users.MySQLColumn("updated")
	assert.Equal(t, 3, updated.Position())
	assert.Equal(t, "ON UPDATE CURRENT_TIMESTAMP", updated.Attribute)
	assert.Equal(t, "`updated` timestamp ON UPDATE CURRENT_TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP", updated.Definition())
}

func TestParser_IndexTypes(t *testing.T) {
	lookup := &stubLookup{keys: map[string]*schema.ForeignKey{
		"orders.fk_orders_user": {
			Schema: "shop", Table: "orders", Constraint: "fk_orders_user", Column: "user_id",
			ReferencedTable: "users", ReferencedColumn: "id", DeleteRule: "CASCADE", UpdateRule: "RESTRICT",
		},
	}}
	db := parseShop(t, WithForeignKeyLookup(lookup))
	orders, ok := db.MySQLTable("orders")
	require.True(t, ok)

	tests := []struct {
		key     string
		typ     IndexType
		columns []string
	}{
		{"PRIMARY", IndexPrimary, []string{"id"}},
		{"fk_orders_user", IndexForeign, []string{"user_id"}},
		{"idx_user_total", IndexKey, []string{"user_id", "total"}},
		{"ft_note", IndexFulltext, []string{"note"}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			idx, ok := orders.MySQLIndex(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.typ, idx.Type())
			assert.Equal(t, tt.columns, idx.columnNames())
		})
	}

	users, _ := db.MySQLTable("users")
	email, ok := users.MySQLIndex("email")
	require.True(t, ok)
	assert.Equal(t, IndexUnique, email.Type())

	fk, _ := orders.MySQLIndex("fk_orders_user")
	def, err := fk.Definition()
	require.NoError(t, err)
	assert.Equal(t, "CONSTRAINT `fk_orders_user` FOREIGN KEY (`user_id`) REFERENCES `shop`.`users` (`id`) ON DELETE CASCADE ON UPDATE RESTRICT", def)
}

func TestParser_CompoundKeyFoldsIntoOneIndex(t *testing.T) {
	db := parseShop(t)
	orders, _ := db.MySQLTable("orders")

	assert.Len(t, orders.Indexes(), 4)
	idx, ok := orders.MySQLIndex("idx_user_total")
	require.True(t, ok)
	def, err := idx.Definition()
	require.NoError(t, err)
	assert.Equal(t, "KEY `idx_user_total` (`user_id`, `total`)", def)
}

func TestParser_Options(t *testing.T) {
	db := parseShop(t)
	orders, _ := db.MySQLTable("orders")

	assert.Equal(t, TableOptions{
		Engine:         "MyISAM",
		AutoIncrement:  42,
		Collation:      "utf8_general_ci",
		Comment:        "customer orders",
		Checksum:       true,
		DelayKeyWrite:  true,
		FixedRowFormat: true,
	}, orders.Options)

	logs, _ := db.MySQLTable("logs")
	assert.Zero(t, logs.Options.AutoIncrement)
	assert.False(t, logs.Options.FixedRowFormat)
}

func TestParser_Filter(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		want    []string
	}{
		{"include only", []string{"users", "logs"}, nil, []string{"users", "logs"}},
		{"exclude only", nil, []string{"orders"}, []string{"users", "logs"}},
		{"both", []string{"users", "orders"}, []string{"orders"}, []string{"users"}},
		{"none", nil, nil, []string{"users", "orders", "logs"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := NewParser().ParseFile(context.Background(), "testdata/shop.xml", schema.NewFilter(tt.include, tt.exclude))
			require.NoError(t, err)

			var got []string
			for _, tbl := range db.Tables() {
				got = append(got, tbl.Name())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  string
	}{
		{"malformed", "<mysqldump><database", sderrors.CodeMalformedDump},
		{"empty", "", sderrors.CodeMalformedDump},
		{"wrong root", `<dump><database name="x"/></dump>`, sderrors.CodeUnexpectedRoot},
		{"no database", `<mysqldump></mysqldump>`, sderrors.CodeMissingDatabase},
		{"trailing garbage", `<mysqldump><database name="x"></database></mysqldump><broken`, sderrors.CodeMalformedDump},
		{"second root", `<mysqldump><database name="x"></database></mysqldump><mysqldump/>`, sderrors.CodeMalformedDump},
		{"trailing text", `<mysqldump><database name="x"></database></mysqldump>oops`, sderrors.CodeMalformedDump},
		{"unknown key column", `<mysqldump><database name="x"><table_structure name="t">
			<field Field="id" Type="int(11)" Null="NO" />
			<key Non_unique="0" Key_name="PRIMARY" Column_name="missing" />
		</table_structure></database></mysqldump>`, sderrors.CodeUnknownColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse(context.Background(), strings.NewReader(tt.input), schema.Filter{})
			require.Error(t, err)
			assert.True(t, sderrors.IsParse(err))
			assert.Equal(t, tt.code, sderrors.GetCode(err))
		})
	}
}

func TestParser_TrailingCommentsAllowed(t *testing.T) {
	input := "<?xml version=\"1.0\"?>\n<mysqldump><database name=\"x\"></database></mysqldump>\n<!-- Dump completed -->\n"

	db, err := NewParser().Parse(context.Background(), strings.NewReader(input), schema.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "x", db.Name())
}

func TestParser_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser().ParseFile(ctx, "testdata/shop.xml", schema.Filter{})
	require.Error(t, err)
	assert.True(t, sderrors.IsParse(err))
	assert.Equal(t, sderrors.CodeCanceled, sderrors.GetCode(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParser_SkipsFunctionalIndexes(t *testing.T) {
	input := `<mysqldump><database name="x"><table_structure name="t">
		<field Field="id" Type="int(11)" Null="NO" />
		<field Field="email" Type="varchar(200)" Null="NO" />
		<key Non_unique="0" Key_name="PRIMARY" Column_name="id" />
		<key Non_unique="1" Key_name="idx_lower_email" Expression="lower(` + "`email`" + `)" />
		<key Non_unique="1" Key_name="idx_mixed" Column_name="id" />
		<key Non_unique="1" Key_name="idx_mixed" Expression="(` + "`id`" + ` + 1)" />
	</table_structure></database></mysqldump>`

	db, err := NewParser().Parse(context.Background(), strings.NewReader(input), schema.Filter{})
	require.NoError(t, err)

	tbl, ok := db.MySQLTable("t")
	require.True(t, ok)
	assert.Len(t, tbl.Indexes(), 1)
	_, ok = tbl.Index("idx_lower_email")
	assert.False(t, ok)
	_, ok = tbl.Index("idx_mixed")
	assert.False(t, ok)
}

func TestParser_LookupFailure(t *testing.T) {
	cause := errors.New("connection refused")
	lookup := &stubLookup{err: cause}

	_, err := NewParser(WithForeignKeyLookup(lookup)).ParseFile(context.Background(), "testdata/shop.xml", schema.Filter{})
	require.Error(t, err)
	assert.True(t, sderrors.IsParse(err))
	assert.Equal(t, sderrors.CodeForeignKeyLookup, sderrors.GetCode(err))
	assert.ErrorIs(t, err, cause)
}

func TestParser_PrimaryKeySkipsLookup(t *testing.T) {
	lookup := &stubLookup{}
	input := `<mysqldump><database name="x"><table_structure name="t">
		<field Field="id" Type="int(11)" Null="NO" />
		<key Non_unique="0" Key_name="PRIMARY" Column_name="id" />
	</table_structure></database></mysqldump>`

	_, err := NewParser(WithForeignKeyLookup(lookup)).Parse(context.Background(), strings.NewReader(input), schema.Filter{})
	require.NoError(t, err)
	assert.Zero(t, lookup.calls)
}

func TestParser_UnresolvedForeignKey(t *testing.T) {
	lookup := &stubLookup{keys: map[string]*schema.ForeignKey{"orders.fk_orders_user": nil}}
	db := parseShop(t, WithForeignKeyLookup(lookup))
	orders, _ := db.MySQLTable("orders")

	fk, ok := orders.MySQLIndex("fk_orders_user")
	require.True(t, ok)
	assert.Equal(t, IndexForeign, fk.Type())
	assert.Nil(t, fk.ForeignKey())

	_, err := orders.CreateTableSQL()
	require.Error(t, err)
	assert.True(t, sderrors.IsGeneration(err))
}

func TestParseFile_Missing(t *testing.T) {
	_, err := NewParser().ParseFile(context.Background(), "testdata/does-not-exist.xml", schema.Filter{})
	require.Error(t, err)
	assert.Equal(t, sderrors.CodeReadFailed, sderrors.GetCode(err))
}
