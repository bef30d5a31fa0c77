package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sderrors "github.com/tordrt/sqldiff/internal/errors"
	"github.com/tordrt/sqldiff/internal/schema"
)

func mustColumn(t *testing.T, tbl *Table, name, typ string, notNull bool) *Column {
	t.Helper()
	c := NewColumn(name, typ)
	if notNull {
		c.SetNullable(false)
	}
	require.NoError(t, tbl.AddColumn(c))
	return c
}

func mustIndex(t *testing.T, tbl *Table, name string, typ IndexType, cols ...*Column) *Index {
	t.Helper()
	idx, err := NewIndex(name, typ)
	require.NoError(t, err)
	for _, c := range cols {
		idx.AddColumn(c)
	}
	require.NoError(t, tbl.AddIndex(idx))
	return idx
}

func usersTable(t *testing.T) *Table {
	t.Helper()
	tbl := NewTable("users")
	id := mustColumn(t, tbl, "id", "int(10) unsigned", true)
	id.SetAutoIncrement(true)
	mustColumn(t, tbl, "name", "varchar(100)", true)
	email := mustColumn(t, tbl, "email", "varchar(200)", true)
	mustIndex(t, tbl, "PRIMARY", IndexPrimary, id)
	mustIndex(t, tbl, "email", IndexUnique, email)
	return tbl
}

func TestTable_CreateTableSQL(t *testing.T) {
	tbl := usersTable(t)
	tbl.Options = TableOptions{
		Engine:         "InnoDB",
		AutoIncrement:  5,
		DefaultCharset: "utf8",
		Comment:        "it's",
	}

	want := "CREATE TABLE `users` (\n" +
		"`id` int(10) unsigned NOT NULL AUTO_INCREMENT,\n" +
		"`name` varchar(100) NOT NULL,\n" +
		"`email` varchar(200) NOT NULL,\n" +
		"PRIMARY KEY (`id`),\n" +
		"UNIQUE KEY `email` (`email`)\n" +
		") ENGINE=InnoDB AUTO_INCREMENT=5 DEFAULT CHARSET=utf8 COMMENT='it''s';"

	got, err := tbl.CreateTableSQL()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTable_CreateTableSQLOptionOrder(t *testing.T) {
	tbl := NewTable("t")
	mustColumn(t, tbl, "a", "int(11)", false)
	tbl.Options = TableOptions{
		Engine:         "MyISAM",
		Collation:      "utf8_bin",
		Checksum:       true,
		DelayKeyWrite:  true,
		FixedRowFormat: true,
	}

	got, err := tbl.CreateTableSQL()
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE `t` (\n`a` int(11)\n) ENGINE=MyISAM COLLATE=utf8_bin CHECKSUM=1 DELAY_KEY_WRITE=1 ROW_FORMAT=FIXED;", got)

	tbl.Options = TableOptions{}
	got, err = tbl.CreateTableSQL()
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE `t` (\n`a` int(11)\n);", got)
}

func TestTable_AddColumnSQLPlacement(t *testing.T) {
	source := NewTable("tableName")
	name := mustColumn(t, source, "name", "VARCHAR (100)", true)
	password := mustColumn(t, source, "password", "VARCHAR (32)", true)
	target := NewTable("tableName")

	sql, err := target.AddColumnSQL(name)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `tableName` ADD `name` VARCHAR (100) NOT NULL FIRST;", sql)

	sql, err = target.AddColumnSQL(password)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `tableName` ADD `password` VARCHAR (32) NOT NULL AFTER `name`;", sql)

	detached := NewColumn("loose", "int(11)")
	sql, err = target.AddColumnSQL(detached)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `tableName` ADD `loose` int(11);", sql)
}

func TestTable_AddColumnSQLAutoIncrementFoldsPrimaryKey(t *testing.T) {
	source := NewTable("source")
	id := mustColumn(t, source, "id", "int(11)", true)
	id.SetAutoIncrement(true)
	mustIndex(t, source, "PRIMARY", IndexPrimary, id)
	target := NewTable("target")

	sql, err := target.AddColumnSQL(id)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `target` ADD `id` int(11) NOT NULL AUTO_INCREMENT PRIMARY KEY FIRST;", sql)
	assert.Empty(t, source.Indexes(), "primary index must be removed from the column's table")

	// No primary index left: still valid, nothing else removed.
	_, err = target.AddColumnSQL(id)
	require.NoError(t, err)
}

func TestTable_AddColumnSQLFoldsUnnamedPrimaryKey(t *testing.T) {
	source := NewTable("source")
	id := mustColumn(t, source, "id", "int(11)", true)
	id.SetAutoIncrement(true)
	mustIndex(t, source, "", IndexPrimary, id)
	_, ok := source.Index(PrimaryKeyName)
	require.True(t, ok, "unnamed primary index is stored under the synthetic key")

	sql, err := NewTable("target").AddColumnSQL(id)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `target` ADD `id` int(11) NOT NULL AUTO_INCREMENT PRIMARY KEY FIRST;", sql)
	for _, idx := range source.Indexes() {
		assert.False(t, idx.Primary(), "primary index must be removed from the column's table")
	}
}

func TestTable_AddColumnSQLFoldsRetypedPrimaryKey(t *testing.T) {
	source := NewTable("t")
	id := mustColumn(t, source, "id", "int", false)
	id.SetAutoIncrement(true)
	idx := mustIndex(t, source, "", IndexKey, id)

	require.NoError(t, idx.SetType(IndexPrimary))
	got, ok := source.MySQLIndex(PrimaryKeyName)
	require.True(t, ok, "re-typed index must be re-keyed in its table")
	assert.Same(t, idx, got)

	sql, err := NewTable("t").AddColumnSQL(id)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `t` ADD `id` int AUTO_INCREMENT PRIMARY KEY FIRST;", sql)
	assert.Empty(t, source.Indexes())
}

func TestIndex_SetTypeRekeysAttachedIndex(t *testing.T) {
	tbl := NewTable("t")
	id := mustColumn(t, tbl, "id", "int", true)
	email := mustColumn(t, tbl, "email", "varchar(200)", true)
	mustIndex(t, tbl, "email", IndexUnique, email)
	first := mustIndex(t, tbl, "", IndexPrimary, id)
	second, err := NewIndex("", IndexKey)
	require.NoError(t, err)
	second.AddColumn(id)
	require.NoError(t, tbl.AddIndex(second))

	// Moving PK to FK keeps the index in place.
	require.NoError(t, first.SetType(IndexForeign))
	keys := make([]string, 0, 3)
	for _, i := range tbl.Indexes() {
		keys = append(keys, i.Key())
	}
	assert.Equal(t, []string{"email", ForeignKeyName, ""}, keys)

	// The FK slot is taken now.
	err = second.SetType(IndexForeign)
	require.Error(t, err)
	assert.True(t, sderrors.IsValidation(err))
	assert.Equal(t, sderrors.CodeDuplicateName, sderrors.GetCode(err))
	assert.Equal(t, IndexKey, second.Type())
	got, ok := tbl.MySQLIndex("")
	require.True(t, ok)
	assert.Same(t, second, got)

	// Named indexes keep their key whatever their type.
	named, _ := tbl.MySQLIndex("email")
	require.NoError(t, named.SetTypeName("KEY"))
	_, ok = tbl.Index("email")
	assert.True(t, ok)
}

func TestTable_ColumnAndIndexStatements(t *testing.T) {
	tbl := usersTable(t)
	name, _ := tbl.Column("name")
	pk, _ := tbl.Index("PRIMARY")
	email, _ := tbl.Index("email")

	sql, err := tbl.ChangeColumnSQL(name)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `users` CHANGE `name` `name` varchar(100) NOT NULL;", sql)
	assert.Equal(t, "ALTER TABLE `users` DROP `name`;", tbl.DropColumnSQL(name))
	assert.Equal(t, "DROP TABLE `users`;", tbl.DropTableSQL())

	sql, err = tbl.AddIndexSQL(email)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `users` ADD UNIQUE KEY `email` (`email`);", sql)

	sql, err = tbl.ChangeIndexSQL(email)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `users` DROP INDEX `email`, ADD UNIQUE KEY `email` (`email`);", sql)

	sql, err = tbl.ChangeIndexSQL(pk)
	require.NoError(t, err)
	assert.Equal(t, "ALTER TABLE `users` DROP PRIMARY KEY, ADD PRIMARY KEY (`id`);", sql)

	assert.Equal(t, "ALTER TABLE `users` DROP PRIMARY KEY;", tbl.DropIndexSQL(pk))
	assert.Equal(t, "ALTER TABLE `users` DROP INDEX `email`;", tbl.DropIndexSQL(email))
}

func TestTable_AddIndexSQLUnresolvedForeignKey(t *testing.T) {
	tbl := usersTable(t)
	email, _ := tbl.MySQLColumn("email")
	fk := mustIndex(t, tbl, "fk_email", IndexForeign, email)

	_, err := tbl.AddIndexSQL(fk)
	require.Error(t, err)
	assert.True(t, sderrors.IsGeneration(err))

	_, err = tbl.ChangeIndexSQL(fk)
	assert.True(t, sderrors.IsGeneration(err))
}

func TestTable_ExtraChanges(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		want   []schema.Change
	}{
		{"same engine", "InnoDB", "InnoDB", nil},
		{"source unset", "", "InnoDB", nil},
		{"different engine", "InnoDB", "MyISAM", []schema.Change{
			{SQL: "ALTER TABLE `t` ENGINE = InnoDB;", Kind: schema.ChangeChange, Table: "t"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := NewTable("t")
			source.Options.Engine = tt.source
			target := NewTable("t")
			target.Options.Engine = tt.target

			got, err := target.ExtraChanges(source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_RemoveColumnKeepsPositionsDense(t *testing.T) {
	tbl := NewTable("t")
	a := mustColumn(t, tbl, "a", "int(11)", false)
	mustColumn(t, tbl, "b", "int(11)", false)
	c := mustColumn(t, tbl, "c", "int(11)", false)
	d := mustColumn(t, tbl, "d", "int(11)", false)

	require.True(t, tbl.RemoveColumn("b"))
	assert.False(t, tbl.RemoveColumn("b"))

	assert.Equal(t, 0, a.Position())
	assert.Equal(t, 1, c.Position())
	assert.Equal(t, 2, d.Position())

	prev, ok := c.Previous()
	require.True(t, ok)
	assert.Equal(t, "a", prev.Name())
	next, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, "d", next.Name())
	_, ok = a.Previous()
	assert.False(t, ok)
	_, ok = d.Next()
	assert.False(t, ok)
}

func TestTable_DuplicateNames(t *testing.T) {
	tbl := usersTable(t)

	err := tbl.AddColumn(NewColumn("id", "int(11)"))
	require.Error(t, err)
	assert.True(t, sderrors.IsValidation(err))

	idx, err := NewIndex("email", IndexKey)
	require.NoError(t, err)
	err = tbl.AddIndex(idx)
	require.Error(t, err)
	assert.True(t, sderrors.IsValidation(err))

	db := NewDatabase("shop")
	require.NoError(t, db.AddTable(NewTable("users")))
	err = db.AddTable(NewTable("users"))
	assert.True(t, sderrors.IsValidation(err))
}

func TestDatabase_CloneSharesNothing(t *testing.T) {
	db := NewDatabase("shop")
	require.NoError(t, db.AddTable(usersTable(t)))

	clone := db.Clone()
	orig, _ := db.MySQLTable("users")
	copied, _ := clone.MySQLTable("users")
	require.NotSame(t, orig, copied)

	origSQL, err := orig.CreateTableSQL()
	require.NoError(t, err)
	copiedSQL, err := copied.CreateTableSQL()
	require.NoError(t, err)
	assert.Equal(t, origSQL, copiedSQL)

	require.True(t, copied.RemoveIndex("PRIMARY"))
	_, ok := orig.Index("PRIMARY")
	assert.True(t, ok, "removing from the clone must not touch the cloned database")

	name, _ := copied.MySQLColumn("name")
	name.SetNullable(true)
	origName, _ := orig.MySQLColumn("name")
	assert.False(t, *origName.Nullable)
}
