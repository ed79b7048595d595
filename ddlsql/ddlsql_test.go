package ddlsql_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dictengine/dict"
	"dictengine/ddlsql"
	"dictengine/instant"
)

func TestParseCreateTableWithPrimaryKey(t *testing.T) {
	p := ddlsql.NewParser()
	table, fks, err := p.ParseCreateTable(`CREATE TABLE orders (
		id INT NOT NULL,
		customer VARCHAR(64) NOT NULL,
		total INT,
		PRIMARY KEY (id)
	)`)
	require.NoError(t, err)
	require.Empty(t, fks)
	require.NoError(t, table.Validate())

	require.Equal(t, "orders", table.Name)
	require.Equal(t, 3+dict.NSysCols, table.NCols)

	clustered := table.Clustered()
	require.Equal(t, "PRIMARY", clustered.Name)
	require.Equal(t, 1, clustered.NUniq)
	require.Len(t, clustered.Fields, 3)
	require.Equal(t, "id", clustered.Fields[0].Name)
}

func TestParseCreateTableWithoutPrimaryKeyGetsGeneratedRowID(t *testing.T) {
	p := ddlsql.NewParser()
	table, _, err := p.ParseCreateTable(`CREATE TABLE events (
		payload VARCHAR(128)
	)`)
	require.NoError(t, err)
	require.NoError(t, table.Validate())

	clustered := table.Clustered()
	require.Equal(t, 1, clustered.NUniq)
	require.Len(t, clustered.Fields, 2)
	require.Equal(t, "DB_ROW_ID", clustered.Fields[0].Name)
	require.True(t, clustered.Type&dict.IndexClustered != 0)
	require.True(t, clustered.Type&dict.IndexUnique != 0)
}

func TestParseCreateTableWithForeignKey(t *testing.T) {
	p := ddlsql.NewParser()
	table, fks, err := p.ParseCreateTable(`CREATE TABLE line_items (
		id INT NOT NULL,
		order_id INT NOT NULL,
		PRIMARY KEY (id),
		FOREIGN KEY (order_id) REFERENCES orders (id) ON DELETE CASCADE
	)`)
	require.NoError(t, err)
	require.NoError(t, table.Validate())
	require.Len(t, fks, 1)

	fk := fks[0]
	require.Equal(t, []string{"order_id"}, fk.ForeignColNames)
	require.Equal(t, "orders", fk.ReferencedTableName)
	require.Equal(t, []string{"id"}, fk.ReferencedColNames)
	require.True(t, fk.Type&dict.FKDeleteCascade != 0)
	require.Same(t, table, fk.ForeignTable)
}

func TestParseCreateTableSecondaryIndexAppendsClusteredKey(t *testing.T) {
	p := ddlsql.NewParser()
	table, _, err := p.ParseCreateTable(`CREATE TABLE accounts (
		id INT NOT NULL,
		email VARCHAR(128) NOT NULL,
		PRIMARY KEY (id),
		KEY idx_email (email)
	)`)
	require.NoError(t, err)
	require.NoError(t, table.Validate())
	require.Len(t, table.Indexes, 2)

	sec := table.Indexes[1]
	require.Equal(t, "idx_email", sec.Name)
	require.Len(t, sec.Fields, 2)
	require.Equal(t, "email", sec.Fields[0].Name)
	require.Equal(t, "id", sec.Fields[1].Name)
	require.Equal(t, 2, sec.NUniq)
}

func TestParseAlterTableAddColumnIsPureAppend(t *testing.T) {
	p := ddlsql.NewParser()
	table, _, err := p.ParseCreateTable(`CREATE TABLE widgets (
		id INT NOT NULL,
		name VARCHAR(32) NOT NULL,
		PRIMARY KEY (id)
	)`)
	require.NoError(t, err)

	image, colMap, _, err := p.ParseAlterTable(table, `ALTER TABLE widgets ADD COLUMN weight INT NULL`)
	require.NoError(t, err)
	require.NoError(t, image.Validate())
	require.Equal(t, table.NCols+1, image.NCols)

	userCols := table.NCols - dict.NSysCols
	for i := 0; i < userCols; i++ {
		newPos, ok := colMap.NewPos(i)
		require.True(t, ok)
		require.Equal(t, i, newPos)
	}
	// System columns stay at the tail and shift by the number of added
	// columns.
	for i := userCols; i < table.NCols; i++ {
		newPos, ok := colMap.NewPos(i)
		require.True(t, ok)
		require.Equal(t, i+1, newPos)
	}

	ok, reason := instant.Feasible(table, image, colMap, instant.Options{})
	require.True(t, ok)
	require.Equal(t, instant.ReasonNone, reason)

	prepared, err := instant.PrepareInstant(table, image, colMap)
	require.NoError(t, err)
	require.True(t, prepared.PureAppend)

	_, err = instant.Column(table, prepared, colMap)
	require.NoError(t, err)
	require.NoError(t, table.Validate())

	added := table.Cols[len(table.Cols)-dict.NSysCols-1]
	require.Equal(t, "weight", added.Name)
	require.True(t, added.IsAdded())
}

func TestParseAlterTableDropColumnRemovesSurvivor(t *testing.T) {
	p := ddlsql.NewParser()
	table, _, err := p.ParseCreateTable(`CREATE TABLE widgets (
		id INT NOT NULL,
		name VARCHAR(32) NOT NULL,
		note VARCHAR(32),
		PRIMARY KEY (id)
	)`)
	require.NoError(t, err)

	image, colMap, _, err := p.ParseAlterTable(table, `ALTER TABLE widgets DROP COLUMN note`)
	require.NoError(t, err)
	require.NoError(t, image.Validate())
	require.Equal(t, table.NCols-1, image.NCols)

	noteOld := table.Cols[2]
	_, ok := colMap.NewPos(noteOld.Ind)
	require.False(t, ok)
}

func TestParseAlterTableModifyColumnWidensLength(t *testing.T) {
	p := ddlsql.NewParser()
	table, _, err := p.ParseCreateTable(`CREATE TABLE widgets (
		id INT NOT NULL,
		name VARCHAR(32) NOT NULL,
		PRIMARY KEY (id)
	)`)
	require.NoError(t, err)

	image, colMap, _, err := p.ParseAlterTable(table, `ALTER TABLE widgets MODIFY COLUMN name VARCHAR(64) NOT NULL`)
	require.NoError(t, err)
	require.NoError(t, image.Validate())

	newPos, ok := colMap.NewPos(table.Cols[1].Ind)
	require.True(t, ok)
	require.Equal(t, uint16(64), image.Cols[newPos].Len)
	require.True(t, dict.CompatibleForInstant(table.Cols[1], image.Cols[newPos]))
}

func TestParseAlterTableRejectsUnknownColumn(t *testing.T) {
	p := ddlsql.NewParser()
	table, _, err := p.ParseCreateTable(`CREATE TABLE widgets (
		id INT NOT NULL,
		PRIMARY KEY (id)
	)`)
	require.NoError(t, err)

	_, _, _, err = p.ParseAlterTable(table, `ALTER TABLE widgets DROP COLUMN missing`)
	require.Error(t, err)
}
