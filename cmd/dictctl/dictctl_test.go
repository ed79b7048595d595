package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func runDictctl(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestCreateTableAgainstMemstore(t *testing.T) {
	out, err := runDictctl(t, "create-table",
		"--sql", "CREATE TABLE widgets (id INT NOT NULL, name VARCHAR(64) NOT NULL, PRIMARY KEY (id))")
	require.NoError(t, err)
	require.Contains(t, out, "created table widgets")
}

func TestCreateTableRejectsBadSQL(t *testing.T) {
	_, err := runDictctl(t, "create-table", "--sql", "not even sql")
	require.Error(t, err)
}

func TestCreateTableRequiresSQLFlag(t *testing.T) {
	_, err := runDictctl(t, "create-table")
	require.Error(t, err)
}

func TestInspectPrintsShapeWithoutTouchingAStore(t *testing.T) {
	out, err := runDictctl(t, "inspect",
		"--sql", "CREATE TABLE widgets (id INT NOT NULL, qty INT, PRIMARY KEY (id))")
	require.NoError(t, err)
	require.Contains(t, out, "table widgets")
	require.Contains(t, out, "col id")
	require.Contains(t, out, "clustered")
}

func TestBootstrapReportsCreatedTables(t *testing.T) {
	out, err := runDictctl(t, "bootstrap")
	require.NoError(t, err)
	require.Contains(t, out, "SYS_FOREIGN")
	require.Contains(t, out, "created")
}

func TestCreateIndexRequiresColumns(t *testing.T) {
	_, err := runDictctl(t, "create-index",
		"--table-sql", "CREATE TABLE widgets (id INT NOT NULL, name VARCHAR(64) NOT NULL, PRIMARY KEY (id))")
	require.Error(t, err)
}

func TestCreateIndexAddsSecondaryIndex(t *testing.T) {
	out, err := runDictctl(t, "create-index",
		"--table-sql", "CREATE TABLE widgets (id INT NOT NULL, name VARCHAR(64) NOT NULL, PRIMARY KEY (id))",
		"--columns", "name",
		"--name", "idx_name")
	require.NoError(t, err)
	require.Contains(t, out, "created index idx_name on widgets")
}

func TestCreateIndexRejectsUnknownColumn(t *testing.T) {
	_, err := runDictctl(t, "create-index",
		"--table-sql", "CREATE TABLE widgets (id INT NOT NULL, name VARCHAR(64) NOT NULL, PRIMARY KEY (id))",
		"--columns", "nope")
	require.Error(t, err)
}

func TestAlterInstantPureAppend(t *testing.T) {
	out, err := runDictctl(t, "alter-instant",
		"--table-sql", "CREATE TABLE widgets (id INT NOT NULL, name VARCHAR(64) NOT NULL, PRIMARY KEY (id))",
		"--alter-sql", "ALTER TABLE widgets ADD COLUMN qty INT")
	require.NoError(t, err)
	require.Contains(t, out, "pure_append=true")
	require.Contains(t, out, "columns=")
}

func TestAlterInstantRequiresBothSQLFlags(t *testing.T) {
	_, err := runDictctl(t, "alter-instant", "--table-sql", "CREATE TABLE t (id INT NOT NULL, PRIMARY KEY (id))")
	require.Error(t, err)
}
