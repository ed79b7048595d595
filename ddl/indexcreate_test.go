package ddl_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"dictengine/catalog"
	"dictengine/ddl"
	"dictengine/dict"
	"dictengine/store/memstore"
)

func createMinimalTable(t *testing.T, s *memstore.Store) *dict.Table {
	tbl := buildMinimalTable()
	node := ddl.NewTableCreateNode(tbl, false, 1)
	require.NoError(t, ddl.RunTableCreate(context.Background(), s, node))
	return tbl
}

func TestRunIndexCreateStampsPageNoIntoSysIndexes(t *testing.T) {
	s := memstore.New()
	tbl := createMinimalTable(t, s)

	ix := tbl.Indexes[0]
	node := ddl.NewIndexCreateNode(tbl, ix, 1)
	require.NoError(t, ddl.RunIndexCreate(context.Background(), s, node))

	require.NotEqual(t, dict.FilNull, ix.Page)

	rows := s.Rows(catalog.SysIndexes)
	require.Len(t, rows, 1)
	pageNo, _ := rows[0].Get("PAGE_NO")
	require.Equal(t, ix.Page, pageNo)

	nFields, _ := rows[0].Get("N_FIELDS")
	require.EqualValues(t, len(ix.Fields), nFields)
}

func TestRunIndexCreateEmitsOneSysFieldsRowPerField(t *testing.T) {
	s := memstore.New()
	tbl := createMinimalTable(t, s)
	ix := tbl.Indexes[0]

	node := ddl.NewIndexCreateNode(tbl, ix, 1)
	require.NoError(t, ddl.RunIndexCreate(context.Background(), s, node))

	rows := s.Rows(catalog.SysFields)
	require.Len(t, rows, len(ix.Fields))
	pos, _ := rows[0].Get("POS")
	require.EqualValues(t, 0, pos)
}

func TestRunIndexCreateSkipsTreeWhenTableUnreadable(t *testing.T) {
	s := memstore.New()
	tbl := createMinimalTable(t, s)
	s.MarkUnreadable(tbl.SpaceID)
	ix := tbl.Indexes[0]

	node := ddl.NewIndexCreateNode(tbl, ix, 1)
	require.NoError(t, ddl.RunIndexCreate(context.Background(), s, node))
	require.Equal(t, dict.FilNull, ix.Page)
}

func TestRunIndexCreateSkipsTreeForFTSIndex(t *testing.T) {
	s := memstore.New()
	tbl := createMinimalTable(t, s)

	fts := &dict.Index{Name: "ft_idx", Type: dict.IndexFTS, Table: tbl}
	node := ddl.NewIndexCreateNode(tbl, fts, 1)
	require.NoError(t, ddl.RunIndexCreate(context.Background(), s, node))
	require.Equal(t, dict.FilNull, fts.Page)
}
