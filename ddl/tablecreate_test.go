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

// buildMinimalTable constructs T = { name, cols = [id INT NOT NULL, a
// VARCHAR(32)], clustered = PRIMARY KEY (id), flags = COMPACT }, matching
// that scenario.
func buildMinimalTable() *dict.Table {
	t := dict.NewTable("db/t")
	t.Flags = dict.FlagCompact

	id := &dict.Col{Ind: 0, MType: dict.MTypeInt, PType: dict.PTypeNotNull, Len: 4, Name: "id"}
	a := &dict.Col{Ind: 1, MType: dict.MTypeVarchar, Len: 32, Name: "a"}
	t.Cols = []*dict.Col{id, a}
	t.ColNames = []string{"id", "a"}
	t.NCols, t.NDef = 2, 2
	t.AddSystemColumns()

	clustered := &dict.Index{
		Name:  "PRIMARY",
		Type:  dict.IndexClustered | dict.IndexUnique,
		Table: t,
		NUniq: 1,
		Fields: []*dict.Field{
			{Col: dict.ColumnRef{Live: id}, Name: "id"},
		},
	}
	clustered.NDef = len(clustered.Fields)
	t.Indexes = []*dict.Index{clustered}
	return t
}

func TestRunTableCreateInsertsExpectedCatalogRows(t *testing.T) {
	s := memstore.New()
	tbl := buildMinimalTable()

	node := ddl.NewTableCreateNode(tbl, false, 0)
	err := ddl.RunTableCreate(context.Background(), s, node)
	require.NoError(t, err)
	require.True(t, tbl.Evictable)

	sysTables := s.Rows(catalog.SysTables)
	require.Len(t, sysTables, 1)
	id, _ := sysTables[0].Get("ID")
	require.Equal(t, tbl.ID, id)

	nCols, _ := sysTables[0].Get("N_COLS")
	require.Equal(t, catalog.EncodeNCol(2, 0, true), nCols)

	sysColumns := s.Rows(catalog.SysColumns)
	require.Len(t, sysColumns, 2)
	pos0, _ := sysColumns[0].Get("POS")
	pos1, _ := sysColumns[1].Get("POS")
	require.EqualValues(t, 0, pos0)
	require.EqualValues(t, 1, pos1)
}

func TestRunTableCreateAssignsSystemSpaceWhenNotFilePerTable(t *testing.T) {
	s := memstore.New()
	tbl := buildMinimalTable()

	node := ddl.NewTableCreateNode(tbl, false, 7)
	require.NoError(t, ddl.RunTableCreate(context.Background(), s, node))
	require.EqualValues(t, 7, tbl.SpaceID)
}

func TestRunTableCreateEmitsSysVirtualForGeneratedColumns(t *testing.T) {
	s := memstore.New()
	tbl := buildMinimalTable()

	base := tbl.Cols[1]
	gen := &dict.Col{Ind: 0, MType: dict.MTypeInt, Name: "gen", PType: dict.PTypeVirtual}
	v := &dict.VCol{
		MCol:    *gen,
		VPos:    0,
		BaseCol: []dict.BaseCol{{Col: base}},
	}
	tbl.VCols = []*dict.VCol{v}
	tbl.NVCols, tbl.NVDef = 1, 1

	node := ddl.NewTableCreateNode(tbl, false, 0)
	require.NoError(t, ddl.RunTableCreate(context.Background(), s, node))

	sysVirtual := s.Rows(catalog.SysVirtual)
	require.Len(t, sysVirtual, 1)
	basePos, _ := sysVirtual[0].Get("BASE_POS")
	require.EqualValues(t, base.Ind, basePos)
}

func TestRunTableCreateOutOfResourcesWhenSpaceIDsExhausted(t *testing.T) {
	s := memstore.New()
	s.ExhaustSpaceIDs()
	tbl := buildMinimalTable()

	node := ddl.NewTableCreateNode(tbl, true, 0)
	err := ddl.RunTableCreate(context.Background(), s, node)
	require.Error(t, err)
}
