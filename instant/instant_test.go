package instant_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dictengine/dict"
	"dictengine/instant"
)

// buildTable constructs a table with a single-column PK plus one user
// column "a", clustered index fields = [id, a].
func buildTable() *dict.Table {
	t := dict.NewTable("test/t1")
	id := &dict.Col{Ind: 0, MType: dict.MTypeInt, PType: dict.PTypeNotNull, Len: 4, Name: "id"}
	a := &dict.Col{Ind: 1, MType: dict.MTypeInt, Len: 4, Name: "a"}
	t.Cols = []*dict.Col{id, a}
	t.ColNames = []string{"id", "a"}
	t.NCols, t.NDef = 2, 2

	idx := &dict.Index{
		Name:  "PRIMARY",
		Type:  dict.IndexClustered | dict.IndexUnique,
		Table: t,
		NUniq: 1,
		Fields: []*dict.Field{
			{Col: dict.ColumnRef{Live: id}, Name: "id"},
			{Col: dict.ColumnRef{Live: a}, Name: "a"},
		},
	}
	idx.NDef = len(idx.Fields)
	t.Indexes = []*dict.Index{idx}
	t.Heap = &dict.Arena{}
	return t
}

func TestFeasibleRejectsNotNullWithoutDefault(t *testing.T) {
	table := buildTable()
	target := buildTable()
	added := &dict.Col{Ind: 2, MType: dict.MTypeInt, PType: dict.PTypeNotNull, Len: 4, Name: "b", AddedInstantly: true}
	target.Cols = append(target.Cols, added)
	target.ColNames = append(target.ColNames, "b")
	target.NCols, target.NDef = 3, 3

	colMap := dict.NewColMap(2)
	colMap[0], colMap[1] = 0, 1

	ok, reason := instant.Feasible(table, target, colMap, instant.Options{})
	require.False(t, ok)
	require.Equal(t, instant.ReasonNotNullWithoutDefault, reason)
}

func TestFeasibleAcceptsPureAppend(t *testing.T) {
	table := buildTable()
	target := buildTable()
	added := &dict.Col{Ind: 2, MType: dict.MTypeInt, Len: 4, Name: "b", AddedInstantly: true}
	target.Cols = append(target.Cols, added)
	target.ColNames = append(target.ColNames, "b")
	target.NCols, target.NDef = 3, 3

	colMap := dict.NewColMap(2)
	colMap[0], colMap[1] = 0, 1

	ok, reason := instant.Feasible(table, target, colMap, instant.Options{})
	require.True(t, ok)
	require.Equal(t, instant.ReasonNone, reason)
}

func TestPrepareAndColumnPureAppend(t *testing.T) {
	table := buildTable()

	image := buildTable()
	added := &dict.Col{Ind: 2, MType: dict.MTypeInt, Len: 4, Name: "b", AddedInstantly: true, DefVal: &dict.DefVal{Len: dict.UNIVSQLNull}}
	image.Cols = append(image.Cols, added)
	image.ColNames = append(image.ColNames, "b")
	image.NCols, image.NDef = 3, 3
	image.Indexes[0].Fields = append(image.Indexes[0].Fields, &dict.Field{Col: dict.ColumnRef{Live: added}, Name: "b"})

	colMap := dict.NewColMap(2)
	colMap[0], colMap[1] = 0, 1

	prepared, err := instant.PrepareInstant(table, image, colMap)
	require.NoError(t, err)
	require.True(t, prepared.PureAppend)

	metadataNeeded, err := instant.Column(table, prepared, colMap)
	require.NoError(t, err)
	require.False(t, metadataNeeded) // pure append elides the metadata record

	require.Equal(t, 3, table.NCols)
	require.Equal(t, "b", table.Cols[2].Name)
	require.True(t, table.Cols[2].IsAdded())
	require.NoError(t, table.Validate())
}

func TestRollbackIsNoopBeforeColumnRuns(t *testing.T) {
	table := buildTable()
	snap := table.TakeSnapshot()
	colMap := dict.NewColMap(2)
	colMap[0], colMap[1] = 0, 1

	instant.Rollback(table, snap, colMap)
	require.Equal(t, 2, table.NCols)
}
