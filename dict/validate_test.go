package dict

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// newMinimalTable builds a table with one clustered index over a single
// integer primary-key column plus the three system columns, valid under
// Validate.
func newMinimalTable() *Table {
	t := NewTable("test/t1")
	pk := &Col{Ind: 0, MType: MTypeInt, PType: PTypeNotNull, Len: 4, Name: "id"}
	t.Cols = []*Col{pk}
	t.ColNames = []string{"id"}
	t.NCols, t.NDef = 1, 1

	idx := &Index{
		Name:  "PRIMARY",
		Type:  IndexClustered | IndexUnique,
		Table: t,
		NUniq: 1,
		Fields: []*Field{
			{Col: ColumnRef{Live: pk}, Name: "id"},
		},
	}
	idx.NDef = len(idx.Fields)
	t.Indexes = []*Index{idx}
	return t
}

func TestValidateMinimalTable(t *testing.T) {
	tbl := newMinimalTable()
	require.NoError(t, tbl.Validate())
}

func TestValidateRejectsColumnCountMismatch(t *testing.T) {
	tbl := newMinimalTable()
	tbl.NDef = tbl.NCols + 1
	require.Error(t, tbl.Validate())
}

func TestValidateRejectsMissingClusteredIndex(t *testing.T) {
	tbl := newMinimalTable()
	tbl.Indexes[0].Type = IndexUnique
	require.Error(t, tbl.Validate())
}

func TestValidateRejectsClusteredIndexNotFirst(t *testing.T) {
	tbl := newMinimalTable()
	secondary := &Index{Name: "sec", Type: IndexUnique, Table: tbl, NUniq: 1}
	tbl.Indexes = []*Index{secondary, tbl.Indexes[0]}
	require.Error(t, tbl.Validate())
}

func TestValidateRejectsVColDependingOnDroppedColumn(t *testing.T) {
	tbl := newMinimalTable()
	dropped := &Col{Ind: 1, Name: "old", Dropped: true}
	tbl.VCols = []*VCol{
		{
			MCol:    Col{Ind: 0, Name: "gen"},
			BaseCol: []BaseCol{{Col: dropped}},
		},
	}
	require.Error(t, tbl.Validate())
}
