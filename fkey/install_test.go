package fkey_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"dictengine/catalog"
	"dictengine/dict"
	"dictengine/fkey"
	"dictengine/store/memstore"
)

func tableWithPK(name, colName string, notNull bool) *dict.Table {
	t := dict.NewTable(name)
	pType := dict.PType(0)
	if notNull {
		pType = dict.PTypeNotNull
	}
	col := &dict.Col{Ind: 0, MType: dict.MTypeInt, PType: pType, Len: 4, Name: colName}
	t.Cols = []*dict.Col{col}
	t.ColNames = []string{colName}
	t.NCols, t.NDef = 1, 1
	idx := &dict.Index{
		Name:  "PRIMARY",
		Type:  dict.IndexClustered | dict.IndexUnique,
		Table: t,
		NUniq: 1,
		Fields: []*dict.Field{
			{Col: dict.ColumnRef{Live: col}, Name: colName},
		},
	}
	t.Indexes = []*dict.Index{idx}
	return t
}

func TestInstallAssignsConstraintIDWhenUnset(t *testing.T) {
	s := memstore.New()
	parent := tableWithPK("test/parent", "id", true)
	child := tableWithPK("test/child", "parent_id", true)

	fk := &dict.Foreign{
		ForeignTable:        child,
		ForeignColNames:     []string{"parent_id"},
		ReferencedTableName: parent.Name,
		ReferencedColNames:  []string{"id"},
	}
	require.NoError(t, fkey.Install(context.Background(), s, child, fk))
	require.Equal(t, "test/constraint_1", fk.ID)

	rows := s.Rows(catalog.SysForeign)
	require.Len(t, rows, 1)
}

func TestInstallRejectsDuplicateUserSuppliedID(t *testing.T) {
	s := memstore.New()
	child := tableWithPK("test/child", "parent_id", true)
	existing := &dict.Foreign{ID: "test/fk1", ForeignColNames: []string{"parent_id"}}
	child.ForeignSet = []*dict.Foreign{existing}

	fk := &dict.Foreign{ID: "test/fk1", ForeignTable: child, ForeignColNames: []string{"parent_id"}}
	err := fkey.Install(context.Background(), s, child, fk)
	require.Error(t, err)
}

func TestInstallFailsWhenNoLeadingIndexExists(t *testing.T) {
	s := memstore.New()
	child := tableWithPK("test/child", "id", true)

	fk := &dict.Foreign{ForeignTable: child, ForeignColNames: []string{"nonexistent"}}
	err := fkey.Install(context.Background(), s, child, fk)
	require.Error(t, err)
}

func TestInstallRejectsSetNullOnNotNullColumn(t *testing.T) {
	s := memstore.New()
	child := tableWithPK("test/child", "parent_id", true) // NOT NULL

	fk := &dict.Foreign{
		ForeignTable:    child,
		ForeignColNames: []string{"parent_id"},
		Type:            dict.FKDeleteSetNull,
	}
	err := fkey.Install(context.Background(), s, child, fk)
	require.Error(t, err)
}

func TestDropDeletesBothSysForeignTables(t *testing.T) {
	s := memstore.New()
	parent := tableWithPK("test/parent", "id", true)
	child := tableWithPK("test/child", "parent_id", true)

	fk := &dict.Foreign{
		ID:                  "test/fk1",
		ForeignTable:        child,
		ForeignColNames:     []string{"parent_id"},
		ReferencedTableName: parent.Name,
		ReferencedColNames:  []string{"id"},
	}
	require.NoError(t, fkey.Install(context.Background(), s, child, fk))
	require.NoError(t, fkey.Drop(context.Background(), s, fk.ID))

	require.Empty(t, s.Rows(catalog.SysForeign))
	require.Empty(t, s.Rows(catalog.SysForeignCols))
}
