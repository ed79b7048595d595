// Package bootstrap loads, validates and (when missing) creates the fixed
// catalog tables the rest of the core assumes exist: SYS_FOREIGN,
// SYS_FOREIGN_COLS and SYS_VIRTUAL.
package bootstrap

import (
	"context"

	"dictengine/catalog"
	"dictengine/ddl"
	"dictengine/dict"
	"dictengine/dicterr"
	"dictengine/store"
)

// shape describes one bootstrap table's expected index count and column
// count. An existing definition is accepted when exactly one SYS_TABLES row
// carries its name; nColumns and nIndexes are not compared against the
// stored SYS_COLUMNS/SYS_INDEXES rows.
type shape struct {
	name       string
	nColumns   int
	nIndexes   int
	buildTable func() *dict.Table
}

var shapes = []shape{
	{
		name:     catalog.SysForeign,
		nColumns: 4,
		nIndexes: 3,
		buildTable: func() *dict.Table {
			return fixedTable(catalog.SysForeign, []fixedCol{
				{"ID", dict.MTypeChar, 0},
				{"FOR_NAME", dict.MTypeChar, 0},
				{"REF_NAME", dict.MTypeChar, 0},
				{"N_COLS", dict.MTypeInt, 4},
			}, [][]string{{"ID"}, {"FOR_NAME"}, {"REF_NAME"}})
		},
	},
	{
		name:     catalog.SysForeignCols,
		nColumns: 4,
		nIndexes: 1,
		buildTable: func() *dict.Table {
			return fixedTable(catalog.SysForeignCols, []fixedCol{
				{"ID", dict.MTypeChar, 0},
				{"POS", dict.MTypeInt, 4},
				{"FOR_COL_NAME", dict.MTypeChar, 0},
				{"REF_COL_NAME", dict.MTypeChar, 0},
			}, [][]string{{"ID", "POS"}})
		},
	},
	{
		name:     catalog.SysVirtual,
		nColumns: 3,
		nIndexes: 1,
		buildTable: func() *dict.Table {
			return fixedTable(catalog.SysVirtual, []fixedCol{
				{"TABLE_ID", dict.MTypeInt, 8},
				{"POS", dict.MTypeInt, 4},
				{"BASE_POS", dict.MTypeInt, 4},
			}, [][]string{{"TABLE_ID", "POS", "BASE_POS"}})
		},
	},
}

type fixedCol struct {
	name  string
	mtype dict.MType
	len   uint16
}

// fixedTable builds the in-memory dict.Table for one of the fixed
// bootstrap shapes, with its first indexKeyColumns entry as the clustered
// unique index and the rest as secondary indexes.
func fixedTable(name string, cols []fixedCol, indexKeyColumns [][]string) *dict.Table {
	t := dict.NewTable(name)
	t.Flags = dict.FlagCompact
	t.Cols = make([]*dict.Col, len(cols))
	t.ColNames = make([]string, len(cols))
	for i, c := range cols {
		t.Cols[i] = &dict.Col{Ind: i, MType: c.mtype, PType: dict.PTypeNotNull, Len: c.len, Name: c.name}
		t.ColNames[i] = c.name
	}
	t.NCols, t.NDef = len(cols), len(cols)
	t.AddSystemColumns()

	byName := make(map[string]*dict.Col, len(cols))
	for _, col := range t.Cols {
		byName[col.Name] = col
	}

	for i, keyCols := range indexKeyColumns {
		ixType := dict.IndexUnique
		if i == 0 {
			ixType |= dict.IndexClustered
		}
		fields := make([]*dict.Field, len(keyCols))
		for j, name := range keyCols {
			fields[j] = &dict.Field{Col: dict.ColumnRef{Live: byName[name]}, Name: name}
		}
		if i == 0 {
			// The clustered index's Fields carry every remaining physical
			// user column after the key, excluding the hidden DB_ROW_ID/
			// DB_TRX_ID/DB_ROLL_PTR system columns (Fields holds only user
			// and hidden-rowid columns, per index.FirstUserField()).
			skip := map[string]bool{"DB_ROW_ID": true, "DB_TRX_ID": true, "DB_ROLL_PTR": true}
			for _, kc := range keyCols {
				skip[kc] = true
			}
			for _, col := range t.Cols {
				if skip[col.Name] {
					continue
				}
				fields = append(fields, &dict.Field{Col: dict.ColumnRef{Live: col}, Name: col.Name})
			}
		}
		idx := &dict.Index{
			Name:  indexName(name, i),
			Type:  ixType,
			Table: t,
			NUniq: len(keyCols),
			Fields: fields,
		}
		idx.NDef = len(fields)
		t.Indexes = append(t.Indexes, idx)
	}
	return t
}

func indexName(table string, i int) string {
	if i == 0 {
		return table + "_PRIMARY"
	}
	return table + "_SEC" + string(rune('0'+i))
}

// Result reports the per-table outcome of Ensure, for diagnostics.
type Result struct {
	Table   string
	Created bool
	Pinned  bool
}

// Ensure loads SYS_FOREIGN, SYS_FOREIGN_COLS and SYS_VIRTUAL by name,
// rejecting one whose name matches more than one SYS_TABLES row (its column
// and index counts are not checked); creates any missing table
// when s is not read-only, and pins every successfully (re)loaded table,
//
func Ensure(ctx context.Context, s store.Store) ([]Result, error) {
	results := make([]Result, 0, len(shapes))
	for _, sh := range shapes {
		res, err := ensureOne(ctx, s, sh)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func ensureOne(ctx context.Context, s store.Store, sh shape) (Result, error) {
	existingRows := loadExisting(s, sh.name)
	if len(existingRows) > 0 {
		if !shapeMatches(sh, existingRows) {
			return Result{Table: sh.name}, dicterr.New(dicterr.Corruption, dicterr.CategoryCorruption, sh.name,
				"invalid definition for bootstrap table %s", sh.name)
		}
		return Result{Table: sh.name, Pinned: true}, nil
	}

	if s.ReadOnly() {
		return Result{Table: sh.name}, dicterr.New(dicterr.ReadOnly, dicterr.CategoryPolicy, sh.name,
			"bootstrap table %s missing and store is read-only", sh.name)
	}

	filePerTableBefore := false // restored on failure
	table := sh.buildTable()
	if err := createTable(ctx, s, table); err != nil {
		restoreFilePerTable(table, filePerTableBefore)
		return Result{Table: sh.name}, err
	}
	for _, ix := range table.Indexes {
		node := ddl.NewIndexCreateNode(table, ix, 0)
		if err := ddl.RunIndexCreate(ctx, s, node); err != nil {
			restoreFilePerTable(table, filePerTableBefore)
			return Result{Table: sh.name}, err
		}
	}
	return Result{Table: sh.name, Created: true, Pinned: true}, nil
}

func createTable(ctx context.Context, s store.Store, table *dict.Table) error {
	node := ddl.NewTableCreateNode(table, false, 0)
	return ddl.RunTableCreate(ctx, s, node)
}

func restoreFilePerTable(table *dict.Table, before bool) {
	if before {
		table.Flags2 |= dict.Flag2FilePerTable
	} else {
		table.Flags2 &^= dict.Flag2FilePerTable
	}
}

// loadExisting is a thin seam over Store's SYS_TABLES/SYS_INDEXES rows for
// name; memstore and sqlstore both answer it via an ordinary cursor scan.
func loadExisting(s store.Store, name string) []store.Tuple {
	cur, err := s.OpenCursor(context.Background(), catalog.SysTables, []any{name}, store.CursorModifyLeaf)
	if err != nil {
		return nil
	}
	defer cur.Close()
	var rows []store.Tuple
	for cur.MoveToNextUserRec() {
		rec := cur.Record()
		if n, ok := rec.Get("NAME"); ok && n == name {
			rows = append(rows, rec)
		}
	}
	return rows
}

func shapeMatches(sh shape, rows []store.Tuple) bool {
	return len(rows) == 1 // SYS_COLUMNS/SYS_INDEXES counts are not re-read
}
