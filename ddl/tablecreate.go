// Package ddl implements the table-create and index-create state machines
// that turn a completed in-memory dict.Table/dict.Index into persistent
// catalog rows, one state per driver call.
package ddl

import (
	"context"

	"dictengine/catalog"
	"dictengine/dict"
	"dictengine/dicterr"
	"dictengine/store"
)

// TableCreateState is one state of the table-create driver.
type TableCreateState int

const (
	TableStateBuildTableDef TableCreateState = iota
	TableStateBuildColDef
	TableStateBuildVColDef
	TableStateAddToCache
	TableStateCompleted
)

// ChildWork names the system-table insert the caller's store.Store must
// perform for the step that just ran, so tests can single-step the driver.
type ChildWork struct {
	Table string
	Tuple store.Tuple
}

// StepResult is what one Advance call produces.
type StepResult struct {
	Done  bool
	Yield *ChildWork
}

// TableCreateNode drives a single table through BUILD_TABLE_DEF ->
// BUILD_COL_DEF -> BUILD_V_COL_DEF -> ADD_TO_CACHE.
type TableCreateNode struct {
	Table *dict.Table
	State TableCreateState

	// NeedsOwnTablespace requests a fresh file-per-table space instead of
	// attaching to the shared system tablespace.
	NeedsOwnTablespace bool
	SystemSpaceID      uint32

	colPos  int // next non-virtual column to emit, 0..NDef-NSysCols
	vcolPos int // next virtual column to emit a SYS_COLUMNS row for

	virtualTupleVCol int // index of the v-col currently emitting SYS_VIRTUAL rows
	virtualTupleBase int // next base-column row within that v-col
}

// NewTableCreateNode starts a new table-create driver for t.
func NewTableCreateNode(t *dict.Table, needsOwnTablespace bool, systemSpaceID uint32) *TableCreateNode {
	return &TableCreateNode{Table: t, NeedsOwnTablespace: needsOwnTablespace, SystemSpaceID: systemSpaceID}
}

// Advance runs exactly one state of the table-create driver.
func (n *TableCreateNode) Advance(ctx context.Context, s store.Store) (StepResult, error) {
	switch n.State {
	case TableStateBuildTableDef:
		return n.advanceBuildTableDef(ctx, s)
	case TableStateBuildColDef:
		return n.advanceBuildColDef()
	case TableStateBuildVColDef:
		return n.advanceBuildVColDef()
	case TableStateAddToCache:
		n.Table.Evictable = true
		n.State = TableStateCompleted
		return StepResult{Done: true}, nil
	default:
		return StepResult{Done: true}, nil
	}
}

func (n *TableCreateNode) advanceBuildTableDef(ctx context.Context, s store.Store) (StepResult, error) {
	id, err := s.NewTableID(ctx)
	if err != nil {
		return StepResult{}, err
	}
	n.Table.ID = id

	if n.NeedsOwnTablespace {
		spaceID, ok, err := s.NewSpaceID(ctx)
		if err != nil {
			return StepResult{}, err
		}
		if !ok {
			return StepResult{}, dicterr.New(dicterr.OutOfResources, dicterr.CategoryResource, n.Table.Name,
				"tablespace id space exhausted")
		}
		n.Table.SpaceID = spaceID
		if err := s.CreateTablespace(ctx, spaceID, n.Table.Name); err != nil {
			return StepResult{}, err
		}
	} else {
		n.Table.SpaceID = n.SystemSpaceID
	}

	tuple := catalog.SysTablesTuple(n.Table)
	n.State = TableStateBuildColDef
	return StepResult{Yield: &ChildWork{Table: catalog.SysTables, Tuple: tuple}}, nil
}

// advanceBuildColDef walks non-virtual columns, then virtual columns,
// emitting one SYS_COLUMNS row per column.
func (n *TableCreateNode) advanceBuildColDef() (StepResult, error) {
	nonVirtual := n.Table.NDef - dict.NSysCols
	if n.colPos < nonVirtual {
		col := n.Table.Cols[n.colPos]
		tuple := catalog.SysColumnsTuple(n.Table, col, uint32(n.colPos))
		n.colPos++
		return StepResult{Yield: &ChildWork{Table: catalog.SysColumns, Tuple: tuple}}, nil
	}
	if n.vcolPos < len(n.Table.VCols) {
		v := n.Table.VCols[n.vcolPos]
		tuple := catalog.SysVColumnsTuple(n.Table, v)
		n.vcolPos++
		return StepResult{Yield: &ChildWork{Table: catalog.SysColumns, Tuple: tuple}}, nil
	}
	n.State = TableStateBuildVColDef
	return StepResult{}, nil
}

// advanceBuildVColDef emits one SYS_VIRTUAL row per (virtual column, base
// column) pair, skipping virtual columns with no base columns
//
func (n *TableCreateNode) advanceBuildVColDef() (StepResult, error) {
	for n.virtualTupleVCol < len(n.Table.VCols) {
		v := n.Table.VCols[n.virtualTupleVCol]
		rows := catalog.SysVirtualTuples(n.Table, v)
		if n.virtualTupleBase < len(rows) {
			tuple := rows[n.virtualTupleBase]
			n.virtualTupleBase++
			return StepResult{Yield: &ChildWork{Table: catalog.SysVirtual, Tuple: tuple}}, nil
		}
		n.virtualTupleVCol++
		n.virtualTupleBase = 0
	}
	n.State = TableStateAddToCache
	return StepResult{}, nil
}
