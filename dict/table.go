// Package dict is the in-memory dictionary cache: the structured
// representation of tables, columns, indexes, fields, virtual columns and
// foreign keys that mirrors the persistent catalog. It is the data model
// the ddl, instant, catalog and fkey packages all operate on.
package dict

// System-column count and well-known ordinals, matching DATA_N_SYS_COLS.
const (
	NSysCols  = 3
	SysRowID  = 0
	SysTrxID  = 1
	SysRollPtr = 2
)

// Table flag bits (flags), matching the ROW_FORMAT / tablespace bits.
type TableFlag uint32

const (
	FlagCompact TableFlag = 1 << iota
	FlagAtomicBlobs
	FlagCompressed
	FlagDataDir
)

// Table flags2 bits: per-table booleans that do not affect physical format.
type TableFlag2 uint32

const (
	Flag2FilePerTable TableFlag2 = 1 << iota
	Flag2FTSAuxHexName
	Flag2FTSHasDocID
	Flag2Discarded
)

// UnassignedSpace is the sentinel meaning "no tablespace assigned yet".
const UnassignedSpace uint32 = 0xFFFFFFFF

// Arena is a bump-style owner of every object reachable from a Table: its
// columns, names, indexes, field arrays, instant descriptor, and default
// value byte buffers. Rewrites during instant ALTER allocate fresh slices
// from the same Arena and abandon the old ones rather than compacting
// mid-life; rollback only rewires pointers, never frees.
type Arena struct {
	owned []any
}

// Keep roots an arbitrary allocation in the arena so it outlives any single
// field that happens to reference it (e.g. a shared zero-default buffer).
func (a *Arena) Keep(v any) {
	a.owned = append(a.owned, v)
}

// Table is the in-memory description of one table in the dictionary cache.
type Table struct {
	ID    uint64
	Name  string // qualified "db/table"
	Flags TableFlag
	Flags2 TableFlag2
	SpaceID uint32

	NCols  int // non-virtual, including system columns
	NDef   int // same, during build
	NVCols int // virtual
	NVDef  int

	PersistentAutoinc int // column ordinal of AUTO_INCREMENT, 0 = none

	ColNames []string
	Cols     []*Col
	VCols    []*VCol
	Indexes  []*Index // clustered first

	Instant *Instant

	ForeignSet     []*Foreign
	ReferencedSet  []*Foreign

	DefTrxID uint64

	Evictable bool
	Pinned    bool

	Heap *Arena
}

// NewTable allocates a Table with its own Arena.
func NewTable(name string) *Table {
	return &Table{Name: name, Heap: &Arena{}, SpaceID: UnassignedSpace}
}

// sysColSpecs describes the three hidden system columns every table
// carries at the tail of its non-virtual column array, in catalog
// order.
var sysColSpecs = [NSysCols]struct {
	name string
	len  uint16
}{
	{"DB_ROW_ID", 6},
	{"DB_TRX_ID", 6},
	{"DB_ROLL_PTR", 7},
}

// AddSystemColumns appends DB_ROW_ID, DB_TRX_ID and DB_ROLL_PTR to the end
// of t.Cols and bumps NCols/NDef by NSysCols, matching
// dict_table_add_system_columns. Callers build every user (and virtual)
// column first, then call this once before handing the table to the DDL
// driver.
func (t *Table) AddSystemColumns() {
	base := len(t.Cols)
	for i, spec := range sysColSpecs {
		t.Cols = append(t.Cols, &Col{Ind: base + i, MType: MTypeSys, PType: PTypeNotNull | PTypeUnsigned, Len: spec.len, Name: spec.name})
		t.ColNames = append(t.ColNames, spec.name)
	}
	t.NCols += NSysCols
	t.NDef += NSysCols
}

// Clustered returns the table's clustered index, the first entry of
// Indexes, or nil if none has been added yet.
func (t *Table) Clustered() *Index {
	if len(t.Indexes) == 0 {
		return nil
	}
	return t.Indexes[0]
}

// CountDroppedColumns returns how many columns have been instantly dropped
// over the table's history, i.e. table.count_of_dropped_columns().
func (t *Table) CountDroppedColumns() int {
	if t.Instant == nil {
		return 0
	}
	return len(t.Instant.Dropped)
}

// FirstUserField returns the count of leading clustered-key fields that
// never participate in instant changes: index.first_user_field(). Fields
// holds only user and hidden-rowid columns, never the DB_TRX_ID/DB_ROLL_PTR
// system columns, so the key prefix alone marks the boundary.
func (t *Table) FirstUserField() int {
	idx := t.Clustered()
	if idx == nil {
		return 0
	}
	return idx.NUniq
}

// Snapshot captures every pointer/counter that instant.Rollback must be able
// to restore verbatim: the pre-ALTER column arrays, names, instant
// descriptor and clustered-index field array.
type Snapshot struct {
	NCols   int
	NDef    int
	NVCols  int
	NVDef   int
	Cols    []*Col
	VCols   []*VCol
	ColNames []string
	Instant *Instant

	ClusteredFields     []*Field
	NFields             int
	NCoreFields         int
	NCoreNullBytes      int
}

// TakeSnapshot records the table's current mutable dictionary state, to be
// restored later by Rollback if the in-progress ALTER fails.
func (t *Table) TakeSnapshot() *Snapshot {
	snap := &Snapshot{
		NCols:    t.NCols,
		NDef:     t.NDef,
		NVCols:   t.NVCols,
		NVDef:    t.NVDef,
		Cols:     t.Cols,
		VCols:    t.VCols,
		ColNames: t.ColNames,
		Instant:  t.Instant,
	}
	if idx := t.Clustered(); idx != nil {
		snap.ClusteredFields = idx.Fields
		snap.NFields = idx.NFields()
		snap.NCoreFields = idx.NCoreFields
		snap.NCoreNullBytes = idx.NCoreNullBytes
	}
	return snap
}
