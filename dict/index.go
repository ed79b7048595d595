package dict

// IndexType is the bitset of index kinds (dict_index_t.type).
type IndexType uint16

const (
	IndexClustered IndexType = 1 << iota
	IndexUnique
	IndexIBuf
	IndexFTS
	IndexSpatial
	IndexVirtual
	IndexCorrupt
)

// FilNull is the sentinel page number meaning "unassigned".
const FilNull uint32 = 0xFFFFFFFF

// ColumnRef points either at a live column (by slice index into the owning
// table's Cols/VCols) or at a dropped column preserved in
// Instant.Dropped. This mirrors dict_field_t.col, which in the original
// points either into table.cols[], v_cols[].m_col, or
// table.instant.dropped[].
type ColumnRef struct {
	Live    *Col  // non-nil: refers to a live (possibly virtual, via VCol) column
	VCol    *VCol // set when Live wraps a virtual column's MCol
	Dropped *Col  // non-nil: refers to a preserved dropped-column image
}

// IsDropped reports whether this field's column has been instantly dropped.
func (r ColumnRef) IsDropped() bool { return r.Dropped != nil }

// Column returns the Col this reference ultimately describes, whether live
// or dropped, for callers that only need width/nullability/type.
func (r ColumnRef) Column() *Col {
	if r.Dropped != nil {
		return r.Dropped
	}
	return r.Live
}

// Field is one column reference inside an index (dict_field_t).
type Field struct {
	Col        ColumnRef
	Name       string // pointer into table.ColNames; empty iff Col is dropped
	PrefixLen  int
	Descending bool
	FixedLen   int // cached fixed physical size, 0 if variable
}

// Index is a B-tree index definition (dict_index_t).
type Index struct {
	ID    uint64
	Name  string
	Type  IndexType
	Table *Table

	Fields []*Field
	NDef   int

	NUniq            int // key-prefix length used for uniqueness
	NUserDefinedCols int
	NNullable        int
	NCoreFields      int
	NCoreNullBytes   int

	Page  uint32 // root page number, FilNull = unassigned
	TrxID uint64
}

// NFields is the current field count.
func (ix *Index) NFields() int { return len(ix.Fields) }

// IsClustered reports whether this is the table's clustered index.
func (ix *Index) IsClustered() bool { return ix.Type&IndexClustered != 0 }

// FirstUserField is the count of leading clustered-key fields that never
// participate in instant changes (index.first_user_field()). Fields holds
// only user and hidden-rowid columns, never DB_TRX_ID/DB_ROLL_PTR, so the
// key prefix alone marks the boundary.
func (ix *Index) FirstUserField() int { return ix.NUniq }

// RecountNullable recomputes NNullable by scanning Fields for non-NOT-NULL
// columns, dropped-column images included. Used by rollback_instant and
// instant_column alike.
func (ix *Index) RecountNullable() {
	n := 0
	for _, f := range ix.Fields {
		col := f.Col.Column()
		if col == nil {
			continue
		}
		if !col.NotNull() {
			n++
		}
	}
	ix.NNullable = n
}
