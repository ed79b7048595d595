package dict

// BaseCol is a reference to a base column a virtual column's expression
// depends on: either a plain column or another virtual column of the same
// table.
type BaseCol struct {
	Col   *Col  // set when the base is an ordinary column
	VCol  *VCol // set when the base is itself a virtual column
}

// VCol is a virtual (generated, not stored) column (dict_v_col_t).
type VCol struct {
	MCol    Col // the wrapped column fields (name, type, ...)
	VPos    int // sequence number among virtual columns
	BaseCol []BaseCol

	VIndexes []VIndexEntry
}

// NumBase reports how many base columns this virtual column depends on.
func (v *VCol) NumBase() int { return len(v.BaseCol) }

// VIndexEntry records one (index, field position) pair where a virtual
// column is indexed.
type VIndexEntry struct {
	Index    *Index
	FieldPos int
}
