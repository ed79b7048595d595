package dict

// ForeignActionType is the bitset of ON DELETE / ON UPDATE referential
// actions a foreign key carries (dict_foreign_t.type).
type ForeignActionType uint32

const (
	FKDeleteCascade ForeignActionType = 1 << iota
	FKDeleteSetNull
	FKUpdateCascade
	FKUpdateSetNull
	FKDeleteNoAction
	FKUpdateNoAction
)

// HasSetNull reports whether this action set requires referenced columns
// to be nullable.
func (t ForeignActionType) HasSetNull() bool {
	return t&(FKDeleteSetNull|FKUpdateSetNull) != 0
}

// Foreign is a foreign-key constraint (dict_foreign_t).
type Foreign struct {
	ID   string
	Type ForeignActionType

	ForeignTable     *Table
	ForeignColNames  []string
	ForeignIndex     *Index

	ReferencedTableName string
	ReferencedTable      *Table
	ReferencedColNames   []string
	ReferencedIndex      *Index
}

// NFields is the number of columns this constraint spans.
func (f *Foreign) NFields() int { return len(f.ForeignColNames) }
