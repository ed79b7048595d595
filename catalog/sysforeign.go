package catalog

import (
	"dictengine/dict"
	"dictengine/store"
)

// SysForeignTuple builds the SYS_FOREIGN row for fk: N_COLS packs the field
// count in the low 24 bits and the action-type flags in the high byte
//
func SysForeignTuple(fk *dict.Foreign) store.Tuple {
	nCols := uint32(fk.NFields()) | uint32(fk.Type)<<24
	return store.Tuple{
		Table: SysForeign,
		Fields: []store.Field{
			field("ID", fk.ID),
			field("FOR_NAME", fk.ForeignTable.Name),
			field("REF_NAME", fk.ReferencedTableName),
			field("N_COLS", nCols),
		},
	}
}

// DecodeSysForeignNCols inverts the N_COLS packing.
func DecodeSysForeignNCols(nCols uint32) (nFields int, actionType dict.ForeignActionType) {
	return int(nCols & 0xFFFFFF), dict.ForeignActionType(nCols >> 24)
}

// SysForeignColsTuples builds the one-row-per-column SYS_FOREIGN_COLS rows
// for fk, POS 0-based.
func SysForeignColsTuples(fk *dict.Foreign) []store.Tuple {
	tuples := make([]store.Tuple, 0, fk.NFields())
	for i := range fk.ForeignColNames {
		tuples = append(tuples, store.Tuple{
			Table: SysForeignCols,
			Fields: []store.Field{
				field("ID", fk.ID),
				field("POS", uint32(i)),
				field("FOR_COL_NAME", fk.ForeignColNames[i]),
				field("REF_COL_NAME", fk.ReferencedColNames[i]),
			},
		})
	}
	return tuples
}
