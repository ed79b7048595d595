package catalog

import (
	"dictengine/dict"
	"dictengine/store"
)

// SysTablesTuple builds the SYS_TABLES row for t. DB_TRX_ID and
// DB_ROLL_PTR are left unset: store.Store.InsertTuple assigns them.
func SysTablesTuple(t *dict.Table) store.Tuple {
	nUserCols := t.NCols - dict.NSysCols
	compact := t.Flags&dict.FlagCompact != 0
	nCols := EncodeNCol(nUserCols, t.NVDef, compact)

	typ := tableTypeFromFlags(t.Flags)

	return store.Tuple{
		Table: SysTables,
		Fields: []store.Field{
			field("NAME", t.Name),
			field("ID", t.ID),
			field("N_COLS", nCols),
			field("TYPE", typ),
			field("MIX_ID", uint64(0)),
			field("MIX_LEN", uint32(t.Flags2)),
			field("CLUSTER_NAME", nil),
			field("SPACE", t.SpaceID),
		},
	}
}

// tableTypeFromFlags derives the legacy TYPE column from Flags: 0 and 1
// both collapse to 1 for backward compatibility, anything else passes the
// flag bits through.
func tableTypeFromFlags(flags dict.TableFlag) uint32 {
	if flags <= 1 {
		return 1
	}
	return uint32(flags)
}

// SysColumnsTuple builds one SYS_COLUMNS row for column col of table t,
// where pos is its storage position in the original creation order.
// Virtual columns use SysVColumnsTuple, which encodes POS via EncodeVColPos.
func SysColumnsTuple(t *dict.Table, col *dict.Col, pos uint32) store.Tuple {
	return store.Tuple{
		Table: SysColumns,
		Fields: []store.Field{
			field("TABLE_ID", t.ID),
			field("POS", pos),
			field("NAME", col.Name),
			field("MTYPE", uint32(col.MType)),
			field("PRTYPE", uint32(col.PType)),
			field("LEN", col.Len),
			field("PREC", uint32(0)),
		},
	}
}

// SysVColumnsTuple builds the SYS_COLUMNS row for a virtual column, with
// PREC set to the virtual column's base-column count.
func SysVColumnsTuple(t *dict.Table, v *dict.VCol) store.Tuple {
	pos := EncodeVColPos(uint16(v.VPos), uint16(v.MCol.Ind))
	return store.Tuple{
		Table: SysColumns,
		Fields: []store.Field{
			field("TABLE_ID", t.ID),
			field("POS", pos),
			field("NAME", v.MCol.Name),
			field("MTYPE", uint32(v.MCol.MType)),
			field("PRTYPE", uint32(v.MCol.PType)),
			field("LEN", v.MCol.Len),
			field("PREC", uint32(v.NumBase())),
		},
	}
}

// SysVirtualTuples builds one SYS_VIRTUAL row per (virtual column, base
// column) pair, ordered by base-column index.
func SysVirtualTuples(t *dict.Table, v *dict.VCol) []store.Tuple {
	tuples := make([]store.Tuple, 0, v.NumBase())
	pos := EncodeVColPos(uint16(v.VPos), uint16(v.MCol.Ind))
	for _, b := range v.BaseCol {
		var basePos int
		switch {
		case b.Col != nil:
			basePos = b.Col.Ind
		case b.VCol != nil:
			basePos = b.VCol.MCol.Ind
		}
		tuples = append(tuples, store.Tuple{
			Table: SysVirtual,
			Fields: []store.Field{
				field("TABLE_ID", t.ID),
				field("POS", pos),
				field("BASE_POS", uint32(basePos)),
			},
		})
	}
	return tuples
}
