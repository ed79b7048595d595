package instant

import "dictengine/dict"

// Rollback restores table to the state captured in old if Column already
// ran (table.Cols differs from old.Cols); it is a no-op when the ALTER
// failed before Column committed anything.
func Rollback(table *dict.Table, old *dict.Snapshot, colMap dict.ColMap) {
	if samePointerSlice(table.Cols, old.Cols) {
		return
	}

	table.Cols = old.Cols
	table.ColNames = old.ColNames
	table.VCols = old.VCols
	table.NCols = old.NCols
	table.NDef = old.NDef
	table.NVCols = old.NVCols
	table.NVDef = old.NVDef
	table.Instant = old.Instant

	clustered := table.Clustered()
	if clustered != nil {
		clustered.Fields = old.ClusteredFields
		clustered.NDef = old.NFields
		clustered.NCoreFields = old.NCoreFields
		clustered.NCoreNullBytes = old.NCoreNullBytes
		clustered.RecountNullable()
	}

	for _, ix := range table.Indexes {
		if ix.IsClustered() {
			continue
		}
		for _, f := range ix.Fields {
			col := f.Col.Column()
			if col == nil || col.Ind >= len(colMap) {
				continue
			}
			// col.Ind is currently a *new* position; invert colMap to find
			// the old position covering the column's identity and rewire
			// the field at the old array.
			oldPos := colMap.FindOldColNo(col.Ind, 0, len(colMap))
			if oldPos == dict.Undefined || oldPos >= len(table.Cols) {
				continue
			}
			f.Col.Live = table.Cols[oldPos]
			f.Name = table.Cols[oldPos].Name
		}
	}
}

func samePointerSlice(a, b []*dict.Col) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
