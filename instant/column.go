package instant

import (
	"slices"

	"dictengine/dict"
	"dictengine/dicterr"
)

// Column commits a prepared instant change into the live table T. It
// returns whether the persistent metadata record must be updated (a new
// dropped column, a field-map change, or a clustered-field or column count
// change); pure-append changes always return false.
func Column(table *dict.Table, prepared *Prepared, colMap dict.ColMap) (metadataNeeded bool, err error) {
	image := prepared.Image
	oldNDropped := table.Instant.NDropped()
	var oldFieldMap []uint16
	if table.Instant != nil {
		oldFieldMap = table.Instant.FieldMap
	}

	table.ColNames = append([]string{}, image.ColNames...)
	table.Heap.Keep(table.ColNames)

	oldNCols := table.NCols
	newCols, err := rebuildCols(table, image, colMap)
	if err != nil {
		return false, err
	}
	table.Cols = newCols
	table.NCols = len(newCols)
	table.NDef = table.NCols
	table.NVCols = len(image.VCols)
	table.NVDef = table.NVCols

	table.VCols = rebuildVCols(table, image, colMap)

	oldFieldCount := table.Clustered().NFields()
	table.Clustered().Fields = prepared.ClusteredFields
	table.Clustered().NDef = len(prepared.ClusteredFields)
	table.Clustered().RecountNullable()

	rebuildInstant(table, prepared)

	for _, ix := range table.Indexes {
		if ix.IsClustered() {
			continue
		}
		repointNonClusteredIndex(ix, table, colMap)
	}

	if prepared.PureAppend {
		return false, nil
	}
	metadataNeeded = prepared.NDropped > oldNDropped ||
		!slices.Equal(oldFieldMap, table.Instant.FieldMap) ||
		table.Clustered().NFields() != oldFieldCount ||
		table.NCols != oldNCols
	return metadataNeeded, nil
}

// rebuildCols allocates table.NCols worth of *dict.Col by, for each new
// position, finding the corresponding old column via colMap and copying
// its default value and compatibility-checked prtype, or treating it as a
// freshly instantly-added column when no old column maps to it.
func rebuildCols(table, image *dict.Table, colMap dict.ColMap) ([]*dict.Col, error) {
	out := make([]*dict.Col, len(image.Cols))
	for newPos, imgCol := range image.Cols {
		oldCol := findOldColumn(table, colMap, newPos)
		if oldCol != nil {
			merged := *imgCol
			merged.DefVal = oldCol.DefVal
			if !dict.CompatibleForInstant(oldCol, &merged) {
				return nil, dicterr.New(dicterr.Unsupported, dicterr.CategoryPolicy, table.Name,
					"column %q is not storage-compatible with its instant replacement", oldCol.Name)
			}
			out[newPos] = &merged
			continue
		}

		added := *imgCol
		added.AddedInstantly = true
		if added.DefVal != nil && !added.DefVal.IsNull() && allZero(added.DefVal.Data) {
			table.Heap.Keep(added.DefVal.Data)
		} else if added.DefVal != nil {
			buf := append([]byte{}, added.DefVal.Data...)
			added.DefVal = &dict.DefVal{Data: buf, Len: added.DefVal.Len}
			table.Heap.Keep(buf)
		}
		out[newPos] = &added
	}
	return out, nil
}

func findOldColumn(table *dict.Table, colMap dict.ColMap, newPos int) *dict.Col {
	for _, col := range table.Cols {
		if col.Dropped {
			continue
		}
		if mapped, ok := colMap.NewPos(col.Ind); ok && mapped == newPos {
			return col
		}
	}
	return nil
}

func allZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}

// rebuildVCols rebuilds table.v_cols[] from image, rewriting every
// base-column pointer through colMap and clearing v_indexes (repopulated
// by repointNonClusteredIndex below).
func rebuildVCols(table, image *dict.Table, colMap dict.ColMap) []*dict.VCol {
	out := make([]*dict.VCol, len(image.VCols))
	for i, v := range image.VCols {
		nv := &dict.VCol{MCol: v.MCol, VPos: v.VPos}
		for _, b := range v.BaseCol {
			switch {
			case b.Col != nil:
				if newPos, ok := colMap.NewPos(b.Col.Ind); ok && newPos < len(table.Cols) {
					nv.BaseCol = append(nv.BaseCol, dict.BaseCol{Col: table.Cols[newPos]})
				} else {
					nv.BaseCol = append(nv.BaseCol, dict.BaseCol{Col: b.Col})
				}
			case b.VCol != nil:
				nv.BaseCol = append(nv.BaseCol, dict.BaseCol{VCol: b.VCol})
			}
		}
		out[i] = nv
	}
	return out
}

// rebuildInstant builds or extends table.Instant from prepared, then
// re-derives field_map from the (already-updated) clustered index.
func rebuildInstant(table *dict.Table, prepared *Prepared) {
	if prepared.PureAppend {
		return
	}
	// A fresh descriptor leaves the pre-ALTER one (held by a Snapshot)
	// untouched for Rollback.
	table.Instant = &dict.Instant{Dropped: prepared.Dropped}

	clustered := table.Clustered()
	first := clustered.FirstUserField()
	fieldMap := make([]uint16, 0, len(clustered.Fields)-first)
	for i := first; i < len(clustered.Fields); i++ {
		f := clustered.Fields[i]
		if f.Col.IsDropped() {
			col := f.Col.Dropped
			fieldMap = append(fieldMap, dict.EncodeDroppedFieldMapEntry(f.FixedLen, col.NotNull()))
		} else {
			col := f.Col.Column()
			fieldMap = append(fieldMap, dict.EncodeFieldMapEntry(col.Ind))
		}
	}
	table.Instant.FieldMap = fieldMap
}

// repointNonClusteredIndex rewrites ix's field/col pointers to the new
// cols/v_cols arrays and registers this (index, field) pair on every
// involved virtual column's v_indexes list.
func repointNonClusteredIndex(ix *dict.Index, table *dict.Table, colMap dict.ColMap) {
	for fieldPos, f := range ix.Fields {
		col := f.Col.Column()
		if col == nil {
			continue
		}
		if f.Col.VCol != nil {
			for _, v := range table.VCols {
				if v.MCol.Name == f.Col.VCol.MCol.Name {
					v.VIndexes = append(v.VIndexes, dict.VIndexEntry{Index: ix, FieldPos: fieldPos})
					f.Col.VCol = v
					f.Col.Live = &v.MCol
					break
				}
			}
			continue
		}
		newPos, ok := colMap.NewPos(col.Ind)
		if !ok || newPos >= len(table.Cols) {
			continue
		}
		f.Col.Live = table.Cols[newPos]
		f.Name = table.Cols[newPos].Name
	}
}
