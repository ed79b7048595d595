package dict

import (
	"fmt"
)

// Validate checks the dictionary invariants against the table's current
// state. It is meant to be run after every DDL/instant operation in tests
// and, optionally, by careful callers.
func (t *Table) Validate() error {
	if t.NCols != t.NDef {
		return fmt.Errorf("table %q: n_cols(%d) != n_def(%d)", t.Name, t.NCols, t.NDef)
	}
	if t.NVCols != t.NVDef {
		return fmt.Errorf("table %q: n_v_cols(%d) != n_v_def(%d)", t.Name, t.NVCols, t.NVDef)
	}

	clusteredCount := 0
	for _, ix := range t.Indexes {
		if ix.IsClustered() {
			clusteredCount++
		}
	}
	if clusteredCount != 1 {
		return fmt.Errorf("table %q: expected exactly one clustered index, found %d", t.Name, clusteredCount)
	}
	if !t.Indexes[0].IsClustered() {
		return fmt.Errorf("table %q: clustered index must be first in Indexes", t.Name)
	}

	if err := t.validateFieldMap(); err != nil {
		return err
	}
	if err := t.validateVCols(); err != nil {
		return err
	}
	if err := t.validateCoreNullBytes(); err != nil {
		return err
	}
	return nil
}

func (t *Table) validateFieldMap() error {
	idx := t.Clustered()
	if idx == nil || t.Instant == nil {
		return nil
	}
	first := idx.FirstUserField()
	for i := first; i < len(idx.Fields); i++ {
		pos := i - first
		if pos >= len(t.Instant.FieldMap) {
			return fmt.Errorf("table %q: field_map too short for field %d", t.Name, i)
		}
		dropped, notNull, hint := DecodeFieldMapEntry(t.Instant.FieldMap[pos])
		f := idx.Fields[i]
		if dropped != f.Col.IsDropped() {
			return fmt.Errorf("table %q: field_map[%d] dropped=%v but field.col dropped=%v", t.Name, pos, dropped, f.Col.IsDropped())
		}
		if dropped {
			col := f.Col.Dropped
			if col == nil {
				return fmt.Errorf("table %q: field %d decodes dropped but field.col is not a Instant.Dropped image", t.Name, i)
			}
			_ = notNull
			_ = hint
		} else {
			col := f.Col.Column()
			if col == nil {
				return fmt.Errorf("table %q: field %d has no column", t.Name, i)
			}
			if int(hint) != col.Ind {
				return fmt.Errorf("table %q: field_map[%d] ordinal %d != field.col.ind %d", t.Name, pos, hint, col.Ind)
			}
		}
	}
	return nil
}

func (t *Table) validateVCols() error {
	for _, v := range t.VCols {
		for _, b := range v.BaseCol {
			switch {
			case b.Col != nil:
				if b.Col.Dropped {
					return fmt.Errorf("table %q: virtual column %q depends on dropped column %q", t.Name, v.MCol.Name, b.Col.Name)
				}
				found := false
				for _, c := range t.Cols {
					if c == b.Col {
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("table %q: virtual column %q base column not in table.Cols", t.Name, v.MCol.Name)
				}
			case b.VCol != nil:
				found := false
				for _, c := range t.VCols {
					if c == b.VCol {
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("table %q: virtual column %q base v-column not in table.VCols", t.Name, v.MCol.Name)
				}
			default:
				return fmt.Errorf("table %q: virtual column %q has an empty base-column reference", t.Name, v.MCol.Name)
			}
		}
	}
	return nil
}

func (t *Table) validateCoreNullBytes() error {
	idx := t.Clustered()
	if idx == nil || idx.NCoreFields == 0 {
		return nil
	}
	nullable := 0
	limit := idx.NCoreFields
	if limit > len(idx.Fields) {
		limit = len(idx.Fields)
	}
	for _, f := range idx.Fields[:limit] {
		col := f.Col.Column()
		if col != nil && !col.NotNull() {
			nullable++
		}
	}
	want := (nullable + 7) / 8
	if idx.NCoreNullBytes != want {
		return fmt.Errorf("table %q: n_core_null_bytes=%d want %d", t.Name, idx.NCoreNullBytes, want)
	}
	return nil
}
