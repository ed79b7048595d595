package catalog

import (
	"dictengine/dict"
	"dictengine/store"
)

// TempIndexPrefix is the single reserved byte prepended to an
// uncommitted index's NAME, keeping it invisible to normal lookups
//
const TempIndexPrefix = "\xff"

// DefaultMergeThreshold is the default percentage at which InnoDB merges
// underfull B-tree pages.
const DefaultMergeThreshold = 50

// SysIndexesTuple builds the SYS_INDEXES row for ix. uncommitted prefixes
// NAME with TempIndexPrefix.
func SysIndexesTuple(t *dict.Table, ix *dict.Index, uncommitted bool) store.Tuple {
	name := ix.Name
	if uncommitted {
		name = TempIndexPrefix + name
	}
	return store.Tuple{
		Table: SysIndexes,
		Fields: []store.Field{
			field("TABLE_ID", t.ID),
			field("ID", ix.ID),
			field("NAME", name),
			field("N_FIELDS", uint32(len(ix.Fields))),
			field("TYPE", uint32(ix.Type)),
			field("SPACE", t.SpaceID),
			field("PAGE_NO", ix.Page),
			field("MERGE_THRESHOLD", uint32(DefaultMergeThreshold)),
		},
	}
}

// SysFieldsTuple builds the SYS_FIELDS row for field index fieldNo of ix,
// choosing the legacy or wide POS encoding for the whole index: wide iff
// anyWide is true (the caller must have already checked every field of ix
// for a nonzero PrefixLen or Descending).
func SysFieldsTuple(ix *dict.Index, fieldNo int, anyWide bool) store.Tuple {
	f := ix.Fields[fieldNo]
	var pos uint32
	if anyWide {
		pos = EncodeFieldsPosWide(fieldNo, f.Descending, f.PrefixLen)
	} else {
		pos = EncodeFieldsPosLegacy(fieldNo)
	}
	return store.Tuple{
		Table: SysFields,
		Fields: []store.Field{
			field("INDEX_ID", ix.ID),
			field("POS", pos),
			field("COL_NAME", f.Name),
		},
	}
}

// IndexNeedsWidePos reports whether any field of ix has a nonzero prefix
// length or descending order, forcing the whole index to use the wide
// SYS_FIELDS.POS encoding.
func IndexNeedsWidePos(ix *dict.Index) bool {
	for _, f := range ix.Fields {
		if f.PrefixLen != 0 || f.Descending {
			return true
		}
	}
	return false
}
