// Package instant implements the instant/in-place ALTER TABLE engine: given
// a source table and a target schema connected by a column map, it decides
// whether the change can be realized without rewriting existing rows and,
// if so, installs it.
package instant

import (
	"dictengine/dict"
)

// Reason names why Feasible returned false, for diagnostics and tests.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonRebuildRequired      Reason = "rebuild_required"
	ReasonNotNullWithoutDefault Reason = "not_null_without_default"
	ReasonFTSOrSpatialConflict Reason = "fts_or_spatial_conflict"
	ReasonRecordTooBig         Reason = "record_too_big"
	ReasonNotNullDemotesKey    Reason = "not_null_demotes_key"
	ReasonFTSDocIDRemoval      Reason = "fts_doc_id_removal"
)

// fieldRefSize is the 2-byte-pointer-worth of externalized-blob overhead
// InnoDB reserves per off-page column, named field_ref_size.
const fieldRefSize = 20

// Options carries the context Feasible needs beyond table/target/colMap:
// whether the caller already determined this change requires a full
// rebuild (PK change, row-format change, atomic-blobs toggle, adding
// system-versioning, all computed upstream of this package, which only
// decides instant-vs-not given that verdict), the strict-mode flag that
// additionally bounds the maximum record size, and the overflow threshold
// against which record sizes are checked.
type Options struct {
	RebuildRequested bool
	StrictMode       bool
	MaxRecordSize    int // the B-tree overflow threshold; 0 disables the check
}

// Feasible reports whether target can be realized against table purely
// instantly.
func Feasible(table, target *dict.Table, colMap dict.ColMap, opts Options) (bool, Reason) {
	if opts.RebuildRequested {
		return false, ReasonRebuildRequired
	}

	for _, col := range target.Cols {
		if col.IsAdded() && col.NotNull() && (col.DefVal == nil || col.DefVal.IsNull()) {
			return false, ReasonNotNullWithoutDefault
		}
	}

	if ftsOrSpatialConflict(table, target) {
		return false, ReasonFTSOrSpatialConflict
	}

	if removesFTSDocID(table, colMap) {
		return false, ReasonFTSDocIDRemoval
	}

	if demotesUniqueKeyToNotNull(table, target, colMap) {
		return false, ReasonNotNullDemotesKey
	}

	if opts.MaxRecordSize > 0 {
		minSize, maxSize := recordSizeBounds(target)
		if minSize > opts.MaxRecordSize {
			return false, ReasonRecordTooBig
		}
		if opts.StrictMode && maxSize > opts.MaxRecordSize {
			return false, ReasonRecordTooBig
		}
	}

	return true, ReasonNone
}

// ftsOrSpatialConflict reports whether target introduces a new FULLTEXT or
// SPATIAL index alongside an instant column change; the two are not
// supported interleaved.
func ftsOrSpatialConflict(table, target *dict.Table) bool {
	existing := make(map[string]bool, len(table.Indexes))
	for _, ix := range table.Indexes {
		existing[ix.Name] = true
	}
	for _, ix := range target.Indexes {
		if existing[ix.Name] {
			continue
		}
		if ix.Type&(dict.IndexFTS|dict.IndexSpatial) != 0 {
			return true
		}
	}
	return false
}

// removesFTSDocID reports whether the hidden FTS_DOC_ID system column is
// being dropped by colMap.
func removesFTSDocID(table *dict.Table, colMap dict.ColMap) bool {
	for _, col := range table.Cols {
		if col.Name != "FTS_DOC_ID" {
			continue
		}
		if col.Ind < len(colMap) {
			if newPos, ok := colMap.NewPos(col.Ind); !ok || newPos < 0 {
				return true
			}
		}
	}
	return false
}

// demotesUniqueKeyToNotNull reports whether target would make NOT NULL a
// column that table's clustered index relies on being nullable to derive
// its uniqueness (i.e. the PK is synthesized from a UNIQUE(nullable) key).
// Here that is approximated as: no leading clustered-key column may flip
// from nullable to NOT NULL, since the whitelist only permits the reverse
// direction.
func demotesUniqueKeyToNotNull(table, target *dict.Table, colMap dict.ColMap) bool {
	oldClustered := table.Clustered()
	newClustered := target.Clustered()
	if oldClustered == nil || newClustered == nil {
		return false
	}
	for _, f := range oldClustered.Fields {
		col := f.Col.Column()
		if col == nil || col.NotNull() || col.Ind >= len(colMap) {
			continue
		}
		newPos, ok := colMap.NewPos(col.Ind)
		if !ok || newPos < 0 || newPos >= len(target.Cols) {
			continue
		}
		if target.Cols[newPos].NotNull() {
			return true
		}
	}
	return false
}

// recordSizeBounds returns the minimum and maximum physical record size
// for target's clustered index: per-column fixed length or field_ref_size
// for off-page-eligible columns, plus the null-bitmap width.
func recordSizeBounds(target *dict.Table) (minSize, maxSize int) {
	nullable := 0
	for _, col := range target.Cols {
		if col.MType == dict.MTypeSys || col.MType == dict.MTypeSysChild {
			continue
		}
		if !col.NotNull() {
			nullable++
		}
		fixed, variable, offPage := columnSizeModel(col)
		minSize += fixed
		if offPage {
			maxSize += fieldRefSize
		} else {
			maxSize += fixed + variable
		}
	}
	nullBitmapBytes := (nullable + 7) / 8
	minSize += nullBitmapBytes
	maxSize += nullBitmapBytes
	return minSize, maxSize
}

// columnSizeModel splits col's stored width into its always-present fixed
// part, its variable-length worst case, and whether it is eligible for
// off-page (blob) storage.
func columnSizeModel(col *dict.Col) (fixed, variable int, offPage bool) {
	switch col.MType {
	case dict.MTypeBlob, dict.MTypeGeometry:
		return 0, 0, true
	case dict.MTypeVarchar, dict.MTypeVarMySQL:
		if int(col.Len) > 255 {
			return 2, int(col.Len), col.Len > 8192
		}
		return 1, int(col.Len), false
	default:
		return int(col.Len), 0, false
	}
}
