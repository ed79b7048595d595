package ddl

import (
	"dictengine/dicterr"
	"dictengine/store"
)

// insertFailure maps a non-OK store.InsertResult for table to the
// corresponding dicterr.Error the driver reports to its caller.
func insertFailure(table string, res store.InsertResult) error {
	switch res {
	case store.InsertDuplicateKey:
		return dicterr.New(dicterr.DuplicateKey, dicterr.CategoryPolicy, table, "duplicate key inserting into %s", table)
	case store.InsertOutOfSpace:
		return dicterr.New(dicterr.OutOfFileSpace, dicterr.CategoryResource, table, "out of space inserting into %s", table)
	case store.InsertCorruption:
		return dicterr.New(dicterr.Corruption, dicterr.CategoryCorruption, table, "corruption inserting into %s", table)
	default:
		return dicterr.Invariant("unexpected insert result %d for %s", res, table)
	}
}
