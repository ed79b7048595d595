// Package catalog builds the fixed-layout tuples that are inserted into the
// seven persistent system tables (SYS_TABLES, SYS_COLUMNS, SYS_INDEXES,
// SYS_FIELDS, SYS_VIRTUAL, SYS_FOREIGN, SYS_FOREIGN_COLS). These
// are pure functions: in, an in-memory dict object and a position; out, a
// store.Tuple ready for store.Store.InsertTuple.
package catalog

import "dictengine/store"

// SysTables is the system-table name for table definitions.
const (
	SysTables      = "SYS_TABLES"
	SysColumns     = "SYS_COLUMNS"
	SysIndexes     = "SYS_INDEXES"
	SysFields      = "SYS_FIELDS"
	SysVirtual     = "SYS_VIRTUAL"
	SysForeign     = "SYS_FOREIGN"
	SysForeignCols = "SYS_FOREIGN_COLS"
)

// field is a small helper constructor, used throughout this package to keep
// tuple-building functions terse and in column order.
func field(name string, value any) store.Field {
	return store.Field{Name: name, Value: value}
}
