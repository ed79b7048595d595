// Package store defines the interfaces the catalog, ddl, instant and fkey
// packages consume from the lower, out-of-scope layers: the persistent
// B-tree/cursor/tuple service, the mini-transaction log, the tablespace
// service and the 64-bit ID allocators. The rest of this module never
// talks to a real page cache or redo log directly, only ever through this
// interface, so tests can run against store/memstore and production
// callers can plug in store/sqlstore.
package store

import "context"

// Field is one named value inside a Tuple, in system-table column order.
type Field struct {
	Name  string
	Value any
}

// Tuple is an ordered row destined for one system table.
type Tuple struct {
	Table  string
	Fields []Field
}

// Get returns the value of the named field, and whether it was present.
func (t Tuple) Get(name string) (any, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// InsertResult is the outcome of an InsertTuple call.
type InsertResult int

const (
	InsertOK InsertResult = iota
	InsertDuplicateKey
	InsertOutOfSpace
	InsertCorruption
)

// LogMode controls whether a MiniTx's mutations are redo-logged.
type LogMode int

const (
	LogRedo LogMode = iota
	LogNoRedo
)

// Cursor is a persistent cursor positioned on a system-table index, per
// open_cursor/move_to_next_user_rec/read_nth_field_old.
type Cursor interface {
	// MoveToNextUserRec advances the cursor, returning false at end of
	// index.
	MoveToNextUserRec() bool
	// Record returns the raw tuple at the cursor's current position.
	Record() Tuple
	// ReadField reads field n of the record at the cursor's position.
	ReadField(n int) (any, bool)
	// Close releases the cursor.
	Close() error
}

// CursorMode selects the search direction/latch mode for OpenCursor,
// matching the PAGE_CUR_L / BTR_MODIFY_LEAF style flags.
type CursorMode int

const (
	CursorModifyLeaf CursorMode = iota
	CursorModifyTree
)

// MiniTx is a bounded, atomically-applied unit of physical mutation
// (mtr_t): it either fully applies or fully rolls back.
type MiniTx interface {
	SetLogMode(LogMode)
	Commit() error
}

// Store is the lower-layer interface the catalog/ddl/instant/fkey packages
// consume: tuple insertion and cursors against the seven system tables,
// in-place field overwrites, B-tree root allocation, and ID issuance.
type Store interface {
	// InsertTuple assigns DB_TRX_ID/DB_ROLL_PTR and inserts tuple into the
	// named system table's clustered index.
	InsertTuple(ctx context.Context, table string, tuple Tuple) (InsertResult, error)

	// OpenCursor opens a persistent cursor on the named system table,
	// searching for searchKey (the leading key columns), in the given mode.
	OpenCursor(ctx context.Context, table string, searchKey []any, mode CursorMode) (Cursor, error)

	// WriteFieldInPlace overwrites one field of the record under the
	// cursor, inside mtx, honoring mtx's log mode.
	WriteFieldInPlace(mtx MiniTx, cur Cursor, field string, value any) error

	// DeleteWhere deletes every row of table whose key-column values match
	// keyValues (by name), used by the foreign-key installer's DROP.
	DeleteWhere(ctx context.Context, table string, keyValues map[string]any) (int, error)

	// BeginMiniTx starts a new mini-transaction.
	BeginMiniTx(ctx context.Context) (MiniTx, error)

	// BTreeCreate allocates a new B-tree root page for index within mtx,
	// returning FilNull (see dict.FilNull) on exhaustion.
	BTreeCreate(mtx MiniTx, spaceID uint32, temporary bool) (uint32, error)

	// BTreeFreeIfExists releases the B-tree rooted at page, if it exists.
	BTreeFreeIfExists(mtx MiniTx, spaceID, page uint32) error

	// TableReadable reports whether spaceID's tablespace is currently
	// readable (e.g. not DISCARDed / missing from disk).
	TableReadable(spaceID uint32) bool

	// TablespaceExists reports whether spaceID names a live tablespace.
	TablespaceExists(spaceID uint32) bool

	// NewTableID/NewIndexID hand out monotonically increasing 64-bit ids.
	NewTableID(ctx context.Context) (uint64, error)
	NewIndexID(ctx context.Context) (uint64, error)
	// NewSpaceID hands out a 32-bit tablespace id, or ok=false when the id
	// space is exhausted.
	NewSpaceID(ctx context.Context) (id uint32, ok bool, err error)

	// CreateTablespace creates a file-per-table tablespace for spaceID.
	CreateTablespace(ctx context.Context, spaceID uint32, name string) error

	// ReadOnly reports whether the store forbids DDL writes.
	ReadOnly() bool
}
