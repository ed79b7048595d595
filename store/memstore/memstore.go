// Package memstore is the in-memory reference implementation of
// store.Store, used by the ddl/instant/fkey/bootstrap test suites and by
// dictctl's default (no-DSN) mode. It models the lower B-tree/mini-
// transaction layer with plain Go maps and slices instead of pages.
package memstore

import (
	"context"
	"sort"
	"sync"

	"dictengine/dict"
	"dictengine/dicterr"
	"dictengine/store"
)

// Store is an in-memory, single-process implementation of store.Store.
type Store struct {
	mu sync.Mutex

	tables map[string][]store.Tuple // system table name -> rows, insertion order

	nextTableID       uint64
	nextIndexID       uint64
	nextSpaceID       uint32
	maxSpaceID        uint32 // 0 means unlimited
	spaceIDsExhausted bool

	nextPage uint32

	readOnly      bool
	unreadable    map[uint32]bool // space ids reported not readable
	missingSpaces map[uint32]bool // space ids reported as not existing
}

// New returns an empty Store with no bound on NewSpaceID; SetMaxSpaceID
// adds one so tests can exercise the OUT_OF_RESOURCES path.
func New() *Store {
	return &Store{
		tables:        make(map[string][]store.Tuple),
		nextTableID:   1,
		nextIndexID:   1,
		nextSpaceID:   1,
		nextPage:      1,
		unreadable:    make(map[uint32]bool),
		missingSpaces: make(map[uint32]bool),
	}
}

// SetMaxSpaceID bounds the tablespace id allocator for testing OUT_OF_RESOURCES.
func (s *Store) SetMaxSpaceID(max uint32) { s.maxSpaceID = max }

// ExhaustSpaceIDs makes every subsequent NewSpaceID call report exhaustion,
// for testing the OUT_OF_RESOURCES path without relying on a specific bound.
func (s *Store) ExhaustSpaceIDs() { s.spaceIDsExhausted = true }

// SetReadOnly marks the store as forbidding DDL writes.
func (s *Store) SetReadOnly(ro bool) { s.readOnly = ro }

// MarkUnreadable simulates a tablespace that exists but cannot currently be
// read (e.g. DISCARDed).
func (s *Store) MarkUnreadable(spaceID uint32) { s.unreadable[spaceID] = true }

// MarkMissing simulates a tablespace id that was never created.
func (s *Store) MarkMissing(spaceID uint32) { s.missingSpaces[spaceID] = true }

func (s *Store) ReadOnly() bool { return s.readOnly }

func rowKey(t store.Tuple, names ...string) []any {
	key := make([]any, len(names))
	for i, n := range names {
		v, _ := t.Get(n)
		key[i] = v
	}
	return key
}

func (s *Store) InsertTuple(_ context.Context, table string, tuple store.Tuple) (store.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := uniqueKeyFor(table)
	if len(key) > 0 {
		newKey := rowKey(tuple, key...)
		for _, row := range s.tables[table] {
			if equalKeys(rowKey(row, key...), newKey) {
				return store.InsertDuplicateKey, nil
			}
		}
	}

	tuple.Fields = append(append([]store.Field{}, tuple.Fields...),
		store.Field{Name: "DB_TRX_ID", Value: uint64(len(s.tables[table]) + 1)},
		store.Field{Name: "DB_ROLL_PTR", Value: uint64(0)},
	)
	tuple.Table = table
	s.tables[table] = append(s.tables[table], tuple)
	return store.InsertOK, nil
}

// uniqueKeyFor names the clustered-index key columns of each system table,
// used to detect DUPLICATE_KEY the way the real catalog's unique clustered
// indexes would.
func uniqueKeyFor(table string) []string {
	switch table {
	case "SYS_TABLES":
		return []string{"NAME"}
	case "SYS_COLUMNS":
		return []string{"TABLE_ID", "POS"}
	case "SYS_INDEXES":
		return []string{"TABLE_ID", "ID"}
	case "SYS_FIELDS":
		return []string{"INDEX_ID", "POS"}
	case "SYS_VIRTUAL":
		return []string{"TABLE_ID", "POS", "BASE_POS"}
	case "SYS_FOREIGN":
		return []string{"ID"}
	case "SYS_FOREIGN_COLS":
		return []string{"ID", "POS"}
	default:
		return nil
	}
}

func equalKeys(a, b []any) bool {
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

type cursor struct {
	rows []store.Tuple
	pos  int // -1 before first
}

func (c *cursor) MoveToNextUserRec() bool {
	c.pos++
	return c.pos < len(c.rows)
}

func (c *cursor) Record() store.Tuple {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return store.Tuple{}
	}
	return c.rows[c.pos]
}

func (c *cursor) ReadField(n int) (any, bool) {
	rec := c.Record()
	if n < 0 || n >= len(rec.Fields) {
		return nil, false
	}
	return rec.Fields[n].Value, true
}

func (c *cursor) Close() error { return nil }

// OpenCursor returns a cursor over table positioned just before the first
// row whose leading key columns are >= searchKey, sorted by the table's
// unique key, matching the PAGE_CUR_L "less-than, then step forward"
// semantics closely enough for in-memory testing.
func (s *Store) OpenCursor(_ context.Context, table string, searchKey []any, _ store.CursorMode) (store.Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := uniqueKeyFor(table)
	rows := append([]store.Tuple{}, s.tables[table]...)
	sort.SliceStable(rows, func(i, j int) bool {
		return lessKeys(rowKey(rows[i], key...), rowKey(rows[j], key...))
	})

	start := 0
	if len(searchKey) > 0 {
		for i, row := range rows {
			if !lessKeys(rowKey(row, key...), searchKey) {
				start = i
				break
			}
			start = i + 1
		}
	}
	return &cursor{rows: rows[start:], pos: -1}, nil
}

func lessKeys(a, b []any) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		as, aok := a[i].(string)
		bs, bok := b[i].(string)
		if aok && bok {
			if as != bs {
				return as < bs
			}
			continue
		}
		an, aok2 := toUint64(a[i])
		bn, bok2 := toUint64(b[i])
		if aok2 && bok2 {
			if an != bn {
				return an < bn
			}
			continue
		}
	}
	return false
}

func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case uint32:
		return uint64(n), true
	case int:
		return uint64(n), true
	default:
		return 0, false
	}
}

func (s *Store) WriteFieldInPlace(_ store.MiniTx, cur store.Cursor, fieldName string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := cur.(*cursor)
	if !ok || c.pos < 0 || c.pos >= len(c.rows) {
		return dicterr.Invariant("WriteFieldInPlace: cursor not positioned on a record")
	}
	rec := c.rows[c.pos]
	for i := range rec.Fields {
		if rec.Fields[i].Name == fieldName {
			rec.Fields[i].Value = value
			c.rows[c.pos] = rec
			s.persistUpdatedRow(rec)
			return nil
		}
	}
	return dicterr.Invariant("WriteFieldInPlace: field %q not found", fieldName)
}

// persistUpdatedRow writes an updated copy of rec back into the backing
// table slice by matching on the table's unique key, since cursor rows are
// a sorted copy rather than an alias of s.tables.
func (s *Store) persistUpdatedRow(rec store.Tuple) {
	key := uniqueKeyFor(rec.Table)
	target := rowKey(rec, key...)
	rows := s.tables[rec.Table]
	for i, row := range rows {
		if equalKeys(rowKey(row, key...), target) {
			rows[i] = rec
			return
		}
	}
}

func (s *Store) DeleteWhere(_ context.Context, table string, keyValues map[string]any) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[table]
	kept := rows[:0:0]
	n := 0
	for _, row := range rows {
		match := true
		for k, v := range keyValues {
			rv, _ := row.Get(k)
			if rv != v {
				match = false
				break
			}
		}
		if match {
			n++
			continue
		}
		kept = append(kept, row)
	}
	s.tables[table] = kept
	return n, nil
}

type miniTx struct {
	logMode store.LogMode
}

func (m *miniTx) SetLogMode(mode store.LogMode) { m.logMode = mode }
func (m *miniTx) Commit() error                 { return nil }

func (s *Store) BeginMiniTx(_ context.Context) (store.MiniTx, error) {
	return &miniTx{}, nil
}

func (s *Store) BTreeCreate(_ store.MiniTx, _ uint32, _ bool) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page := s.nextPage
	s.nextPage++
	return page, nil
}

func (s *Store) BTreeFreeIfExists(_ store.MiniTx, _, _ uint32) error { return nil }

func (s *Store) TableReadable(spaceID uint32) bool { return !s.unreadable[spaceID] }

func (s *Store) TablespaceExists(spaceID uint32) bool {
	if spaceID == dict.UnassignedSpace {
		return false
	}
	return !s.missingSpaces[spaceID]
}

func (s *Store) NewTableID(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextTableID
	s.nextTableID++
	return id, nil
}

func (s *Store) NewIndexID(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextIndexID
	s.nextIndexID++
	return id, nil
}

func (s *Store) NewSpaceID(_ context.Context) (uint32, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spaceIDsExhausted {
		return 0, false, nil
	}
	if s.maxSpaceID != 0 && s.nextSpaceID > s.maxSpaceID {
		return 0, false, nil
	}
	id := s.nextSpaceID
	s.nextSpaceID++
	return id, true, nil
}

func (s *Store) CreateTablespace(_ context.Context, _ uint32, _ string) error { return nil }

// Rows returns a copy of the named system table's rows, for test assertions.
func (s *Store) Rows(table string) []store.Tuple {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.Tuple{}, s.tables[table]...)
}
