package sqlstore

import (
	"context"
	"sort"

	"dictengine/store"
)

// cursor is a persistent cursor over a snapshot of one system table's rows,
// materialized at OpenCursor time and sorted by the table's clustered key,
// the same "copy, sort, step forward" model memstore uses, since both
// backends hide identical cursor semantics behind store.Cursor.
type cursor struct {
	table string
	pk    []string
	rows  []store.Tuple
	pos   int
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

// OpenCursor loads every row of table, sorts it by the table's clustered
// key, and positions the returned cursor just before the first row whose
// key is >= searchKey, matching memstore.OpenCursor's semantics.
func (s *Store) OpenCursor(ctx context.Context, table string, searchKey []any, _ store.CursorMode) (store.Cursor, error) {
	sc, ok := schemaByName(table)
	if !ok {
		return &cursor{table: table, pos: -1}, nil
	}

	rows, err := s.queryRows(ctx, table)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return lessKeys(rowKey(rows[i], sc.pk), rowKey(rows[j], sc.pk))
	})

	start := 0
	if len(searchKey) > 0 {
		for i, row := range rows {
			if !lessKeys(rowKey(row, sc.pk), searchKey) {
				start = i
				break
			}
			start = i + 1
		}
	}
	return &cursor{table: table, pk: sc.pk, rows: rows[start:], pos: -1}, nil
}

func (s *Store) queryRows(ctx context.Context, table string) ([]store.Tuple, error) {
	rs, err := s.db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	cols, err := rs.Columns()
	if err != nil {
		return nil, err
	}

	var tuples []store.Tuple
	for rs.Next() {
		scanTargets := make([]any, len(cols))
		scanPtrs := make([]any, len(cols))
		for i := range scanTargets {
			scanPtrs[i] = &scanTargets[i]
		}
		if err := rs.Scan(scanPtrs...); err != nil {
			return nil, err
		}
		tuple := store.Tuple{Table: table}
		for i, col := range cols {
			value := scanTargets[i]
			if b, ok := value.([]byte); ok {
				value = string(b) // CHAR/VARCHAR columns arrive as []byte
			}
			tuple.Fields = append(tuple.Fields, store.Field{Name: fromSQLColumnName(col), Value: value})
		}
		tuples = append(tuples, tuple)
	}
	return tuples, rs.Err()
}

func fromSQLColumnName(col string) string {
	if col == "PREC_" {
		return "PREC"
	}
	return col
}

func rowKey(t store.Tuple, names []string) []any {
	key := make([]any, len(names))
	for i, n := range names {
		v, _ := t.Get(n)
		key[i] = v
	}
	return key
}

// lessKeys orders two key tuples the same way memstore's lessKeys does:
// lexicographically, comparing strings as strings and anything numeric
// (including the []byte/int64 shapes database/sql hands back) as uint64.
func lessKeys(a, b []any) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		as, aok := asString(a[i])
		bs, bok := asString(b[i])
		if aok && bok {
			if as != bs {
				return as < bs
			}
			continue
		}
		an, aok2 := asUint64(a[i])
		bn, bok2 := asUint64(b[i])
		if aok2 && bok2 {
			if an != bn {
				return an < bn
			}
			continue
		}
	}
	return false
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return "", false
	}
}

func asUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case uint32:
		return uint64(n), true
	case int64:
		return uint64(n), true
	case int:
		return uint64(n), true
	default:
		return 0, false
	}
}
