package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"dictengine/store"
)

// miniTx wraps a real *sql.Tx. SetLogMode(LogNoRedo) has nothing to bind to
// against a real MySQL server (redo logging is server-controlled, not a
// per-statement client option) so it is recorded but otherwise unused; it
// exists so callers that toggle it against store.Store generically
// (catalog.CreateIndexTree for a temporary index) compile and run unchanged against either
// backend.
type miniTx struct {
	tx      *sql.Tx
	logMode store.LogMode
}

func (m *miniTx) SetLogMode(mode store.LogMode) { m.logMode = mode }

func (m *miniTx) Commit() error { return m.tx.Commit() }

func (s *Store) BeginMiniTx(ctx context.Context) (store.MiniTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: failed to begin transaction: %w", err)
	}
	return &miniTx{tx: tx}, nil
}

// WriteFieldInPlace overwrites one field of the record under cur, both in
// the backing table (inside mtx's transaction) and in the cursor's cached
// copy, so a subsequent ReadField on the same cursor observes the write
// without a round trip.
func (s *Store) WriteFieldInPlace(mtx store.MiniTx, cur store.Cursor, fieldName string, value any) error {
	c, ok := cur.(*cursor)
	if !ok || c.pos < 0 || c.pos >= len(c.rows) {
		return fmt.Errorf("sqlstore: WriteFieldInPlace: cursor not positioned on a record")
	}
	mt, ok := mtx.(*miniTx)
	if !ok {
		return fmt.Errorf("sqlstore: WriteFieldInPlace: mtx not from this store")
	}

	rec := c.rows[c.pos]
	keyValues := make(map[string]any, len(c.pk))
	for _, k := range c.pk {
		v, _ := rec.Get(k)
		keyValues[k] = v
	}
	where, args := whereClause(keyValues)
	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s", c.table, sqlColumnName(fieldName), where)
	args = append([]any{sqlValue(value)}, args...)

	if _, err := mt.tx.ExecContext(context.Background(), query, args...); err != nil {
		return err
	}

	for i := range rec.Fields {
		if rec.Fields[i].Name == fieldName {
			rec.Fields[i].Value = value
			c.rows[c.pos] = rec
			return nil
		}
	}
	rec.Fields = append(rec.Fields, store.Field{Name: fieldName, Value: value})
	c.rows[c.pos] = rec
	return nil
}

// BTreeCreate allocates the next page number for spaceID out of the
// DICTENGINE_PAGES sequence table, using the same LAST_INSERT_ID idiom as
// the id sequences. Temporary trees get pages from the same counter; real
// InnoDB segregates them into a separate temporary tablespace, which this
// module does not model.
func (s *Store) BTreeCreate(mtx store.MiniTx, spaceID uint32, _ bool) (uint32, error) {
	mt, ok := mtx.(*miniTx)
	if !ok {
		return 0, fmt.Errorf("sqlstore: BTreeCreate: mtx not from this store")
	}
	if _, err := mt.tx.ExecContext(context.Background(),
		`INSERT INTO DICTENGINE_PAGES (SPACE_ID, NEXT_PAGE) VALUES (?, 1)
		 ON DUPLICATE KEY UPDATE NEXT_PAGE = LAST_INSERT_ID(NEXT_PAGE + 1)`,
		spaceID); err != nil {
		return 0, err
	}
	var page uint32
	row := mt.tx.QueryRowContext(context.Background(), "SELECT LAST_INSERT_ID()")
	if err := row.Scan(&page); err != nil {
		return 0, err
	}
	return page, nil
}

func (s *Store) BTreeFreeIfExists(_ store.MiniTx, _, _ uint32) error { return nil }
