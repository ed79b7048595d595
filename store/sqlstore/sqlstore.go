// Package sqlstore is a store.Store backend that persists the seven system
// tables as real tables in a MySQL-family server, reached over
// database/sql, instead of holding them in process memory like memstore.
// Connection handling opens with sql.Open then an immediate PingContext so
// a bad DSN fails fast.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"dictengine/dict"
	"dictengine/store"
)

// Store is a MySQL-backed implementation of store.Store.
type Store struct {
	db       *sql.DB
	readOnly bool
}

// Open opens a MySQL connection pool for dsn and pings it, returning a
// ready-to-use Store. Callers that need fresh system tables should follow
// Open with CreateSchema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: failed to open database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("sqlstore: failed to ping database: %w; additionally failed to close connection: %w", err, closeErr)
		}
		return nil, fmt.Errorf("sqlstore: failed to ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// SetReadOnly marks the store as forbidding DDL writes, mirroring
// memstore.SetReadOnly for the same read-only bootstrap path.
func (s *Store) SetReadOnly(ro bool) { s.readOnly = ro }

func (s *Store) ReadOnly() bool { return s.readOnly }

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying *sql.DB for callers (bootstrap, tests) that
// need to run ad hoc statements outside the store.Store interface.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) InsertTuple(ctx context.Context, table string, tuple store.Tuple) (store.InsertResult, error) {
	cols := make([]string, 0, len(tuple.Fields)+2)
	placeholders := make([]string, 0, len(tuple.Fields)+2)
	args := make([]any, 0, len(tuple.Fields)+2)
	for _, f := range tuple.Fields {
		cols = append(cols, sqlColumnName(f.Name))
		placeholders = append(placeholders, "?")
		args = append(args, sqlValue(f.Value))
	}
	cols = append(cols, "DB_TRX_ID", "DB_ROLL_PTR")
	placeholders = append(placeholders, "?", "?")
	args = append(args, sqlValue(uint64(0)), sqlValue(uint64(0)))

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, joinCols(cols), joinCols(placeholders))
	_, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return store.InsertDuplicateKey, nil
		}
		return store.InsertCorruption, err
	}
	return store.InsertOK, nil
}

func (s *Store) DeleteWhere(ctx context.Context, table string, keyValues map[string]any) (int, error) {
	where, args := whereClause(keyValues)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", table, where)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) TableReadable(spaceID uint32) bool {
	var readable bool
	row := s.db.QueryRowContext(context.Background(),
		"SELECT READABLE FROM DICTENGINE_TABLESPACES WHERE SPACE_ID = ?", spaceID)
	if err := row.Scan(&readable); err != nil {
		return true // unregistered tablespace: assume readable, matching memstore's default
	}
	return readable
}

func (s *Store) TablespaceExists(spaceID uint32) bool {
	if spaceID == dict.UnassignedSpace {
		return false
	}
	var n int
	row := s.db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM DICTENGINE_TABLESPACES WHERE SPACE_ID = ?", spaceID)
	if err := row.Scan(&n); err != nil {
		return false
	}
	return n > 0
}

func (s *Store) CreateTablespace(ctx context.Context, spaceID uint32, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO DICTENGINE_TABLESPACES (SPACE_ID, NAME, READABLE) VALUES (?, ?, 1)
		 ON DUPLICATE KEY UPDATE NAME = VALUES(NAME), READABLE = 1`,
		spaceID, name)
	return err
}

// NewTableID, NewIndexID and NewSpaceID all hand out ids from the same
// generic sequence table, keyed by name, using the classic MySQL
// "INSERT ... ON DUPLICATE KEY UPDATE x = LAST_INSERT_ID(x + 1)" idiom for a
// gapless counter without a dedicated stored procedure.
func (s *Store) nextSequence(ctx context.Context, name string) (uint64, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO DICTENGINE_SEQUENCES (NAME, NEXT_VAL) VALUES (?, LAST_INSERT_ID(1))
		 ON DUPLICATE KEY UPDATE NEXT_VAL = LAST_INSERT_ID(NEXT_VAL + 1)`,
		name)
	if err != nil {
		return 0, err
	}
	var id uint64
	row := s.db.QueryRowContext(ctx, "SELECT LAST_INSERT_ID()")
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) NewTableID(ctx context.Context) (uint64, error) {
	return s.nextSequence(ctx, "TABLE_ID")
}

func (s *Store) NewIndexID(ctx context.Context) (uint64, error) {
	return s.nextSequence(ctx, "INDEX_ID")
}

func (s *Store) NewSpaceID(ctx context.Context) (uint32, bool, error) {
	id, err := s.nextSequence(ctx, "SPACE_ID")
	if err != nil {
		return 0, false, err
	}
	if id > 0xFFFFFFFE { // 0xFFFFFFFF is dict.UnassignedSpace
		return 0, false, nil
	}
	return uint32(id), true, nil
}

func joinCols(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

// sqlColumnName maps a store.Tuple field name to its physical SQL column
// name: "PREC" collides with a MySQL reserved-ish identifier style used
// nowhere else in this schema, so catalog's PREC field is stored as PREC_.
func sqlColumnName(field string) string {
	if field == "PREC" {
		return "PREC_"
	}
	return field
}

// sqlValue narrows the Go types catalog's tuple builders emit (uint64,
// uint32, nil, string) down to the types database/sql's default value
// converter accepts without surprises.
func sqlValue(v any) any {
	switch n := v.(type) {
	case uint64:
		return int64(n)
	case uint32:
		return int64(n)
	case uint16:
		return int64(n)
	case uint8:
		return int64(n)
	default:
		return v
	}
}

func whereClause(keyValues map[string]any) (string, []any) {
	clause := ""
	args := make([]any, 0, len(keyValues))
	i := 0
	for k, v := range keyValues {
		if i > 0 {
			clause += " AND "
		}
		clause += sqlColumnName(k) + " = ?"
		args = append(args, sqlValue(v))
		i++
	}
	return clause, args
}
