package sqlstore

import (
	"context"
	"strings"
)

// tableSchema describes one persistent system table's physical layout: its
// non-system columns (in tuple field order) and which of them form its
// clustered unique key, mirroring catalog's fixed tuple layouts as real SQL
// DDL.
type tableSchema struct {
	name string
	ddl  string
	pk   []string
}

var schemas = []tableSchema{
	{
		name: "SYS_TABLES",
		pk:   []string{"NAME"},
		ddl: `CREATE TABLE IF NOT EXISTS SYS_TABLES (
			NAME VARCHAR(192) NOT NULL,
			ID BIGINT UNSIGNED NOT NULL,
			N_COLS INT UNSIGNED NOT NULL,
			TYPE INT UNSIGNED NOT NULL,
			MIX_ID BIGINT UNSIGNED NOT NULL,
			MIX_LEN INT UNSIGNED NOT NULL,
			CLUSTER_NAME VARCHAR(192) NULL,
			SPACE INT UNSIGNED NOT NULL,
			DB_TRX_ID BIGINT UNSIGNED NOT NULL,
			DB_ROLL_PTR BIGINT UNSIGNED NOT NULL,
			PRIMARY KEY (NAME)
		) ENGINE=InnoDB`,
	},
	{
		name: "SYS_COLUMNS",
		pk:   []string{"TABLE_ID", "POS"},
		ddl: `CREATE TABLE IF NOT EXISTS SYS_COLUMNS (
			TABLE_ID BIGINT UNSIGNED NOT NULL,
			POS INT UNSIGNED NOT NULL,
			NAME VARCHAR(192) NOT NULL,
			MTYPE INT UNSIGNED NOT NULL,
			PRTYPE INT UNSIGNED NOT NULL,
			LEN INT UNSIGNED NOT NULL,
			PREC_ INT UNSIGNED NOT NULL,
			DB_TRX_ID BIGINT UNSIGNED NOT NULL,
			DB_ROLL_PTR BIGINT UNSIGNED NOT NULL,
			PRIMARY KEY (TABLE_ID, POS)
		) ENGINE=InnoDB`,
	},
	{
		name: "SYS_INDEXES",
		pk:   []string{"TABLE_ID", "ID"},
		ddl: `CREATE TABLE IF NOT EXISTS SYS_INDEXES (
			TABLE_ID BIGINT UNSIGNED NOT NULL,
			ID BIGINT UNSIGNED NOT NULL,
			NAME VARBINARY(192) NOT NULL,
			N_FIELDS INT UNSIGNED NOT NULL,
			TYPE INT UNSIGNED NOT NULL,
			SPACE INT UNSIGNED NOT NULL,
			PAGE_NO INT UNSIGNED NOT NULL,
			MERGE_THRESHOLD INT UNSIGNED NOT NULL,
			DB_TRX_ID BIGINT UNSIGNED NOT NULL,
			DB_ROLL_PTR BIGINT UNSIGNED NOT NULL,
			PRIMARY KEY (TABLE_ID, ID)
		) ENGINE=InnoDB`,
	},
	{
		name: "SYS_FIELDS",
		pk:   []string{"INDEX_ID", "POS"},
		ddl: `CREATE TABLE IF NOT EXISTS SYS_FIELDS (
			INDEX_ID BIGINT UNSIGNED NOT NULL,
			POS INT UNSIGNED NOT NULL,
			COL_NAME VARCHAR(192) NOT NULL,
			DB_TRX_ID BIGINT UNSIGNED NOT NULL,
			DB_ROLL_PTR BIGINT UNSIGNED NOT NULL,
			PRIMARY KEY (INDEX_ID, POS)
		) ENGINE=InnoDB`,
	},
	{
		name: "SYS_VIRTUAL",
		pk:   []string{"TABLE_ID", "POS", "BASE_POS"},
		ddl: `CREATE TABLE IF NOT EXISTS SYS_VIRTUAL (
			TABLE_ID BIGINT UNSIGNED NOT NULL,
			POS INT UNSIGNED NOT NULL,
			BASE_POS INT UNSIGNED NOT NULL,
			DB_TRX_ID BIGINT UNSIGNED NOT NULL,
			DB_ROLL_PTR BIGINT UNSIGNED NOT NULL,
			PRIMARY KEY (TABLE_ID, POS, BASE_POS)
		) ENGINE=InnoDB`,
	},
	{
		name: "SYS_FOREIGN",
		pk:   []string{"ID"},
		ddl: `CREATE TABLE IF NOT EXISTS SYS_FOREIGN (
			ID VARCHAR(192) NOT NULL,
			FOR_NAME VARCHAR(192) NOT NULL,
			REF_NAME VARCHAR(192) NOT NULL,
			N_COLS INT UNSIGNED NOT NULL,
			DB_TRX_ID BIGINT UNSIGNED NOT NULL,
			DB_ROLL_PTR BIGINT UNSIGNED NOT NULL,
			PRIMARY KEY (ID)
		) ENGINE=InnoDB`,
	},
	{
		name: "SYS_FOREIGN_COLS",
		pk:   []string{"ID", "POS"},
		ddl: `CREATE TABLE IF NOT EXISTS SYS_FOREIGN_COLS (
			ID VARCHAR(192) NOT NULL,
			POS INT UNSIGNED NOT NULL,
			FOR_COL_NAME VARCHAR(192) NOT NULL,
			REF_COL_NAME VARCHAR(192) NOT NULL,
			DB_TRX_ID BIGINT UNSIGNED NOT NULL,
			DB_ROLL_PTR BIGINT UNSIGNED NOT NULL,
			PRIMARY KEY (ID, POS)
		) ENGINE=InnoDB`,
	},
}

// bookkeepingDDL creates the small internal tables sqlstore itself needs: a
// generic id/page sequence generator and a tablespace registry. These have
// no catalog tuple shape of their own; they stand in for the B-tree/
// tablespace allocator that store.Store hides behind its interface.
const bookkeepingDDL = `
CREATE TABLE IF NOT EXISTS DICTENGINE_SEQUENCES (
	NAME VARCHAR(64) NOT NULL,
	NEXT_VAL BIGINT UNSIGNED NOT NULL,
	PRIMARY KEY (NAME)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS DICTENGINE_PAGES (
	SPACE_ID INT UNSIGNED NOT NULL,
	NEXT_PAGE INT UNSIGNED NOT NULL,
	PRIMARY KEY (SPACE_ID)
) ENGINE=InnoDB;

CREATE TABLE IF NOT EXISTS DICTENGINE_TABLESPACES (
	SPACE_ID INT UNSIGNED NOT NULL,
	NAME VARCHAR(192) NOT NULL,
	READABLE TINYINT NOT NULL DEFAULT 1,
	PRIMARY KEY (SPACE_ID)
) ENGINE=InnoDB;
`

// schemaByName looks up a catalog table's physical schema by name.
func schemaByName(table string) (tableSchema, bool) {
	for _, s := range schemas {
		if s.name == table {
			return s, true
		}
	}
	return tableSchema{}, false
}

// CreateSchema creates the seven system tables plus sqlstore's own
// bookkeeping tables, if they do not already exist. Callers typically run
// this once against a fresh database before handing the *Store to
// bootstrap.Ensure or the ddl driver.
func (s *Store) CreateSchema(ctx context.Context) error {
	for _, sc := range schemas {
		if _, err := s.db.ExecContext(ctx, sc.ddl); err != nil {
			return err
		}
	}
	for _, stmt := range strings.Split(bookkeepingDDL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
