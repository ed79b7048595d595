package main

import (
	"context"
	"fmt"

	"dictengine/catalog"
	"dictengine/ddl"
	"dictengine/dict"
	"dictengine/store"
)

// resolveTable makes table ready to accept new indexes or an instant ALTER
// against s: if a SYS_TABLES row already exists under table.Name, its ID
// and tablespace are copied onto table and nothing is written; otherwise
// the table (and its clustered index, if any) is created from scratch.
// This is how create-index/alter-instant cope with dictctl having no
// catalog-tuple reader: each invocation re-parses --table-sql locally and
// only writes to the store the parts that are actually new.
func resolveTable(ctx context.Context, s store.Store, table *dict.Table) error {
	cur, err := s.OpenCursor(ctx, catalog.SysTables, []any{table.Name}, store.CursorModifyLeaf)
	if err != nil {
		return fmt.Errorf("dictctl: looking up table %s: %w", table.Name, err)
	}
	defer cur.Close()

	if cur.MoveToNextUserRec() {
		rec := cur.Record()
		if name, ok := rec.Get("NAME"); ok && name == table.Name {
			id, _ := rec.Get("ID")
			space, _ := rec.Get("SPACE")
			table.ID = toUint64(id)
			table.SpaceID = toUint32(space)
			return nil
		}
	}

	return createTableAndClustered(ctx, s, table)
}

func createTableAndClustered(ctx context.Context, s store.Store, table *dict.Table) error {
	node := ddl.NewTableCreateNode(table, true, 0)
	if err := ddl.RunTableCreate(ctx, s, node); err != nil {
		return fmt.Errorf("dictctl: creating table %s: %w", table.Name, err)
	}
	if clustered := table.Clustered(); clustered != nil {
		clusteredNode := ddl.NewIndexCreateNode(table, clustered, 0)
		if err := ddl.RunIndexCreate(ctx, s, clusteredNode); err != nil {
			return fmt.Errorf("dictctl: creating clustered index for %s: %w", table.Name, err)
		}
	}
	return nil
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case uint64:
		return n
	case uint32:
		return uint64(n)
	case int64:
		return uint64(n)
	case int:
		return uint64(n)
	default:
		return 0
	}
}

func toUint32(v any) uint32 {
	return uint32(toUint64(v))
}
