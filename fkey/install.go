// Package fkey installs and drops foreign-key constraints against the
// catalog: constraint-id generation, leading-column index lookup, and
// SYS_FOREIGN/SYS_FOREIGN_COLS maintenance.
package fkey

import (
	"context"
	"fmt"
	"strings"

	"dictengine/catalog"
	"dictengine/dict"
	"dictengine/dicterr"
	"dictengine/store"
)

// Install adds fk to table, generating or validating its constraint id,
// resolving its foreign_index if not pre-bound, and writing SYS_FOREIGN /
// SYS_FOREIGN_COLS. The in-memory dictionary cache (table.ForeignSet) is
// not touched here: a later reload step owns that.
func Install(ctx context.Context, s store.Store, table *dict.Table, fk *dict.Foreign) error {
	if err := assignOrValidateID(table, fk); err != nil {
		return err
	}

	if fk.ForeignIndex == nil {
		idx, err := findLeadingColumnIndex(table, fk, nil)
		if err != nil {
			return err
		}
		fk.ForeignIndex = idx
	}

	if err := validateNoStoredGeneratedColumnConflict(table, fk); err != nil {
		return err
	}

	res, err := s.InsertTuple(ctx, catalog.SysForeign, catalog.SysForeignTuple(fk))
	if err != nil {
		return err
	}
	if res == store.InsertDuplicateKey {
		return dicterr.New(dicterr.DupConstraintName, dicterr.CategoryPolicy, table.Name,
			"constraint %q already exists: %s", fk.ID, definitionOf(fk))
	}
	if res != store.InsertOK {
		return insertFailure(catalog.SysForeign, res)
	}

	for _, tuple := range catalog.SysForeignColsTuples(fk) {
		res, err := s.InsertTuple(ctx, catalog.SysForeignCols, tuple)
		if err != nil {
			return err
		}
		if res != store.InsertOK {
			return insertFailure(catalog.SysForeignCols, res)
		}
	}
	return nil
}

// Drop removes the foreign key named id: its SYS_FOREIGN and
// SYS_FOREIGN_COLS rows, both keyed by ID.
func Drop(ctx context.Context, s store.Store, id string) error {
	if _, err := s.DeleteWhere(ctx, catalog.SysForeign, map[string]any{"ID": id}); err != nil {
		return err
	}
	if _, err := s.DeleteWhere(ctx, catalog.SysForeignCols, map[string]any{"ID": id}); err != nil {
		return err
	}
	return nil
}

func insertFailure(table string, res store.InsertResult) error {
	switch res {
	case store.InsertOutOfSpace:
		return dicterr.New(dicterr.OutOfFileSpace, dicterr.CategoryResource, table, "out of space inserting into %s", table)
	case store.InsertCorruption:
		return dicterr.New(dicterr.Corruption, dicterr.CategoryCorruption, table, "corruption inserting into %s", table)
	default:
		return dicterr.Invariant("unexpected insert result %d for %s", res, table)
	}
}

// assignOrValidateID fills fk.ID with "<db>/constraint_N" for the smallest
// N making it unique in table.ForeignSet when the caller supplied none, or
// rejects a user-supplied id that collides.
func assignOrValidateID(table *dict.Table, fk *dict.Foreign) error {
	if fk.ID != "" {
		for _, existing := range table.ForeignSet {
			if existing.ID == fk.ID {
				return dicterr.New(dicterr.DupConstraintName, dicterr.CategoryPolicy, table.Name,
					"constraint %q already exists", fk.ID)
			}
		}
		return nil
	}

	db := table.Name
	if i := strings.IndexByte(table.Name, '/'); i >= 0 {
		db = table.Name[:i]
	}
	used := make(map[string]bool, len(table.ForeignSet))
	for _, existing := range table.ForeignSet {
		used[existing.ID] = true
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s/constraint_%d", db, n)
		if !used[candidate] {
			fk.ID = candidate
			return nil
		}
	}
}

// findLeadingColumnIndex locates an index on table whose leading columns
// match fk.ForeignColNames in order, honoring the SET NULL nullability rule
// (every matched column must be nullable when fk.Type has SET NULL), and
// excluding any index in droppingSet.
func findLeadingColumnIndex(table *dict.Table, fk *dict.Foreign, droppingSet map[*dict.Index]bool) (*dict.Index, error) {
	for _, ix := range table.Indexes {
		if droppingSet[ix] {
			continue
		}
		if !indexLeadsWith(ix, fk.ForeignColNames) {
			continue
		}
		if fk.Type.HasSetNull() && !leadingColumnsNullable(ix, len(fk.ForeignColNames)) {
			continue
		}
		return ix, nil
	}
	return nil, dicterr.New(dicterr.IncorrectOption, dicterr.CategoryPolicy, table.Name,
		"no suitable index found for foreign key columns %v", fk.ForeignColNames)
}

func indexLeadsWith(ix *dict.Index, colNames []string) bool {
	if len(ix.Fields) < len(colNames) {
		return false
	}
	for i, name := range colNames {
		if ix.Fields[i].Col.IsDropped() {
			return false
		}
		if ix.Fields[i].Name != name {
			return false
		}
	}
	return true
}

func leadingColumnsNullable(ix *dict.Index, n int) bool {
	for i := 0; i < n && i < len(ix.Fields); i++ {
		col := ix.Fields[i].Col.Column()
		if col == nil || col.NotNull() {
			return false
		}
	}
	return true
}

// validateNoStoredGeneratedColumnConflict rejects a foreign key whose
// action would null a column that is also a base column of a stored
// (non-virtual) generated column.
func validateNoStoredGeneratedColumnConflict(table *dict.Table, fk *dict.Foreign) error {
	if !fk.Type.HasSetNull() {
		return nil
	}
	nullable := make(map[string]bool, len(fk.ForeignColNames))
	for _, name := range fk.ForeignColNames {
		nullable[name] = true
	}
	for _, v := range table.VCols {
		if v.MCol.PType&dict.PTypeVirtual != 0 {
			continue // purely virtual, not stored
		}
		for _, b := range v.BaseCol {
			if b.Col != nil && nullable[b.Col.Name] {
				return dicterr.New(dicterr.CannotAddConstraint, dicterr.CategoryPolicy, table.Name,
					"column %q cannot be set NULL: it is a base column of stored generated column %q",
					b.Col.Name, v.MCol.Name)
			}
		}
	}
	return nil
}

// definitionOf reconstructs a human-readable definition of fk for the
// DUP_CONSTRAINT_NAME error message.
func definitionOf(fk *dict.Foreign) string {
	return fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
		strings.Join(fk.ForeignColNames, ", "), fk.ReferencedTableName, strings.Join(fk.ReferencedColNames, ", "))
}
