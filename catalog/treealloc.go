package catalog

import (
	"context"

	"dictengine/dict"
	"dictengine/dicterr"
	"dictengine/store"
)

// CreateIndexTree allocates a B-tree root for ix and patches its SYS_INDEXES
// PAGE_NO column in place. temporary runs the
// allocating mini-transaction with LogNoRedo and leaves PAGE_NO in SYS_INDEXES
// untouched, storing the root only in the in-memory index.
func CreateIndexTree(ctx context.Context, s store.Store, t *dict.Table, ix *dict.Index, temporary bool) (uint32, error) {
	mtx, err := s.BeginMiniTx(ctx)
	if err != nil {
		return 0, err
	}
	if temporary {
		mtx.SetLogMode(store.LogNoRedo)
	}

	if !s.TableReadable(t.SpaceID) {
		return dict.FilNull, nil
	}

	page, err := s.BTreeCreate(mtx, t.SpaceID, temporary)
	if err != nil {
		return 0, err
	}
	if page == dict.FilNull {
		return 0, dicterr.New(dicterr.OutOfFileSpace, dicterr.CategoryResource, t.Name,
			"failed to allocate a B-tree root for index %q", ix.Name)
	}

	if !temporary {
		cur, err := s.OpenCursor(ctx, SysIndexes, []any{t.ID, ix.ID}, store.CursorModifyLeaf)
		if err != nil {
			return 0, err
		}
		defer cur.Close()
		if !cur.MoveToNextUserRec() {
			return 0, dicterr.Invariant("SYS_INDEXES record for index %q not found while patching PAGE_NO", ix.Name)
		}
		if err := s.WriteFieldInPlace(mtx, cur, "PAGE_NO", page); err != nil {
			return 0, err
		}
	}

	if err := mtx.Commit(); err != nil {
		return 0, err
	}
	return page, nil
}

// CommitIndexName renames ix's SYS_INDEXES row from its uncommitted,
// TempIndexPrefix-prefixed NAME to its real name, matching the point
// dict_index_add_to_cache makes a newly built index visible to ordinary
// catalog lookups. Called once index-create has reached its terminal
// state, whether or not it allocated a B-tree of its own.
func CommitIndexName(ctx context.Context, s store.Store, t *dict.Table, ix *dict.Index) error {
	mtx, err := s.BeginMiniTx(ctx)
	if err != nil {
		return err
	}
	cur, err := s.OpenCursor(ctx, SysIndexes, []any{t.ID, ix.ID}, store.CursorModifyLeaf)
	if err != nil {
		return err
	}
	defer cur.Close()
	if !cur.MoveToNextUserRec() {
		return dicterr.Invariant("SYS_INDEXES record for index %q not found while committing its name", ix.Name)
	}
	if err := s.WriteFieldInPlace(mtx, cur, "NAME", ix.Name); err != nil {
		return err
	}
	return mtx.Commit()
}

// DropIndexTree is the literal inverse of CreateIndexTree: reads PAGE_NO
// from the SYS_INDEXES record under the cursor, frees the B-tree, and
// overwrites PAGE_NO with FIL_NULL, unless the tree already has no root or
// the tablespace is gone. The record's TYPE and SPACE fields are not read:
// the index type comes from ix and the tablespace id from t.SpaceID. If ix is the clustered index of a
// single-table tablespace, the caller must drop spaceID as a whole instead
// of freeing individual pages; singleTableSpace reports this case.
func DropIndexTree(ctx context.Context, s store.Store, t *dict.Table, ix *dict.Index) (singleTableSpace bool, spaceID uint32, err error) {
	mtx, err := s.BeginMiniTx(ctx)
	if err != nil {
		return false, 0, err
	}

	cur, err := s.OpenCursor(ctx, SysIndexes, []any{t.ID, ix.ID}, store.CursorModifyLeaf)
	if err != nil {
		return false, 0, err
	}
	defer cur.Close()
	if !cur.MoveToNextUserRec() {
		return false, 0, dicterr.New(dicterr.IndexCorrupt, dicterr.CategoryCorruption, t.Name,
			"SYS_INDEXES record for index %q not found while dropping its tree", ix.Name)
	}

	rec := cur.Record()
	page, ok := rec.Get("PAGE_NO")
	if !ok {
		return false, 0, dicterr.New(dicterr.IndexCorrupt, dicterr.CategoryCorruption, t.Name,
			"SYS_INDEXES record for index %q is missing PAGE_NO", ix.Name)
	}
	root, _ := page.(uint32)

	if ix.IsClustered() && t.Flags2&dict.Flag2FilePerTable != 0 {
		return true, t.SpaceID, nil
	}

	if root == dict.FilNull || !s.TablespaceExists(t.SpaceID) {
		return false, 0, nil
	}

	if err := s.BTreeFreeIfExists(mtx, t.SpaceID, root); err != nil {
		return false, 0, err
	}
	if err := s.WriteFieldInPlace(mtx, cur, "PAGE_NO", dict.FilNull); err != nil {
		return false, 0, err
	}
	if err := mtx.Commit(); err != nil {
		return false, 0, err
	}
	return false, 0, nil
}
