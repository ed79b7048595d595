package ddl

import (
	"context"

	"dictengine/catalog"
	"dictengine/dict"
	"dictengine/dicterr"
	"dictengine/store"
)

// IndexCreateState is one state of the index-create driver.
type IndexCreateState int

const (
	IndexStateBuildIndexDef IndexCreateState = iota
	IndexStateBuildFieldDef
	IndexStateAddToCache
	IndexStateCreateIndexTree
	IndexStateCompleted
)

// IndexCreateNode drives a single index through BUILD_INDEX_DEF ->
// BUILD_FIELD_DEF -> ADD_TO_CACHE -> CREATE_INDEX_TREE.
type IndexCreateNode struct {
	Table *dict.Table
	Index *dict.Index
	State IndexCreateState
	TrxID uint64

	// EncryptionMode/KeyID travel with the create call down to
	// store.BTreeCreate, even though the tablespace/encryption service
	// itself is out of scope (supplemented from dict0crea.cc's
	// ind_create_graph_create).
	EncryptionMode string
	KeyID          uint32

	Temporary bool // runs CREATE_INDEX_TREE with SetLogMode(LogNoRedo)

	fieldPos int
}

// NewIndexCreateNode starts a new index-create driver for ix on t.
func NewIndexCreateNode(t *dict.Table, ix *dict.Index, trxID uint64) *IndexCreateNode {
	return &IndexCreateNode{Table: t, Index: ix, TrxID: trxID}
}

// Advance runs exactly one state of the index-create driver.
func (n *IndexCreateNode) Advance(ctx context.Context, s store.Store) (StepResult, error) {
	switch n.State {
	case IndexStateBuildIndexDef:
		return n.advanceBuildIndexDef(ctx, s)
	case IndexStateBuildFieldDef:
		return n.advanceBuildFieldDef(ctx, s)
	case IndexStateAddToCache:
		n.Index.RecountNullable()
		n.Index.NCoreNullBytes = (n.Index.NNullable + 7) / 8
		n.State = IndexStateCreateIndexTree
		return StepResult{}, nil
	case IndexStateCreateIndexTree:
		return n.advanceCreateIndexTree(ctx, s)
	default:
		return StepResult{Done: true}, nil
	}
}

func (n *IndexCreateNode) advanceBuildIndexDef(ctx context.Context, s store.Store) (StepResult, error) {
	id, err := s.NewIndexID(ctx)
	if err != nil {
		return StepResult{}, err
	}
	n.Index.ID = id
	n.Index.TrxID = n.TrxID
	n.Table.DefTrxID = n.TrxID
	n.Index.Page = dict.FilNull

	tuple := catalog.SysIndexesTuple(n.Table, n.Index, true)
	n.State = IndexStateBuildFieldDef
	return StepResult{Yield: &ChildWork{Table: catalog.SysIndexes, Tuple: tuple}}, nil
}

func (n *IndexCreateNode) advanceBuildFieldDef(ctx context.Context, s store.Store) (StepResult, error) {
	if n.fieldPos == 0 && n.Table.SpaceID == dict.UnassignedSpace && n.Table.Flags2&dict.Flag2Discarded == 0 {
		spaceID, ok, err := s.NewSpaceID(ctx)
		if err != nil {
			return StepResult{}, err
		}
		if !ok {
			return StepResult{}, dicterr.New(dicterr.OutOfResources, dicterr.CategoryResource, n.Table.Name,
				"tablespace id space exhausted")
		}
		n.Table.SpaceID = spaceID
		if err := s.CreateTablespace(ctx, spaceID, n.Table.Name); err != nil {
			return StepResult{}, err
		}
	}

	if n.fieldPos < len(n.Index.Fields) {
		wide := catalog.IndexNeedsWidePos(n.Index)
		tuple := catalog.SysFieldsTuple(n.Index, n.fieldPos, wide)
		n.fieldPos++
		return StepResult{Yield: &ChildWork{Table: catalog.SysFields, Tuple: tuple}}, nil
	}

	n.State = IndexStateAddToCache
	return StepResult{}, nil
}

func (n *IndexCreateNode) advanceCreateIndexTree(ctx context.Context, s store.Store) (StepResult, error) {
	if n.Index.Type&dict.IndexFTS != 0 {
		if err := catalog.CommitIndexName(ctx, s, n.Table, n.Index); err != nil {
			return StepResult{}, err
		}
		n.State = IndexStateCompleted
		return StepResult{Done: true}, nil
	}

	page, err := catalog.CreateIndexTree(ctx, s, n.Table, n.Index, n.Temporary)
	if err != nil {
		return StepResult{}, err
	}
	n.Index.Page = page
	if err := catalog.CommitIndexName(ctx, s, n.Table, n.Index); err != nil {
		return StepResult{}, err
	}
	n.State = IndexStateCompleted
	return StepResult{Done: true}, nil
}
