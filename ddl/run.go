package ddl

import (
	"context"

	"dictengine/dict"
	"dictengine/store"
)

// RunTableCreate drives node to completion against s, performing the
// child-state insert itself for callers that don't need to single-step.
// It holds dict.Sys exclusively for the duration of the run, since a
// table-create is the dictionary cache's definition of one DDL operation.
func RunTableCreate(ctx context.Context, s store.Store, node *TableCreateNode) error {
	dict.Sys.Lock()
	defer dict.Sys.Unlock()
	for {
		step, err := node.Advance(ctx, s)
		if err != nil {
			return err
		}
		if step.Yield != nil {
			res, err := s.InsertTuple(ctx, step.Yield.Table, step.Yield.Tuple)
			if err != nil {
				return err
			}
			if res != store.InsertOK {
				return insertFailure(step.Yield.Table, res)
			}
		}
		if step.Done {
			return nil
		}
	}
}

// RunIndexCreate drives node to completion against s, holding dict.Sys
// exclusively for the same reason RunTableCreate does.
func RunIndexCreate(ctx context.Context, s store.Store, node *IndexCreateNode) error {
	dict.Sys.Lock()
	defer dict.Sys.Unlock()
	for {
		step, err := node.Advance(ctx, s)
		if err != nil {
			return err
		}
		if step.Yield != nil {
			res, err := s.InsertTuple(ctx, step.Yield.Table, step.Yield.Tuple)
			if err != nil {
				return err
			}
			if res != store.InsertOK {
				return insertFailure(step.Yield.Table, res)
			}
		}
		if step.Done {
			return nil
		}
	}
}
