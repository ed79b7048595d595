package sqlstore_test

import (
	"context"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"dictengine/store"
	"dictengine/store/sqlstore"
)

// setupStore starts a throwaway MySQL container, opens a *sqlstore.Store
// against it, and creates the seven system tables plus sqlstore's own
// bookkeeping tables.
func setupStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("dictengine"),
		mysql.WithUsername("root"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err, "failed to get connection string")

	s, err := sqlstore.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.CreateSchema(ctx))
	return s
}

func TestInsertTupleAndCursorRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	res, err := s.InsertTuple(ctx, "SYS_TABLES", store.Tuple{Fields: []store.Field{
		{Name: "NAME", Value: "orders"},
		{Name: "ID", Value: uint64(7)},
		{Name: "N_COLS", Value: uint32(3)},
		{Name: "TYPE", Value: uint32(1)},
		{Name: "MIX_ID", Value: uint64(0)},
		{Name: "MIX_LEN", Value: uint32(0)},
		{Name: "CLUSTER_NAME", Value: nil},
		{Name: "SPACE", Value: uint32(5)},
	}})
	require.NoError(t, err)
	require.Equal(t, store.InsertOK, res)

	cur, err := s.OpenCursor(ctx, "SYS_TABLES", []any{"orders"}, store.CursorModifyLeaf)
	require.NoError(t, err)
	defer cur.Close()

	require.True(t, cur.MoveToNextUserRec())
	name, ok := cur.Record().Get("NAME")
	require.True(t, ok)
	require.Equal(t, "orders", name)
}

func TestInsertTupleRejectsDuplicateKey(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	tuple := store.Tuple{Fields: []store.Field{
		{Name: "NAME", Value: "widgets"},
		{Name: "ID", Value: uint64(1)},
		{Name: "N_COLS", Value: uint32(1)},
		{Name: "TYPE", Value: uint32(1)},
		{Name: "MIX_ID", Value: uint64(0)},
		{Name: "MIX_LEN", Value: uint32(0)},
		{Name: "CLUSTER_NAME", Value: nil},
		{Name: "SPACE", Value: uint32(1)},
	}}
	res, err := s.InsertTuple(ctx, "SYS_TABLES", tuple)
	require.NoError(t, err)
	require.Equal(t, store.InsertOK, res)

	res, err = s.InsertTuple(ctx, "SYS_TABLES", tuple)
	require.NoError(t, err)
	require.Equal(t, store.InsertDuplicateKey, res)
}

func TestWriteFieldInPlaceUpdatesRow(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.InsertTuple(ctx, "SYS_INDEXES", store.Tuple{Fields: []store.Field{
		{Name: "TABLE_ID", Value: uint64(1)},
		{Name: "ID", Value: uint64(1)},
		{Name: "NAME", Value: "PRIMARY"},
		{Name: "N_FIELDS", Value: uint32(1)},
		{Name: "TYPE", Value: uint32(3)},
		{Name: "SPACE", Value: uint32(1)},
		{Name: "PAGE_NO", Value: uint32(0xFFFFFFFF)},
		{Name: "MERGE_THRESHOLD", Value: uint32(50)},
	}})
	require.NoError(t, err)

	mtx, err := s.BeginMiniTx(ctx)
	require.NoError(t, err)

	cur, err := s.OpenCursor(ctx, "SYS_INDEXES", []any{uint64(1), uint64(1)}, store.CursorModifyLeaf)
	require.NoError(t, err)
	defer cur.Close()
	require.True(t, cur.MoveToNextUserRec())

	require.NoError(t, s.WriteFieldInPlace(mtx, cur, "PAGE_NO", uint32(42)))
	require.NoError(t, mtx.Commit())

	pageNo, ok := cur.ReadField(6)
	require.True(t, ok)
	require.EqualValues(t, 42, pageNo)
}

func TestBTreeCreateAllocatesIncreasingPages(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	mtx, err := s.BeginMiniTx(ctx)
	require.NoError(t, err)

	first, err := s.BTreeCreate(mtx, 1, false)
	require.NoError(t, err)
	second, err := s.BTreeCreate(mtx, 1, false)
	require.NoError(t, err)
	require.Greater(t, second, first)
	require.NoError(t, mtx.Commit())
}

func TestNewTableIDIsMonotonic(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	a, err := s.NewTableID(ctx)
	require.NoError(t, err)
	b, err := s.NewTableID(ctx)
	require.NoError(t, err)
	require.Greater(t, b, a)
}

func TestTablespaceLifecycle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.False(t, s.TablespaceExists(99))
	require.NoError(t, s.CreateTablespace(ctx, 99, "orders.ibd"))
	require.True(t, s.TablespaceExists(99))
	require.True(t, s.TableReadable(99))
}

func TestDeleteWhereRemovesMatchingRows(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.InsertTuple(ctx, "SYS_FOREIGN", store.Tuple{Fields: []store.Field{
		{Name: "ID", Value: "orders/fk_1"},
		{Name: "FOR_NAME", Value: "orders"},
		{Name: "REF_NAME", Value: "customers"},
		{Name: "N_COLS", Value: uint32(1)},
	}})
	require.NoError(t, err)

	n, err := s.DeleteWhere(ctx, "SYS_FOREIGN", map[string]any{"ID": "orders/fk_1"})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	cur, err := s.OpenCursor(ctx, "SYS_FOREIGN", nil, store.CursorModifyLeaf)
	require.NoError(t, err)
	defer cur.Close()
	require.False(t, cur.MoveToNextUserRec())
}
