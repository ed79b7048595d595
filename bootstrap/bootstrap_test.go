package bootstrap_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"dictengine/bootstrap"
	"dictengine/catalog"
	"dictengine/store/memstore"
)

func TestEnsureCreatesMissingBootstrapTables(t *testing.T) {
	s := memstore.New()
	results, err := bootstrap.Ensure(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		require.True(t, r.Created)
		require.True(t, r.Pinned)
	}

	rows := s.Rows(catalog.SysTables)
	names := make(map[string]bool, len(rows))
	for _, row := range rows {
		n, _ := row.Get("NAME")
		names[n.(string)] = true
	}
	require.True(t, names[catalog.SysForeign])
	require.True(t, names[catalog.SysForeignCols])
	require.True(t, names[catalog.SysVirtual])
}

func TestEnsureIsIdempotent(t *testing.T) {
	s := memstore.New()
	_, err := bootstrap.Ensure(context.Background(), s)
	require.NoError(t, err)

	results, err := bootstrap.Ensure(context.Background(), s)
	require.NoError(t, err)
	for _, r := range results {
		require.False(t, r.Created)
		require.True(t, r.Pinned)
	}
}

func TestEnsureFailsReadOnlyWhenTablesMissing(t *testing.T) {
	s := memstore.New()
	s.SetReadOnly(true)
	_, err := bootstrap.Ensure(context.Background(), s)
	require.Error(t, err)
}
