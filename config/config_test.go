package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"dictengine/config"
	"dictengine/dict"
)

func TestParseFillsInDefaultsForOmittedFields(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader(`
		dsn = "root:pass@tcp(127.0.0.1:3306)/dictengine"
	`))
	require.NoError(t, err)
	require.Equal(t, 16384, cfg.Store.PageSize)
	require.Equal(t, config.RowFormatDynamic, cfg.Store.RowFormat)
	require.True(t, cfg.Store.StrictMode)
	require.Equal(t, "root:pass@tcp(127.0.0.1:3306)/dictengine", cfg.DSN)
}

func TestParseOverridesStoreSettings(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader(`
		[store]
		page_size = 8192
		row_format = "COMPRESSED"
		strict_mode = false
	`))
	require.NoError(t, err)
	require.Equal(t, 8192, cfg.Store.PageSize)
	require.Equal(t, config.RowFormatCompressed, cfg.Store.RowFormat)
	require.False(t, cfg.Store.StrictMode)
	require.Equal(t, dict.FlagCompact|dict.FlagAtomicBlobs|dict.FlagCompressed, cfg.Store.RowFormat.Flags())
}

func TestParseRejectsUnknownRowFormat(t *testing.T) {
	_, err := config.Parse(strings.NewReader(`
		[store]
		row_format = "wide"
	`))
	require.Error(t, err)
}

func TestParseRejectsNonPositivePageSize(t *testing.T) {
	_, err := config.Parse(strings.NewReader(`
		[store]
		page_size = 0
	`))
	require.Error(t, err)
}

func TestLoadFallsBackToDefaultWhenFileMissing(t *testing.T) {
	cfg, err := config.Load("/nonexistent/path/.dictengine.toml")
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestRowFormatFlagsMapping(t *testing.T) {
	require.Equal(t, dict.TableFlag(0), config.RowFormatRedundant.Flags())
	require.Equal(t, dict.FlagCompact, config.RowFormatCompact.Flags())
	require.Equal(t, dict.FlagCompact|dict.FlagAtomicBlobs, config.RowFormatDynamic.Flags())
}
