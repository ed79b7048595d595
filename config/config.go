// Package config loads dictctl's default store parameters from a
// .dictengine.toml file: github.com/BurntSushi/toml decoding a plain
// tagged struct, no reflection magic beyond that.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"dictengine/dict"
)

// DefaultFile is the config file name dictctl looks for in the current
// directory when --config is not given.
const DefaultFile = ".dictengine.toml"

// RowFormat names one of the row formats a newly created table may default
// to, mirroring the ROW_FORMAT bits dict.TableFlag carries.
type RowFormat string

const (
	RowFormatRedundant RowFormat = "redundant"
	RowFormatCompact   RowFormat = "compact"
	RowFormatDynamic   RowFormat = "dynamic"
	RowFormatCompressed RowFormat = "compressed"
)

// Flags returns the dict.TableFlag bits this row format implies. Redundant
// carries none of the flag bits dict.TableFlag defines.
func (f RowFormat) Flags() dict.TableFlag {
	switch f {
	case RowFormatCompact:
		return dict.FlagCompact
	case RowFormatDynamic:
		return dict.FlagCompact | dict.FlagAtomicBlobs
	case RowFormatCompressed:
		return dict.FlagCompact | dict.FlagAtomicBlobs | dict.FlagCompressed
	default:
		return 0
	}
}

// StoreConfig holds dictctl's default store parameters (the [store] table).
type StoreConfig struct {
	PageSize   int       `toml:"page_size"`
	RowFormat  RowFormat `toml:"row_format"`
	StrictMode bool      `toml:"strict_mode"`
}

// Config is the top-level shape of a .dictengine.toml document.
type Config struct {
	Store StoreConfig `toml:"store"`
	DSN   string       `toml:"dsn"`
}

// Default returns the configuration dictctl uses when no file is present:
// 16K pages, DYNAMIC row format, and strict mode on (matching InnoDB's own
// modern defaults).
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			PageSize:   16384,
			RowFormat:  RowFormatDynamic,
			StrictMode: true,
		},
	}
}

// Load reads and validates path, falling back to Default() if path does not
// exist at all: an absent config file is not an error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a .dictengine.toml document from r and fills in any field
// the document omits from Default().
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode error: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Store.PageSize <= 0 {
		return fmt.Errorf("config: store.page_size must be positive, got %d", c.Store.PageSize)
	}
	switch strings.ToLower(string(c.Store.RowFormat)) {
	case string(RowFormatRedundant), string(RowFormatCompact), string(RowFormatDynamic), string(RowFormatCompressed):
	default:
		return fmt.Errorf("config: unsupported store.row_format %q", c.Store.RowFormat)
	}
	c.Store.RowFormat = RowFormat(strings.ToLower(string(c.Store.RowFormat)))
	return nil
}
