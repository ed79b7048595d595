// Package main contains the dictctl CLI, which drives the catalog and
// instant-ALTER engine against either an in-memory store or a real
// MySQL-compatible server, using cobra for command dispatch with one
// subcommand per operation.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/go-sql-driver/mysql"

	"dictengine/config"
	"dictengine/store"
	"dictengine/store/memstore"
	"dictengine/store/sqlstore"
)

// globalFlags are shared across every subcommand.
type globalFlags struct {
	configPath string
	dsn        string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the dictctl command tree. Split out from main so tests
// can drive it with SetArgs/SetOut without touching os.Exit.
func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "dictctl",
		Short: "Data-dictionary and instant-ALTER engine driver",
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", config.DefaultFile, "Path to .dictengine.toml")
	rootCmd.PersistentFlags().StringVar(&flags.dsn, "dsn", "", "MySQL DSN; omit to use the in-memory store")

	rootCmd.AddCommand(createTableCmd(flags))
	rootCmd.AddCommand(createIndexCmd(flags))
	rootCmd.AddCommand(alterInstantCmd(flags))
	rootCmd.AddCommand(bootstrapCmd(flags))
	rootCmd.AddCommand(inspectCmd())
	return rootCmd
}

// openStore resolves the backing store.Store for a subcommand invocation:
// a fresh memstore.Store when --dsn is empty, or a sqlstore.Store (schema
// created if missing) against flags.dsn otherwise. The returned closer must
// be called once the caller is done.
func openStore(ctx context.Context, flags *globalFlags, cfg *config.Config) (store.Store, func() error, error) {
	dsn := flags.dsn
	if dsn == "" {
		dsn = cfg.DSN
	}
	if dsn == "" {
		s := memstore.New()
		return s, func() error { return nil }, nil
	}

	s, err := sqlstore.Open(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("dictctl: connecting to store: %w", err)
	}
	if err := s.CreateSchema(ctx); err != nil {
		_ = s.Close()
		return nil, nil, fmt.Errorf("dictctl: creating schema: %w", err)
	}
	return s, s.Close, nil
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("dictctl: loading config: %w", err)
	}
	return cfg, nil
}
