package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dictengine/ddl"
	"dictengine/ddlsql"
	"dictengine/fkey"
)

type createTableFlags struct {
	sql           string
	ownTablespace bool
	systemSpaceID uint32
}

// createTableCmd installs a new table (and any foreign keys its CREATE
// TABLE statement names) via ddl.RunTableCreate/fkey.Install.
// bootstrap.Ensure uses the same ddl.RunTableCreate driver.
func createTableCmd(global *globalFlags) *cobra.Command {
	flags := &createTableFlags{}
	cmd := &cobra.Command{
		Use:   "create-table",
		Short: "Create a table from a CREATE TABLE statement",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.sql == "" {
				return fmt.Errorf("dictctl: --sql is required")
			}
			ctx := cmd.Context()

			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			s, closeStore, err := openStore(ctx, global, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			parser := ddlsql.NewParser()
			table, foreigns, err := parser.ParseCreateTable(flags.sql)
			if err != nil {
				return fmt.Errorf("dictctl: parsing CREATE TABLE: %w", err)
			}

			node := ddl.NewTableCreateNode(table, flags.ownTablespace, flags.systemSpaceID)
			if err := ddl.RunTableCreate(ctx, s, node); err != nil {
				return fmt.Errorf("dictctl: creating table %s: %w", table.Name, err)
			}

			clustered := table.Clustered()
			if clustered != nil {
				ixNode := ddl.NewIndexCreateNode(table, clustered, 0)
				if err := ddl.RunIndexCreate(ctx, s, ixNode); err != nil {
					return fmt.Errorf("dictctl: creating clustered index for %s: %w", table.Name, err)
				}
			}
			for _, ix := range table.Indexes {
				if ix == clustered {
					continue
				}
				ixNode := ddl.NewIndexCreateNode(table, ix, 0)
				if err := ddl.RunIndexCreate(ctx, s, ixNode); err != nil {
					return fmt.Errorf("dictctl: creating index %s on %s: %w", ix.Name, table.Name, err)
				}
			}

			for _, fk := range foreigns {
				if err := fkey.Install(ctx, s, table, fk); err != nil {
					return fmt.Errorf("dictctl: installing foreign key %s: %w", fk.ID, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created table %s (id=%d, %d index(es), %d foreign key(s))\n",
				table.Name, table.ID, len(table.Indexes), len(foreigns))
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.sql, "sql", "", "CREATE TABLE statement")
	cmd.Flags().BoolVar(&flags.ownTablespace, "own-tablespace", true, "Allocate a file-per-table tablespace instead of using the system space")
	cmd.Flags().Uint32Var(&flags.systemSpaceID, "system-space-id", 0, "Space id to use when --own-tablespace=false")
	return cmd
}
