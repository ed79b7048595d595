package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dictengine/ddl"
	"dictengine/ddlsql"
	"dictengine/dict"
)

type createIndexFlags struct {
	tableSQL string
	name     string
	columns  string
	unique   bool
}

// createIndexCmd adds a secondary index to a table described by
// --table-sql, driving it through ddl.RunIndexCreate. dictctl has no
// catalog-tuple reader, so --table-sql re-describes the table's current
// CREATE TABLE shape on every invocation rather than reading it back from
// the store; a long-lived server process would instead keep the dict.Table
// resident in its dictionary cache.
func createIndexCmd(global *globalFlags) *cobra.Command {
	flags := &createIndexFlags{}
	cmd := &cobra.Command{
		Use:   "create-index",
		Short: "Add a secondary index to an existing table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.tableSQL == "" {
				return fmt.Errorf("dictctl: --table-sql is required")
			}
			if flags.columns == "" {
				return fmt.Errorf("dictctl: --columns is required")
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
			table, _, err := parser.ParseCreateTable(flags.tableSQL)
			if err != nil {
				return fmt.Errorf("dictctl: parsing --table-sql: %w", err)
			}

			if err := resolveTable(ctx, s, table); err != nil {
				return err
			}

			idx, err := buildIndexFromFlags(table, flags)
			if err != nil {
				return err
			}

			node := ddl.NewIndexCreateNode(table, idx, 0)
			if err := ddl.RunIndexCreate(ctx, s, node); err != nil {
				return fmt.Errorf("dictctl: creating index %s: %w", idx.Name, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created index %s on %s (id=%d, %d field(s))\n",
				idx.Name, table.Name, idx.ID, len(idx.Fields))
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.tableSQL, "table-sql", "", "CREATE TABLE statement describing the target table's current shape")
	cmd.Flags().StringVar(&flags.name, "name", "", "Index name (defaults to the joined column names)")
	cmd.Flags().StringVar(&flags.columns, "columns", "", "Comma-separated column names")
	cmd.Flags().BoolVar(&flags.unique, "unique", false, "Create a UNIQUE index")
	return cmd
}

func buildIndexFromFlags(table *dict.Table, flags *createIndexFlags) (*dict.Index, error) {
	names := strings.Split(flags.columns, ",")
	fields := make([]*dict.Field, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		col := findColumn(table, name)
		if col == nil {
			return nil, fmt.Errorf("dictctl: column %q not found on table %s", name, table.Name)
		}
		fields = append(fields, &dict.Field{Col: dict.ColumnRef{Live: col}, Name: col.Name})
		seen[name] = true
	}

	nUniq := len(fields)
	if !flags.unique {
		clustered := table.Clustered()
		for _, f := range clustered.Fields[:clustered.NUniq] {
			col := f.Col.Column()
			if col == nil || seen[col.Name] {
				continue
			}
			fields = append(fields, &dict.Field{Col: dict.ColumnRef{Live: col}, Name: col.Name})
		}
		nUniq = len(fields)
	}

	typ := dict.IndexType(0)
	if flags.unique {
		typ |= dict.IndexUnique
	}

	name := flags.name
	if name == "" {
		name = strings.Join(names, "_")
	}

	idx := &dict.Index{
		Name:   name,
		Type:   typ,
		Table:  table,
		NUniq:  nUniq,
		Fields: fields,
	}
	idx.NDef = len(idx.Fields)
	table.Indexes = append(table.Indexes, idx)
	return idx, nil
}

func findColumn(table *dict.Table, name string) *dict.Col {
	for _, col := range table.Cols {
		if col.Name == name {
			return col
		}
	}
	return nil
}
