package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dictengine/ddlsql"
	"dictengine/dict"
)

type inspectFlags struct {
	sql string
}

// inspectCmd parses a CREATE TABLE statement and prints the dict.Table
// shape the rest of dictctl would build from it, without touching any
// store. Useful for checking how ddlsql resolved column types, the
// clustered key, and any secondary indexes or foreign keys before actually
// running create-table.
func inspectCmd() *cobra.Command {
	flags := &inspectFlags{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the table shape ddlsql would build from a CREATE TABLE statement",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.sql == "" {
				return fmt.Errorf("dictctl: --sql is required")
			}
			parser := ddlsql.NewParser()
			table, foreigns, err := parser.ParseCreateTable(flags.sql)
			if err != nil {
				return fmt.Errorf("dictctl: parsing CREATE TABLE: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "table %s (flags=%#x, cols=%d, vcols=%d)\n", table.Name, table.Flags, table.NCols, table.NVCols)
			for _, col := range table.Cols {
				fmt.Fprintf(out, "  col %-20s mtype=%d len=%d not_null=%t\n", col.Name, col.MType, col.Len, col.NotNull())
			}
			for _, ix := range table.Indexes {
				kind := "secondary"
				if ix.IsClustered() {
					kind = "clustered"
				}
				unique := ix.IsClustered() || ix.Type&dict.IndexUnique != 0
				fmt.Fprintf(out, "  index %-20s %-9s unique=%t fields=%d\n", ix.Name, kind, unique, ix.NFields())
			}
			for _, fk := range foreigns {
				fmt.Fprintf(out, "  foreign key %s -> %s (%d column(s))\n", fk.ID, fk.ReferencedTableName, fk.NFields())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.sql, "sql", "", "CREATE TABLE statement")
	return cmd
}
