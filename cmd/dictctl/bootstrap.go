package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dictengine/bootstrap"
)

// bootstrapCmd ensures the fixed SYS_FOREIGN/SYS_FOREIGN_COLS/SYS_VIRTUAL
// catalog tables exist, creating whichever are missing.
func bootstrapCmd(global *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Ensure the fixed catalog tables exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			results, err := bootstrap.Ensure(ctx, s)
			if err != nil {
				return fmt.Errorf("dictctl: bootstrap failed: %w", err)
			}
			for _, r := range results {
				state := "pinned (pre-existing)"
				if r.Created {
					state = "created"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", r.Table, state)
			}
			return nil
		},
	}
	return cmd
}
