package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			applied, err := db.Migrate(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "Schema is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(out, "Applied %s\n", name)
			}
			return nil
		},
	}
}
