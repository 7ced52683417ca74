package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duongtruongbinh/life-os/internal/database"
)

// NewUsersCmd creates the users command
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every user that has signed in",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			users, err := database.NewUserRepository(db).List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users")
				return nil
			}
			for _, u := range users {
				fmt.Fprintf(out, "%s  %-30s  subject=%s  last_seen=%s\n",
					u.ID, u.Email, u.Subject, u.LastSeenAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	})
	return cmd
}
