package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/duongtruongbinh/life-os/cmd/configure/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "life-os-configure",
		Short:        "Administration tool for the Life OS API",
		Long:         "Apply the schema, inspect users, check the identity provider and trigger streak rollups",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewRollupCmd())
	rootCmd.AddCommand(commands.NewOIDCCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
