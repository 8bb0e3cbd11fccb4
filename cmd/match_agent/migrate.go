package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the store schema",
	Long:  "Applies the schema for the configured store driver. Safe to run repeatedly.",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s)\n", rt.cfg.Store.Driver)
	return nil
}
