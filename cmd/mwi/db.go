package main

import (
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "database administration",
}

var dbSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "create or migrate the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		// store.Open already created the schema and applied pending
		// migrations during PersistentPreRunE; nothing further to do.
		reportSummary(1, 0)
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbSetupCmd)
}
