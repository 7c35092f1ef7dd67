package cmd

import (
	"github.com/spf13/cobra"

	"github.com/youruser/certapp/internal/records"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate up|down",
	Short:     "Apply or roll back the database schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(records.Up), string(records.Down)},
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		return records.Migrate(db, records.Direction(args[0]))
	},
}
