package cmd

import (
	"github.com/spf13/cobra"

	"billing-backend/database"
	"billing-backend/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Connect(cfg); err != nil {
			return err
		}
		if err := database.Migrate(database.DB); err != nil {
			return err
		}
		log := logger.WithComponent("migrate")
		log.Info().Str("driver", cfg.DBDriver).Msg("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
