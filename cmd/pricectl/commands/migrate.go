package commands

import (
	"github.com/spf13/cobra"

	"github.com/baxromumarov/price-scraper/internal/store"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Applies the embedded schema to the configured database.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(cmd.Context()); err != nil {
			return err
		}
		logger.Info("migrations executed successfully", "dialect", db.Dialect())
		return nil
	},
}
