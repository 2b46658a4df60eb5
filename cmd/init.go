package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"carprice/internal/store"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the listings database schema.",
		Long: `Creates the sqlite database file and the listings table if they do
not already exist. Safe to run repeatedly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			db, err := store.Open(ctx, cfg.DB.Path, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return err
			}
			logger.Info("database ready", zap.String("path", cfg.DB.Path))
			return nil
		},
	}
}
