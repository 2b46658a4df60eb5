package cmd

import (
	"github.com/spf13/cobra"

	"carprice/internal/artifact"
	"carprice/internal/store"
	"carprice/internal/train"
)

func newTrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Fit the price model and write the artifact.",
		Long: `Reads every complete listing from the database, one-hot encodes the
categorical columns, fits a linear regression on the training split and
writes the model artifact to the configured path.`,
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

			dir, name := artifactLocation(cfg.Train.ArtifactPath)
			blobs, err := artifact.NewLocalStore(dir)
			if err != nil {
				return err
			}
			return train.Run(ctx, db, blobs, name, cfg.Train, logger)
		},
	}
}
