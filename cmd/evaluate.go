package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"carprice/internal/artifact"
	"carprice/internal/store"
	"carprice/internal/train"
)

func newEvaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate",
		Short: "Score the trained model on a held-out split.",
		Long: `Reloads the trained artifact, rebuilds the same train/test split the
model was fitted with and prints mean absolute error, R-squared and the
best and worst predictions on the held-out rows.`,
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
			report, err := train.Evaluate(ctx, db, blobs, name, logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.String())
			return nil
		},
	}
}
