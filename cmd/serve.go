package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"carprice/internal/api"
	"carprice/internal/artifact"
	"carprice/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the price prediction web form.",
		Long: `Starts the HTTP server with the prediction form, a health endpoint
and Prometheus metrics. The model artifact is reloaded per request, so a
retrain is picked up without a restart. Shuts down cleanly on SIGINT or
SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

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

			srv := api.NewServer(db, blobs, name, logger)
			logger.Info("Starting server", zap.Int("port", cfg.Server.Port))
			return srv.ListenAndServe(ctx, cfg.Server)
		},
	}
}
