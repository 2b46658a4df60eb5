package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"carprice/internal/scraper"
	"carprice/internal/store"
)

func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Fetch listing pages and store the records.",
		Long: `Walks the configured makes and result pages on the listing site,
parses every announcement block and stores the records. Previously seen
ad ids are skipped, so repeated runs accumulate new listings only.`,
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

			fetcher, err := scraper.NewCollyFetcher(cfg.Scraper, logger)
			if err != nil {
				return err
			}
			retry := scraper.NewExponentialRetryPolicy(
				cfg.Scraper.MaxRetries,
				time.Duration(cfg.Scraper.BackoffInitialMs)*time.Millisecond,
				time.Duration(cfg.Scraper.BackoffMaxMs)*time.Millisecond,
			)
			runner := scraper.NewRunner(
				cfg.Scraper,
				fetcher,
				scraper.NewAutopliusParser(logger),
				db,
				retry,
				logger,
			)

			stats, err := runner.Run(ctx)
			if err != nil {
				return err
			}
			logger.Info("Scrape complete",
				zap.Int("inserted", stats.Inserted),
				zap.Int("duplicates", stats.Duplicates),
				zap.Int("pages_failed", stats.PagesFailed),
			)
			return nil
		},
	}
}
