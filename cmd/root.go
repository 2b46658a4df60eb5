// Package cmd defines and implements the CLI commands for the carprice executable.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"carprice/internal/config"
	"carprice/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "carprice",
		Short: "A car listing price prediction pipeline.",
		Long: `carprice is a small end-to-end pipeline: it scrapes used car
listings into a local sqlite database, trains a linear regression model to
predict asking prices, and serves predictions through a web form.

The steps run independently and in order:

  carprice init      create the database schema
  carprice scrape    fetch listing pages and store the records
  carprice train     fit the price model and write the artifact
  carprice evaluate  score the model on a held-out split
  carprice serve     serve the prediction form`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus CARPRICE_* env vars)")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newTrainCmd())
	cmd.AddCommand(newEvaluateCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger every command shares.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// artifactLocation splits the configured artifact path into the directory the
// blob store is rooted at and the blob name inside it.
func artifactLocation(path string) (dir, name string) {
	dir, name = filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	return dir, name
}
