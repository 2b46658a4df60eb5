package train

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"carprice/internal/artifact"
	"carprice/internal/config"
	"carprice/internal/dataset"
	"carprice/internal/listing"
	"carprice/internal/regress"
)

// ListingSource is the slice of the listing store the trainer reads from.
type ListingSource interface {
	AllListings(ctx context.Context) ([]listing.Listing, error)
}

// Run builds the dataset, fits the estimator on the training portion of a
// deterministic split, and writes the artifact, overwriting any prior one.
func Run(
	ctx context.Context,
	source ListingSource,
	store artifact.Store,
	name string,
	cfg config.TrainConfig,
	logger *zap.Logger,
) error {
	rows, err := source.AllListings(ctx)
	if err != nil {
		return fmt.Errorf("read listings: %w", err)
	}

	features, target, enc, err := dataset.Build(rows)
	if err != nil {
		return fmt.Errorf("build dataset: %w", err)
	}
	nRows, nCols := features.Dims()
	logger.Info("Dataset built",
		zap.Int("rows", nRows),
		zap.Int("feature_columns", nCols),
		zap.Int("stored_listings", len(rows)),
	)

	trainIdx, testIdx := Split(nRows, cfg.TestSize, cfg.Seed)
	trainX, trainY := subset(features, target, trainIdx)
	if trainX == nil {
		return fmt.Errorf("split left no training rows (%d total, test_size %.2f)", nRows, cfg.TestSize)
	}
	logger.Info("Split dataset",
		zap.Int("train_rows", len(trainIdx)),
		zap.Int("test_rows", len(testIdx)),
	)

	model, err := regress.Fit(trainX, trainY)
	if err != nil {
		return fmt.Errorf("fit model: %w", err)
	}

	art := artifact.Artifact{
		Model:          *model,
		Encoding:       enc,
		FeatureColumns: enc.FeatureNames(),
		TestSize:       cfg.TestSize,
		Seed:           cfg.Seed,
		TrainedAt:      time.Now().UTC(),
	}
	if err := art.Save(ctx, store, name); err != nil {
		return err
	}
	logger.Info("Model trained and saved", zap.String("artifact", name))
	return nil
}
