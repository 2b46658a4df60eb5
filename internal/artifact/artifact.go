// Package artifact defines the serialized model artifact: the fitted
// estimator together with the categorical encoding that produced its
// features. The two travel as one blob so the evaluator and the prediction
// UI can never pair a model with the wrong mapping.
package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carprice/internal/dataset"
	"carprice/internal/regress"
)

// Artifact is written wholesale by a training run and read wholesale by the
// evaluator and the UI. It is never mutated in place.
type Artifact struct {
	Model          regress.Model    `json:"model"`
	Encoding       dataset.Encoding `json:"encoding"`
	FeatureColumns []string         `json:"feature_columns"`
	TestSize       float64          `json:"test_size"`
	Seed           int64            `json:"seed"`
	TrainedAt      time.Time        `json:"trained_at"`
}

// Save serializes the artifact and writes it through the store, overwriting
// any prior artifact at that name.
func (a *Artifact) Save(ctx context.Context, store Store, name string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("write artifact %s: %w", name, err)
	}
	return nil
}

// Load reads an artifact back. A missing blob surfaces ErrNotFound from the
// store; unparsable content is reported as corrupt.
func Load(ctx context.Context, store Store, name string) (*Artifact, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("artifact %s is corrupt: %w", name, err)
	}
	if len(a.Model.Coefficients) != len(a.FeatureColumns) {
		return nil, fmt.Errorf("artifact %s is corrupt: %d coefficients for %d feature columns",
			name, len(a.Model.Coefficients), len(a.FeatureColumns))
	}
	return &a, nil
}
