package train

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"carprice/internal/artifact"
	"carprice/internal/dataset"
)

// Report carries the held-out scores of one evaluation run.
type Report struct {
	Rows    int
	MAE     float64
	R2      float64
	Best    []Prediction
	Worst   []Prediction
	AllRows bool // true when the split left no held-out rows and scoring fell back to every row
}

// Prediction pairs an actual price with the model's estimate.
type Prediction struct {
	Actual    float64
	Predicted float64
	AbsError  float64
}

const reportTopN = 10

// Evaluate reloads the artifact, re-derives the held-out split with the
// artifact's own encoding, seed and ratio, and scores the estimator.
// It is read-only: no storage or artifact state changes.
func Evaluate(
	ctx context.Context,
	source ListingSource,
	store artifact.Store,
	name string,
	logger *zap.Logger,
) (*Report, error) {
	art, err := artifact.Load(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("load artifact: %w", err)
	}

	rows, err := source.AllListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("read listings: %w", err)
	}
	features, target, err := dataset.BuildWithEncoding(rows, art.Encoding)
	if err != nil {
		return nil, fmt.Errorf("build dataset: %w", err)
	}

	nRows, _ := features.Dims()
	_, testIdx := Split(nRows, art.TestSize, art.Seed)
	testX, testY := subset(features, target, testIdx)

	report := &Report{Rows: len(testIdx)}
	if testX == nil {
		// Too few rows for a held-out set; score everything rather than fail.
		testX, testY = features, target
		report.Rows = nRows
		report.AllRows = true
		logger.Warn("Held-out split is empty, scoring on all rows", zap.Int("rows", nRows))
	}

	preds := make([]Prediction, len(testY))
	for i := range testY {
		est, err := art.Model.Predict(rowOf(testX, i))
		if err != nil {
			return nil, fmt.Errorf("predict row %d: %w", i, err)
		}
		preds[i] = Prediction{
			Actual:    testY[i],
			Predicted: est,
			AbsError:  math.Abs(testY[i] - est),
		}
	}

	report.MAE = meanAbsError(preds)
	report.R2 = rSquared(preds)
	sort.Slice(preds, func(i, j int) bool { return preds[i].AbsError < preds[j].AbsError })
	report.Best = topN(preds, reportTopN)
	reversed := make([]Prediction, len(preds))
	for i, p := range preds {
		reversed[len(preds)-1-i] = p
	}
	report.Worst = topN(reversed, reportTopN)

	logger.Info("Evaluation finished",
		zap.Int("held_out_rows", report.Rows),
		zap.Float64("mae", report.MAE),
		zap.Float64("r2", report.R2),
	)
	return report, nil
}

// String renders the textual report the evaluate command prints.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Held-out rows: %d", r.Rows)
	if r.AllRows {
		b.WriteString(" (no held-out split available, scored all rows)")
	}
	fmt.Fprintf(&b, "\nMean absolute error: %.2f EUR\n", r.MAE)
	fmt.Fprintf(&b, "R-squared: %.4f\n", r.R2)

	b.WriteString("\nMost accurate predictions:\n")
	writePredictions(&b, r.Best)
	b.WriteString("\nLeast accurate predictions:\n")
	writePredictions(&b, r.Worst)
	return b.String()
}

func writePredictions(b *strings.Builder, preds []Prediction) {
	fmt.Fprintf(b, "%12s %12s %12s\n", "actual", "predicted", "error")
	for _, p := range preds {
		fmt.Fprintf(b, "%12.0f %12.0f %12.0f\n", p.Actual, p.Predicted, p.AbsError)
	}
}

func meanAbsError(preds []Prediction) float64 {
	if len(preds) == 0 {
		return 0
	}
	var sum float64
	for _, p := range preds {
		sum += p.AbsError
	}
	return sum / float64(len(preds))
}

// rSquared computes the coefficient of determination. A constant target has
// no variance to explain; in that case a near-perfect fit scores 1 and
// anything else 0.
func rSquared(preds []Prediction) float64 {
	if len(preds) == 0 {
		return 0
	}
	var mean float64
	for _, p := range preds {
		mean += p.Actual
	}
	mean /= float64(len(preds))

	var ssRes, ssTot float64
	for _, p := range preds {
		ssRes += (p.Actual - p.Predicted) * (p.Actual - p.Predicted)
		ssTot += (p.Actual - mean) * (p.Actual - mean)
	}
	if ssTot == 0 {
		if ssRes < 1e-9 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

func topN(preds []Prediction, n int) []Prediction {
	if len(preds) < n {
		n = len(preds)
	}
	return append([]Prediction(nil), preds[:n]...)
}

func rowOf(m *mat.Dense, i int) []float64 {
	return mat.Row(nil, i, m)
}
